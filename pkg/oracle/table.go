package oracle

import (
	"fmt"

	"equix/pkg/equix"
)

// Table is an oracle backed by a precomputed value for every index
type Table []uint64

// NewTable wraps values as an oracle. values must cover the full index space.
func NewTable(values []uint64) (Table, error) {
	if len(values) != equix.IndexSpace {
		return nil, fmt.Errorf("oracle table needs %d values, got %d", equix.IndexSpace, len(values))
	}
	return Table(values), nil
}

// Precompute evaluates o over the whole index space
func Precompute(o equix.Oracle) Table {
	t := make(Table, equix.IndexSpace)
	for i := range t {
		t[i] = o.Evaluate(uint16(i))
	}
	return t
}

func (t Table) Evaluate(index uint16) uint64 {
	return t[index]
}

// Fixed is a method that returns the same table for every challenge. It is
// meant for fixtures and replaying recorded oracles.
type Fixed struct {
	name  string
	table Table
}

func NewFixed(name string, table Table) *Fixed {
	return &Fixed{name: name, table: table}
}

func (m *Fixed) Name() string {
	return m.name
}

func (m *Fixed) IsAvailable() bool {
	return len(m.table) == equix.IndexSpace
}

func (m *Fixed) Build(challenge equix.Challenge) (equix.Oracle, error) {
	if !m.IsAvailable() {
		return nil, equix.BuildFailed(challenge, fmt.Errorf("table %q is incomplete", m.name))
	}
	return m.table, nil
}

func (m *Fixed) Capabilities() *Capabilities {
	caps := &Capabilities{
		Name:      m.name,
		MayReject: !m.IsAvailable(),
	}
	if !m.IsAvailable() {
		caps.Reason = fmt.Sprintf("table has %d of %d values", len(m.table), equix.IndexSpace)
	}
	return caps
}
