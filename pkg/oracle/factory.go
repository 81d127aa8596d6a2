package oracle

import (
	"sort"

	"github.com/pkg/errors"
)

// Config controls which oracle method the factory selects
type Config struct {
	// Preferred method order (highest priority first)
	PreferredOrder []string `yaml:"preferred_order" json:"preferred_order"`

	// Allow falling back to any available method when none of the
	// preferred ones is registered or available
	EnableFallback bool `yaml:"enable_fallback" json:"enable_fallback"`
}

// DefaultConfig returns the default method preference
func DefaultConfig() *Config {
	return &Config{
		PreferredOrder: []string{
			SipHashName, // 1. fast keyed PRF
			Blake2bName, // 2. keyed BLAKE2b MAC
		},
		EnableFallback: true,
	}
}

// ErrNoMethod is returned when no method satisfies the configuration
var ErrNoMethod = errors.New("no oracle method available")

// Factory registers oracle methods and selects the best one
type Factory struct {
	config  *Config
	methods map[string]Method
	order   []string
	best    Method
}

// NewFactory creates a factory with the built-in methods plus extra
func NewFactory(config *Config, extra ...Method) *Factory {
	if config == nil {
		config = DefaultConfig()
	}

	f := &Factory{
		config:  config,
		methods: make(map[string]Method),
	}
	f.Register(NewSipHash())
	f.Register(NewBlake2b())
	for _, m := range extra {
		f.Register(m)
	}
	return f
}

// Register adds or replaces a method and re-runs selection
func (f *Factory) Register(m Method) {
	if _, exists := f.methods[m.Name()]; !exists {
		f.order = append(f.order, m.Name())
	}
	f.methods[m.Name()] = m
	f.selectBestMethod()
}

// selectBestMethod chooses the best available method based on configuration
func (f *Factory) selectBestMethod() {
	f.best = nil
	for _, name := range f.config.PreferredOrder {
		if method, exists := f.methods[name]; exists && method.IsAvailable() {
			f.best = method
			return
		}
	}

	if !f.config.EnableFallback {
		return
	}
	for _, name := range f.order {
		if method := f.methods[name]; method.IsAvailable() {
			f.best = method
			return
		}
	}
}

// Best returns the selected method
func (f *Factory) Best() (Method, error) {
	if f.best == nil {
		return nil, errors.Wrapf(ErrNoMethod, "preferred %v, fallback %t", f.config.PreferredOrder, f.config.EnableFallback)
	}
	return f.best, nil
}

// Get returns a specific method by name
func (f *Factory) Get(name string) (Method, error) {
	method, exists := f.methods[name]
	if !exists {
		return nil, errors.Wrapf(ErrNoMethod, "unknown method %q", name)
	}
	if !method.IsAvailable() {
		return nil, errors.Wrapf(ErrNoMethod, "method %q is unavailable", name)
	}
	return method, nil
}

// Names returns all registered method names in registration order
func (f *Factory) Names() []string {
	return append([]string(nil), f.order...)
}

// Report returns the status of every registered method
func (f *Factory) Report() *Report {
	report := &Report{
		Methods:      make([]*MethodStatus, 0, len(f.methods)),
		BestMethod:   "none",
		TotalMethods: len(f.methods),
	}

	for _, name := range f.order {
		method := f.methods[name]
		status := &MethodStatus{
			Name:         name,
			Available:    method.IsAvailable(),
			Priority:     f.priority(name),
			Capabilities: method.Capabilities(),
			Description:  description(name),
		}
		report.Methods = append(report.Methods, status)
		if status.Available {
			report.AvailableCount++
		}
	}
	SortMethodsByPriority(report.Methods)

	if f.best != nil {
		report.BestMethod = f.best.Name()
	}
	return report
}

// priority returns the priority index of a method
func (f *Factory) priority(name string) int {
	for i, preferred := range f.config.PreferredOrder {
		if name == preferred {
			return i
		}
	}
	return 999
}

func description(name string) string {
	descriptions := map[string]string{
		SipHashName: "SipHash-2-4 keyed by BLAKE2b-512 of the challenge",
		Blake2bName: "64-bit BLAKE2b MAC keyed by BLAKE2b-512 of the challenge",
	}
	if desc, exists := descriptions[name]; exists {
		return desc
	}
	return "Custom oracle method"
}

// Report contains the status of all registered methods
type Report struct {
	Methods        []*MethodStatus `json:"methods"`
	BestMethod     string          `json:"best_method"`
	TotalMethods   int             `json:"total_methods"`
	AvailableCount int             `json:"available_count"`
}

// MethodStatus describes a single registered method
type MethodStatus struct {
	Name         string        `json:"name"`
	Available    bool          `json:"available"`
	Priority     int           `json:"priority"`
	Capabilities *Capabilities `json:"capabilities"`
	Description  string        `json:"description"`
}

// SortMethodsByPriority sorts methods by priority, keeping registration order
// for ties
func SortMethodsByPriority(methods []*MethodStatus) {
	sort.SliceStable(methods, func(i, j int) bool {
		return methods[i].Priority < methods[j].Priority
	})
}
