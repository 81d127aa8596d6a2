package oracle

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactorySelection(t *testing.T) {
	f := NewFactory(nil)
	best, err := f.Best()
	require.NoError(t, err)
	assert.Equal(t, SipHashName, best.Name())

	f = NewFactory(&Config{PreferredOrder: []string{Blake2bName}})
	best, err = f.Best()
	require.NoError(t, err)
	assert.Equal(t, Blake2bName, best.Name())
}

func TestFactoryFallback(t *testing.T) {
	f := NewFactory(&Config{PreferredOrder: []string{"hashx"}, EnableFallback: true})
	best, err := f.Best()
	require.NoError(t, err)
	assert.Equal(t, SipHashName, best.Name())

	f = NewFactory(&Config{PreferredOrder: []string{"hashx"}})
	_, err = f.Best()
	assert.True(t, errors.Is(err, ErrNoMethod))
}

func TestFactoryRegisterAndReport(t *testing.T) {
	broken := NewFixed("replay", nil)
	f := NewFactory(&Config{PreferredOrder: []string{"replay", Blake2bName}}, broken)

	best, err := f.Best()
	require.NoError(t, err)
	assert.Equal(t, Blake2bName, best.Name(), "unavailable methods are skipped")

	_, err = f.Get("replay")
	assert.Error(t, err)
	_, err = f.Get("nope")
	assert.Error(t, err)
	m, err := f.Get(SipHashName)
	require.NoError(t, err)
	assert.Equal(t, SipHashName, m.Name())

	report := f.Report()
	assert.Equal(t, 3, report.TotalMethods)
	assert.Equal(t, 2, report.AvailableCount)
	assert.Equal(t, Blake2bName, report.BestMethod)
	require.Len(t, report.Methods, 3)
	assert.Equal(t, "replay", report.Methods[0].Name)
	assert.Equal(t, Blake2bName, report.Methods[1].Name)
	assert.Equal(t, SipHashName, report.Methods[2].Name)
	assert.Equal(t, 999, report.Methods[2].Priority)
	assert.Equal(t, []string{SipHashName, Blake2bName, "replay"}, f.Names())
}
