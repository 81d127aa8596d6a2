package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "equix.yaml")
	content := `
miner:
  workers: 3
  min_difficulty: 12
  timeout: 30s
oracle:
  preferred_order: [blake2b]
server:
  listen: 127.0.0.1:9000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Miner.Workers)
	assert.Equal(t, uint32(12), cfg.Miner.MinDifficulty)
	assert.Equal(t, 30*time.Second, cfg.Miner.Timeout)
	assert.Equal(t, uint64(16), cfg.Miner.BatchSize, "unset fields keep defaults")
	assert.Equal(t, []string{"blake2b"}, cfg.Oracle.PreferredOrder)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Listen)
	assert.Equal(t, ":9090", cfg.Server.GRPCListen)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "equix.yaml")
	require.NoError(t, os.WriteFile(path, []byte("miner: ["), 0644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "equix.yaml")
	cfg := Default()
	cfg.Miner.Workers = 7
	require.NoError(t, Save(cfg, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"EQUIX_WORKERS":        "4",
		"EQUIX_MIN_DIFFICULTY": "9",
		"EQUIX_TIMEOUT":        "1m",
		"EQUIX_ORACLE":         "blake2b,siphash",
		"EQUIX_LOG_LEVEL":      "debug",
		"UNRELATED":            "x",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, 4, cfg.Miner.Workers)
	assert.Equal(t, uint32(9), cfg.Miner.MinDifficulty)
	assert.Equal(t, time.Minute, cfg.Miner.Timeout)
	assert.Equal(t, []string{"blake2b", "siphash"}, cfg.Oracle.PreferredOrder)
	assert.Equal(t, "debug", cfg.Log.Level)

	env["EQUIX_MAX_NONCES"] = "lots"
	assert.Error(t, Default().ApplyEnv(lookup))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"negative workers", func(c *Config) { c.Miner.Workers = -1 }},
		{"zero batch", func(c *Config) { c.Miner.BatchSize = 0 }},
		{"difficulty above digest size", func(c *Config) { c.Miner.MinDifficulty = 257 }},
		{"empty replay cache", func(c *Config) { c.Server.ReplayCache = 0 }},
		{"no oracle", func(c *Config) { c.Oracle.PreferredOrder = nil }},
		{"short seed", func(c *Config) { c.Seed = "abcd" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseEnvFile(t *testing.T) {
	values := parseEnvFile(`
# comment
EQUIX_SEED="00ff"
export EQUIX_WORKERS=2
broken line
`)
	assert.Equal(t, map[string]string{
		"EQUIX_SEED":    "00ff",
		"EQUIX_WORKERS": "2",
	}, values)

	missing, err := LoadEnvFile(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}
