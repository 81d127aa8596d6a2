package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"equix/pkg/oracle"
)

// Config is the complete runtime configuration of the equix binaries
type Config struct {
	Seed   string         `yaml:"seed"`
	Miner  MinerConfig    `yaml:"miner"`
	Oracle *oracle.Config `yaml:"oracle"`
	Server ServerConfig   `yaml:"server"`
	Log    LogConfig      `yaml:"log"`
}

type MinerConfig struct {
	Workers       int           `yaml:"workers"`
	BatchSize     uint64        `yaml:"batch_size"`
	StartNonce    uint64        `yaml:"start_nonce"`
	MaxNonces     uint64        `yaml:"max_nonces"`
	MinDifficulty uint32        `yaml:"min_difficulty"`
	Timeout       time.Duration `yaml:"timeout"`
}

type ServerConfig struct {
	Listen        string        `yaml:"listen"`
	GRPCListen    string        `yaml:"grpc_listen"`
	ReplayCache   int           `yaml:"replay_cache"`
	MinDifficulty uint32        `yaml:"min_difficulty"`
	ChallengeTTL  time.Duration `yaml:"challenge_ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Miner: MinerConfig{
			BatchSize: 16,
		},
		Oracle: oracle.DefaultConfig(),
		Server: ServerConfig{
			Listen:       ":8080",
			GRPCListen:   ":9090",
			ReplayCache:  4096,
			ChallengeTTL: 5 * time.Minute,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config file on top of the defaults. A missing file is not
// an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	if cfg.Oracle == nil {
		cfg.Oracle = oracle.DefaultConfig()
	}
	return cfg, nil
}

// Save writes the configuration as YAML
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap(err, "create config directory")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "encode config")
	}
	return os.WriteFile(path, data, 0644)
}

// Find returns the first existing file from Paths, or "" when none exists
func Find() string {
	for _, p := range Paths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Paths returns the config file search list
func Paths() []string {
	homeDir, _ := os.UserHomeDir()
	return []string{
		"./equix.yaml",
		filepath.Join(homeDir, ".equix", "config.yaml"),
		"/etc/equix/config.yaml",
	}
}

// Validate rejects settings the miner or server cannot run with
func (c *Config) Validate() error {
	if c.Miner.Workers < 0 {
		return errors.Errorf("miner.workers must not be negative, got %d", c.Miner.Workers)
	}
	if c.Miner.BatchSize == 0 {
		return errors.New("miner.batch_size must be positive")
	}
	if c.Miner.MinDifficulty > 256 {
		return errors.Errorf("miner.min_difficulty must be at most 256, got %d", c.Miner.MinDifficulty)
	}
	if c.Server.MinDifficulty > 256 {
		return errors.Errorf("server.min_difficulty must be at most 256, got %d", c.Server.MinDifficulty)
	}
	if c.Server.ReplayCache <= 0 {
		return errors.New("server.replay_cache must be positive")
	}
	if c.Oracle == nil || len(c.Oracle.PreferredOrder) == 0 {
		return errors.New("oracle.preferred_order must name at least one method")
	}
	if c.Seed != "" {
		s := strings.TrimPrefix(c.Seed, "0x")
		if len(s) != 64 {
			return errors.Errorf("seed must be 64 hex characters, got %d", len(s))
		}
	}
	return nil
}

// envPrefix is prepended to every variable ApplyEnv reads
const envPrefix = "EQUIX_"

// ApplyEnv overrides fields from EQUIX_* variables using lookup
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	var firstErr error
	num := func(key string, bitSize int, set func(uint64)) {
		v, ok := lookup(envPrefix + key)
		if !ok || v == "" {
			return
		}
		n, err := strconv.ParseUint(v, 10, bitSize)
		if err != nil {
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "%s%s", envPrefix, key)
			}
			return
		}
		set(n)
	}
	dur := func(key string, dst *time.Duration) {
		v, ok := lookup(envPrefix + key)
		if !ok || v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			if firstErr == nil {
				firstErr = errors.Wrapf(err, "%s%s", envPrefix, key)
			}
			return
		}
		*dst = d
	}

	str("SEED", &c.Seed)
	num("WORKERS", 16, func(n uint64) { c.Miner.Workers = int(n) })
	num("BATCH_SIZE", 64, func(n uint64) { c.Miner.BatchSize = n })
	num("START_NONCE", 64, func(n uint64) { c.Miner.StartNonce = n })
	num("MAX_NONCES", 64, func(n uint64) { c.Miner.MaxNonces = n })
	num("MIN_DIFFICULTY", 32, func(n uint64) { c.Miner.MinDifficulty = uint32(n) })
	dur("TIMEOUT", &c.Miner.Timeout)
	str("LISTEN", &c.Server.Listen)
	str("GRPC_LISTEN", &c.Server.GRPCListen)
	num("SERVER_MIN_DIFFICULTY", 32, func(n uint64) { c.Server.MinDifficulty = uint32(n) })
	num("REPLAY_CACHE", 31, func(n uint64) { c.Server.ReplayCache = int(n) })
	dur("CHALLENGE_TTL", &c.Server.ChallengeTTL)
	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
	str("LOG_FILE", &c.Log.File)
	if v, ok := lookup(envPrefix + "ORACLE"); ok && v != "" {
		if c.Oracle == nil {
			c.Oracle = oracle.DefaultConfig()
		}
		c.Oracle.PreferredOrder = strings.Split(v, ",")
	}
	return firstErr
}
