package config

import (
	"os"
	"path/filepath"
	"strings"
)

// LoadEnvFile reads KEY=VALUE lines from path. Blank lines and lines starting
// with # are skipped. A missing file yields an empty map.
func LoadEnvFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return parseEnvFile(string(data)), nil
}

func parseEnvFile(content string) map[string]string {
	values := make(map[string]string)
	lines := strings.Split(content, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
		values[key] = value
	}
	return values
}

// Lookup resolves variables from the process environment first and the
// .env file values second
func Lookup(file map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	}
}

// FindProjectRoot returns the directory holding a .env file or go.mod,
// starting at the working directory and walking up.
func FindProjectRoot() string {
	cwd, _ := os.Getwd()
	if _, err := os.Stat(filepath.Join(cwd, ".env")); err == nil {
		return cwd
	}
	for {
		if _, err := os.Stat(filepath.Join(cwd, "go.mod")); err == nil {
			return cwd
		}
		parent := filepath.Dir(cwd)
		if parent == cwd {
			return cwd
		}
		cwd = parent
	}
}

// Resolve loads the config file at path (or the first found on the search
// list when path is empty), then applies .env and environment overrides and
// validates the result.
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = Find()
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	file, err := LoadEnvFile(filepath.Join(FindProjectRoot(), ".env"))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(Lookup(file)); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
