package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rhuss/gemini-go/pkg/debug"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, GEMINI_CONFIG env, ./config.yaml, /etc/gemini/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
		debug.Log("config", "loaded config file", "path", filePath)
	}

	applyEnvOverrides(&cfg)

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	debug.Log("config", "configuration ready", "gemini", cfg.Gemini, "history_backend", cfg.History.Backend)
	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. GEMINI_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/gemini/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("GEMINI_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/gemini/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps GEMINI_* environment variables to config fields.
// Unparseable numeric or duration values are ignored.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.Gemini.Model = v
	}
	if v := os.Getenv("GEMINI_BASE_URL"); v != "" {
		cfg.Gemini.BaseURL = v
	}
	if v := os.Getenv("GEMINI_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Gemini.Timeout = d
		}
	}
	if v := os.Getenv("GEMINI_HISTORY_BACKEND"); v != "" {
		cfg.History.Backend = v
	}
	if v := os.Getenv("GEMINI_HISTORY_SIZE"); v != "" {
		if size, err := strconv.Atoi(v); err == nil {
			cfg.History.MaxSessions = size
		}
	}
	if v := os.Getenv("GEMINI_POSTGRES_DSN"); v != "" {
		cfg.History.Postgres.DSN = v
	}
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// An explicit value always wins over its _file variant.
func resolveFileReferences(cfg *Config) error {
	if cfg.Gemini.APIKeyFile != "" && cfg.Gemini.APIKey == "" {
		val, err := readSecretFile(cfg.Gemini.APIKeyFile)
		if err != nil {
			return fmt.Errorf("gemini.api_key_file: %w", err)
		}
		cfg.Gemini.APIKey = val
	}

	if cfg.History.Postgres.DSNFile != "" && cfg.History.Postgres.DSN == "" {
		val, err := readSecretFile(cfg.History.Postgres.DSNFile)
		if err != nil {
			return fmt.Errorf("history.postgres.dsn_file: %w", err)
		}
		cfg.History.Postgres.DSN = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
