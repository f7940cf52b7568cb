// Package config provides unified configuration for the Gemini client tools.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (GEMINI_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import (
	"fmt"
	"log/slog"
	"time"
)

// Default endpoint and model used when nothing else is configured.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-flash"
)

const redacted = "[REDACTED]"

// Config holds all configuration for the Gemini client tools.
type Config struct {
	Gemini        GeminiConfig        `yaml:"gemini"`
	History       HistoryConfig       `yaml:"history"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// GeminiConfig holds API endpoint and credential settings.
type GeminiConfig struct {
	BaseURL    string        `yaml:"base_url"`     // default: DefaultBaseURL
	APIKey     string        `yaml:"api_key"`      // required
	APIKeyFile string        `yaml:"api_key_file"` // _file variant for api_key
	Model      string        `yaml:"model"`        // default: DefaultModel
	Timeout    time.Duration `yaml:"timeout"`      // default: 120s
}

// String implements fmt.Stringer without exposing the API key.
func (g GeminiConfig) String() string {
	return fmt.Sprintf("GeminiConfig{BaseURL:%s Model:%s Timeout:%s APIKey:%s}",
		g.BaseURL, g.Model, g.Timeout, g.maskedKey())
}

// GoString implements fmt.GoStringer so %#v is redacted too.
func (g GeminiConfig) GoString() string {
	return g.String()
}

// LogValue implements slog.LogValuer.
func (g GeminiConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("base_url", g.BaseURL),
		slog.String("model", g.Model),
		slog.Duration("timeout", g.Timeout),
		slog.String("api_key", g.maskedKey()),
	)
}

func (g GeminiConfig) maskedKey() string {
	if g.APIKey == "" {
		return ""
	}
	return redacted
}

// HistoryConfig holds conversation history storage settings.
type HistoryConfig struct {
	Backend     string         `yaml:"backend"`      // "memory" or "postgres", default: "memory"
	MaxSessions int            `yaml:"max_sessions"` // for memory store, default: 1000
	MaxTurns    int            `yaml:"max_turns"`    // turns replayed per request, 0 = all
	Postgres    PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 10
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: true
}

// LogValue implements slog.LogValuer. The DSN may embed a password.
func (p PostgresConfig) LogValue() slog.Value {
	dsn := ""
	if p.DSN != "" {
		dsn = redacted
	}
	return slog.GroupValue(
		slog.String("dsn", dsn),
		slog.Int("max_conns", int(p.MaxConns)),
		slog.Bool("migrate_on_start", p.MigrateOnStart),
	)
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: false
	Addr    string `yaml:"addr"`    // default: ":9090"
	Path    string `yaml:"path"`    // default: "/metrics"
}

// LoggingConfig holds slog and debug category settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // default: "INFO"
	Format string `yaml:"format"` // "text" or "json", default: "text"
	Debug  string `yaml:"debug"`  // comma-separated debug categories
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Gemini: GeminiConfig{
			BaseURL: DefaultBaseURL,
			Model:   DefaultModel,
			Timeout: 120 * time.Second,
		},
		History: HistoryConfig{
			Backend:     "memory",
			MaxSessions: 1000,
			Postgres: PostgresConfig{
				MaxConns:       10,
				MigrateOnStart: true,
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Addr: ":9090",
				Path: "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}
