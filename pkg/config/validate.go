package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// All failures are reported together, each with its field path.
func (c *Config) Validate() error {
	var errs []error

	if c.Gemini.APIKey == "" {
		errs = append(errs, fmt.Errorf("gemini.api_key is required (set GEMINI_API_KEY or gemini.api_key_file)"))
	}

	if c.Gemini.BaseURL == "" {
		errs = append(errs, fmt.Errorf("gemini.base_url is required"))
	} else if u, err := url.Parse(c.Gemini.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("gemini.base_url must be an http(s) URL, got %q", c.Gemini.BaseURL))
	}

	if c.Gemini.Model == "" {
		errs = append(errs, fmt.Errorf("gemini.model is required"))
	}

	if c.Gemini.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("gemini.timeout must be > 0, got %s", c.Gemini.Timeout))
	}

	switch c.History.Backend {
	case "memory":
		if c.History.MaxSessions <= 0 {
			errs = append(errs, fmt.Errorf("history.max_sessions must be > 0, got %d", c.History.MaxSessions))
		}
	case "postgres":
		if c.History.Postgres.DSN == "" && c.History.Postgres.DSNFile == "" {
			errs = append(errs, fmt.Errorf("history.postgres.dsn or history.postgres.dsn_file is required when history.backend is \"postgres\""))
		}
	default:
		errs = append(errs, fmt.Errorf("history.backend must be \"memory\" or \"postgres\", got %q", c.History.Backend))
	}

	if c.History.MaxTurns < 0 {
		errs = append(errs, fmt.Errorf("history.max_turns must be >= 0, got %d", c.History.MaxTurns))
	}

	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", c.Observability.Metrics.Path))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json", "":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
