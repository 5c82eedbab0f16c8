package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPath string            // hcl file or directory, optional
	Directives []string          // appended after the configured batch
	Vars       map[string]string // exposed to the config as var.<name>

	Parallel bool
	// Workers overrides the configured parallel worker bound when positive.
	Workers int

	LogFormat string
	LogLevel  string
	LogFile   string // optional, logs are also appended here
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.ConfigPath == "" && len(cfg.Directives) == 0 {
		return nil, errors.New("either a config path or at least one directive is required")
	}

	if cfg.Workers < 0 {
		return nil, fmt.Errorf("invalid worker count %d: must be zero or positive", cfg.Workers)
	}

	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	switch cfg.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}

	return &cfg, nil
}
