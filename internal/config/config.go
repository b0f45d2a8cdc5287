package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is read from the environment once per invocation. Command-line flags
// take precedence over it.
type Config struct {
	Home     string `env:"CLAUDE_SWITCH_HOME"`
	LogLevel string `env:"CLAUDE_SWITCH_LOG_LEVEL" envDefault:"warn"`
	// NoColor follows the no-color.org convention: any non-empty value counts.
	NoColor string `env:"NO_COLOR"`
}

// Load parses Config from the process environment.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}

// LoadFrom parses Config from environ instead of the process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Environment: environ})
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}

// ColorDisabled reports whether NO_COLOR is set.
func (c *Config) ColorDisabled() bool {
	return c.NoColor != ""
}

// Level converts LogLevel to a slog level. Accepted values are debug, info,
// warn and error, case-insensitive.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelWarn, fmt.Errorf("invalid CLAUDE_SWITCH_LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}
