package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := LoadFrom(map[string]string{})
		require.NoError(t, err)

		assert.Equal(t, "", cfg.Home)
		assert.Equal(t, "warn", cfg.LogLevel)
		assert.False(t, cfg.ColorDisabled())
	})

	t.Run("reads every variable", func(t *testing.T) {
		cfg, err := LoadFrom(map[string]string{
			"CLAUDE_SWITCH_HOME":      "/tmp/sandbox",
			"CLAUDE_SWITCH_LOG_LEVEL": "debug",
			"NO_COLOR":                "1",
		})
		require.NoError(t, err)

		assert.Equal(t, "/tmp/sandbox", cfg.Home)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.True(t, cfg.ColorDisabled())
	})
}

func TestLoadUsesProcessEnvironment(t *testing.T) {
	t.Setenv("CLAUDE_SWITCH_HOME", "/srv/home")
	t.Setenv("CLAUDE_SWITCH_LOG_LEVEL", "error")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/home", cfg.Home)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{" error ", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.raw}
			level, err := cfg.Level()
			require.NoError(t, err)
			assert.Equal(t, tt.want, level)
		})
	}
}

func TestLevelInvalid(t *testing.T) {
	cfg := &Config{LogLevel: "loud"}

	level, err := cfg.Level()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CLAUDE_SWITCH_LOG_LEVEL")
	assert.Equal(t, slog.LevelWarn, level)
}
