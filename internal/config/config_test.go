package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_GetLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		expected slog.Level
	}{
		{name: "DEBUG level", logLevel: "DEBUG", expected: slog.LevelDebug},
		{name: "INFO level", logLevel: "INFO", expected: slog.LevelInfo},
		{name: "WARN level", logLevel: "WARN", expected: slog.LevelWarn},
		{name: "ERROR level", logLevel: "ERROR", expected: slog.LevelError},
		{name: "invalid level defaults to INFO", logLevel: "INVALID", expected: slog.LevelInfo},
		{name: "empty string defaults to INFO", logLevel: "", expected: slog.LevelInfo},
		{name: "lowercase level", logLevel: "debug", expected: slog.LevelDebug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{LogLevel: tt.logLevel}
			assert.Equal(t, tt.expected, cfg.GetLogLevel())
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CONNECTOR_PROJECT", "acme-prod")
	t.Setenv("CONNECTOR_ORG_ID", "123456789012")
	t.Setenv("HOME", t.TempDir()) // avoid picking up a real config file

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "acme-prod", cfg.Project)
	assert.Equal(t, "123456789012", cfg.OrgID)
}

func TestLoad_RejectsNonNumericOrgID(t *testing.T) {
	t.Setenv("CONNECTOR_ORG_ID", "not-a-number")
	t.Setenv("HOME", t.TempDir())

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestLoad_MissingConfigFileIsFine(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CONNECTOR_PROJECT", "")
	t.Setenv("CONNECTOR_ORG_ID", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Project)
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("CONNECTOR_PROJECT", "")
	t.Setenv("CONNECTOR_ORG_ID", "")

	saved := &Config{Project: "acme-dev", OrgID: "987654321098", LogLevel: "DEBUG"}
	require.NoError(t, Save(saved))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "acme-dev", cfg.Project)
	assert.Equal(t, "987654321098", cfg.OrgID)
	assert.Equal(t, slog.LevelDebug, cfg.GetLogLevel())
}
