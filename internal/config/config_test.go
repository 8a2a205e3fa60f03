package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_DefaultsWhenUnset(t *testing.T) {
	cfg := Load()
	assert.Equal(t, ":8765", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "python3", cfg.PythonBinary)
	assert.False(t, cfg.OTELEnabled)
}

func TestLoad_ReadsOverrides(t *testing.T) {
	t.Setenv("NOTEBOOKD_LISTEN_ADDR", ":9000")
	t.Setenv("NOTEBOOKD_OTEL_ENABLED", "true")

	cfg := Load()
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.True(t, cfg.OTELEnabled)
}

func TestGetEnvBool_InvalidValueFallsBack(t *testing.T) {
	t.Setenv("NOTEBOOKD_OTEL_ENABLED", "not-a-bool")
	cfg := Load()
	assert.False(t, cfg.OTELEnabled)
}
