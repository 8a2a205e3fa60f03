package logging

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("WARNING"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("bogus"))
}

func TestSetup_ReturnsLoggerAtConfiguredLevel(t *testing.T) {
	log := Setup("error", false)
	assert.Equal(t, zerolog.ErrorLevel, log.GetLevel())
}
