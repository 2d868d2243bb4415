package logger

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestSetup_Level(t *testing.T) {
	Setup("warn", false)
	assert.Equal(t, zerolog.WarnLevel, Log.GetLevel())

	Setup("not-a-level", true)
	assert.Equal(t, zerolog.InfoLevel, Log.GetLevel())

	Setup("", false)
	assert.Equal(t, zerolog.InfoLevel, Log.GetLevel())
}
