package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelError, ParseLogLevel("error"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel(" WARN "))
	assert.Equal(t, LogLevelDebug, ParseLogLevel("DEBUG"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel(""))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("verbose"))
}

func TestLoggerFormatsThroughZap(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := NewLoggerWithZap(zap.New(core), LogLevelDebug).With("component", "test")

	logger.Warn("skipped %d rows", 3)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "skipped 3 rows", entries[0].Message)
		assert.Equal(t, "test", entries[0].ContextMap()["component"])
	}
}
