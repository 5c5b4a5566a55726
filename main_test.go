package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLevelUsage(t *testing.T) {
	assert.Equal(t, "log level (trace, debug, info, warn, error, fatal, panic)", logLevelUsage())
}

func TestSetupLogger_Trace(t *testing.T) {
	assert.NoError(t, setupLogger("trace", ""))
	assert.Error(t, setupLogger("verbose", ""))
}
