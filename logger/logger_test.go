package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeJSON(t *testing.T) {
	err := Initialize(true)
	require.NoError(t, err)
	require.NotNil(t, Logger)
	assert.True(t, JSONOutput)

	// Should not panic
	Infow("test message", "key", "value")
	Cleanup()
}

func TestInitializeConsole(t *testing.T) {
	err := Initialize(false)
	require.NoError(t, err)
	require.NotNil(t, Logger)
	assert.False(t, JSONOutput)
}

func TestNewDoesNotTouchDefault(t *testing.T) {
	before := Logger
	l, err := New(true)
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Same(t, before, Logger)
}

func TestPackageHelpersBeforeInitialize(t *testing.T) {
	// The init() no-op logger must absorb these without panicking.
	Infow("info")
	Warnw("warn")
	Errorw("error")
	Debugw("debug")
}
