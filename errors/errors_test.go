package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSentinelWrapping(t *testing.T) {
	err := Wrap(ErrSchemaInvalid, "missing openapi field")
	require.Error(t, err)

	assert.True(t, Is(err, ErrSchemaInvalid))
	assert.True(t, IsSchemaInvalid(err))
	assert.False(t, IsExtractionError(err))
	assert.Contains(t, err.Error(), "missing openapi field")
}

func TestSentinelsAreDistinct(t *testing.T) {
	assert.False(t, Is(ErrCacheMiss, ErrTimeout))
	assert.False(t, Is(ErrExtractionFailed, ErrServiceUnavailable))
}

func TestIsHelpersNilSafe(t *testing.T) {
	assert.False(t, IsExtractionError(nil))
	assert.False(t, IsSchemaInvalid(nil))
	assert.False(t, IsServiceUnavailable(nil))
}

func TestWrapPreservesChain(t *testing.T) {
	inner := Wrap(ErrServiceUnavailable, "health probe failed")
	outer := Wrapf(inner, "strategy %s", "running-service")

	assert.True(t, IsServiceUnavailable(outer))
	assert.Contains(t, outer.Error(), "running-service")
	assert.Contains(t, outer.Error(), "health probe failed")
}
