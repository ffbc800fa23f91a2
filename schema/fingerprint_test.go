package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintStableUnderKeyOrder(t *testing.T) {
	doc1, err := Parse([]byte(`{
		"openapi": "3.0.0",
		"info": {"title": "Test", "version": "1.0.0"},
		"paths": {
			"/users": {"get": {"operationId": "listUsers"}},
			"/items": {"get": {"operationId": "listItems"}}
		},
		"components": {"schemas": {
			"User": {"type": "object", "properties": {"id": {"type": "string"}, "name": {"type": "string"}}},
			"Item": {"type": "object", "properties": {"sku": {"type": "string"}}}
		}}
	}`))
	require.NoError(t, err)

	// Same content, every object permuted.
	doc2, err := Parse([]byte(`{
		"components": {"schemas": {
			"Item": {"properties": {"sku": {"type": "string"}}, "type": "object"},
			"User": {"properties": {"name": {"type": "string"}, "id": {"type": "string"}}, "type": "object"}
		}},
		"paths": {
			"/items": {"get": {"operationId": "listItems"}},
			"/users": {"get": {"operationId": "listUsers"}}
		},
		"info": {"version": "1.0.0", "title": "Test"},
		"openapi": "3.0.0"
	}`))
	require.NoError(t, err)

	fp1, err := Fingerprint(doc1)
	require.NoError(t, err)
	fp2, err := Fingerprint(doc2)
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
}

func TestFingerprintChangesWithContent(t *testing.T) {
	doc1, err := Parse([]byte(`{"openapi":"3.0.0","paths":{"/a":{"get":{}}}}`))
	require.NoError(t, err)
	doc2, err := Parse([]byte(`{"openapi":"3.0.0","paths":{"/b":{"get":{}}}}`))
	require.NoError(t, err)

	fp1, err := Fingerprint(doc1)
	require.NoError(t, err)
	fp2, err := Fingerprint(doc2)
	require.NoError(t, err)
	assert.NotEqual(t, fp1, fp2)
}

func TestFingerprintValueDeterministic(t *testing.T) {
	type opts struct {
		Client bool `json:"client"`
		Hooks  bool `json:"hooks"`
	}

	fp1, err := FingerprintValue(opts{Client: true, Hooks: false})
	require.NoError(t, err)
	fp2, err := FingerprintValue(opts{Client: true, Hooks: false})
	require.NoError(t, err)
	fp3, err := FingerprintValue(opts{Client: true, Hooks: true})
	require.NoError(t, err)

	assert.Equal(t, fp1, fp2)
	assert.NotEqual(t, fp1, fp3)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "abc-def", CacheKey("abc", "def"))
}
