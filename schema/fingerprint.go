package schema

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint computes the deterministic content hash of a document.
//
// The document is canonicalized through encoding/json, which emits map keys
// in sorted order, so two structurally equivalent documents hash identically
// regardless of the key ordering of the payload they were parsed from.
// Computed once per extraction and combined with the generator config
// fingerprint to form the cache key.
func Fingerprint(doc *Document) (string, error) {
	return FingerprintValue(doc)
}

// FingerprintValue hashes any JSON-marshalable value with the same
// canonicalization discipline. Used for the generator config fingerprint.
func FingerprintValue(v interface{}) (string, error) {
	canonical, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(canonical)), nil
}

// CacheKey combines the schema and generator-config fingerprints.
func CacheKey(schemaFP, configFP string) string {
	return schemaFP + "-" + configFP
}
