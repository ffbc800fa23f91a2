// Package errors provides error handling for farm-framework.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - Hints and details for user-facing messages
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrSchemaInvalid) {
//	    // handle invalid schema
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is         = crdb.Is
	IsAny      = crdb.IsAny
	As         = crdb.As
	Unwrap     = crdb.Unwrap
	UnwrapOnce = crdb.UnwrapOnce
	UnwrapAll  = crdb.UnwrapAll
	Join       = crdb.Join
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Common sentinel errors for the type-sync pipeline.
// Use these with errors.Is() for type-safe error checking and wrap them with
// errors.Wrap() to add context while preserving the type.
var (
	// ErrExtractionFailed indicates every schema extraction strategy was exhausted
	ErrExtractionFailed = New("schema extraction failed")

	// ErrSchemaInvalid indicates a schema payload is missing required marker fields
	// or cannot be parsed
	ErrSchemaInvalid = New("invalid schema document")

	// ErrServiceUnavailable indicates the backend service did not answer the
	// health probe or schema request
	ErrServiceUnavailable = New("backend service unavailable")

	// ErrCacheMiss indicates the requested cache entry is absent or expired
	ErrCacheMiss = New("cache miss")

	// ErrProcessFailed indicates the temporary backend process failed to start
	// or become healthy
	ErrProcessFailed = New("backend process failed")

	// ErrTimeout indicates an operation timed out
	ErrTimeout = New("operation timed out")
)

// IsExtractionError checks if an error is or wraps ErrExtractionFailed
func IsExtractionError(err error) bool {
	return err != nil && Is(err, ErrExtractionFailed)
}

// IsSchemaInvalid checks if an error is or wraps ErrSchemaInvalid
func IsSchemaInvalid(err error) bool {
	return err != nil && Is(err, ErrSchemaInvalid)
}

// IsServiceUnavailable checks if an error is or wraps ErrServiceUnavailable
func IsServiceUnavailable(err error) bool {
	return err != nil && Is(err, ErrServiceUnavailable)
}
