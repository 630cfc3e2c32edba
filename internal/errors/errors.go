// Package errors provides standardized domain errors that express storage-engine
// intent rather than infrastructure details. Use cases return these kinds; the
// collaborators that embed the engine (HTTP front-end, CLI commands) map them to
// user-visible behavior.
package errors

import (
	"errors"
	"fmt"
)

// Standard domain errors shared across all engine modules.
var (
	// ErrNotFound indicates the requested object or envelope does not exist.
	ErrNotFound = errors.New("not found")

	// ErrIntegrity indicates an AEAD tag failure on a frame, a plaintext hash
	// mismatch at the end of a decrypted stream, or a malformed envelope.
	// This error is never recovered locally; it is surfaced verbatim.
	ErrIntegrity = errors.New("integrity failure")

	// ErrCrypto indicates key derivation failure, RNG failure, or an
	// unsupported envelope version or cipher.
	ErrCrypto = errors.New("crypto failure")

	// ErrIO indicates a filesystem error (permissions, disk full, truncated file).
	ErrIO = errors.New("io failure")

	// ErrConfig indicates missing or invalid process configuration.
	// Fatal at initialization; callers should refuse to serve.
	ErrConfig = errors.New("invalid configuration")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")
)

// New creates a new error with the given message.
// This is a convenience wrapper around errors.New for consistency.
func New(message string) error {
	return errors.New(message)
}

// Wrap wraps an error with additional context while preserving the error chain.
// Use this to add context at each layer without losing the original error kind.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context while preserving the error chain.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's tree matches target.
// This is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
// This is a convenience wrapper around errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}
