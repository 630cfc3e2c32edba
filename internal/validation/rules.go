// Package validation provides custom validation rules for the storage engine.
package validation

import (
	"encoding/base64"
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/Jisevind/relayum-storage/internal/errors"
)

const (
	// MaxObjectNameLength bounds original file names accepted on upload.
	MaxObjectNameLength = 255
	// MaxMimeTypeLength bounds declared content types.
	MaxMimeTypeLength = 127
)

var (
	// mimeRegex matches a type/subtype pair, optionally with parameters.
	mimeRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9!#$&^_.+-]*/[a-zA-Z0-9][a-zA-Z0-9!#$&^_.+;=\s-]*$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput.
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Base64 validates that a string is valid base64-encoded data.
var Base64 = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_base64_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if _, err := base64.StdEncoding.DecodeString(s); err != nil {
		return validation.NewError("validation_base64", "must be valid base64-encoded data")
	}
	return nil
})

// ObjectName validates an original file name. The name is stored encrypted and
// never used as a path component, but names that could confuse downstream
// collaborators (path separators, NUL, control characters) are rejected early.
var ObjectName = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_object_name_type", "must be a string")
	}
	if s == "" {
		return nil // Let Required handle empty strings
	}
	if len(s) > MaxObjectNameLength {
		return validation.NewError("validation_object_name_length", "name is too long")
	}
	if strings.ContainsAny(s, "/\\\x00") {
		return validation.NewError("validation_object_name_chars", "name must not contain path separators")
	}
	for _, r := range s {
		if r < 0x20 {
			return validation.NewError("validation_object_name_control", "name must not contain control characters")
		}
	}
	return nil
})

// MimeType validates a declared content type. The value is informational
// metadata, so validation is deliberately loose: a type/subtype shape with a
// bounded length.
var MimeType = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_mime_type", "must be a string")
	}
	if s == "" {
		return nil
	}
	if len(s) > MaxMimeTypeLength || !mimeRegex.MatchString(s) {
		return validation.NewError("validation_mime_format", "must be a type/subtype content type")
	}
	return nil
})

// FileID validates a 32-char lowercase hex object identifier.
var FileID = validation.By(func(value interface{}) error {
	s, ok := value.(string)
	if !ok {
		return validation.NewError("validation_file_id_type", "must be a string")
	}
	if s == "" {
		return nil
	}
	if len(s) != 32 {
		return validation.NewError("validation_file_id_length", "must be 32 characters")
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return validation.NewError("validation_file_id_hex", "must be lowercase hex")
		}
	}
	return nil
})
