package domain

import (
	"encoding/base64"
	"fmt"
)

// MetadataKey is the process-wide 32-byte symmetric key that protects envelope
// sensitive blobs (original name, MIME type, size, per-object master key).
//
// Its lifetime equals the process lifetime and it is never written to disk.
// The engine treats it as read-only after startup; Close zeroes it on shutdown.
type MetadataKey struct {
	key []byte
}

// NewMetadataKey builds a MetadataKey from raw key material.
// The input is copied; callers may zero their own copy afterwards.
func NewMetadataKey(raw []byte) (*MetadataKey, error) {
	if len(raw) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidMetadataKey, len(raw), KeySize)
	}
	key := make([]byte, KeySize)
	copy(key, raw)
	return &MetadataKey{key: key}, nil
}

// DecodeMetadataKey builds a MetadataKey from its base64 configuration form
// (the METADATA_ENCRYPTION_KEY environment variable).
func DecodeMetadataKey(encoded string) (*MetadataKey, error) {
	if encoded == "" {
		return nil, ErrMetadataKeyNotSet
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMetadataKey, err)
	}
	defer Zero(raw)
	return NewMetadataKey(raw)
}

// Bytes returns the raw key material. The returned slice is the key's own
// backing store: callers must not modify or retain it past the key's lifetime.
func (k *MetadataKey) Bytes() []byte {
	return k.key
}

// Close zeroes the key material. The key is unusable afterwards.
func (k *MetadataKey) Close() {
	Zero(k.key)
	k.key = nil
}
