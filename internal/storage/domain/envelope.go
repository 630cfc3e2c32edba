// Package domain defines the storage engine's entities: stored objects,
// on-disk envelopes, sensitive metadata, file ids and verification reports.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"time"

	cryptoDomain "github.com/Jisevind/relayum-storage/internal/crypto/domain"
)

// Envelope versions. Writes always emit the current version; the legacy
// version is accepted on read with a deprecation warning.
const (
	EnvelopeVersionLegacy  = "1.0"
	EnvelopeVersionCurrent = "2.0"
)

var (
	hex32Pattern = regexp.MustCompile(`^[0-9a-f]{32}$`)
	hex64Pattern = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// Envelope is the public header of the .meta sidecar (version 2.0 layout).
//
// The IV and Tag fields are informational only: they record the first frame's
// nonce and auth tag, but frames carry their own IV and tag and readers must
// authenticate per-frame. Never consulted on read.
type Envelope struct {
	FileID            string    `json:"fileId"`
	EncryptedSize     int64     `json:"encryptedSize"`
	IV                string    `json:"iv"`
	Tag               string    `json:"tag"`
	Hash              string    `json:"hash"`
	UploadedAt        time.Time `json:"uploadedAt"`
	Version           string    `json:"version"`
	EncryptedMetadata string    `json:"encryptedMetadata,omitempty"`
}

// Validate checks the structural invariants of a parsed envelope header.
func (e *Envelope) Validate() error {
	if !hex32Pattern.MatchString(e.FileID) {
		return fmt.Errorf("%w: bad file id", ErrMalformedEnvelope)
	}
	if !hex64Pattern.MatchString(e.Hash) {
		return fmt.Errorf("%w: bad plaintext hash", ErrMalformedEnvelope)
	}
	if e.EncryptedSize < 0 {
		return fmt.Errorf("%w: negative encrypted size", ErrMalformedEnvelope)
	}
	switch e.Version {
	case EnvelopeVersionLegacy, EnvelopeVersionCurrent:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedVersion, e.Version)
	}
	if e.Version == EnvelopeVersionCurrent && e.EncryptedMetadata == "" {
		return fmt.Errorf("%w: missing encrypted metadata", ErrMalformedEnvelope)
	}
	return nil
}

// SensitiveMetadata is the envelope's confidential body. On disk it exists
// only inside the AEAD-encrypted encryptedMetadata string (version 2.0), or in
// the clear on legacy 1.0 envelopes.
type SensitiveMetadata struct {
	OriginalName     string `json:"originalName"`
	MimeType         string `json:"mimeType"`
	OriginalSize     int64  `json:"originalSize"`
	MasterKey        string `json:"masterKey"`
	OriginalNameHash string `json:"originalNameHash"`
}

// NewSensitiveMetadata builds the sensitive body for a new object. The master
// key is hex-encoded for JSON transport; the name hash allows correlation
// without exposing the name.
func NewSensitiveMetadata(
	originalName, mimeType string,
	originalSize int64,
	masterKey []byte,
) (*SensitiveMetadata, error) {
	if len(masterKey) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	nameHash := sha256.Sum256([]byte(originalName))

	return &SensitiveMetadata{
		OriginalName:     originalName,
		MimeType:         mimeType,
		OriginalSize:     originalSize,
		MasterKey:        hex.EncodeToString(masterKey),
		OriginalNameHash: hex.EncodeToString(nameHash[:]),
	}, nil
}

// MasterKeyBytes decodes the hex master key. Callers must Zero the result.
func (s *SensitiveMetadata) MasterKeyBytes() ([]byte, error) {
	if !hex64Pattern.MatchString(s.MasterKey) {
		return nil, fmt.Errorf("%w: bad master key", ErrMalformedEnvelope)
	}
	return hex.DecodeString(s.MasterKey)
}

// Validate checks the structural invariants of a decrypted sensitive body.
func (s *SensitiveMetadata) Validate() error {
	if s.OriginalName == "" {
		return fmt.Errorf("%w: empty original name", ErrMalformedEnvelope)
	}
	if s.OriginalSize < 0 {
		return fmt.Errorf("%w: negative original size", ErrMalformedEnvelope)
	}
	if !hex64Pattern.MatchString(s.MasterKey) {
		return fmt.Errorf("%w: bad master key", ErrMalformedEnvelope)
	}
	return nil
}

// ValidFileID reports whether s is a well-formed 32-hex file id.
func ValidFileID(s string) bool {
	return hex32Pattern.MatchString(s)
}
