package domain

import (
	"github.com/Jisevind/relayum-storage/internal/errors"
)

// Cryptographic operation error definitions.
//
// These domain-specific errors wrap standard errors from internal/errors
// to provide context for cryptographic failures while keeping the engine's
// error taxonomy intact for callers.
var (
	// ErrUnsupportedAlgorithm indicates the requested AEAD algorithm is not supported.
	//
	// Supported algorithms: AESGCM (AES-256-GCM), ChaCha20 (ChaCha20-Poly1305).
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrCrypto, "unsupported algorithm")

	// ErrInvalidKeySize indicates the cryptographic key size is invalid.
	//
	// Every key the engine handles (metadata key, master keys, file keys)
	// must be exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrCrypto, "invalid key size")

	// ErrDecryptionFailed indicates an AEAD open operation failed.
	//
	// Causes include a wrong key, a tampered ciphertext, or an invalid nonce.
	// The specific cause is deliberately not disclosed. This wraps ErrIntegrity:
	// a tag failure is an integrity event and must surface as one.
	ErrDecryptionFailed = errors.Wrap(errors.ErrIntegrity, "decryption failed")

	// ErrMetadataKeyNotSet indicates no process metadata key was configured.
	// The engine refuses to start without one.
	ErrMetadataKeyNotSet = errors.Wrap(errors.ErrConfig, "metadata encryption key not set")

	// ErrInvalidMetadataKey indicates the configured metadata key could not be
	// decoded or has the wrong length.
	ErrInvalidMetadataKey = errors.Wrap(errors.ErrConfig, "invalid metadata encryption key")
)
