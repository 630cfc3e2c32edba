// Package service provides the cryptographic primitive layer of the storage
// engine: AEAD ciphers (AES-256-GCM, ChaCha20-Poly1305), per-file key
// derivation, and the metadata-blob cipher rooted in the process metadata key.
package service

import (
	cryptoDomain "github.com/Jisevind/relayum-storage/internal/crypto/domain"
)

// AEAD defines the interface for Authenticated Encryption with Associated Data.
type AEAD interface {
	// Encrypt encrypts plaintext with optional AAD and returns ciphertext and nonce.
	// The 16-byte authentication tag is appended to the ciphertext.
	Encrypt(plaintext, aad []byte) (ciphertext, nonce []byte, err error)

	// Decrypt decrypts ciphertext using the provided nonce and AAD.
	// Returns cryptoDomain.ErrDecryptionFailed on any tag mismatch.
	Decrypt(ciphertext, nonce, aad []byte) ([]byte, error)
}

// AEADManager defines the interface for creating AEAD cipher instances.
type AEADManager interface {
	// CreateCipher creates an AEAD cipher instance for the specified algorithm.
	CreateCipher(key []byte, alg cryptoDomain.Algorithm) (AEAD, error)
}

// MetadataCipher encrypts and decrypts envelope sensitive blobs under the
// process metadata key. The opaque string output embeds its own version and
// algorithm so it can be stored as a single JSON string field.
type MetadataCipher interface {
	EncryptMetadata(blob []byte) (string, error)
	DecryptMetadata(opaque string) ([]byte, error)
}
