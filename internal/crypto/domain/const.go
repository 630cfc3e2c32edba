package domain

// Algorithm represents the AEAD algorithm used for envelope sensitive-blob encryption.
//
// Both supported algorithms provide Authenticated Encryption with Associated Data,
// with a 32-byte key, 12-byte nonce and 16-byte tag. Frame encryption of object
// content is always AES-256-GCM; the algorithm choice here only affects the
// encryptedMetadata blob inside envelopes.
type Algorithm string

const (
	// AESGCM represents the AES-256-GCM authenticated encryption algorithm.
	// Preferred on CPUs with AES-NI hardware acceleration.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 represents the ChaCha20-Poly1305 authenticated encryption algorithm.
	// Constant-time in software; preferred on platforms without AES acceleration.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// KeySize is the required key length in bytes for every key the engine handles:
// the process metadata key, per-object master keys and derived file keys.
const KeySize = 32

// FileKeySalt is the HKDF domain separator for per-file key derivation.
// It must never change for existing objects to remain decryptable.
const FileKeySalt = "relayum:file-key:v1"

// ParseAlgorithm maps a configuration string to an Algorithm.
// Returns ErrUnsupportedAlgorithm for unknown values.
func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(s) {
	case AESGCM:
		return AESGCM, nil
	case ChaCha20:
		return ChaCha20, nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}
