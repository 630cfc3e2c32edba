package service

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	cryptoDomain "github.com/Jisevind/relayum-storage/internal/crypto/domain"
)

// DeriveFileKey derives the 32-byte per-file encryption key from an object's
// master key and its file id using HKDF-SHA256.
//
// The derivation is a pure function of (masterKey, fileID): salt is the fixed
// domain separator cryptoDomain.FileKeySalt, info is the file id. Output must
// match exactly for the same inputs across releases; existing ciphertexts
// depend on it. Callers must Zero the returned key when done.
func DeriveFileKey(masterKey []byte, fileID string) ([]byte, error) {
	if len(masterKey) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	reader := hkdf.New(sha256.New, masterKey, []byte(cryptoDomain.FileKeySalt), []byte(fileID))

	fileKey := make([]byte, cryptoDomain.KeySize)
	if _, err := io.ReadFull(reader, fileKey); err != nil {
		return nil, fmt.Errorf("failed to derive file key: %w", err)
	}

	return fileKey, nil
}
