// Package codec implements the framed ciphertext format of stored objects.
//
// An encrypted stream is a sequence of independent frames:
//
//	[4-byte big-endian length L][12-byte nonce][L+16 bytes ciphertext||tag]
//
// L is the plaintext length of the frame and excludes the 16-byte GCM tag.
// Each frame is sealed with AES-256-GCM under the object's file key, with the
// frame's zero-based index (8-byte big-endian) as additional authenticated
// data. The index AAD makes frame reordering and splicing detectable even
// though every frame authenticates on its own.
//
// Empty input is represented as exactly one frame with L=0, so an encrypted
// empty object occupies 32 bytes on disk and a zero-frame ciphertext file is
// always an integrity failure.
package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"

	cryptoDomain "github.com/Jisevind/relayum-storage/internal/crypto/domain"
)

const (
	// NonceSize is the per-frame GCM nonce length.
	NonceSize = 12
	// TagSize is the GCM authentication tag length appended to each frame.
	TagSize = 16
	// DefaultChunkSize is the plaintext frame size used when none is configured.
	DefaultChunkSize = 64 * 1024
	// MaxFrameSize bounds the plaintext length a reader will accept for a
	// single frame, capping per-frame memory regardless of what the length
	// field claims.
	MaxFrameSize = 16 << 20

	headerSize = 4 + NonceSize
)

// FrameOverhead returns the on-disk size of a frame holding n plaintext bytes.
func FrameOverhead(n int) int {
	return headerSize + n + TagSize
}

func newFileAEAD(fileKey []byte) (cipher.AEAD, error) {
	if len(fileKey) != cryptoDomain.KeySize {
		return nil, cryptoDomain.ErrInvalidKeySize
	}

	block, err := aes.NewCipher(fileKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aead, nil
}

func frameAAD(index uint64) []byte {
	aad := make([]byte, 8)
	binary.BigEndian.PutUint64(aad, index)
	return aad
}
