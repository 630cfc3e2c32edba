package service

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/Jisevind/relayum-storage/internal/crypto/domain"
)

func TestNewAESGCM(t *testing.T) {
	t.Run("valid key", func(t *testing.T) {
		key := make([]byte, 32)
		_, err := rand.Read(key)
		require.NoError(t, err)

		cipher, err := NewAESGCM(key)
		require.NoError(t, err)
		assert.NotNil(t, cipher)
	})

	t.Run("invalid key sizes", func(t *testing.T) {
		for _, n := range []int{0, 16, 24, 31, 33} {
			_, err := NewAESGCM(make([]byte, n))
			assert.ErrorIs(t, err, cryptoDomain.ErrInvalidKeySize, "size %d", n)
		}
	})
}

func TestAESGCMCipher_EncryptDecrypt(t *testing.T) {
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)

	cipher, err := NewAESGCM(key)
	require.NoError(t, err)

	t.Run("round trip with AAD", func(t *testing.T) {
		plaintext := []byte("chunk of file content")
		aad := []byte{0, 0, 0, 0, 0, 0, 0, 7}

		ciphertext, nonce, err := cipher.Encrypt(plaintext, aad)
		require.NoError(t, err)
		assert.Len(t, nonce, 12)
		assert.Len(t, ciphertext, len(plaintext)+16)

		decrypted, err := cipher.Decrypt(ciphertext, nonce, aad)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	})

	t.Run("round trip without AAD", func(t *testing.T) {
		plaintext := []byte("no associated data")

		ciphertext, nonce, err := cipher.Encrypt(plaintext, nil)
		require.NoError(t, err)

		decrypted, err := cipher.Decrypt(ciphertext, nonce, nil)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	})

	t.Run("round trip empty plaintext", func(t *testing.T) {
		ciphertext, nonce, err := cipher.Encrypt([]byte{}, nil)
		require.NoError(t, err)
		assert.Len(t, ciphertext, 16)

		decrypted, err := cipher.Decrypt(ciphertext, nonce, nil)
		require.NoError(t, err)
		assert.Empty(t, decrypted)
	})

	t.Run("fresh nonce per call", func(t *testing.T) {
		_, nonce1, err := cipher.Encrypt([]byte("same input"), nil)
		require.NoError(t, err)
		_, nonce2, err := cipher.Encrypt([]byte("same input"), nil)
		require.NoError(t, err)
		assert.NotEqual(t, nonce1, nonce2)
	})

	t.Run("tampered ciphertext fails", func(t *testing.T) {
		ciphertext, nonce, err := cipher.Encrypt([]byte("payload"), nil)
		require.NoError(t, err)

		ciphertext[0] ^= 0x01
		_, err = cipher.Decrypt(ciphertext, nonce, nil)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("wrong AAD fails", func(t *testing.T) {
		ciphertext, nonce, err := cipher.Encrypt([]byte("payload"), []byte{0, 0, 0, 1})
		require.NoError(t, err)

		_, err = cipher.Decrypt(ciphertext, nonce, []byte{0, 0, 0, 2})
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})

	t.Run("wrong key fails", func(t *testing.T) {
		ciphertext, nonce, err := cipher.Encrypt([]byte("payload"), nil)
		require.NoError(t, err)

		otherKey := make([]byte, 32)
		_, err = rand.Read(otherKey)
		require.NoError(t, err)
		other, err := NewAESGCM(otherKey)
		require.NoError(t, err)

		_, err = other.Decrypt(ciphertext, nonce, nil)
		assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	})
}
