package codec

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Jisevind/relayum-storage/internal/errors"
	storageDomain "github.com/Jisevind/relayum-storage/internal/storage/domain"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func encrypt(t *testing.T, key, plaintext []byte, chunkSize int) (*EncryptResult, []byte) {
	t.Helper()
	enc, err := NewEncryptor(key, chunkSize)
	require.NoError(t, err)
	defer enc.Close()

	var out bytes.Buffer
	result, err := enc.Encrypt(&out, bytes.NewReader(plaintext))
	require.NoError(t, err)
	return result, out.Bytes()
}

func decryptAll(key, ciphertext []byte, expectedHash string) ([]byte, error) {
	r, err := NewReader(io.NopCloser(bytes.NewReader(ciphertext)), key, expectedHash)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func TestRoundTrip(t *testing.T) {
	key := testKey(t)

	tests := []struct {
		name      string
		size      int
		chunkSize int
	}{
		{"small single frame", 100, 0},
		{"exactly one chunk", DefaultChunkSize, 0},
		{"multiple frames", 3*DefaultChunkSize + 17, 0},
		{"tiny chunks", 1000, 64},
		{"one byte", 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plaintext := make([]byte, tt.size)
			_, err := rand.Read(plaintext)
			require.NoError(t, err)

			result, ciphertext := encrypt(t, key, plaintext, tt.chunkSize)

			assert.Equal(t, int64(tt.size), result.PlaintextSize)
			assert.Equal(t, int64(len(ciphertext)), result.EncryptedSize)

			wantHash := sha256.Sum256(plaintext)
			assert.Equal(t, hex.EncodeToString(wantHash[:]), result.PlaintextHash)

			got, err := decryptAll(key, ciphertext, result.PlaintextHash)
			require.NoError(t, err)
			assert.Equal(t, plaintext, got)
		})
	}
}

func TestRoundTripEmpty(t *testing.T) {
	key := testKey(t)

	result, ciphertext := encrypt(t, key, nil, 0)

	// One empty frame: header + nonce + tag only.
	assert.Equal(t, FrameOverhead(0), len(ciphertext))
	assert.Equal(t, int64(0), result.PlaintextSize)
	assert.Len(t, result.FirstFrameIV, NonceSize)
	assert.Len(t, result.FirstFrameTag, TagSize)
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		result.PlaintextHash)

	got, err := decryptAll(key, ciphertext, result.PlaintextHash)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecryptWrongKey(t *testing.T) {
	key := testKey(t)
	result, ciphertext := encrypt(t, key, []byte("payload"), 0)

	_, err := decryptAll(testKey(t), ciphertext, result.PlaintextHash)
	assert.ErrorIs(t, err, storageDomain.ErrFrameCorrupted)
	assert.ErrorIs(t, err, apperrors.ErrIntegrity)
}

func TestDecryptBitFlip(t *testing.T) {
	key := testKey(t)
	plaintext := make([]byte, 2*DefaultChunkSize)
	_, err := rand.Read(plaintext)
	require.NoError(t, err)

	result, ciphertext := encrypt(t, key, plaintext, 0)

	for _, offset := range []int{headerSize, len(ciphertext) / 2, len(ciphertext) - 1} {
		tampered := bytes.Clone(ciphertext)
		tampered[offset] ^= 0x01

		r, err := NewReader(io.NopCloser(bytes.NewReader(tampered)), key, result.PlaintextHash)
		require.NoError(t, err)

		got, err := io.ReadAll(r)
		assert.ErrorIs(t, err, storageDomain.ErrFrameCorrupted)

		// The frame containing the flipped byte must contribute nothing.
		if offset >= headerSize+DefaultChunkSize+TagSize {
			assert.LessOrEqual(t, len(got), DefaultChunkSize)
		} else {
			assert.Empty(t, got)
		}
		require.NoError(t, r.Close())
	}
}

func TestDecryptReorderedFrames(t *testing.T) {
	key := testKey(t)
	plaintext := make([]byte, 2*DefaultChunkSize)
	_, err := rand.Read(plaintext)
	require.NoError(t, err)

	result, ciphertext := encrypt(t, key, plaintext, 0)

	frameSize := FrameOverhead(DefaultChunkSize)
	require.Equal(t, 2*frameSize, len(ciphertext))

	swapped := make([]byte, 0, len(ciphertext))
	swapped = append(swapped, ciphertext[frameSize:]...)
	swapped = append(swapped, ciphertext[:frameSize]...)

	_, err = decryptAll(key, swapped, result.PlaintextHash)
	assert.ErrorIs(t, err, storageDomain.ErrFrameCorrupted)
}

func TestDecryptTruncated(t *testing.T) {
	key := testKey(t)
	plaintext := make([]byte, 2*DefaultChunkSize)
	_, err := rand.Read(plaintext)
	require.NoError(t, err)

	result, ciphertext := encrypt(t, key, plaintext, 0)
	frameSize := FrameOverhead(DefaultChunkSize)

	t.Run("mid frame", func(t *testing.T) {
		_, err := decryptAll(key, ciphertext[:len(ciphertext)-10], result.PlaintextHash)
		assert.ErrorIs(t, err, storageDomain.ErrFrameCorrupted)
	})

	t.Run("at frame boundary", func(t *testing.T) {
		// Every remaining frame authenticates, so only the final hash check
		// can catch the missing tail.
		_, err := decryptAll(key, ciphertext[:frameSize], result.PlaintextHash)
		assert.ErrorIs(t, err, storageDomain.ErrHashMismatch)
	})

	t.Run("empty stream", func(t *testing.T) {
		_, err := decryptAll(key, nil, result.PlaintextHash)
		assert.ErrorIs(t, err, storageDomain.ErrFrameCorrupted)
	})
}

func TestDecryptOversizedLengthField(t *testing.T) {
	key := testKey(t)
	result, ciphertext := encrypt(t, key, []byte("data"), 0)

	tampered := bytes.Clone(ciphertext)
	binary.BigEndian.PutUint32(tampered[:4], MaxFrameSize+1)

	_, err := decryptAll(key, tampered, result.PlaintextHash)
	assert.ErrorIs(t, err, storageDomain.ErrFrameCorrupted)
}

func TestDecryptHashMismatch(t *testing.T) {
	key := testKey(t)
	_, ciphertext := encrypt(t, key, []byte("hello world"), 0)

	wrongHash := sha256.Sum256([]byte("something else"))
	_, err := decryptAll(key, ciphertext, hex.EncodeToString(wrongHash[:]))
	assert.ErrorIs(t, err, storageDomain.ErrHashMismatch)
	assert.ErrorIs(t, err, apperrors.ErrIntegrity)
}

func TestReaderSkipsHashCheckWhenUnset(t *testing.T) {
	key := testKey(t)
	_, ciphertext := encrypt(t, key, []byte("hello"), 0)

	got, err := decryptAll(key, ciphertext, "")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}

func TestReaderStickyError(t *testing.T) {
	key := testKey(t)
	result, ciphertext := encrypt(t, key, []byte("payload"), 0)

	tampered := bytes.Clone(ciphertext)
	tampered[len(tampered)-1] ^= 0xff

	r, err := NewReader(io.NopCloser(bytes.NewReader(tampered)), key, result.PlaintextHash)
	require.NoError(t, err)
	defer r.Close()

	buf := make([]byte, 16)
	_, err1 := r.Read(buf)
	_, err2 := r.Read(buf)
	assert.ErrorIs(t, err1, storageDomain.ErrFrameCorrupted)
	assert.Equal(t, err1, err2)
}

func TestReaderReadAfterClose(t *testing.T) {
	key := testKey(t)
	_, ciphertext := encrypt(t, key, []byte("payload"), 0)

	r, err := NewReader(io.NopCloser(bytes.NewReader(ciphertext)), key, "")
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	_, err = r.Read(make([]byte, 4))
	assert.Error(t, err)
}

func TestEncryptorRejectsBadChunkSize(t *testing.T) {
	key := testKey(t)

	_, err := NewEncryptor(key, -1)
	assert.ErrorIs(t, err, apperrors.ErrConfig)

	_, err = NewEncryptor(key, MaxFrameSize+1)
	assert.ErrorIs(t, err, apperrors.ErrConfig)
}

func TestEncryptorRejectsBadKey(t *testing.T) {
	_, err := NewEncryptor(make([]byte, 16), 0)
	assert.Error(t, err)

	_, err = NewReader(io.NopCloser(bytes.NewReader(nil)), make([]byte, 16), "")
	assert.Error(t, err)
}
