package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Jisevind/relayum-storage/internal/errors"
)

func validEnvelope() *Envelope {
	return &Envelope{
		FileID:            strings.Repeat("ab", 16),
		EncryptedSize:     1234,
		IV:                "AAAAAAAAAAAAAAAA",
		Tag:               "AAAAAAAAAAAAAAAAAAAAAA==",
		Hash:              strings.Repeat("cd", 32),
		UploadedAt:        time.Now().UTC(),
		Version:           EnvelopeVersionCurrent,
		EncryptedMetadata: "v1:aes-gcm:AAAA:AAAA",
	}
}

func TestEnvelopeValidate(t *testing.T) {
	t.Run("valid current envelope", func(t *testing.T) {
		assert.NoError(t, validEnvelope().Validate())
	})

	t.Run("valid legacy envelope without encrypted metadata", func(t *testing.T) {
		e := validEnvelope()
		e.Version = EnvelopeVersionLegacy
		e.EncryptedMetadata = ""
		assert.NoError(t, e.Validate())
	})

	t.Run("bad file id", func(t *testing.T) {
		e := validEnvelope()
		e.FileID = "not-hex"
		assert.ErrorIs(t, e.Validate(), ErrMalformedEnvelope)
	})

	t.Run("uppercase file id rejected", func(t *testing.T) {
		e := validEnvelope()
		e.FileID = strings.ToUpper(e.FileID)
		assert.ErrorIs(t, e.Validate(), ErrMalformedEnvelope)
	})

	t.Run("bad hash", func(t *testing.T) {
		e := validEnvelope()
		e.Hash = "deadbeef"
		assert.ErrorIs(t, e.Validate(), ErrMalformedEnvelope)
	})

	t.Run("negative encrypted size", func(t *testing.T) {
		e := validEnvelope()
		e.EncryptedSize = -1
		assert.ErrorIs(t, e.Validate(), ErrMalformedEnvelope)
	})

	t.Run("unsupported version", func(t *testing.T) {
		e := validEnvelope()
		e.Version = "3.0"
		err := e.Validate()
		assert.ErrorIs(t, err, ErrUnsupportedVersion)
		assert.ErrorIs(t, err, apperrors.ErrCrypto)
	})

	t.Run("current version requires encrypted metadata", func(t *testing.T) {
		e := validEnvelope()
		e.EncryptedMetadata = ""
		assert.ErrorIs(t, e.Validate(), ErrMalformedEnvelope)
	})
}

func TestNewSensitiveMetadata(t *testing.T) {
	masterKey := make([]byte, 32)
	_, err := rand.Read(masterKey)
	require.NoError(t, err)

	t.Run("builds valid body", func(t *testing.T) {
		s, err := NewSensitiveMetadata("greeting.txt", "text/plain", 12, masterKey)
		require.NoError(t, err)

		assert.Equal(t, "greeting.txt", s.OriginalName)
		assert.Equal(t, "text/plain", s.MimeType)
		assert.Equal(t, int64(12), s.OriginalSize)
		assert.Equal(t, hex.EncodeToString(masterKey), s.MasterKey)

		nameHash := sha256.Sum256([]byte("greeting.txt"))
		assert.Equal(t, hex.EncodeToString(nameHash[:]), s.OriginalNameHash)
		assert.NoError(t, s.Validate())
	})

	t.Run("round trips master key", func(t *testing.T) {
		s, err := NewSensitiveMetadata("a", "b", 1, masterKey)
		require.NoError(t, err)

		got, err := s.MasterKeyBytes()
		require.NoError(t, err)
		assert.Equal(t, masterKey, got)
	})

	t.Run("rejects short master key", func(t *testing.T) {
		_, err := NewSensitiveMetadata("a", "b", 1, make([]byte, 16))
		assert.Error(t, err)
	})
}

func TestSensitiveMetadataValidate(t *testing.T) {
	masterKey := make([]byte, 32)
	_, err := rand.Read(masterKey)
	require.NoError(t, err)

	s, err := NewSensitiveMetadata("name", "mime", 5, masterKey)
	require.NoError(t, err)

	t.Run("empty name", func(t *testing.T) {
		bad := *s
		bad.OriginalName = ""
		assert.ErrorIs(t, bad.Validate(), ErrMalformedEnvelope)
	})

	t.Run("negative size", func(t *testing.T) {
		bad := *s
		bad.OriginalSize = -3
		assert.ErrorIs(t, bad.Validate(), ErrMalformedEnvelope)
	})

	t.Run("truncated master key", func(t *testing.T) {
		bad := *s
		bad.MasterKey = bad.MasterKey[:40]
		assert.ErrorIs(t, bad.Validate(), ErrMalformedEnvelope)

		_, err := bad.MasterKeyBytes()
		assert.ErrorIs(t, err, ErrMalformedEnvelope)
	})
}

func TestNewFileID(t *testing.T) {
	t.Run("well formed", func(t *testing.T) {
		id, err := NewFileID("file.bin", 7)
		require.NoError(t, err)
		assert.Len(t, id, 32)
		assert.True(t, ValidFileID(id))
	})

	t.Run("unique for identical inputs", func(t *testing.T) {
		seen := make(map[string]bool)
		for range 100 {
			id, err := NewFileID("same-name.txt", 42)
			require.NoError(t, err)
			assert.False(t, seen[id], "duplicate file id %s", id)
			seen[id] = true
		}
	})
}

func TestVerifyReportHealthy(t *testing.T) {
	r := &VerifyReport{Entries: []VerifyEntry{
		{FileID: strings.Repeat("a", 32), Status: VerifyOK},
	}}
	assert.True(t, r.Healthy())

	r.Entries = append(r.Entries, VerifyEntry{
		FileID: strings.Repeat("b", 32),
		Status: VerifyOrphanCiphertext,
	})
	assert.False(t, r.Healthy())

	empty := &VerifyReport{}
	assert.True(t, empty.Healthy())
}
