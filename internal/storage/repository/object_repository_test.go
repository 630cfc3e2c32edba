package repository

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storageDomain "github.com/Jisevind/relayum-storage/internal/storage/domain"
)

func newTestRepo(t *testing.T) *ObjectRepository {
	t.Helper()
	ns := NewNamespace(t.TempDir(), nil)
	return NewObjectRepository(ns, nil)
}

func newTestEnvelope(fileID string) *storageDomain.Envelope {
	return &storageDomain.Envelope{
		FileID:            fileID,
		EncryptedSize:     64,
		Hash:              strings.Repeat("ab", 32),
		UploadedAt:        time.Now().UTC(),
		Version:           storageDomain.EnvelopeVersionCurrent,
		EncryptedMetadata: "v1:aes-gcm:AAAA:AAAA",
	}
}

func stageCiphertext(t *testing.T, repo *ObjectRepository, data []byte) string {
	t.Helper()
	path, f, err := repo.CreateStaging()
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return path
}

func TestNamespaceLayout(t *testing.T) {
	root := t.TempDir()
	ns := NewNamespace(root, nil)

	hash := ns.UserHash(42)
	assert.Len(t, hash, 64)
	assert.Equal(t, hash, ns.UserHash(42))
	assert.NotEqual(t, hash, ns.UserHash(43))

	assert.Equal(t, filepath.Join(root, "users", hash), ns.UserRoot(42))
	assert.Equal(t, filepath.Join(root, "users", hash, "files"), ns.FilesDir(42))
	assert.Equal(t, filepath.Join(root, "users", hash, "metadata"), ns.MetadataDir(42))

	require.NoError(t, ns.EnsureUser(42))
	info, err := os.Stat(ns.FilesDir(42))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	require.NoError(t, ns.EnsureBase())
	assert.DirExists(t, ns.TempDir())
	assert.DirExists(t, ns.SharedDir())
}

func TestCommitAndRead(t *testing.T) {
	repo := newTestRepo(t)
	fileID := strings.Repeat("1a", 16)
	ciphertext := []byte("framed ciphertext bytes")

	staging := stageCiphertext(t, repo, ciphertext)
	require.NoError(t, repo.Commit(7, fileID, staging, newTestEnvelope(fileID)))

	// Staging file was consumed by the rename.
	assert.NoFileExists(t, staging)

	env, legacy, err := repo.ReadEnvelope(7, fileID)
	require.NoError(t, err)
	assert.Nil(t, legacy)
	assert.Equal(t, fileID, env.FileID)

	f, err := repo.OpenCiphertext(7, fileID)
	require.NoError(t, err)
	got := make([]byte, len(ciphertext))
	_, err = f.Read(got)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, ciphertext, got)

	size, err := repo.CiphertextSize(7, fileID)
	require.NoError(t, err)
	assert.Equal(t, int64(len(ciphertext)), size)
}

func TestCommitCollision(t *testing.T) {
	repo := newTestRepo(t)
	fileID := strings.Repeat("2b", 16)

	staging := stageCiphertext(t, repo, []byte("first"))
	require.NoError(t, repo.Commit(7, fileID, staging, newTestEnvelope(fileID)))

	second := stageCiphertext(t, repo, []byte("second"))
	err := repo.Commit(7, fileID, second, newTestEnvelope(fileID))
	assert.ErrorIs(t, err, os.ErrExist)

	// Staging survives a collision so the caller can retry with a new id.
	assert.FileExists(t, second)
	repo.Discard(second)
	assert.NoFileExists(t, second)
}

func TestReadEnvelopeNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, _, err := repo.ReadEnvelope(7, strings.Repeat("3c", 16))
	assert.ErrorIs(t, err, storageDomain.ErrObjectNotFound)

	_, err = repo.OpenCiphertext(7, strings.Repeat("3c", 16))
	assert.ErrorIs(t, err, storageDomain.ErrObjectNotFound)
}

func TestReadEnvelopeMalformed(t *testing.T) {
	repo := newTestRepo(t)
	fileID := strings.Repeat("4d", 16)

	require.NoError(t, repo.ns.EnsureUser(7))
	path := repo.ns.EnvelopePath(7, fileID)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, _, err := repo.ReadEnvelope(7, fileID)
	assert.ErrorIs(t, err, storageDomain.ErrMalformedEnvelope)
}

func TestReadEnvelopeIDMismatch(t *testing.T) {
	repo := newTestRepo(t)
	fileID := strings.Repeat("5e", 16)
	otherID := strings.Repeat("6f", 16)

	require.NoError(t, repo.ns.EnsureUser(7))
	data, err := json.Marshal(newTestEnvelope(otherID))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(repo.ns.EnvelopePath(7, fileID), data, 0o600))

	_, _, err = repo.ReadEnvelope(7, fileID)
	assert.ErrorIs(t, err, storageDomain.ErrEnvelopeMismatch)
}

func TestReadEnvelopeLegacy(t *testing.T) {
	repo := newTestRepo(t)
	fileID := strings.Repeat("7a", 16)

	masterKey := make([]byte, 32)
	_, err := rand.Read(masterKey)
	require.NoError(t, err)

	legacy := map[string]any{
		"fileId":        fileID,
		"encryptedSize": 128,
		"iv":            "AAAA",
		"tag":           "BBBB",
		"hash":          strings.Repeat("cd", 32),
		"uploadedAt":    time.Now().UTC().Format(time.RFC3339),
		"version":       storageDomain.EnvelopeVersionLegacy,
		"originalName":  "report.pdf",
		"mimeType":      "application/pdf",
		"originalSize":  100,
		"masterKey":     hex.EncodeToString(masterKey),
	}
	data, err := json.Marshal(legacy)
	require.NoError(t, err)

	require.NoError(t, repo.ns.EnsureUser(7))
	require.NoError(t, os.WriteFile(repo.ns.EnvelopePath(7, fileID), data, 0o600))

	env, sensitive, err := repo.ReadEnvelope(7, fileID)
	require.NoError(t, err)
	require.NotNil(t, sensitive)
	assert.Equal(t, storageDomain.EnvelopeVersionLegacy, env.Version)
	assert.Equal(t, "report.pdf", sensitive.OriginalName)
	assert.Equal(t, int64(100), sensitive.OriginalSize)

	key, err := sensitive.MasterKeyBytes()
	require.NoError(t, err)
	assert.Equal(t, masterKey, key)
}

func TestSecureDelete(t *testing.T) {
	repo := newTestRepo(t)
	fileID := strings.Repeat("8b", 16)

	staging := stageCiphertext(t, repo, []byte("to be shredded"))
	require.NoError(t, repo.Commit(7, fileID, staging, newTestEnvelope(fileID)))

	existed, err := repo.SecureDelete(7, fileID)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.NoFileExists(t, repo.ns.CiphertextPath(7, fileID))
	assert.NoFileExists(t, repo.ns.EnvelopePath(7, fileID))

	// Idempotent.
	existed, err = repo.SecureDelete(7, fileID)
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestListAndStats(t *testing.T) {
	repo := newTestRepo(t)

	ids := []string{strings.Repeat("aa", 16), strings.Repeat("bb", 16)}
	for _, id := range ids {
		staging := stageCiphertext(t, repo, []byte("cipher-"+id))
		require.NoError(t, repo.Commit(9, id, staging, newTestEnvelope(id)))
	}

	envIDs, err := repo.ListEnvelopeIDs(9)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, envIDs)

	encIDs, err := repo.ListCiphertextIDs(9)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, encIDs)

	stats, err := repo.Stats(9)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Objects)
	assert.Greater(t, stats.EncryptedBytes, int64(0))

	// Unknown user has empty stats, not an error.
	empty, err := repo.Stats(12345)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.Objects)
}

func TestListUserHashes(t *testing.T) {
	repo := newTestRepo(t)

	hashes, err := repo.ns.ListUserHashes()
	require.NoError(t, err)
	assert.Empty(t, hashes)

	require.NoError(t, repo.ns.EnsureUser(1))
	require.NoError(t, repo.ns.EnsureUser(2))

	hashes, err = repo.ns.ListUserHashes()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{repo.ns.UserHash(1), repo.ns.UserHash(2)}, hashes)
}

func TestCleanupTemp(t *testing.T) {
	repo := newTestRepo(t)
	require.NoError(t, repo.ns.EnsureBase())

	stale := filepath.Join(repo.ns.TempDir(), "stale.tmp")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o600))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh := stageCiphertext(t, repo, []byte("new"))

	removed, err := repo.CleanupTemp(time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, fresh)
}
