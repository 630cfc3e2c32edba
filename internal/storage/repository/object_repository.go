package repository

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/Jisevind/relayum-storage/internal/errors"
	storageDomain "github.com/Jisevind/relayum-storage/internal/storage/domain"
)

// ObjectRepository persists encrypted objects as a ciphertext blob plus an
// envelope sidecar inside the owner's namespace.
type ObjectRepository struct {
	ns     *Namespace
	logger *slog.Logger
}

// NewObjectRepository creates a new ObjectRepository.
func NewObjectRepository(ns *Namespace, logger *slog.Logger) *ObjectRepository {
	return &ObjectRepository{ns: ns, logger: logger}
}

// Namespace exposes the underlying path layout.
func (r *ObjectRepository) Namespace() *Namespace {
	return r.ns
}

// UserHash returns the namespace directory name for an owner id.
func (r *ObjectRepository) UserHash(ownerID int64) string {
	return r.ns.UserHash(ownerID)
}

// CiphertextPath returns the .enc path for an object.
func (r *ObjectRepository) CiphertextPath(ownerID int64, fileID string) string {
	return r.ns.CiphertextPath(ownerID, fileID)
}

// EnvelopePath returns the .meta path for an object.
func (r *ObjectRepository) EnvelopePath(ownerID int64, fileID string) string {
	return r.ns.EnvelopePath(ownerID, fileID)
}

// ListUserHashes returns the hash directory names of every user namespace.
func (r *ObjectRepository) ListUserHashes() ([]string, error) {
	return r.ns.ListUserHashes()
}

// CreateStaging opens a fresh staging file in the temp tree. The caller
// streams ciphertext into it and either Commits or Discards it.
func (r *ObjectRepository) CreateStaging() (string, *os.File, error) {
	if err := r.ns.EnsureBase(); err != nil {
		return "", nil, err
	}

	name := fmt.Sprintf("%s-%d.tmp", uuid.New().String(), time.Now().UnixNano())
	path := filepath.Join(r.ns.TempDir(), name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", nil, apperrors.Wrap(apperrors.ErrIO, "failed to create staging file")
	}
	return path, f, nil
}

// Discard removes a staging file, tolerating its absence.
func (r *ObjectRepository) Discard(stagingPath string) {
	if err := os.Remove(stagingPath); err != nil && !os.IsNotExist(err) {
		if r.logger != nil {
			r.logger.Warn("failed to remove staging file",
				slog.String("path", stagingPath),
				slog.Any("error", err),
			)
		}
	}
}

// Commit publishes a staged ciphertext and its envelope under the owner's
// namespace. The ciphertext is renamed into place first, then the envelope is
// written atomically; a crash in between leaves an orphan ciphertext that
// verification sweeps flag and never a dangling envelope. If the file id is
// already taken os.ErrExist is returned and the staging file is left intact so
// the caller can retry with a new id.
func (r *ObjectRepository) Commit(
	ownerID int64,
	fileID string,
	stagingPath string,
	env *storageDomain.Envelope,
) error {
	if err := r.ns.EnsureUser(ownerID); err != nil {
		return err
	}

	ciphertextPath := r.ns.CiphertextPath(ownerID, fileID)
	if _, err := os.Lstat(ciphertextPath); err == nil {
		return os.ErrExist
	}

	if err := os.Rename(stagingPath, ciphertextPath); err != nil {
		return apperrors.Wrap(apperrors.ErrIO, "failed to publish ciphertext")
	}

	if err := r.writeEnvelope(r.ns.EnvelopePath(ownerID, fileID), env); err != nil {
		// Roll back the half-published object so no orphan outlives the Put.
		if rmErr := os.Remove(ciphertextPath); rmErr != nil && r.logger != nil {
			r.logger.Error("failed to remove ciphertext after envelope write failure",
				slog.String("path", ciphertextPath),
				slog.Any("error", rmErr),
			)
		}
		return err
	}
	return nil
}

// writeEnvelope writes env as JSON via a temp file, fsync and rename.
func (r *ObjectRepository) writeEnvelope(path string, env *storageDomain.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrIO, "failed to encode envelope")
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrIO, "failed to create envelope temp file")
	}

	_, writeErr := f.Write(data)
	if writeErr == nil {
		writeErr = f.Sync()
	}
	if closeErr := f.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		os.Remove(tmp)
		return apperrors.Wrap(apperrors.ErrIO, "failed to write envelope")
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return apperrors.Wrap(apperrors.ErrIO, "failed to publish envelope")
	}
	return nil
}

// legacyEnvelope is the 1.0 sidecar layout, which carried the sensitive fields
// in the clear alongside the public header.
type legacyEnvelope struct {
	storageDomain.Envelope
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	OriginalSize int64  `json:"originalSize"`
	MasterKey    string `json:"masterKey"`
}

// ReadEnvelope loads and validates the envelope for an object. For legacy 1.0
// envelopes the clear sensitive fields are returned as a SensitiveMetadata;
// for 2.0 envelopes the second return is nil and the caller decrypts
// EncryptedMetadata itself.
func (r *ObjectRepository) ReadEnvelope(
	ownerID int64,
	fileID string,
) (*storageDomain.Envelope, *storageDomain.SensitiveMetadata, error) {
	return r.ReadEnvelopeByHash(r.ns.UserHash(ownerID), fileID)
}

// ReadEnvelopeByHash is ReadEnvelope keyed by user hash, for sweeps that walk
// namespaces without knowing the owner ids behind them.
func (r *ObjectRepository) ReadEnvelopeByHash(
	userHash string,
	fileID string,
) (*storageDomain.Envelope, *storageDomain.SensitiveMetadata, error) {
	data, err := os.ReadFile(r.ns.EnvelopePathByHash(userHash, fileID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, storageDomain.ErrObjectNotFound
		}
		return nil, nil, apperrors.Wrap(apperrors.ErrIO, "failed to read envelope")
	}

	var legacy legacyEnvelope
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", storageDomain.ErrMalformedEnvelope, err)
	}

	env := legacy.Envelope
	if err := env.Validate(); err != nil {
		return nil, nil, err
	}
	if env.FileID != fileID {
		return nil, nil, storageDomain.ErrEnvelopeMismatch
	}

	if env.Version != storageDomain.EnvelopeVersionLegacy {
		return &env, nil, nil
	}

	if r.logger != nil {
		r.logger.Warn("read legacy 1.0 envelope with clear metadata",
			slog.String("file_id", fileID),
		)
	}
	nameHash := sha256.Sum256([]byte(legacy.OriginalName))
	sensitive := &storageDomain.SensitiveMetadata{
		OriginalName:     legacy.OriginalName,
		MimeType:         legacy.MimeType,
		OriginalSize:     legacy.OriginalSize,
		MasterKey:        legacy.MasterKey,
		OriginalNameHash: hex.EncodeToString(nameHash[:]),
	}
	if err := sensitive.Validate(); err != nil {
		return nil, nil, err
	}
	return &env, sensitive, nil
}

// OpenCiphertext opens the .enc blob for streaming.
func (r *ObjectRepository) OpenCiphertext(ownerID int64, fileID string) (*os.File, error) {
	f, err := os.Open(r.ns.CiphertextPath(ownerID, fileID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, storageDomain.ErrObjectNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrIO, "failed to open ciphertext")
	}
	return f, nil
}

// SecureDelete overwrites both sidecars with random bytes and unlinks them.
// Deleting an absent object is not an error; Delete is idempotent. The object
// is reported as existing if at least one sidecar was present.
func (r *ObjectRepository) SecureDelete(ownerID int64, fileID string) (bool, error) {
	existed := false
	for _, path := range []string{
		r.ns.EnvelopePath(ownerID, fileID),
		r.ns.CiphertextPath(ownerID, fileID),
	} {
		found, err := r.shredFile(path)
		if err != nil {
			return existed, err
		}
		existed = existed || found
	}
	return existed, nil
}

// shredFile overwrites path with random data then unlinks it. Overwrite
// failures degrade to a plain unlink with a warning; the delete must not fail
// just because shredding could not run.
func (r *ObjectRepository) shredFile(path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, apperrors.Wrap(apperrors.ErrIO, "failed to stat file for deletion")
	}

	if info.Mode().IsRegular() && info.Size() > 0 {
		if err := overwriteRandom(path, info.Size()); err != nil && r.logger != nil {
			r.logger.Warn("failed to overwrite file before unlink",
				slog.String("path", path),
				slog.Any("error", err),
			)
		}
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return true, apperrors.Wrap(apperrors.ErrIO, "failed to unlink file")
	}
	return true, nil
}

func overwriteRandom(path string, size int64) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	buf := make([]byte, 64*1024)
	var written int64
	for written < size {
		n := int64(len(buf))
		if size-written < n {
			n = size - written
		}
		if _, err := rand.Read(buf[:n]); err != nil {
			return err
		}
		if _, err := f.Write(buf[:n]); err != nil {
			return err
		}
		written += n
	}
	return f.Sync()
}

// ListEnvelopeIDs returns the file ids that have an envelope sidecar.
func (r *ObjectRepository) ListEnvelopeIDs(ownerID int64) ([]string, error) {
	return r.ListEnvelopeIDsByHash(r.ns.UserHash(ownerID))
}

// ListEnvelopeIDsByHash is ListEnvelopeIDs keyed by user hash.
func (r *ObjectRepository) ListEnvelopeIDsByHash(userHash string) ([]string, error) {
	return listIDs(r.ns.MetadataDirByHash(userHash), envelopeExt)
}

// ListCiphertextIDs returns the file ids that have a ciphertext blob.
func (r *ObjectRepository) ListCiphertextIDs(ownerID int64) ([]string, error) {
	return r.ListCiphertextIDsByHash(r.ns.UserHash(ownerID))
}

// ListCiphertextIDsByHash is ListCiphertextIDs keyed by user hash.
func (r *ObjectRepository) ListCiphertextIDsByHash(userHash string) ([]string, error) {
	return listIDs(r.ns.FilesDirByHash(userHash), ciphertextExt)
}

func listIDs(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrIO, "failed to list objects")
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ext) {
			continue
		}
		id := strings.TrimSuffix(name, ext)
		if storageDomain.ValidFileID(id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Stats aggregates object count and encrypted bytes for an owner.
func (r *ObjectRepository) Stats(ownerID int64) (*storageDomain.UsageStats, error) {
	entries, err := os.ReadDir(r.ns.FilesDir(ownerID))
	if err != nil {
		if os.IsNotExist(err) {
			return &storageDomain.UsageStats{}, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrIO, "failed to read files directory")
	}

	stats := &storageDomain.UsageStats{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ciphertextExt) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Objects++
		stats.EncryptedBytes += info.Size()
	}
	return stats, nil
}

// CiphertextSize returns the on-disk size of the .enc blob.
func (r *ObjectRepository) CiphertextSize(ownerID int64, fileID string) (int64, error) {
	info, err := os.Stat(r.ns.CiphertextPath(ownerID, fileID))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, storageDomain.ErrObjectNotFound
		}
		return 0, apperrors.Wrap(apperrors.ErrIO, "failed to stat ciphertext")
	}
	return info.Size(), nil
}
