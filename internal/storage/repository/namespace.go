// Package repository implements filesystem persistence for encrypted objects:
// per-user namespaces, envelope sidecars, ciphertext blobs, staging files and
// secure deletion.
package repository

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	apperrors "github.com/Jisevind/relayum-storage/internal/errors"
)

const (
	userDirMode = 0o700
	baseDirMode = 0o755

	usersDirName  = "users"
	filesDirName  = "files"
	metaDirName   = "metadata"
	tempDirName   = "temp"
	sharedDirName = "shared"

	ciphertextExt = ".enc"
	envelopeExt   = ".meta"
)

// Namespace maps owner ids to their on-disk directory layout under the upload
// root. User directories are keyed by SHA-256("user:" + owner id) so directory
// names never reveal user identifiers.
type Namespace struct {
	uploadRoot string
	logger     *slog.Logger
}

// NewNamespace creates a Namespace rooted at uploadRoot.
func NewNamespace(uploadRoot string, logger *slog.Logger) *Namespace {
	return &Namespace{uploadRoot: uploadRoot, logger: logger}
}

// UserHash returns the directory name for an owner id.
func (n *Namespace) UserHash(ownerID int64) string {
	sum := sha256.Sum256([]byte("user:" + strconv.FormatInt(ownerID, 10)))
	return hex.EncodeToString(sum[:])
}

// UserRoot returns the namespace directory for an owner id.
func (n *Namespace) UserRoot(ownerID int64) string {
	return n.UserRootByHash(n.UserHash(ownerID))
}

// UserRootByHash returns the namespace directory for a known user hash.
// Verification sweeps walk namespaces by hash since the mapping back to owner
// ids is one-way.
func (n *Namespace) UserRootByHash(userHash string) string {
	return filepath.Join(n.uploadRoot, usersDirName, userHash)
}

// FilesDir returns the ciphertext directory for an owner id.
func (n *Namespace) FilesDir(ownerID int64) string {
	return n.FilesDirByHash(n.UserHash(ownerID))
}

// FilesDirByHash returns the ciphertext directory for a user hash.
func (n *Namespace) FilesDirByHash(userHash string) string {
	return filepath.Join(n.UserRootByHash(userHash), filesDirName)
}

// MetadataDir returns the envelope directory for an owner id.
func (n *Namespace) MetadataDir(ownerID int64) string {
	return n.MetadataDirByHash(n.UserHash(ownerID))
}

// MetadataDirByHash returns the envelope directory for a user hash.
func (n *Namespace) MetadataDirByHash(userHash string) string {
	return filepath.Join(n.UserRootByHash(userHash), metaDirName)
}

// CiphertextPath returns the .enc path for an object.
func (n *Namespace) CiphertextPath(ownerID int64, fileID string) string {
	return filepath.Join(n.FilesDir(ownerID), fileID+ciphertextExt)
}

// EnvelopePath returns the .meta path for an object.
func (n *Namespace) EnvelopePath(ownerID int64, fileID string) string {
	return filepath.Join(n.MetadataDir(ownerID), fileID+envelopeExt)
}

// EnvelopePathByHash returns the .meta path for an object in a hash-keyed namespace.
func (n *Namespace) EnvelopePathByHash(userHash, fileID string) string {
	return filepath.Join(n.MetadataDirByHash(userHash), fileID+envelopeExt)
}

// TempDir returns the staging directory shared by all users.
func (n *Namespace) TempDir() string {
	return filepath.Join(n.uploadRoot, tempDirName)
}

// SharedDir returns the directory reserved for shared-link artifacts.
func (n *Namespace) SharedDir() string {
	return filepath.Join(n.uploadRoot, sharedDirName)
}

// EnsureBase creates the upload root and its temp and shared subtrees.
func (n *Namespace) EnsureBase() error {
	for _, dir := range []string{n.uploadRoot, n.TempDir(), n.SharedDir()} {
		if err := os.MkdirAll(dir, baseDirMode); err != nil {
			return apperrors.Wrap(apperrors.ErrIO, fmt.Sprintf("failed to create %s: %v", dir, err))
		}
	}
	return nil
}

// EnsureUser creates the owner's namespace with files and metadata subtrees.
// Restrictive 0700 permissions are applied best-effort: on filesystems that
// reject chmod (some network mounts) the failure is logged and ignored.
func (n *Namespace) EnsureUser(ownerID int64) error {
	for _, dir := range []string{n.UserRoot(ownerID), n.FilesDir(ownerID), n.MetadataDir(ownerID)} {
		if err := os.MkdirAll(dir, userDirMode); err != nil {
			return apperrors.Wrap(apperrors.ErrIO, fmt.Sprintf("failed to create %s: %v", dir, err))
		}
		if err := os.Chmod(dir, userDirMode); err != nil {
			if n.logger != nil {
				n.logger.Warn("failed to restrict namespace permissions",
					slog.String("dir", dir),
					slog.Any("error", err),
				)
			}
		}
	}
	return nil
}

// ListUserHashes returns the hash directory names of every user namespace.
func (n *Namespace) ListUserHashes() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(n.uploadRoot, usersDirName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrIO, "failed to list user namespaces")
	}

	hashes := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			hashes = append(hashes, e.Name())
		}
	}
	return hashes, nil
}
