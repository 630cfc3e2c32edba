// Package usecase defines the interfaces and implementations for the encrypted
// object engine. Use cases orchestrate key derivation, the frame codec and the
// filesystem repository to implement per-user encrypted storage.
package usecase

import (
	"context"
	"io"
	"os"
	"time"

	validation "github.com/jellydator/validation"

	apperrors "github.com/Jisevind/relayum-storage/internal/errors"
	storageDomain "github.com/Jisevind/relayum-storage/internal/storage/domain"
	appvalidation "github.com/Jisevind/relayum-storage/internal/validation"
)

// ObjectRepository defines the persistence operations required by the engine.
type ObjectRepository interface {
	UserHash(ownerID int64) string
	CiphertextPath(ownerID int64, fileID string) string
	EnvelopePath(ownerID int64, fileID string) string
	CreateStaging() (string, *os.File, error)
	Discard(stagingPath string)
	Commit(ownerID int64, fileID string, stagingPath string, env *storageDomain.Envelope) error
	ReadEnvelope(ownerID int64, fileID string) (*storageDomain.Envelope, *storageDomain.SensitiveMetadata, error)
	ReadEnvelopeByHash(userHash, fileID string) (*storageDomain.Envelope, *storageDomain.SensitiveMetadata, error)
	OpenCiphertext(ownerID int64, fileID string) (*os.File, error)
	CiphertextSize(ownerID int64, fileID string) (int64, error)
	SecureDelete(ownerID int64, fileID string) (bool, error)
	ListEnvelopeIDs(ownerID int64) ([]string, error)
	ListEnvelopeIDsByHash(userHash string) ([]string, error)
	ListCiphertextIDs(ownerID int64) ([]string, error)
	ListCiphertextIDsByHash(userHash string) ([]string, error)
	ListUserHashes() ([]string, error)
	Stats(ownerID int64) (*storageDomain.UsageStats, error)
	CleanupTemp(maxAge time.Duration) (int, error)
}

// PutInput carries one upload into the engine. Data is streamed once; the
// engine never buffers the whole plaintext.
type PutInput struct {
	OwnerID      int64
	OriginalName string
	MimeType     string
	Data         io.Reader
}

// Validate checks the input before any key material is generated.
func (i *PutInput) Validate() error {
	if i.Data == nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, "data: cannot be nil")
	}
	err := validation.ValidateStruct(i,
		validation.Field(&i.OwnerID, validation.Required, validation.Min(int64(1))),
		validation.Field(&i.OriginalName, validation.Required, appvalidation.ObjectName),
		validation.Field(&i.MimeType, appvalidation.MimeType),
	)
	return appvalidation.WrapValidationError(err)
}

// ObjectUseCase defines the engine's public operations.
type ObjectUseCase interface {
	// Put encrypts and stores one object, returning its minted file id.
	Put(ctx context.Context, input *PutInput) (*storageDomain.PutResult, error)

	// PutFile stores the plaintext staged at tempPath and removes the
	// staging file once the object is committed. This is the entry point for
	// upload collaborators that hand over a temp artifact.
	PutFile(ctx context.Context, ownerID int64, tempPath, originalName, mimeType string) (*storageDomain.PutResult, error)

	// Get retrieves and decrypts a full object into memory.
	//
	// Security Note: the returned slice is plaintext. Callers MUST zero it
	// after use with cryptoDomain.Zero.
	Get(ctx context.Context, ownerID int64, fileID string) (*storageDomain.ObjectInfo, []byte, error)

	// GetStream retrieves an object as a decrypting stream. The reader
	// verifies every frame before yielding it and checks the plaintext hash
	// at EOF; the caller must Close it.
	GetStream(ctx context.Context, ownerID int64, fileID string) (*storageDomain.ObjectInfo, io.ReadCloser, error)

	// Stat returns object metadata without touching the ciphertext.
	Stat(ctx context.Context, ownerID int64, fileID string) (*storageDomain.ObjectInfo, error)

	// Delete securely removes an object. Deleting an absent object is not an
	// error; the return reports whether anything existed.
	Delete(ctx context.Context, ownerID int64, fileID string) (bool, error)

	// Verify sweeps one user namespace read-only and reports sidecar health.
	Verify(ctx context.Context, ownerID int64) (*storageDomain.VerifyReport, error)

	// VerifyAll sweeps every user namespace.
	VerifyAll(ctx context.Context) ([]*storageDomain.VerifyReport, error)

	// Stats aggregates a user's stored objects.
	Stats(ctx context.Context, ownerID int64) (*storageDomain.UsageStats, error)

	// CreateTemp allocates an empty staging file for upload spooling.
	CreateTemp(ctx context.Context) (string, error)

	// CleanupTemp removes staging files older than maxAge.
	CleanupTemp(ctx context.Context, maxAge time.Duration) (int, error)
}
