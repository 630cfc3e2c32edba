package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	cryptoDomain "github.com/Jisevind/relayum-storage/internal/crypto/domain"
	cryptoService "github.com/Jisevind/relayum-storage/internal/crypto/service"
	apperrors "github.com/Jisevind/relayum-storage/internal/errors"
	"github.com/Jisevind/relayum-storage/internal/storage/codec"
	storageDomain "github.com/Jisevind/relayum-storage/internal/storage/domain"
)

// fileIDAttempts bounds the mint-and-check loop on Put. Collisions require two
// 128-bit ids to match, so more than one pass is already extraordinary.
const fileIDAttempts = 3

// verifyConcurrency bounds parallel namespace sweeps in VerifyAll.
const verifyConcurrency = 4

// objectUseCase implements the ObjectUseCase interface.
type objectUseCase struct {
	repo           ObjectRepository
	metadataCipher cryptoService.MetadataCipher
	chunkSize      int
	logger         *slog.Logger
}

// NewObjectUseCase creates a new object use case. chunkSize is the plaintext
// bytes per ciphertext frame; zero selects the codec default.
func NewObjectUseCase(
	repo ObjectRepository,
	metadataCipher cryptoService.MetadataCipher,
	chunkSize int,
	logger *slog.Logger,
) ObjectUseCase {
	return &objectUseCase{
		repo:           repo,
		metadataCipher: metadataCipher,
		chunkSize:      chunkSize,
		logger:         logger,
	}
}

// Put encrypts input.Data under a fresh per-object master key and publishes
// the ciphertext and envelope sidecars. The ciphertext lands before the
// envelope so a crash can only leave an orphan ciphertext, never an envelope
// pointing at nothing.
func (u *objectUseCase) Put(
	ctx context.Context,
	input *PutInput,
) (*storageDomain.PutResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	masterKey := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(masterKey); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCrypto, "failed to generate master key")
	}
	defer cryptoDomain.Zero(masterKey)

	fileID, err := u.mintFileID(input)
	if err != nil {
		return nil, err
	}

	fileKey, err := cryptoService.DeriveFileKey(masterKey, fileID)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(fileKey)

	stagingPath, staging, err := u.repo.CreateStaging()
	if err != nil {
		return nil, err
	}

	result, err := u.encryptToStaging(staging, input.Data, fileKey)
	if err != nil {
		u.repo.Discard(stagingPath)
		return nil, err
	}

	opaque, err := u.sealSensitiveMetadata(input, result.PlaintextSize, masterKey)
	if err != nil {
		u.repo.Discard(stagingPath)
		return nil, err
	}

	env := &storageDomain.Envelope{
		FileID:            fileID,
		EncryptedSize:     result.EncryptedSize,
		IV:                base64.StdEncoding.EncodeToString(result.FirstFrameIV),
		Tag:               base64.StdEncoding.EncodeToString(result.FirstFrameTag),
		Hash:              result.PlaintextHash,
		UploadedAt:        time.Now().UTC(),
		Version:           storageDomain.EnvelopeVersionCurrent,
		EncryptedMetadata: opaque,
	}

	if err := u.repo.Commit(input.OwnerID, fileID, stagingPath, env); err != nil {
		u.repo.Discard(stagingPath)
		if errors.Is(err, os.ErrExist) {
			return nil, apperrors.Wrap(apperrors.ErrIO, "file id collided after minting")
		}
		return nil, err
	}

	if u.logger != nil {
		u.logger.Info("object stored",
			slog.String("file_id", fileID),
			slog.Int64("plaintext_size", result.PlaintextSize),
			slog.Int64("encrypted_size", result.EncryptedSize),
		)
	}

	return &storageDomain.PutResult{
		FileID:         fileID,
		CiphertextPath: u.repo.CiphertextPath(input.OwnerID, fileID),
		MetadataPath:   u.repo.EnvelopePath(input.OwnerID, fileID),
		OriginalSize:   result.PlaintextSize,
		EncryptedSize:  result.EncryptedSize,
		PlaintextHash:  result.PlaintextHash,
	}, nil
}

// PutFile stores the plaintext staged at tempPath and removes the staging
// file after a successful commit. A failed removal is logged and ignored; the
// temp sweep collects the leftover.
func (u *objectUseCase) PutFile(
	ctx context.Context,
	ownerID int64,
	tempPath, originalName, mimeType string,
) (*storageDomain.PutResult, error) {
	f, err := os.Open(tempPath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrIO, fmt.Sprintf("failed to open temp artifact: %v", err))
	}

	result, putErr := u.Put(ctx, &PutInput{
		OwnerID:      ownerID,
		OriginalName: originalName,
		MimeType:     mimeType,
		Data:         f,
	})
	f.Close()
	if putErr != nil {
		return nil, putErr
	}

	if err := os.Remove(tempPath); err != nil && u.logger != nil {
		u.logger.Warn("failed to remove consumed temp artifact",
			slog.String("path", tempPath),
			slog.Any("error", err),
		)
	}
	return result, nil
}

// mintFileID generates an id not yet present in the owner's namespace.
func (u *objectUseCase) mintFileID(input *PutInput) (string, error) {
	for range fileIDAttempts {
		id, err := storageDomain.NewFileID(input.OriginalName, input.OwnerID)
		if err != nil {
			return "", apperrors.Wrap(apperrors.ErrCrypto, err.Error())
		}

		_, err = u.repo.CiphertextSize(input.OwnerID, id)
		if errors.Is(err, storageDomain.ErrObjectNotFound) {
			return id, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", apperrors.Wrap(apperrors.ErrIO, "failed to mint unused file id")
}

// encryptToStaging streams src through the frame codec into the staging file
// and fsyncs it before the caller publishes anything.
func (u *objectUseCase) encryptToStaging(
	staging *os.File,
	src io.Reader,
	fileKey []byte,
) (*codec.EncryptResult, error) {
	enc, err := codec.NewEncryptor(fileKey, u.chunkSize)
	if err != nil {
		staging.Close()
		return nil, err
	}
	defer enc.Close()

	result, err := enc.Encrypt(staging, src)
	if err != nil {
		staging.Close()
		return nil, err
	}

	if err := staging.Sync(); err != nil {
		staging.Close()
		return nil, apperrors.Wrap(apperrors.ErrIO, "failed to sync staging file")
	}
	if err := staging.Close(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrIO, "failed to close staging file")
	}
	return result, nil
}

// sealSensitiveMetadata builds and encrypts the envelope's confidential body.
func (u *objectUseCase) sealSensitiveMetadata(
	input *PutInput,
	plaintextSize int64,
	masterKey []byte,
) (string, error) {
	sensitive, err := storageDomain.NewSensitiveMetadata(
		input.OriginalName,
		input.MimeType,
		plaintextSize,
		masterKey,
	)
	if err != nil {
		return "", err
	}

	blob, err := json.Marshal(sensitive)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrCrypto, "failed to encode sensitive metadata")
	}
	defer cryptoDomain.Zero(blob)

	return u.metadataCipher.EncryptMetadata(blob)
}

// loadObject reads the envelope and recovers the sensitive body, decrypting it
// for 2.0 envelopes or taking the clear legacy fields for 1.0.
func (u *objectUseCase) loadObject(
	ownerID int64,
	fileID string,
) (*storageDomain.Envelope, *storageDomain.SensitiveMetadata, error) {
	if !storageDomain.ValidFileID(fileID) {
		return nil, nil, apperrors.Wrap(apperrors.ErrInvalidInput, "malformed file id")
	}

	env, sensitive, err := u.repo.ReadEnvelope(ownerID, fileID)
	if err != nil {
		return nil, nil, err
	}

	if sensitive == nil {
		blob, err := u.metadataCipher.DecryptMetadata(env.EncryptedMetadata)
		if err != nil {
			return nil, nil, err
		}
		defer cryptoDomain.Zero(blob)

		sensitive = &storageDomain.SensitiveMetadata{}
		if err := json.Unmarshal(blob, sensitive); err != nil {
			return nil, nil, fmt.Errorf("%w: bad sensitive metadata", storageDomain.ErrMalformedEnvelope)
		}
		if err := sensitive.Validate(); err != nil {
			return nil, nil, err
		}
	}
	return env, sensitive, nil
}

func objectInfo(env *storageDomain.Envelope, sensitive *storageDomain.SensitiveMetadata) *storageDomain.ObjectInfo {
	return &storageDomain.ObjectInfo{
		FileID:           env.FileID,
		OriginalName:     sensitive.OriginalName,
		MimeType:         sensitive.MimeType,
		OriginalSize:     sensitive.OriginalSize,
		OriginalNameHash: sensitive.OriginalNameHash,
		EncryptedSize:    env.EncryptedSize,
		PlaintextHash:    env.Hash,
		UploadedAt:       env.UploadedAt,
		EnvelopeVersion:  env.Version,
	}
}

// GetStream opens a verified decrypting stream over an object. The underlying
// file stays readable even if the object is deleted mid-stream.
func (u *objectUseCase) GetStream(
	ctx context.Context,
	ownerID int64,
	fileID string,
) (*storageDomain.ObjectInfo, io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	env, sensitive, err := u.loadObject(ownerID, fileID)
	if err != nil {
		return nil, nil, err
	}

	masterKey, err := sensitive.MasterKeyBytes()
	if err != nil {
		return nil, nil, err
	}
	defer cryptoDomain.Zero(masterKey)

	fileKey, err := cryptoService.DeriveFileKey(masterKey, fileID)
	if err != nil {
		return nil, nil, err
	}
	defer cryptoDomain.Zero(fileKey)

	f, err := u.repo.OpenCiphertext(ownerID, fileID)
	if err != nil {
		return nil, nil, err
	}

	reader, err := codec.NewReader(f, fileKey, env.Hash)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return objectInfo(env, sensitive), reader, nil
}

// Get decrypts a full object into memory.
func (u *objectUseCase) Get(
	ctx context.Context,
	ownerID int64,
	fileID string,
) (*storageDomain.ObjectInfo, []byte, error) {
	info, stream, err := u.GetStream(ctx, ownerID, fileID)
	if err != nil {
		return nil, nil, err
	}
	defer stream.Close()

	plaintext, err := io.ReadAll(stream)
	if err != nil {
		cryptoDomain.Zero(plaintext)
		return nil, nil, err
	}
	return info, plaintext, nil
}

// Stat returns object metadata without opening the ciphertext.
func (u *objectUseCase) Stat(
	ctx context.Context,
	ownerID int64,
	fileID string,
) (*storageDomain.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	env, sensitive, err := u.loadObject(ownerID, fileID)
	if err != nil {
		return nil, err
	}
	return objectInfo(env, sensitive), nil
}

// Delete securely removes an object's sidecars.
func (u *objectUseCase) Delete(ctx context.Context, ownerID int64, fileID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !storageDomain.ValidFileID(fileID) {
		return false, apperrors.Wrap(apperrors.ErrInvalidInput, "malformed file id")
	}

	existed, err := u.repo.SecureDelete(ownerID, fileID)
	if err != nil {
		return existed, err
	}
	if existed && u.logger != nil {
		u.logger.Info("object deleted", slog.String("file_id", fileID))
	}
	return existed, nil
}

// Verify sweeps one user namespace.
func (u *objectUseCase) Verify(
	ctx context.Context,
	ownerID int64,
) (*storageDomain.VerifyReport, error) {
	return verifyNamespace(ctx, u.repo, u.repo.UserHash(ownerID), nil)
}

// VerifyAll sweeps every user namespace with bounded concurrency.
func (u *objectUseCase) VerifyAll(ctx context.Context) ([]*storageDomain.VerifyReport, error) {
	hashes, err := u.repo.ListUserHashes()
	if err != nil {
		return nil, err
	}

	reports := make([]*storageDomain.VerifyReport, len(hashes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(verifyConcurrency)

	for i, hash := range hashes {
		g.Go(func() error {
			report, err := verifyNamespace(gctx, u.repo, hash, nil)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

// verifyNamespace performs a read-only sidecar health check over one
// hash-keyed namespace. A non-nil limiter throttles per-object work so
// background sweeps stay off the foreground path.
func verifyNamespace(
	ctx context.Context,
	repo ObjectRepository,
	userHash string,
	limiter *rate.Limiter,
) (*storageDomain.VerifyReport, error) {
	envIDs, err := repo.ListEnvelopeIDsByHash(userHash)
	if err != nil {
		return nil, err
	}
	encIDs, err := repo.ListCiphertextIDsByHash(userHash)
	if err != nil {
		return nil, err
	}

	hasEnc := make(map[string]bool, len(encIDs))
	for _, id := range encIDs {
		hasEnc[id] = true
	}

	all := make(map[string]bool, len(envIDs)+len(encIDs))
	for _, id := range envIDs {
		all[id] = true
	}
	for _, id := range encIDs {
		all[id] = true
	}

	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	report := &storageDomain.VerifyReport{
		UserHash:  userHash,
		CheckedAt: time.Now().UTC(),
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		entry := storageDomain.VerifyEntry{FileID: id, Status: storageDomain.VerifyOK}

		_, _, envErr := repo.ReadEnvelopeByHash(userHash, id)
		switch {
		case errors.Is(envErr, storageDomain.ErrObjectNotFound):
			entry.Status = storageDomain.VerifyOrphanCiphertext
			entry.Error = "ciphertext has no envelope"
		case envErr != nil:
			entry.Status = storageDomain.VerifyMalformed
			entry.Error = envErr.Error()
		case !hasEnc[id]:
			entry.Status = storageDomain.VerifyMissingCiphertext
			entry.Error = "envelope has no ciphertext"
		}

		report.Entries = append(report.Entries, entry)
	}
	return report, nil
}

// Stats aggregates a user's stored objects.
func (u *objectUseCase) Stats(ctx context.Context, ownerID int64) (*storageDomain.UsageStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return u.repo.Stats(ownerID)
}

// CreateTemp allocates an empty staging file and returns its path.
func (u *objectUseCase) CreateTemp(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, f, err := u.repo.CreateStaging()
	if err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", apperrors.Wrap(apperrors.ErrIO, "failed to close temp file")
	}
	return path, nil
}

// CleanupTemp removes staging files older than maxAge.
func (u *objectUseCase) CleanupTemp(ctx context.Context, maxAge time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	removed, err := u.repo.CleanupTemp(maxAge)
	if err != nil {
		return 0, err
	}
	if removed > 0 && u.logger != nil {
		u.logger.Info("temp files cleaned", slog.Int("removed", removed))
	}
	return removed, nil
}
