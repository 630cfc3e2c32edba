package commands

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	storageUsecase "github.com/Jisevind/relayum-storage/internal/storage/usecase"
)

// RunPut encrypts and stores a local file for a user, printing the minted
// file id and sizes.
func RunPut(ctx context.Context, owner int, filePath, name, mimeType string, cmdIO IOTuple) error {
	container, useCase, err := newEngine()
	if err != nil {
		return err
	}
	defer closeContainer(container, container.Logger())

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	if name == "" {
		name = filepath.Base(filePath)
	}
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(name))
	}

	result, err := useCase.Put(ctx, &storageUsecase.PutInput{
		OwnerID:      int64(owner),
		OriginalName: name,
		MimeType:     mimeType,
		Data:         f,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmdIO.Writer, "file_id:        %s\n", result.FileID)
	fmt.Fprintf(cmdIO.Writer, "original_size:  %d\n", result.OriginalSize)
	fmt.Fprintf(cmdIO.Writer, "encrypted_size: %d\n", result.EncryptedSize)
	fmt.Fprintf(cmdIO.Writer, "plaintext_hash: %s\n", result.PlaintextHash)
	return nil
}

// RunCat streams an object's decrypted plaintext to the writer. Integrity is
// verified frame by frame while streaming and against the recorded hash at EOF.
func RunCat(ctx context.Context, owner int, fileID string, cmdIO IOTuple) error {
	container, useCase, err := newEngine()
	if err != nil {
		return err
	}
	defer closeContainer(container, container.Logger())

	_, stream, err := useCase.GetStream(ctx, int64(owner), fileID)
	if err != nil {
		return err
	}
	defer stream.Close()

	if _, err := io.Copy(cmdIO.Writer, stream); err != nil {
		return err
	}
	return nil
}

// RunStat prints an object's decrypted metadata.
func RunStat(ctx context.Context, owner int, fileID string, cmdIO IOTuple) error {
	container, useCase, err := newEngine()
	if err != nil {
		return err
	}
	defer closeContainer(container, container.Logger())

	info, err := useCase.Stat(ctx, int64(owner), fileID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmdIO.Writer, "file_id:          %s\n", info.FileID)
	fmt.Fprintf(cmdIO.Writer, "original_name:    %s\n", info.OriginalName)
	fmt.Fprintf(cmdIO.Writer, "mime_type:        %s\n", info.MimeType)
	fmt.Fprintf(cmdIO.Writer, "original_size:    %d\n", info.OriginalSize)
	fmt.Fprintf(cmdIO.Writer, "encrypted_size:   %d\n", info.EncryptedSize)
	fmt.Fprintf(cmdIO.Writer, "plaintext_hash:   %s\n", info.PlaintextHash)
	fmt.Fprintf(cmdIO.Writer, "uploaded_at:      %s\n", info.UploadedAt.Format("2006-01-02T15:04:05Z07:00"))
	fmt.Fprintf(cmdIO.Writer, "envelope_version: %s\n", info.EnvelopeVersion)
	return nil
}

// RunDelete securely removes an object.
func RunDelete(ctx context.Context, owner int, fileID string, cmdIO IOTuple) error {
	container, useCase, err := newEngine()
	if err != nil {
		return err
	}
	defer closeContainer(container, container.Logger())

	existed, err := useCase.Delete(ctx, int64(owner), fileID)
	if err != nil {
		return err
	}

	if existed {
		fmt.Fprintf(cmdIO.Writer, "deleted %s\n", fileID)
	} else {
		fmt.Fprintf(cmdIO.Writer, "%s did not exist\n", fileID)
	}
	return nil
}

// RunStats prints a user's aggregate storage usage.
func RunStats(ctx context.Context, owner int, cmdIO IOTuple) error {
	container, useCase, err := newEngine()
	if err != nil {
		return err
	}
	defer closeContainer(container, container.Logger())

	stats, err := useCase.Stats(ctx, int64(owner))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmdIO.Writer, "objects:         %d\n", stats.Objects)
	fmt.Fprintf(cmdIO.Writer, "encrypted_bytes: %d\n", stats.EncryptedBytes)
	return nil
}
