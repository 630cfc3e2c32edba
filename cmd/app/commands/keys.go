package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	cryptoDomain "github.com/Jisevind/relayum-storage/internal/crypto/domain"
	cryptoService "github.com/Jisevind/relayum-storage/internal/crypto/service"
)

// RunKeygen generates a 32-byte metadata encryption key and prints it as the
// environment variable the engine loads at startup. Key material is zeroed
// after encoding.
func RunKeygen(io IOTuple) error {
	key := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("failed to generate metadata key: %w", err)
	}
	defer cryptoDomain.Zero(key)

	fmt.Fprintln(io.Writer, "# Metadata Key Configuration")
	fmt.Fprintln(io.Writer, "# Copy this environment variable to your .env file or secrets manager")
	fmt.Fprintln(io.Writer)
	fmt.Fprintf(io.Writer, "METADATA_ENCRYPTION_KEY=%q\n", base64.StdEncoding.EncodeToString(key))
	fmt.Fprintln(io.Writer)
	fmt.Fprintln(io.Writer, "# For production, wrap the key with a cloud KMS instead:")
	fmt.Fprintln(io.Writer, "#   relayum-storage wrap-key --kms-key-uri=\"awskms://...\"")
	return nil
}

// RunWrapKey wraps a metadata key with the KMS keeper at keyURI and prints the
// environment variables for KMS mode. With an empty keyB64 a fresh key is
// generated and wrapped.
//
// For local development use keyURI="base64key://<32-byte-url-base64-key>".
func RunWrapKey(ctx context.Context, keyURI, keyB64 string, io IOTuple) error {
	var key []byte
	if keyB64 == "" {
		key = make([]byte, cryptoDomain.KeySize)
		if _, err := rand.Read(key); err != nil {
			return fmt.Errorf("failed to generate metadata key: %w", err)
		}
	} else {
		decoded, err := base64.StdEncoding.DecodeString(keyB64)
		if err != nil {
			return fmt.Errorf("invalid --key value: %w", err)
		}
		if len(decoded) != cryptoDomain.KeySize {
			return cryptoDomain.ErrInvalidKeySize
		}
		key = decoded
	}
	defer cryptoDomain.Zero(key)

	keeper, err := cryptoService.NewKMSService().OpenKeeper(ctx, keyURI)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := keeper.Close(); closeErr != nil {
			fmt.Fprintf(io.Writer, "Warning: failed to close KMS keeper: %v\n", closeErr)
		}
	}()

	wrapped, err := keeper.Encrypt(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to wrap metadata key: %w", err)
	}

	fmt.Fprintln(io.Writer, "# Metadata Key Configuration (KMS Mode)")
	fmt.Fprintln(io.Writer, "# Copy these environment variables to your .env file or secrets manager")
	fmt.Fprintln(io.Writer)
	fmt.Fprintf(io.Writer, "KMS_KEY_URI=%q\n", keyURI)
	fmt.Fprintf(io.Writer, "METADATA_ENCRYPTION_KEY_CIPHERTEXT=%q\n",
		base64.StdEncoding.EncodeToString(wrapped))
	return nil
}

// RunUnwrapKey decrypts a KMS-wrapped metadata key and prints it base64
// encoded. Intended for key recovery and migration between KMS providers.
func RunUnwrapKey(ctx context.Context, keyURI, ciphertextB64 string, io IOTuple) error {
	key, err := cryptoService.UnwrapMetadataKey(ctx, cryptoService.NewKMSService(), keyURI, ciphertextB64)
	if err != nil {
		return err
	}
	defer key.Close()

	fmt.Fprintf(io.Writer, "METADATA_ENCRYPTION_KEY=%q\n",
		base64.StdEncoding.EncodeToString(key.Bytes()))
	return nil
}
