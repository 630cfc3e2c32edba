package domain

import "context"

// KMSKeeper abstracts a gocloud.dev secrets keeper used to unwrap the process
// metadata key at startup. *secrets.Keeper satisfies this interface.
type KMSKeeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}
