package domain

import (
	"github.com/Jisevind/relayum-storage/internal/errors"
)

// Storage engine error definitions.
//
// These wrap the standard sentinels from internal/errors so callers can branch
// on kind (NotFound, Integrity, Crypto, IO) without inspecting messages.
var (
	// ErrObjectNotFound indicates no stored object exists for the given
	// (user, file id) pair: the envelope, the ciphertext, or both are missing.
	ErrObjectNotFound = errors.Wrap(errors.ErrNotFound, "object not found")

	// ErrMalformedEnvelope indicates the .meta sidecar could not be parsed or
	// is missing required fields. Treated as an integrity event.
	ErrMalformedEnvelope = errors.Wrap(errors.ErrIntegrity, "malformed envelope")

	// ErrEnvelopeMismatch indicates the envelope's file id does not match the
	// on-disk filename stem. Detected by verification sweeps.
	ErrEnvelopeMismatch = errors.Wrap(errors.ErrIntegrity, "envelope file id mismatch")

	// ErrUnsupportedVersion indicates an envelope version this release cannot read.
	ErrUnsupportedVersion = errors.Wrap(errors.ErrCrypto, "unsupported envelope version")

	// ErrFrameCorrupted indicates a ciphertext frame failed authentication,
	// was reordered, or was structurally invalid.
	ErrFrameCorrupted = errors.Wrap(errors.ErrIntegrity, "ciphertext frame corrupted")

	// ErrHashMismatch indicates the plaintext hash accumulated over a fully
	// decrypted stream does not equal the envelope's recorded hash. Raised
	// even when every frame tag verified.
	ErrHashMismatch = errors.Wrap(errors.ErrIntegrity, "plaintext hash mismatch")
)
