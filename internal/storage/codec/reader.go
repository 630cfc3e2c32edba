package codec

import (
	"crypto/cipher"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash"
	"io"

	cryptoDomain "github.com/Jisevind/relayum-storage/internal/crypto/domain"
	apperrors "github.com/Jisevind/relayum-storage/internal/errors"
	storageDomain "github.com/Jisevind/relayum-storage/internal/storage/domain"
)

// Reader streams decrypted plaintext out of a framed ciphertext source.
//
// Every frame's tag is verified (with the frame index as AAD) before any of
// its plaintext is yielded, so a caller never observes bytes from a corrupted
// or reordered frame. At end of stream the accumulated plaintext SHA-256 is
// compared against the expected hash; a mismatch surfaces as
// storageDomain.ErrHashMismatch instead of io.EOF.
//
// Reader is not safe for concurrent use.
type Reader struct {
	src          io.ReadCloser
	aead         cipher.AEAD
	expectedHash string
	digest       hash.Hash

	frame    uint64
	cipherBuf []byte
	plain     []byte
	off       int
	err       error
	closed    bool
}

// NewReader wraps src with a decrypting reader keyed by fileKey. expectedHash
// is the hex SHA-256 the full plaintext must match; if empty the final hash
// check is skipped. Close must be called to release the source and zero
// buffered plaintext.
func NewReader(src io.ReadCloser, fileKey []byte, expectedHash string) (*Reader, error) {
	aead, err := newFileAEAD(fileKey)
	if err != nil {
		return nil, err
	}

	return &Reader{
		src:          src,
		aead:         aead,
		expectedHash: expectedHash,
		digest:       sha256.New(),
	}, nil
}

// Read implements io.Reader. Errors are sticky.
func (r *Reader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}

	for r.off >= len(r.plain) {
		if err := r.nextFrame(); err != nil {
			r.err = err
			cryptoDomain.Zero(r.plain)
			return 0, err
		}
	}

	n := copy(p, r.plain[r.off:])
	r.off += n
	return n, nil
}

// nextFrame decodes one frame into r.plain, or finalizes the stream.
func (r *Reader) nextFrame() error {
	var header [headerSize]byte

	_, err := io.ReadFull(r.src, header[:])
	if err == io.EOF {
		return r.finalize()
	}
	if err != nil {
		return fmt.Errorf("%w: truncated frame header", storageDomain.ErrFrameCorrupted)
	}

	length := binary.BigEndian.Uint32(header[:4])
	if length > MaxFrameSize {
		return fmt.Errorf("%w: frame length %d exceeds limit", storageDomain.ErrFrameCorrupted, length)
	}

	need := int(length) + TagSize
	if cap(r.cipherBuf) < need {
		r.cipherBuf = make([]byte, need)
	}
	r.cipherBuf = r.cipherBuf[:need]
	if _, err := io.ReadFull(r.src, r.cipherBuf); err != nil {
		return fmt.Errorf("%w: truncated frame body", storageDomain.ErrFrameCorrupted)
	}

	cryptoDomain.Zero(r.plain)
	plain, err := r.aead.Open(r.plain[:0], header[4:headerSize], r.cipherBuf, frameAAD(r.frame))
	if err != nil {
		return fmt.Errorf("%w: frame %d failed authentication", storageDomain.ErrFrameCorrupted, r.frame)
	}

	r.plain = plain
	r.off = 0
	r.digest.Write(plain)
	r.frame++

	// An empty frame is only valid as the sole frame of an empty object.
	if len(plain) == 0 && r.frame > 1 {
		return fmt.Errorf("%w: unexpected empty frame %d", storageDomain.ErrFrameCorrupted, r.frame-1)
	}
	return nil
}

// finalize runs at clean EOF of the underlying source.
func (r *Reader) finalize() error {
	if r.frame == 0 {
		return fmt.Errorf("%w: ciphertext stream has no frames", storageDomain.ErrFrameCorrupted)
	}
	if r.expectedHash != "" {
		got := hex.EncodeToString(r.digest.Sum(nil))
		if got != r.expectedHash {
			return fmt.Errorf("%w: got %s", storageDomain.ErrHashMismatch, got)
		}
	}
	return io.EOF
}

// Close zeroes buffered plaintext and closes the underlying source. It is safe
// to call more than once.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.err == nil {
		r.err = apperrors.New("reader closed")
	}

	cryptoDomain.Zero(r.plain)
	r.plain = nil
	return r.src.Close()
}
