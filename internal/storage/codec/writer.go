package codec

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"

	cryptoDomain "github.com/Jisevind/relayum-storage/internal/crypto/domain"
	apperrors "github.com/Jisevind/relayum-storage/internal/errors"
)

// EncryptResult summarizes a completed encryption pass.
type EncryptResult struct {
	PlaintextSize int64
	EncryptedSize int64
	// PlaintextHash is the hex SHA-256 of the full plaintext, accumulated
	// while streaming so the source is never read twice.
	PlaintextHash string
	// FirstFrameIV and FirstFrameTag are copies of the first frame's nonce and
	// auth tag. The envelope header records them as informational fields only;
	// readers authenticate per frame.
	FirstFrameIV  []byte
	FirstFrameTag []byte
}

// Encryptor streams plaintext into the framed ciphertext format. Memory use is
// bounded by the chunk size: one plaintext buffer and one seal buffer are
// allocated up front and reused for every frame. An Encryptor is single-use
// per Encrypt call and not safe for concurrent use.
type Encryptor struct {
	aead      cipher.AEAD
	chunkSize int
	plainBuf  []byte
	sealBuf   []byte
	nonce     []byte
}

// NewEncryptor creates an encryptor sealing frames under fileKey. chunkSize is
// the plaintext bytes per frame; zero selects DefaultChunkSize.
func NewEncryptor(fileKey []byte, chunkSize int) (*Encryptor, error) {
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkSize < 0 || chunkSize > MaxFrameSize {
		return nil, fmt.Errorf("%w: chunk size %d out of range", apperrors.ErrConfig, chunkSize)
	}

	aead, err := newFileAEAD(fileKey)
	if err != nil {
		return nil, err
	}

	return &Encryptor{
		aead:      aead,
		chunkSize: chunkSize,
		plainBuf:  make([]byte, chunkSize),
		sealBuf:   make([]byte, 0, chunkSize+TagSize),
		nonce:     make([]byte, NonceSize),
	}, nil
}

// Encrypt reads src to EOF and writes the framed ciphertext to dst. Empty
// input still produces one empty frame. On error the bytes already written to
// dst are undefined and the caller must discard the destination.
func (e *Encryptor) Encrypt(dst io.Writer, src io.Reader) (*EncryptResult, error) {
	digest := sha256.New()
	var header [headerSize]byte
	var plainSize, encSize int64
	var frame uint64
	var firstIV, firstTag []byte

	for {
		n, readErr := fullChunk(src, e.plainBuf)
		if readErr != nil && readErr != io.EOF {
			return nil, apperrors.Wrap(apperrors.ErrIO, readErr.Error())
		}
		if n == 0 && frame > 0 {
			break
		}

		chunk := e.plainBuf[:n]
		digest.Write(chunk)
		plainSize += int64(n)

		if _, err := rand.Read(e.nonce); err != nil {
			return nil, fmt.Errorf("failed to generate frame nonce: %w", err)
		}

		binary.BigEndian.PutUint32(header[:4], uint32(n))
		copy(header[4:], e.nonce)

		sealed := e.aead.Seal(e.sealBuf[:0], e.nonce, chunk, frameAAD(frame))
		if frame == 0 {
			firstIV = append([]byte(nil), e.nonce...)
			firstTag = append([]byte(nil), sealed[len(sealed)-TagSize:]...)
		}

		if _, err := dst.Write(header[:]); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrIO, err.Error())
		}
		if _, err := dst.Write(sealed); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrIO, err.Error())
		}
		encSize += int64(headerSize + len(sealed))
		frame++

		if readErr == io.EOF {
			break
		}
	}

	return &EncryptResult{
		PlaintextSize: plainSize,
		EncryptedSize: encSize,
		PlaintextHash: hex.EncodeToString(digest.Sum(nil)),
		FirstFrameIV:  firstIV,
		FirstFrameTag: firstTag,
	}, nil
}

// Close zeroes the plaintext buffer. The encryptor must not be used afterwards.
func (e *Encryptor) Close() {
	cryptoDomain.Zero(e.plainBuf)
}

// fullChunk fills buf from r, returning io.EOF only once the source is fully
// drained. Unlike io.ReadFull a short final chunk is not an error.
func fullChunk(r io.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err == io.EOF {
			return total, io.EOF
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
