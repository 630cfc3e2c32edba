package domain

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// NewFileID mints a stable 32-hex object identifier.
//
// The id is SHA-256 over (original name, owner id, high-resolution timestamp,
// 16 random bytes), truncated to 32 hex chars. The random component makes two
// ids minted within the same nanosecond collide with probability ~2^-64;
// uniqueness is ultimately enforced by exclusive file creation, with the
// caller retrying on an existing path.
func NewFileID(originalName string, ownerID int64) (string, error) {
	random := make([]byte, 16)
	if _, err := rand.Read(random); err != nil {
		return "", fmt.Errorf("failed to generate file id randomness: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(originalName))
	h.Write([]byte(strconv.FormatInt(ownerID, 10)))

	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(time.Now().UnixNano()))
	h.Write(ts[:])
	h.Write(random)

	return hex.EncodeToString(h.Sum(nil))[:32], nil
}
