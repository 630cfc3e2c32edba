package service

import (
	"encoding/base64"
	"fmt"
	"strings"

	cryptoDomain "github.com/Jisevind/relayum-storage/internal/crypto/domain"
	apperrors "github.com/Jisevind/relayum-storage/internal/errors"
)

// metadataOpaqueVersion tags the internal framing of the encryptedMetadata
// string. The envelope treats the whole string as opaque, so the version and
// algorithm travel inside it.
const metadataOpaqueVersion = "v1"

// MetadataCipherService implements MetadataCipher on top of the AEADManager
// and the process metadata key.
//
// Output format: "v1:<algorithm>:<base64 nonce>:<base64 ciphertext>".
// Base64 never emits ':', so splitting on it is unambiguous. Decryption honors
// the algorithm recorded in the string, so blobs written under either cipher
// remain readable after a configuration change.
type MetadataCipherService struct {
	manager AEADManager
	key     *cryptoDomain.MetadataKey
	alg     cryptoDomain.Algorithm
}

// NewMetadataCipher creates a MetadataCipherService. alg selects the cipher
// used for new blobs; existing blobs decrypt under whatever they were written with.
func NewMetadataCipher(
	manager AEADManager,
	key *cryptoDomain.MetadataKey,
	alg cryptoDomain.Algorithm,
) (*MetadataCipherService, error) {
	// Fail fast on a bad key or algorithm rather than on first use.
	if _, err := manager.CreateCipher(key.Bytes(), alg); err != nil {
		return nil, err
	}

	return &MetadataCipherService{manager: manager, key: key, alg: alg}, nil
}

// EncryptMetadata encrypts a serialized sensitive blob and encodes it as a
// single JSON-embeddable string.
func (m *MetadataCipherService) EncryptMetadata(blob []byte) (string, error) {
	aead, err := m.manager.CreateCipher(m.key.Bytes(), m.alg)
	if err != nil {
		return "", err
	}

	ciphertext, nonce, err := aead.Encrypt(blob, nil)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt metadata: %w", err)
	}

	return strings.Join([]string{
		metadataOpaqueVersion,
		string(m.alg),
		base64.StdEncoding.EncodeToString(nonce),
		base64.StdEncoding.EncodeToString(ciphertext),
	}, ":"), nil
}

// DecryptMetadata decodes and decrypts an opaque string produced by
// EncryptMetadata. A malformed string or failed tag check surfaces as an
// integrity error; sensitive metadata that cannot be authenticated is never
// partially returned.
func (m *MetadataCipherService) DecryptMetadata(opaque string) ([]byte, error) {
	parts := strings.Split(opaque, ":")
	if len(parts) != 4 || parts[0] != metadataOpaqueVersion {
		return nil, apperrors.Wrap(apperrors.ErrIntegrity, "malformed encrypted metadata")
	}

	alg, err := cryptoDomain.ParseAlgorithm(parts[1])
	if err != nil {
		return nil, err
	}

	nonce, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrIntegrity, "malformed metadata nonce")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrIntegrity, "malformed metadata ciphertext")
	}

	aead, err := m.manager.CreateCipher(m.key.Bytes(), alg)
	if err != nil {
		return nil, err
	}

	return aead.Decrypt(ciphertext, nonce, nil)
}
