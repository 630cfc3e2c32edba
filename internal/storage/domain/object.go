package domain

import "time"

// StoredObject locates a single user-owned encrypted artifact on disk.
// An object is valid only when both sidecars exist.
type StoredObject struct {
	FileID         string
	OwnerID        int64
	CiphertextPath string
	MetadataPath   string
}

// PutResult is returned by a successful Put.
type PutResult struct {
	FileID         string
	CiphertextPath string
	MetadataPath   string
	OriginalSize   int64
	EncryptedSize  int64
	PlaintextHash  string
}

// ObjectInfo is the metadata view exposed by Stat, Get and GetStream.
// Sensitive fields are populated from the decrypted envelope body; the master
// key itself is never included.
type ObjectInfo struct {
	FileID           string
	OriginalName     string
	MimeType         string
	OriginalSize     int64
	OriginalNameHash string
	EncryptedSize    int64
	PlaintextHash    string
	UploadedAt       time.Time
	EnvelopeVersion  string
}

// VerifyStatus classifies an object during a verification sweep.
type VerifyStatus string

const (
	// VerifyOK means the .enc/.meta pair is present and the envelope parses
	// with all required fields.
	VerifyOK VerifyStatus = "ok"
	// VerifyOrphanCiphertext means a .enc exists without a readable .meta
	// (e.g., crash between the two atomic renames of a Put).
	VerifyOrphanCiphertext VerifyStatus = "orphan_ciphertext"
	// VerifyMissingCiphertext means a .meta exists without its .enc.
	VerifyMissingCiphertext VerifyStatus = "missing_ciphertext"
	// VerifyMalformed means the envelope exists but fails validation.
	VerifyMalformed VerifyStatus = "malformed_envelope"
)

// VerifyEntry is one line of a verification report.
type VerifyEntry struct {
	FileID string
	Status VerifyStatus
	Error  string
}

// VerifyReport is the result of a read-only sweep over one user namespace.
type VerifyReport struct {
	UserHash  string
	Entries   []VerifyEntry
	CheckedAt time.Time
}

// Healthy reports whether every entry verified clean.
func (r *VerifyReport) Healthy() bool {
	for _, e := range r.Entries {
		if e.Status != VerifyOK {
			return false
		}
	}
	return true
}

// UsageStats aggregates a user's stored objects.
type UsageStats struct {
	Objects        int64
	EncryptedBytes int64
}
