// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all storage engine configuration.
type Config struct {
	// UploadRoot is the base directory for the entire on-disk layout
	// (users/, temp/ and shared/ trees).
	UploadRoot string

	// MetadataEncryptionKey is the base64-encoded 32-byte process metadata key
	// used to encrypt envelope sensitive blobs. Required unless a KMS-wrapped
	// key is configured instead.
	MetadataEncryptionKey string
	// MetadataEncryptionKeyCiphertext is a base64 KMS-wrapped metadata key.
	// When set together with KMSKeyURI, the key is unwrapped at startup.
	MetadataEncryptionKeyCiphertext string
	// KMSKeyURI is the gocloud.dev keeper URI used to unwrap the wrapped key
	// (e.g., "awskms://...", "hashivault://...", "base64key://...").
	KMSKeyURI string
	// MetadataCipher selects the AEAD for envelope sensitive blobs
	// ("aes-gcm" or "chacha20-poly1305"). Frame encryption is always AES-256-GCM.
	MetadataCipher string

	// ChunkSize is the plaintext chunk size in bytes used by the streaming codec.
	ChunkSize int
	// TempMaxAge is the cutoff age for temp artifact cleanup.
	TempMaxAge time.Duration

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace prefix for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics exposition server.
	MetricsPort int

	// SweepEnabled indicates whether the background maintenance sweeper runs.
	SweepEnabled bool
	// SweepInterval is the pause between maintenance sweeps.
	SweepInterval time.Duration
	// SweepFilesPerSec throttles how many envelope files per second a sweep may touch.
	SweepFilesPerSec float64
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Filesystem layout
		UploadRoot: env.GetString("UPLOAD_ROOT", "./uploads"),

		// Metadata key material
		MetadataEncryptionKey:           env.GetString("METADATA_ENCRYPTION_KEY", ""),
		MetadataEncryptionKeyCiphertext: env.GetString("METADATA_ENCRYPTION_KEY_CIPHERTEXT", ""),
		KMSKeyURI:                       env.GetString("KMS_KEY_URI", ""),
		MetadataCipher:                  env.GetString("METADATA_CIPHER", "aes-gcm"),

		// Streaming codec and temp staging
		ChunkSize:  env.GetInt("CHUNK_SIZE", 64*1024),
		TempMaxAge: env.GetDuration("TEMP_MAX_AGE_MINUTES", 60, time.Minute),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "relayum"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),

		// Maintenance sweeper
		SweepEnabled:     env.GetBool("SWEEP_ENABLED", false),
		SweepInterval:    env.GetDuration("SWEEP_INTERVAL_MINUTES", 30, time.Minute),
		SweepFilesPerSec: env.GetFloat64("SWEEP_FILES_PER_SEC", 200.0),
	}
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
