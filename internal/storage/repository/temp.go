package repository

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/Jisevind/relayum-storage/internal/errors"
)

// CleanupTemp removes staging files older than maxAge, returning how many were
// deleted. Files that disappear or resist removal mid-sweep are logged and
// skipped so one bad entry cannot abort the sweep.
func (r *ObjectRepository) CleanupTemp(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(r.ns.TempDir())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, apperrors.Wrap(apperrors.ErrIO, "failed to read temp directory")
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		path := filepath.Join(r.ns.TempDir(), e.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			if r.logger != nil {
				r.logger.Warn("failed to remove stale temp file",
					slog.String("path", path),
					slog.Any("error", err),
				)
			}
			continue
		}
		removed++
	}
	return removed, nil
}
