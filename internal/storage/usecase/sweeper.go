package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	storageDomain "github.com/Jisevind/relayum-storage/internal/storage/domain"
)

// SweeperConfig holds background sweeper configuration.
type SweeperConfig struct {
	Interval       time.Duration
	FilesPerSecond float64
	TempMaxAge     time.Duration
}

// Sweeper periodically cleans stale staging files and runs throttled
// verification sweeps over all user namespaces. Sweeps are read-only: problems
// are logged and surfaced through reports, never repaired automatically.
type Sweeper struct {
	config  SweeperConfig
	repo    ObjectRepository
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewSweeper creates a new Sweeper.
func NewSweeper(config SweeperConfig, repo ObjectRepository, logger *slog.Logger) *Sweeper {
	var limiter *rate.Limiter
	if config.FilesPerSecond > 0 {
		burst := int(config.FilesPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(config.FilesPerSecond), burst)
	}
	return &Sweeper{
		config:  config,
		repo:    repo,
		limiter: limiter,
		logger:  logger,
	}
}

// Start runs the sweep loop until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) error {
	if s.logger != nil {
		s.logger.Info("starting storage sweeper",
			slog.Duration("interval", s.config.Interval),
			slog.Float64("files_per_second", s.config.FilesPerSecond),
		)
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.Info("stopping storage sweeper")
			}
			return ctx.Err()
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				if s.logger != nil {
					s.logger.Error("sweep failed", slog.Any("error", err))
				}
			}
		}
	}
}

// RunOnce performs a single temp cleanup plus verification sweep. Each run is
// tagged with a sweep id so log lines from one pass can be correlated.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	sweepID := uuid.New().String()

	if s.config.TempMaxAge > 0 {
		removed, err := s.repo.CleanupTemp(s.config.TempMaxAge)
		if err != nil {
			return err
		}
		if removed > 0 && s.logger != nil {
			s.logger.Info("removed stale temp files",
				slog.String("sweep_id", sweepID),
				slog.Int("count", removed),
			)
		}
	}

	hashes, err := s.repo.ListUserHashes()
	if err != nil {
		return err
	}

	for _, hash := range hashes {
		report, err := verifyNamespace(ctx, s.repo, hash, s.limiter)
		if err != nil {
			return err
		}
		s.logReport(sweepID, report)
	}
	return nil
}

func (s *Sweeper) logReport(sweepID string, report *storageDomain.VerifyReport) {
	if s.logger == nil || report.Healthy() {
		return
	}
	for _, entry := range report.Entries {
		if entry.Status == storageDomain.VerifyOK {
			continue
		}
		s.logger.Warn("verification sweep found unhealthy object",
			slog.String("sweep_id", sweepID),
			slog.String("user_hash", report.UserHash),
			slog.String("file_id", entry.FileID),
			slog.String("status", string(entry.Status)),
			slog.String("detail", entry.Error),
		)
	}
}
