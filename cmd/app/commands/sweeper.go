package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jisevind/relayum-storage/internal/app"
	"github.com/Jisevind/relayum-storage/internal/config"
)

// RunSweeper starts the background maintenance sweeper with graceful shutdown
// support. When metrics are enabled the Prometheus exposition server runs
// alongside it. Blocks until SIGINT/SIGTERM or a fatal error.
func RunSweeper(ctx context.Context, version string) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("starting sweeper", slog.String("version", version))

	defer closeContainer(container, logger)

	sweeper, err := container.Sweeper()
	if err != nil {
		return fmt.Errorf("failed to initialize sweeper: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runErr := make(chan error, 2)
	go func() {
		if err := sweeper.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			runErr <- fmt.Errorf("sweeper error: %w", err)
		}
	}()

	if cfg.MetricsEnabled {
		metricsServer, err := container.MetricsServer()
		if err != nil {
			return fmt.Errorf("failed to initialize metrics server: %w", err)
		}
		go func() {
			if err := metricsServer.Start(); err != nil {
				runErr <- fmt.Errorf("metrics server error: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-runErr:
		logger.Error("sweeper failed, shutting down", slog.Any("error", err))
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if shutErr := container.Shutdown(shutdownCtx); shutErr != nil {
			return errors.Join(err, shutErr)
		}
		return err
	}
	return nil
}
