// Package app provides the dependency injection container assembling the
// storage engine's components.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/Jisevind/relayum-storage/internal/config"
	cryptoDomain "github.com/Jisevind/relayum-storage/internal/crypto/domain"
	cryptoService "github.com/Jisevind/relayum-storage/internal/crypto/service"
	apperrors "github.com/Jisevind/relayum-storage/internal/errors"
	"github.com/Jisevind/relayum-storage/internal/metrics"
	"github.com/Jisevind/relayum-storage/internal/storage/repository"
	storageUsecase "github.com/Jisevind/relayum-storage/internal/storage/usecase"
)

// Container holds all application dependencies and provides methods to access
// them. It follows the lazy initialization pattern: components are created on
// first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	metadataKey     *cryptoDomain.MetadataKey
	metadataCipher  cryptoService.MetadataCipher
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	metricsServer   *metrics.Server

	// Storage layer
	objectRepo    *repository.ObjectRepository
	objectUseCase storageUsecase.ObjectUseCase
	sweeper       *storageUsecase.Sweeper

	// Initialization flags and mutex for thread-safety
	mu                  sync.Mutex
	loggerInit          sync.Once
	metadataKeyInit     sync.Once
	metadataCipherInit  sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	metricsServerInit   sync.Once
	objectRepoInit      sync.Once
	objectUseCaseInit   sync.Once
	sweeperInit         sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// MetadataKey returns the process metadata key, loading it from the
// environment or unwrapping it through the configured KMS keeper.
func (c *Container) MetadataKey() (*cryptoDomain.MetadataKey, error) {
	c.metadataKeyInit.Do(func() {
		key, err := c.initMetadataKey()
		if err != nil {
			c.initErrors["metadataKey"] = err
			return
		}
		c.metadataKey = key
	})
	if storedErr, exists := c.initErrors["metadataKey"]; exists {
		return nil, storedErr
	}
	return c.metadataKey, nil
}

// MetadataCipher returns the cipher protecting envelope sensitive blobs.
func (c *Container) MetadataCipher() (cryptoService.MetadataCipher, error) {
	c.metadataCipherInit.Do(func() {
		cipher, err := c.initMetadataCipher()
		if err != nil {
			c.initErrors["metadataCipher"] = err
			return
		}
		c.metadataCipher = cipher
	})
	if storedErr, exists := c.initErrors["metadataCipher"]; exists {
		return nil, storedErr
	}
	return c.metadataCipher, nil
}

// MetricsProvider returns the OpenTelemetry/Prometheus metrics provider.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		provider, err := metrics.NewProvider()
		if err != nil {
			c.initErrors["metricsProvider"] = err
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the engine metrics recorder, or a no-op
// implementation when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		m, err := c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		c.businessMetrics = m
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// MetricsServer returns the Prometheus exposition server.
func (c *Container) MetricsServer() (*metrics.Server, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		c.metricsServer = metrics.NewServer(provider, c.config.MetricsPort, c.Logger())
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// ObjectRepository returns the filesystem object repository.
func (c *Container) ObjectRepository() (*repository.ObjectRepository, error) {
	c.objectRepoInit.Do(func() {
		repo, err := c.initObjectRepository()
		if err != nil {
			c.initErrors["objectRepo"] = err
			return
		}
		c.objectRepo = repo
	})
	if storedErr, exists := c.initErrors["objectRepo"]; exists {
		return nil, storedErr
	}
	return c.objectRepo, nil
}

// ObjectUseCase returns the engine use case, decorated with metrics when enabled.
func (c *Container) ObjectUseCase() (storageUsecase.ObjectUseCase, error) {
	c.objectUseCaseInit.Do(func() {
		useCase, err := c.initObjectUseCase()
		if err != nil {
			c.initErrors["objectUseCase"] = err
			return
		}
		c.objectUseCase = useCase
	})
	if storedErr, exists := c.initErrors["objectUseCase"]; exists {
		return nil, storedErr
	}
	return c.objectUseCase, nil
}

// Sweeper returns the background maintenance sweeper.
func (c *Container) Sweeper() (*storageUsecase.Sweeper, error) {
	c.sweeperInit.Do(func() {
		repo, err := c.ObjectRepository()
		if err != nil {
			c.initErrors["sweeper"] = err
			return
		}
		c.sweeper = storageUsecase.NewSweeper(storageUsecase.SweeperConfig{
			Interval:       c.config.SweepInterval,
			FilesPerSecond: c.config.SweepFilesPerSec,
			TempMaxAge:     c.config.TempMaxAge,
		}, repo, c.Logger())
	})
	if storedErr, exists := c.initErrors["sweeper"]; exists {
		return nil, storedErr
	}
	return c.sweeper, nil
}

// Shutdown performs cleanup of all initialized resources, zeroing the process
// metadata key last.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.metadataKey != nil {
		c.metadataKey.Close()
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}
	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initMetadataKey resolves the process metadata key. A KMS-wrapped key takes
// precedence over a plaintext environment key.
func (c *Container) initMetadataKey() (*cryptoDomain.MetadataKey, error) {
	if c.config.MetadataEncryptionKeyCiphertext != "" {
		if c.config.KMSKeyURI == "" {
			return nil, apperrors.Wrap(apperrors.ErrConfig,
				"METADATA_ENCRYPTION_KEY_CIPHERTEXT requires KMS_KEY_URI")
		}
		return cryptoService.UnwrapMetadataKey(
			context.Background(),
			cryptoService.NewKMSService(),
			c.config.KMSKeyURI,
			c.config.MetadataEncryptionKeyCiphertext,
		)
	}

	if c.config.MetadataEncryptionKey == "" {
		return nil, cryptoDomain.ErrMetadataKeyNotSet
	}
	return cryptoDomain.DecodeMetadataKey(c.config.MetadataEncryptionKey)
}

// initMetadataCipher creates the sensitive-blob cipher from the metadata key
// and the configured algorithm.
func (c *Container) initMetadataCipher() (cryptoService.MetadataCipher, error) {
	key, err := c.MetadataKey()
	if err != nil {
		return nil, err
	}

	alg, err := cryptoDomain.ParseAlgorithm(c.config.MetadataCipher)
	if err != nil {
		return nil, err
	}

	return cryptoService.NewMetadataCipher(cryptoService.NewAEADManager(), key, alg)
}

// initBusinessMetrics creates the metrics recorder respecting the enabled flag.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	if !c.config.MetricsEnabled {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, err
	}
	return metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
}

// initObjectRepository creates the namespace layout and repository.
func (c *Container) initObjectRepository() (*repository.ObjectRepository, error) {
	ns := repository.NewNamespace(c.config.UploadRoot, c.Logger())
	if err := ns.EnsureBase(); err != nil {
		return nil, err
	}
	return repository.NewObjectRepository(ns, c.Logger()), nil
}

// initObjectUseCase assembles the engine use case with its metrics decorator.
func (c *Container) initObjectUseCase() (storageUsecase.ObjectUseCase, error) {
	repo, err := c.ObjectRepository()
	if err != nil {
		return nil, err
	}

	cipher, err := c.MetadataCipher()
	if err != nil {
		return nil, err
	}

	useCase := storageUsecase.NewObjectUseCase(repo, cipher, c.config.ChunkSize, c.Logger())

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, err
	}
	return storageUsecase.NewObjectUseCaseWithMetrics(useCase, businessMetrics), nil
}
