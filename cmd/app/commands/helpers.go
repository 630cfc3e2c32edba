// Package commands contains CLI command implementations for the storage engine.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/Jisevind/relayum-storage/internal/app"
	"github.com/Jisevind/relayum-storage/internal/config"
	storageUsecase "github.com/Jisevind/relayum-storage/internal/storage/usecase"
)

// IOTuple holds reader and writer for commands, allowing for testing.
type IOTuple struct {
	Reader io.Reader
	Writer io.Writer
}

// DefaultIO returns an IOTuple with os.Stdin and os.Stdout.
func DefaultIO() IOTuple {
	return IOTuple{
		Reader: os.Stdin,
		Writer: os.Stdout,
	}
}

// newEngine loads configuration and assembles the engine use case. Callers
// must close the returned container when done.
func newEngine() (*app.Container, storageUsecase.ObjectUseCase, error) {
	container := app.NewContainer(config.Load())

	useCase, err := container.ObjectUseCase()
	if err != nil {
		closeContainer(container, container.Logger())
		return nil, nil, err
	}
	return container, useCase, nil
}

// closeContainer closes all resources in the container and logs any errors.
func closeContainer(container *app.Container, logger *slog.Logger) {
	if err := container.Shutdown(context.Background()); err != nil {
		logger.Error("failed to shutdown container", slog.Any("error", err))
	}
}
