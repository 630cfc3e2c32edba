package usecase

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweeperRunOnce(t *testing.T) {
	engine := newTestEngine(t)
	ctx := context.Background()

	engine.put(t, 7, "kept.txt", []byte("kept"))

	stale, err := engine.useCase.CreateTemp(ctx)
	require.NoError(t, err)
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	sweeper := NewSweeper(SweeperConfig{
		Interval:       time.Minute,
		FilesPerSecond: 1000,
		TempMaxAge:     time.Hour,
	}, engine.repo, nil)

	require.NoError(t, sweeper.RunOnce(ctx))
	assert.NoFileExists(t, stale)
}

func TestSweeperStartStopsOnCancel(t *testing.T) {
	engine := newTestEngine(t)

	sweeper := NewSweeper(SweeperConfig{
		Interval:   10 * time.Millisecond,
		TempMaxAge: time.Hour,
	}, engine.repo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- sweeper.Start(ctx)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancel")
	}
}

func TestSweeperRespectsContextDuringSweep(t *testing.T) {
	engine := newTestEngine(t)
	engine.put(t, 7, "a.txt", []byte("a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sweeper := NewSweeper(SweeperConfig{Interval: time.Minute}, engine.repo, nil)
	err := sweeper.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
