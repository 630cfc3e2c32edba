package usecase

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingMetrics captures metric calls for assertions.
type recordingMetrics struct {
	mu         sync.Mutex
	operations []string
	durations  []string
	bytes      map[string]int64
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{bytes: make(map[string]int64)}
}

func (r *recordingMetrics) RecordOperation(_ context.Context, _, operation, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.operations = append(r.operations, operation+":"+status)
}

func (r *recordingMetrics) RecordDuration(_ context.Context, _, operation string, _ time.Duration, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.durations = append(r.durations, operation+":"+status)
}

func (r *recordingMetrics) RecordBytes(_ context.Context, _, operation string, n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bytes[operation] += n
}

func TestMetricsDecorator(t *testing.T) {
	engine := newTestEngine(t)
	recorder := newRecordingMetrics()
	decorated := NewObjectUseCaseWithMetrics(engine.useCase, recorder)
	ctx := context.Background()

	payload := []byte("metered payload")
	result, err := decorated.Put(ctx, &PutInput{
		OwnerID:      7,
		OriginalName: "metered.txt",
		Data:         bytes.NewReader(payload),
	})
	require.NoError(t, err)

	_, plaintext, err := decorated.Get(ctx, 7, result.FileID)
	require.NoError(t, err)
	assert.Equal(t, payload, plaintext)

	_, err = decorated.Stat(ctx, 7, result.FileID)
	require.NoError(t, err)

	_, err = decorated.Verify(ctx, 7)
	require.NoError(t, err)

	_, err = decorated.Delete(ctx, 7, result.FileID)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"object_put:success",
		"object_get:success",
		"object_stat:success",
		"object_verify:success",
		"object_delete:success",
	}, recorder.operations)
	assert.Equal(t, recorder.operations, recorder.durations)
	assert.Equal(t, int64(len(payload)), recorder.bytes["object_put"])
	assert.Equal(t, int64(len(payload)), recorder.bytes["object_get"])
}

func TestMetricsDecoratorRecordsErrors(t *testing.T) {
	engine := newTestEngine(t)
	recorder := newRecordingMetrics()
	decorated := NewObjectUseCaseWithMetrics(engine.useCase, recorder)

	_, _, err := decorated.Get(context.Background(), 7, "0123456789abcdef0123456789abcdef")
	require.Error(t, err)

	assert.Equal(t, []string{"object_get:error"}, recorder.operations)
}
