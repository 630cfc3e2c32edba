package usecase

import (
	"context"
	"io"
	"time"

	"github.com/Jisevind/relayum-storage/internal/metrics"
	storageDomain "github.com/Jisevind/relayum-storage/internal/storage/domain"
)

const metricsDomain = "objects"

// objectUseCaseWithMetrics decorates ObjectUseCase with metrics instrumentation.
type objectUseCaseWithMetrics struct {
	next    ObjectUseCase
	metrics metrics.BusinessMetrics
}

// NewObjectUseCaseWithMetrics wraps an ObjectUseCase with metrics recording.
func NewObjectUseCaseWithMetrics(useCase ObjectUseCase, m metrics.BusinessMetrics) ObjectUseCase {
	return &objectUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// Put records metrics for store operations, including plaintext throughput.
func (o *objectUseCaseWithMetrics) Put(
	ctx context.Context,
	input *PutInput,
) (*storageDomain.PutResult, error) {
	start := time.Now()
	result, err := o.next.Put(ctx, input)

	o.metrics.RecordOperation(ctx, metricsDomain, "object_put", status(err))
	o.metrics.RecordDuration(ctx, metricsDomain, "object_put", time.Since(start), status(err))
	if result != nil {
		o.metrics.RecordBytes(ctx, metricsDomain, "object_put", result.OriginalSize)
	}
	return result, err
}

// PutFile records metrics for temp-artifact store operations.
func (o *objectUseCaseWithMetrics) PutFile(
	ctx context.Context,
	ownerID int64,
	tempPath, originalName, mimeType string,
) (*storageDomain.PutResult, error) {
	start := time.Now()
	result, err := o.next.PutFile(ctx, ownerID, tempPath, originalName, mimeType)

	o.metrics.RecordOperation(ctx, metricsDomain, "object_put_file", status(err))
	o.metrics.RecordDuration(ctx, metricsDomain, "object_put_file", time.Since(start), status(err))
	if result != nil {
		o.metrics.RecordBytes(ctx, metricsDomain, "object_put_file", result.OriginalSize)
	}
	return result, err
}

// Get records metrics for in-memory retrievals.
func (o *objectUseCaseWithMetrics) Get(
	ctx context.Context,
	ownerID int64,
	fileID string,
) (*storageDomain.ObjectInfo, []byte, error) {
	start := time.Now()
	info, plaintext, err := o.next.Get(ctx, ownerID, fileID)

	o.metrics.RecordOperation(ctx, metricsDomain, "object_get", status(err))
	o.metrics.RecordDuration(ctx, metricsDomain, "object_get", time.Since(start), status(err))
	o.metrics.RecordBytes(ctx, metricsDomain, "object_get", int64(len(plaintext)))
	return info, plaintext, err
}

// GetStream records metrics for stream opens. Bytes are not recorded here
// since the stream is consumed by the caller.
func (o *objectUseCaseWithMetrics) GetStream(
	ctx context.Context,
	ownerID int64,
	fileID string,
) (*storageDomain.ObjectInfo, io.ReadCloser, error) {
	start := time.Now()
	info, stream, err := o.next.GetStream(ctx, ownerID, fileID)

	o.metrics.RecordOperation(ctx, metricsDomain, "object_get_stream", status(err))
	o.metrics.RecordDuration(ctx, metricsDomain, "object_get_stream", time.Since(start), status(err))
	return info, stream, err
}

// Stat records metrics for metadata reads.
func (o *objectUseCaseWithMetrics) Stat(
	ctx context.Context,
	ownerID int64,
	fileID string,
) (*storageDomain.ObjectInfo, error) {
	start := time.Now()
	info, err := o.next.Stat(ctx, ownerID, fileID)

	o.metrics.RecordOperation(ctx, metricsDomain, "object_stat", status(err))
	o.metrics.RecordDuration(ctx, metricsDomain, "object_stat", time.Since(start), status(err))
	return info, err
}

// Delete records metrics for secure deletions.
func (o *objectUseCaseWithMetrics) Delete(
	ctx context.Context,
	ownerID int64,
	fileID string,
) (bool, error) {
	start := time.Now()
	existed, err := o.next.Delete(ctx, ownerID, fileID)

	o.metrics.RecordOperation(ctx, metricsDomain, "object_delete", status(err))
	o.metrics.RecordDuration(ctx, metricsDomain, "object_delete", time.Since(start), status(err))
	return existed, err
}

// Verify records metrics for single-namespace sweeps.
func (o *objectUseCaseWithMetrics) Verify(
	ctx context.Context,
	ownerID int64,
) (*storageDomain.VerifyReport, error) {
	start := time.Now()
	report, err := o.next.Verify(ctx, ownerID)

	o.metrics.RecordOperation(ctx, metricsDomain, "object_verify", status(err))
	o.metrics.RecordDuration(ctx, metricsDomain, "object_verify", time.Since(start), status(err))
	return report, err
}

// VerifyAll records metrics for full sweeps.
func (o *objectUseCaseWithMetrics) VerifyAll(
	ctx context.Context,
) ([]*storageDomain.VerifyReport, error) {
	start := time.Now()
	reports, err := o.next.VerifyAll(ctx)

	o.metrics.RecordOperation(ctx, metricsDomain, "object_verify_all", status(err))
	o.metrics.RecordDuration(ctx, metricsDomain, "object_verify_all", time.Since(start), status(err))
	return reports, err
}

// Stats records metrics for usage aggregation.
func (o *objectUseCaseWithMetrics) Stats(
	ctx context.Context,
	ownerID int64,
) (*storageDomain.UsageStats, error) {
	start := time.Now()
	stats, err := o.next.Stats(ctx, ownerID)

	o.metrics.RecordOperation(ctx, metricsDomain, "object_stats", status(err))
	o.metrics.RecordDuration(ctx, metricsDomain, "object_stats", time.Since(start), status(err))
	return stats, err
}

// CreateTemp records metrics for staging file allocation.
func (o *objectUseCaseWithMetrics) CreateTemp(ctx context.Context) (string, error) {
	start := time.Now()
	path, err := o.next.CreateTemp(ctx)

	o.metrics.RecordOperation(ctx, metricsDomain, "temp_create", status(err))
	o.metrics.RecordDuration(ctx, metricsDomain, "temp_create", time.Since(start), status(err))
	return path, err
}

// CleanupTemp records metrics for staging cleanup.
func (o *objectUseCaseWithMetrics) CleanupTemp(
	ctx context.Context,
	maxAge time.Duration,
) (int, error) {
	start := time.Now()
	removed, err := o.next.CleanupTemp(ctx, maxAge)

	o.metrics.RecordOperation(ctx, metricsDomain, "temp_cleanup", status(err))
	o.metrics.RecordDuration(ctx, metricsDomain, "temp_cleanup", time.Since(start), status(err))
	return removed, err
}
