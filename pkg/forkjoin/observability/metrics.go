package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records forkjoin metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordLeaf records a leaf computation with its duration and error status.
	RecordLeaf(ctx context.Context, path string, duration time.Duration, err error)

	// RecordSplit records a task splitting into two children.
	RecordSplit(ctx context.Context, path string)

	// RecordRun records a run completion.
	RecordRun(ctx context.Context, success bool, duration time.Duration)

	// RecordMemo records a memo store save or hit.
	RecordMemo(ctx context.Context, path string, hit bool, sizeBytes int64)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	leafExecutions metric.Int64Counter
	leafLatency    metric.Float64Histogram
	leafErrors     metric.Int64Counter
	taskSplits     metric.Int64Counter
	runs           metric.Int64Counter
	runLatency     metric.Float64Histogram
	memoHits       metric.Int64Counter
	memoSize       metric.Int64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("forkjoin")

	leafExecutions, err := meter.Int64Counter("forkjoin.leaf.executions",
		metric.WithDescription("Number of leaf computations"),
	)
	if err != nil {
		return nil, err
	}

	leafLatency, err := meter.Float64Histogram("forkjoin.leaf.latency_ms",
		metric.WithDescription("Leaf computation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	leafErrors, err := meter.Int64Counter("forkjoin.leaf.errors",
		metric.WithDescription("Number of leaf computation errors"),
	)
	if err != nil {
		return nil, err
	}

	taskSplits, err := meter.Int64Counter("forkjoin.task.splits",
		metric.WithDescription("Number of task splits"),
	)
	if err != nil {
		return nil, err
	}

	runs, err := meter.Int64Counter("forkjoin.run.runs",
		metric.WithDescription("Number of runs"),
	)
	if err != nil {
		return nil, err
	}

	runLatency, err := meter.Float64Histogram("forkjoin.run.latency_ms",
		metric.WithDescription("Run latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	memoHits, err := meter.Int64Counter("forkjoin.memo.hits",
		metric.WithDescription("Number of leaf results served from the memo store"),
	)
	if err != nil {
		return nil, err
	}

	memoSize, err := meter.Int64Histogram("forkjoin.memo.size_bytes",
		metric.WithDescription("Memoized leaf result size in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		leafExecutions: leafExecutions,
		leafLatency:    leafLatency,
		leafErrors:     leafErrors,
		taskSplits:     taskSplits,
		runs:           runs,
		runLatency:     runLatency,
		memoHits:       memoHits,
		memoSize:       memoSize,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordLeaf records a leaf computation.
func (m *otelMetrics) RecordLeaf(ctx context.Context, path string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("path", path),
	}

	m.leafExecutions.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.leafLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))

	if err != nil {
		m.leafErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// RecordSplit records a task split.
func (m *otelMetrics) RecordSplit(ctx context.Context, path string) {
	m.taskSplits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("path", path),
	))
}

// RecordRun records a run.
func (m *otelMetrics) RecordRun(ctx context.Context, success bool, duration time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", success),
	}
	m.runs.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.runLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordMemo records a memo save or hit.
func (m *otelMetrics) RecordMemo(ctx context.Context, path string, hit bool, sizeBytes int64) {
	attrs := []attribute.KeyValue{
		attribute.String("path", path),
	}
	if hit {
		m.memoHits.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	m.memoSize.Record(ctx, sizeBytes, metric.WithAttributes(attrs...))
}
