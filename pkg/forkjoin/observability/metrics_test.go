package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest creates a test meter provider and returns a function to collect metrics.
func setupMetricsTest(t *testing.T) (*sdkmetric.ManualReader, func()) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	// Save the original provider
	originalProvider := otel.GetMeterProvider()

	// Set test provider
	otel.SetMeterProvider(provider)

	// Return cleanup function
	cleanup := func() {
		otel.SetMeterProvider(originalProvider)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	}

	return reader, cleanup
}

// collectMetrics collects all metrics from the reader.
func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)
	return &rm
}

// findMetric finds a metric by name in the collected data.
func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetricsRecorder(t *testing.T) {
	_, cleanup := setupMetricsTest(t)
	defer cleanup()

	// NewMetricsRecorder uses the global provider
	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)

	// Should not be a noop (since we set up a real provider)
	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "Expected real metrics recorder, got noop")
}

func TestRecordLeaf(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	// Create a fresh metrics instance using the test provider
	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("records execution count", func(t *testing.T) {
		m.RecordLeaf(ctx, "LL", 50*time.Millisecond, nil)

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "forkjoin.leaf.executions")
		require.NotNil(t, metric)

		sum, ok := metric.Data.(metricdata.Sum[int64])
		require.True(t, ok, "Expected Sum type")
		require.NotEmpty(t, sum.DataPoints)

		// Find the datapoint for our task
		found := false
		for _, dp := range sum.DataPoints {
			for _, attr := range dp.Attributes.ToSlice() {
				if attr.Key == "path" && attr.Value.AsString() == "LL" {
					found = true
					assert.GreaterOrEqual(t, dp.Value, int64(1))
				}
			}
		}
		assert.True(t, found, "Expected to find datapoint for path=LL")
	})

	t.Run("records latency", func(t *testing.T) {
		m.RecordLeaf(ctx, "LR", 100*time.Millisecond, nil)

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "forkjoin.leaf.latency_ms")
		require.NotNil(t, metric)

		hist, ok := metric.Data.(metricdata.Histogram[float64])
		require.True(t, ok, "Expected Histogram type")
		require.NotEmpty(t, hist.DataPoints)
	})

	t.Run("records errors when present", func(t *testing.T) {
		testErr := errors.New("leaf failed")
		m.RecordLeaf(ctx, "RL", 10*time.Millisecond, testErr)

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "forkjoin.leaf.errors")
		require.NotNil(t, metric)

		sum, ok := metric.Data.(metricdata.Sum[int64])
		require.True(t, ok, "Expected Sum type")
		require.NotEmpty(t, sum.DataPoints)

		// Find the datapoint for our task
		found := false
		for _, dp := range sum.DataPoints {
			for _, attr := range dp.Attributes.ToSlice() {
				if attr.Key == "path" && attr.Value.AsString() == "RL" {
					found = true
					assert.GreaterOrEqual(t, dp.Value, int64(1))
				}
			}
		}
		assert.True(t, found, "Expected to find error datapoint")
	})
}

func TestRecordSplit(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordSplit(context.Background(), "L")

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "forkjoin.task.splits")
	require.NotNil(t, metric)

	sum, ok := metric.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.NotEmpty(t, sum.DataPoints)
}

func TestRecordRun(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("records successful runs", func(t *testing.T) {
		m.RecordRun(ctx, true, 500*time.Millisecond)

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "forkjoin.run.runs")
		require.NotNil(t, metric)

		sum, ok := metric.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		require.NotEmpty(t, sum.DataPoints)
	})

	t.Run("records failed runs", func(t *testing.T) {
		m.RecordRun(ctx, false, 100*time.Millisecond)

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "forkjoin.run.runs")
		require.NotNil(t, metric)
	})

	t.Run("records run latency", func(t *testing.T) {
		m.RecordRun(ctx, true, 200*time.Millisecond)

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "forkjoin.run.latency_ms")
		require.NotNil(t, metric)

		hist, ok := metric.Data.(metricdata.Histogram[float64])
		require.True(t, ok, "Expected Histogram type")
		require.NotEmpty(t, hist.DataPoints)
	})
}

func TestRecordMemo(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("records memo size", func(t *testing.T) {
		m.RecordMemo(ctx, "LR", false, 2048)

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "forkjoin.memo.size_bytes")
		require.NotNil(t, metric)

		hist, ok := metric.Data.(metricdata.Histogram[int64])
		require.True(t, ok, "Expected Histogram[int64] type")
		require.NotEmpty(t, hist.DataPoints)

		// Verify attribute
		found := false
		for _, dp := range hist.DataPoints {
			for _, attr := range dp.Attributes.ToSlice() {
				if attr.Key == "path" && attr.Value.AsString() == "LR" {
					found = true
					assert.Greater(t, dp.Count, uint64(0))
				}
			}
		}
		assert.True(t, found, "Expected to find datapoint for path=LR")
	})

	t.Run("records hits only for hits", func(t *testing.T) {
		m.RecordMemo(ctx, "RR", true, 128)

		rm := collectMetrics(t, reader)
		metric := findMetric(rm, "forkjoin.memo.hits")
		require.NotNil(t, metric)

		sum, ok := metric.Data.(metricdata.Sum[int64])
		require.True(t, ok)

		found := false
		for _, dp := range sum.DataPoints {
			for _, attr := range dp.Attributes.ToSlice() {
				if attr.Key == "path" && attr.Value.AsString() == "RR" {
					found = true
					assert.GreaterOrEqual(t, dp.Value, int64(1))
				}
			}
		}
		assert.True(t, found, "Expected to find hit datapoint")
	})
}

func TestOtelMetrics_AllMethods(t *testing.T) {
	reader, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)
	require.NotNil(t, m)

	ctx := context.Background()

	// Call all methods to ensure they work
	m.RecordLeaf(ctx, "L", 25*time.Millisecond, nil)
	m.RecordLeaf(ctx, "R", 10*time.Millisecond, errors.New("test"))
	m.RecordSplit(ctx, "")
	m.RecordRun(ctx, true, 100*time.Millisecond)
	m.RecordRun(ctx, false, 50*time.Millisecond)
	m.RecordMemo(ctx, "LL", true, 1024)

	// Collect and verify all metrics exist
	rm := collectMetrics(t, reader)

	assert.NotNil(t, findMetric(rm, "forkjoin.leaf.executions"))
	assert.NotNil(t, findMetric(rm, "forkjoin.leaf.latency_ms"))
	assert.NotNil(t, findMetric(rm, "forkjoin.leaf.errors"))
	assert.NotNil(t, findMetric(rm, "forkjoin.task.splits"))
	assert.NotNil(t, findMetric(rm, "forkjoin.run.runs"))
	assert.NotNil(t, findMetric(rm, "forkjoin.run.latency_ms"))
	assert.NotNil(t, findMetric(rm, "forkjoin.memo.hits"))
	assert.NotNil(t, findMetric(rm, "forkjoin.memo.size_bytes"))
}

func TestNewOtelMetrics_Creation(t *testing.T) {
	_, cleanup := setupMetricsTest(t)
	defer cleanup()

	m, err := newOtelMetrics()
	require.NoError(t, err)
	require.NotNil(t, m)

	// Verify all metric instruments were created
	assert.NotNil(t, m.leafExecutions)
	assert.NotNil(t, m.leafLatency)
	assert.NotNil(t, m.leafErrors)
	assert.NotNil(t, m.taskSplits)
	assert.NotNil(t, m.runs)
	assert.NotNil(t, m.runLatency)
	assert.NotNil(t, m.memoHits)
	assert.NotNil(t, m.memoSize)
}
