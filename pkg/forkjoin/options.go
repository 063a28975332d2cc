package forkjoin

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/forkjoin/pkg/forkjoin/config"
	"github.com/randalmurphal/forkjoin/pkg/forkjoin/memo"
	"github.com/randalmurphal/forkjoin/pkg/forkjoin/observability"
	"github.com/randalmurphal/forkjoin/pkg/forkjoin/retry"
)

// runConfig holds configuration for one run.
type runConfig struct {
	maxDepth   int
	workers    int
	sequential bool
	runID      string

	logger         *slog.Logger
	metrics        observability.MetricsRecorder
	spans          observability.SpanManager
	tracingEnabled bool

	memo             memo.Store
	memoFailureFatal bool

	leafRetry *retry.Config

	// cancelRun collapses the run's remaining tasks once any task has
	// failed. Set by the root task when it starts computing.
	cancelRun context.CancelFunc
}

// defaultRunConfig returns the default execution configuration.
func defaultRunConfig() runConfig {
	return runConfig{
		maxDepth: 64,
		metrics:  observability.NoopMetrics{},
		spans:    observability.NoopSpanManager{},
	}
}

// RunOption configures execution behavior.
type RunOption func(*runConfig)

// WithMaxDepth sets the maximum split depth.
// Default: 64
//
// This converts a Splittable whose Split does not strictly decrease
// size - so Leaf never becomes true - into a DepthError instead of
// unbounded recursion. A balanced binary split over n items only needs
// depth ceil(log2(n)), so the default is far beyond any legitimate
// input.
//
// Example:
//
//	result, err := forkjoin.Run(ctx, input, leaf, forkjoin.WithMaxDepth(20))
func WithMaxDepth(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.maxDepth = n
		}
	}
}

// WithMaxWorkers bounds the number of forked tasks in flight using a
// pool spawner. 0 (the default) forks a fresh goroutine per split.
func WithMaxWorkers(n int) RunOption {
	return func(c *runConfig) {
		if n > 0 {
			c.workers = n
			c.sequential = false
		}
	}
}

// WithSequential runs the whole tree depth-first on the calling
// goroutine. Fully deterministic; mainly useful for testing and as a
// baseline for benchmarks.
func WithSequential() RunOption {
	return func(c *runConfig) {
		c.sequential = true
		c.workers = 0
	}
}

// WithRunID sets the run identifier used for logging, tracing, and
// memoization keys. Required when memoization is enabled; pass a
// stable value to hit memoized results across runs.
func WithRunID(id string) RunOption {
	return func(c *runConfig) {
		c.runID = id
	}
}

// WithRunLogger sets the logger for engine-level logging (run
// lifecycle, splits, leaves, memo operations). Without it the engine
// is silent; leaf functions still get a logger from the Context.
func WithRunLogger(logger *slog.Logger) RunOption {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// WithMetrics enables OpenTelemetry metrics.
// Configure the global meter provider before running.
func WithMetrics(enabled bool) RunOption {
	return func(c *runConfig) {
		if enabled {
			c.metrics = observability.NewMetricsRecorder()
		} else {
			c.metrics = observability.NoopMetrics{}
		}
	}
}

// WithTracing enables OpenTelemetry tracing: a forkjoin.run span with
// one nested forkjoin.task span per tree node.
// Configure the global tracer provider before running.
func WithTracing(enabled bool) RunOption {
	return func(c *runConfig) {
		c.tracingEnabled = enabled
		if enabled {
			c.spans = observability.NewSpanManager()
		} else {
			c.spans = observability.NoopSpanManager{}
		}
	}
}

// WithMemoization stores every computed leaf result in the given
// store, keyed by (run ID, tree path), and serves already-stored
// results instead of recomputing. Requires WithRunID.
func WithMemoization(store memo.Store) RunOption {
	return func(c *runConfig) {
		c.memo = store
	}
}

// WithMemoFailureFatal makes memo store failures abort the run.
// By default they are logged and the leaf is (re)computed.
func WithMemoFailureFatal() RunOption {
	return func(c *runConfig) {
		c.memoFailureFatal = true
	}
}

// WithLeafRetry retries failed leaf computations according to the
// given policy. Only the leaf function is retried; split and combine
// failures are never retried.
func WithLeafRetry(cfg retry.Config) RunOption {
	return func(c *runConfig) {
		copied := cfg
		c.leafRetry = &copied
	}
}

// OptionsFromConfig maps a loaded config.Config onto run options.
//
// Recognized keys:
//
//	max_depth            int
//	workers              int
//	sequential           bool
//	run_id               string
//	metrics              bool
//	tracing              bool
//	memo_failure_fatal   bool
//	leaf_retry_attempts  int
//	leaf_retry_backoff   duration string ("500ms") or seconds
//
// Unknown keys are ignored so engine and application settings can
// share one file.
func OptionsFromConfig(c config.Config) []RunOption {
	var opts []RunOption

	if c.Has("max_depth") {
		opts = append(opts, WithMaxDepth(c.Int("max_depth", 0)))
	}
	if c.Has("workers") {
		opts = append(opts, WithMaxWorkers(c.Int("workers", 0)))
	}
	if c.Bool("sequential", false) {
		opts = append(opts, WithSequential())
	}
	if id := c.String("run_id", ""); id != "" {
		opts = append(opts, WithRunID(id))
	}
	if c.Has("metrics") {
		opts = append(opts, WithMetrics(c.Bool("metrics", false)))
	}
	if c.Has("tracing") {
		opts = append(opts, WithTracing(c.Bool("tracing", false)))
	}
	if c.Bool("memo_failure_fatal", false) {
		opts = append(opts, WithMemoFailureFatal())
	}
	if attempts := c.Int("leaf_retry_attempts", 0); attempts > 1 {
		rc := retry.Default
		rc.MaxAttempts = attempts
		rc.InitialBackoff = c.Duration("leaf_retry_backoff", rc.InitialBackoff)
		opts = append(opts, WithLeafRetry(rc))
	}

	return opts
}
