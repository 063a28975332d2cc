package forkjoin

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/forkjoin/pkg/forkjoin/observability"
)

// Engine binds a leaf function to a reusable parallel executor.
// Engines are cheap; build one per leaf function and call Run for
// each input. The zero value is not usable; use New.
type Engine[I Splittable[I], R Combinable[R]] struct {
	leaf    LeafFunc[I, R]
	spawner Spawner[I, R]
}

// New creates an engine for the given leaf function.
func New[I Splittable[I], R Combinable[R]](leaf LeafFunc[I, R]) *Engine[I, R] {
	return &Engine[I, R]{leaf: leaf}
}

// SetSpawner overrides the spawning policy for all runs of this
// engine, taking precedence over WithMaxWorkers and WithSequential.
// Returns the engine for chaining.
func (e *Engine[I, R]) SetSpawner(s Spawner[I, R]) *Engine[I, R] {
	e.spawner = s
	return e
}

// Run computes the full result for input.
//
// The input is recursively split until Leaf() is true, leaves are
// computed in parallel according to the spawning policy, and results
// are combined pairwise in input order.
func (e *Engine[I, R]) Run(ctx Context, input I, opts ...RunOption) (R, error) {
	var zero R
	if ctx == nil {
		return zero, ErrNilContext
	}

	cfg := defaultRunConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.memo != nil && cfg.runID == "" {
		return zero, ErrRunIDRequired
	}

	runID := cfg.runID
	if runID == "" {
		runID = ctx.RunID()
	}

	// WithRunID and WithMemoization override the context's own run ID
	// and memoizer, so leaf contexts and log enrichment agree with the
	// run options.
	ec := asExecutionContext(ctx)
	if cfg.memo != nil || cfg.runID != "" {
		memoizer := ec.memoizer
		if cfg.memo != nil {
			memoizer = cfg.memo
		}
		ec = &executionContext{
			Context:  ec.Context,
			logger:   ec.logger,
			memoizer: memoizer,
			runID:    runID,
			path:     ec.path,
		}
	}

	observability.LogRunStart(cfg.logger, runID)

	if cfg.tracingEnabled {
		rctx, span := cfg.spans.StartRunSpan(ec, runID)
		var runErr error
		defer func() {
			cfg.spans.EndSpanWithError(span, runErr)
		}()
		ec = ec.withContext(rctx)

		result, err := e.run(ec, input, &cfg, runID)
		runErr = err
		return result, err
	}

	return e.run(ec, input, &cfg, runID)
}

// run executes the task tree and records run-level observability.
func (e *Engine[I, R]) run(ec *executionContext, input I, cfg *runConfig, runID string) (R, error) {
	elapsed := observability.TimedOperation()

	leaves := &atomic.Int64{}
	root := &Task[I, R]{
		input:   input,
		leaf:    e.leaf,
		spawner: e.spawnerFor(cfg),
		cfg:     cfg,
		leaves:  leaves,
	}

	result, err := root.Compute(ec)

	durationMs := elapsed()
	cfg.metrics.RecordRun(ec, err == nil, time.Duration(durationMs)*time.Millisecond)

	if err != nil {
		observability.LogRunError(cfg.logger, runID, err, durationMs, errorPath(err))
		var zero R
		return zero, err
	}

	observability.LogRunComplete(cfg.logger, runID, durationMs, int(leaves.Load()))
	return result, nil
}

// spawnerFor resolves the spawning policy: an explicit SetSpawner
// wins, then the sequential and worker-pool options, then the default
// goroutine-per-fork policy.
func (e *Engine[I, R]) spawnerFor(cfg *runConfig) Spawner[I, R] {
	if e.spawner != nil {
		return e.spawner
	}
	if cfg.sequential {
		return NewSameThreadSpawner[I, R]()
	}
	if cfg.workers > 0 {
		return NewPoolSpawner[I, R](cfg.workers)
	}
	return NewGoroutineSpawner[I, R]()
}

// Run computes the full result for input using a one-off engine.
//
// Example:
//
//	result, err := forkjoin.Run(ctx, input, computePremium,
//	    forkjoin.WithMaxWorkers(8))
func Run[I Splittable[I], R Combinable[R]](ctx Context, input I, leaf LeafFunc[I, R], opts ...RunOption) (R, error) {
	return New(leaf).Run(ctx, input, opts...)
}

// errorPath extracts the tree path from an engine error, unwrapping
// spawn errors to the deepest located failure. Returns "" when the
// error carries no path.
func errorPath(err error) string {
	path := ""
	for err != nil {
		switch e := err.(type) {
		case *TaskError:
			path = e.Path
		case *SpawnError:
			path = e.Path
		case *PanicError:
			path = e.Path
		case *MemoError:
			path = e.Path
		case *DepthError:
			path = e.Path
		}
		err = errors.Unwrap(err)
	}
	return path
}
