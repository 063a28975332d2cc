package forkjoin

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/randalmurphal/forkjoin/pkg/forkjoin/memo"
)

// Context provides execution context to leaf functions.
// It extends context.Context with forkjoin-specific services and metadata.
//
// Context is immutable after creation. The engine creates derived
// contexts for each task with the updated tree path and an enriched
// logger.
type Context interface {
	context.Context

	// Services

	// Logger returns the configured logger, enriched with run and task context.
	// Never returns nil - defaults to slog.Default() if not configured.
	Logger() *slog.Logger

	// Memoizer returns the memo store, or nil if not configured.
	// Leaf functions should check for nil before using.
	Memoizer() memo.Store

	// Metadata

	// RunID returns the unique identifier for this execution run.
	// Auto-generated if not configured.
	RunID() string

	// Path returns the tree position of the task currently executing:
	// "" at the root, then one "L" or "R" per split level.
	Path() string
}

// executionContext is the internal implementation of Context.
type executionContext struct {
	context.Context

	logger   *slog.Logger
	memoizer memo.Store
	runID    string
	path     string
}

// Logger returns the configured logger.
func (c *executionContext) Logger() *slog.Logger {
	return c.logger
}

// Memoizer returns the memo store.
func (c *executionContext) Memoizer() memo.Store {
	return c.memoizer
}

// RunID returns the run identifier.
func (c *executionContext) RunID() string {
	return c.runID
}

// Path returns the current task's tree path.
func (c *executionContext) Path() string {
	return c.path
}

// ContextOption configures a Context.
type ContextOption func(*executionContext)

// WithLogger sets the logger for the context.
// The logger will be enriched with run_id and path during execution.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *executionContext) {
		c.logger = logger
	}
}

// WithMemoizer sets the memo store for the context.
func WithMemoizer(store memo.Store) ContextOption {
	return func(c *executionContext) {
		c.memoizer = store
	}
}

// WithContextRunID sets the run identifier for the context.
// If not set, a UUID will be auto-generated.
// This is used for logging and tracing. For memoization, use
// WithRunID() as a RunOption with Run().
func WithContextRunID(id string) ContextOption {
	return func(c *executionContext) {
		c.runID = id
	}
}

// NewContext creates an execution context from a standard context.
// The returned Context wraps the provided context.Context and adds
// forkjoin-specific services and metadata.
//
// Example:
//
//	ctx := forkjoin.NewContext(context.Background(),
//	    forkjoin.WithLogger(myLogger),
//	    forkjoin.WithContextRunID("run-123"))
func NewContext(ctx context.Context, opts ...ContextOption) Context {
	ec := &executionContext{
		Context: ctx,
		logger:  slog.Default(),
		runID:   uuid.New().String(),
	}

	for _, opt := range opts {
		opt(ec)
	}

	return ec
}

// withPath returns a new context with the given tree path set.
// Used internally by the engine to enrich the context per task.
func (c *executionContext) withPath(path string) *executionContext {
	return &executionContext{
		Context:  c.Context,
		logger:   c.logger.With("run_id", c.runID, "path", path),
		memoizer: c.memoizer,
		runID:    c.runID,
		path:     path,
	}
}

// withContext returns a copy with the embedded context.Context
// replaced. Used to thread span contexts through the task tree.
func (c *executionContext) withContext(ctx context.Context) *executionContext {
	return &executionContext{
		Context:  ctx,
		logger:   c.logger,
		memoizer: c.memoizer,
		runID:    c.runID,
		path:     c.path,
	}
}

// asExecutionContext converts any Context into the internal form so
// the engine can derive per-task contexts from caller-supplied
// implementations as well.
func asExecutionContext(ctx Context) *executionContext {
	if ec, ok := ctx.(*executionContext); ok {
		return ec
	}
	return &executionContext{
		Context:  ctx,
		logger:   ctx.Logger(),
		memoizer: ctx.Memoizer(),
		runID:    ctx.RunID(),
		path:     ctx.Path(),
	}
}
