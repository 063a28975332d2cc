package forkjoin

import (
	"context"
	"encoding/json"
	"errors"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/forkjoin/pkg/forkjoin/memo"
	"github.com/randalmurphal/forkjoin/pkg/forkjoin/observability"
	"github.com/randalmurphal/forkjoin/pkg/forkjoin/retry"
)

// Task is one node of the recursive computation tree. A task either
// computes its input directly (leaf) or splits it, forks the right
// half through the spawner, computes the left half inline, and
// combines the two results.
//
// Tasks are single-use: Compute may be called exactly once.
type Task[I Splittable[I], R Combinable[R]] struct {
	input   I
	leaf    LeafFunc[I, R]
	spawner Spawner[I, R]
	cfg     *runConfig

	path  string
	depth int

	// leaves counts leaf computations across the whole tree.
	leaves *atomic.Int64

	consumed atomic.Bool
}

// NewTask creates a root task for direct use with a spawner. Most
// callers should use Run or Engine.Run instead, which add run-level
// observability and option handling.
func NewTask[I Splittable[I], R Combinable[R]](input I, leaf LeafFunc[I, R], spawner Spawner[I, R]) *Task[I, R] {
	cfg := defaultRunConfig()
	return &Task[I, R]{
		input:   input,
		leaf:    leaf,
		spawner: spawner,
		cfg:     &cfg,
		leaves:  &atomic.Int64{},
	}
}

// Path returns the task's position in the split tree: "" for the
// root, then one "L" or "R" per level.
func (t *Task[I, R]) Path() string {
	return t.path
}

// prototype builds a child task sharing this task's leaf function,
// spawner, and configuration, wrapping a new input at a new path.
func (t *Task[I, R]) prototype(input I, path string) *Task[I, R] {
	return &Task[I, R]{
		input:   input,
		leaf:    t.leaf,
		spawner: t.spawner,
		cfg:     t.cfg,
		path:    path,
		depth:   t.depth + 1,
		leaves:  t.leaves,
	}
}

// Compute executes the task and returns its combined result.
//
// A leaf input goes straight to the leaf function. Otherwise the input
// is split; the right child is forked through the spawner while the
// left child is computed inline on this goroutine, and the results are
// combined as leftResult.Combine(rightResult).
//
// Any task error cancels a run-scoped context, so sibling subtrees of
// a failed task stop at their next dispatch check instead of running
// to completion. Domain calls already in flight are not interrupted.
//
// Panics in domain code (Split, the leaf function, Combine) are
// recovered and returned as *PanicError with the task path and stack.
func (t *Task[I, R]) Compute(ctx Context) (result R, err error) {
	var zero R
	if ctx == nil {
		return zero, ErrNilContext
	}
	if !t.consumed.CompareAndSwap(false, true) {
		return zero, &TaskError{Path: t.path, Op: "compute", Err: ErrTaskConsumed}
	}

	ec := asExecutionContext(ctx)

	// The root derives a cancellable context for the whole run.
	// Children are created after this write and share cfg.
	if t.depth == 0 && t.cfg.cancelRun == nil {
		cctx, cancel := context.WithCancel(ec.Context)
		defer cancel()
		t.cfg.cancelRun = cancel
		ec = ec.withContext(cctx)
	}

	// A failed task prunes the rest of the run: every still-expanding
	// subtree collapses at its next dispatch check, which keeps a
	// failing never-leaf input at O(depth) nodes rather than 2^depth.
	defer func() {
		if err != nil && t.cfg.cancelRun != nil {
			t.cfg.cancelRun()
		}
	}()

	// Check for cancellation before dispatching. In-flight domain
	// calls are not interrupted.
	select {
	case <-ec.Done():
		return zero, &TaskError{Path: t.path, Op: "compute", Err: ec.Err()}
	default:
	}

	if t.depth > t.cfg.maxDepth {
		return zero, &DepthError{Max: t.cfg.maxDepth, Path: t.path}
	}

	// Recover panics from this node's own domain calls. Child tasks
	// recover their own.
	defer func() {
		if r := recover(); r != nil {
			result = zero
			err = &PanicError{
				Path:  t.path,
				Value: r,
				Stack: string(debug.Stack()),
			}
		}
	}()

	isLeaf := t.input.Leaf()

	if t.cfg.tracingEnabled {
		tctx, span := t.cfg.spans.StartTaskSpan(ec, t.path, isLeaf)
		defer func() {
			t.cfg.spans.EndSpanWithError(span, err)
		}()
		ec = ec.withContext(tctx)
	}

	if isLeaf {
		return t.computeLeaf(ec)
	}
	return t.split(ec)
}

// split divides the input and runs the two halves, one forked and one
// inline.
func (t *Task[I, R]) split(ec *executionContext) (R, error) {
	var zero R

	left, right, err := t.input.Split()
	if err != nil {
		return zero, &TaskError{Path: t.path, Op: "split", Err: err}
	}

	observability.LogSplit(t.cfg.logger, t.path)
	t.cfg.metrics.RecordSplit(ec, t.path)

	leftTask := t.prototype(left, t.path+"L")
	rightTask := t.prototype(right, t.path+"R")

	// Fork the right half; keep this goroutine busy with the left.
	handle := t.spawner.Fork(ec, rightTask)
	leftResult, leftErr := leftTask.Compute(ec)
	rightResult, rightErr := handle.Join()

	if leftErr != nil || rightErr != nil {
		return zero, primaryError(leftErr, rightErr)
	}

	// Left is the receiver so ordered payloads keep input order.
	combined, err := leftResult.Combine(rightResult)
	if err != nil {
		return zero, &TaskError{Path: t.path, Op: "combine", Err: err}
	}
	return combined, nil
}

// primaryError picks the error a join propagates. A subtree cancelled
// by the run-wide prune is collateral; the originating failure on the
// other side is the one worth reporting.
func primaryError(leftErr, rightErr error) error {
	if leftErr == nil {
		return rightErr
	}
	if rightErr == nil {
		return leftErr
	}
	if errors.Is(leftErr, context.Canceled) && !errors.Is(rightErr, context.Canceled) {
		return rightErr
	}
	return leftErr
}

// computeLeaf runs the leaf function on a leaf input, consulting the
// memo store first when memoization is enabled.
func (t *Task[I, R]) computeLeaf(ec *executionContext) (R, error) {
	var zero R

	// Dispatch guarantees this; a violation is an engine bug.
	if !t.input.Leaf() {
		return zero, &TaskError{Path: t.path, Op: "leaf", Err: ErrLeafNotComputable}
	}

	if result, ok, err := t.loadMemo(ec); err != nil {
		return zero, err
	} else if ok {
		t.leaves.Add(1)
		return result, nil
	}

	observability.LogLeafStart(t.cfg.logger, t.path)

	leafCtx := ec.withPath(t.path)
	start := time.Now()

	var result R
	var leafErr error
	if t.cfg.leafRetry != nil {
		r := retry.DoContext(ec, *t.cfg.leafRetry, func(_ context.Context) (R, error) {
			return t.leaf(leafCtx, t.input)
		})
		result, leafErr = r.Value, r.Err
	} else {
		result, leafErr = t.leaf(leafCtx, t.input)
	}

	duration := time.Since(start)
	t.cfg.metrics.RecordLeaf(ec, t.path, duration, leafErr)

	if leafErr != nil {
		observability.LogLeafError(t.cfg.logger, t.path, leafErr)
		return zero, &TaskError{Path: t.path, Op: "leaf", Err: leafErr}
	}

	observability.LogLeafComplete(t.cfg.logger, t.path, float64(duration.Milliseconds()))
	t.leaves.Add(1)

	if err := t.saveMemo(ec, result); err != nil {
		return zero, err
	}

	return result, nil
}

// loadMemo returns a previously stored result for this task, if
// memoization is enabled and the store has one. Store failures are
// logged and treated as misses unless memo failures are fatal.
func (t *Task[I, R]) loadMemo(ec *executionContext) (R, bool, error) {
	var zero R
	if t.cfg.memo == nil {
		return zero, false, nil
	}

	data, err := t.cfg.memo.Load(t.cfg.runID, t.path)
	if errors.Is(err, memo.ErrNotFound) {
		return zero, false, nil
	}
	if err != nil {
		if t.cfg.memoFailureFatal {
			return zero, false, &MemoError{Path: t.path, Op: "load", Err: err}
		}
		observability.LogMemoError(t.cfg.logger, t.path, "load", err)
		return zero, false, nil
	}

	rec, err := memo.Unmarshal(data)
	if err == nil {
		var result R
		uerr := json.Unmarshal(rec.Result, &result)
		if uerr == nil {
			observability.LogMemoHit(t.cfg.logger, t.path, len(data))
			t.cfg.metrics.RecordMemo(ec, t.path, true, int64(len(data)))
			return result, true, nil
		}
		err = uerr
	}

	if t.cfg.memoFailureFatal {
		return zero, false, &MemoError{Path: t.path, Op: "deserialize", Err: err}
	}
	observability.LogMemoError(t.cfg.logger, t.path, "deserialize", err)
	return zero, false, nil
}

// saveMemo stores a freshly computed leaf result. Failures are logged
// and non-fatal unless memo failures are fatal.
func (t *Task[I, R]) saveMemo(ec *executionContext, result R) error {
	if t.cfg.memo == nil {
		return nil
	}

	serialized, err := json.Marshal(result)
	if err != nil {
		if t.cfg.memoFailureFatal {
			return &MemoError{Path: t.path, Op: "serialize", Err: err}
		}
		observability.LogMemoError(t.cfg.logger, t.path, "serialize", err)
		return nil
	}

	data, err := memo.New(t.cfg.runID, t.path, serialized).Marshal()
	if err != nil {
		if t.cfg.memoFailureFatal {
			return &MemoError{Path: t.path, Op: "marshal", Err: err}
		}
		observability.LogMemoError(t.cfg.logger, t.path, "marshal", err)
		return nil
	}

	if err := t.cfg.memo.Save(t.cfg.runID, t.path, data); err != nil {
		if t.cfg.memoFailureFatal {
			return &MemoError{Path: t.path, Op: "save", Err: err}
		}
		observability.LogMemoError(t.cfg.logger, t.path, "save", err)
		return nil
	}

	observability.LogMemoSave(t.cfg.logger, t.path, len(data))
	t.cfg.metrics.RecordMemo(ec, t.path, false, int64(len(data)))
	return nil
}
