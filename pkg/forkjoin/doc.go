/*
Package forkjoin provides a generic parallel divide-and-conquer engine.

# Overview

forkjoin executes recursive fork/join computations: an input is split in
half until the pieces are small enough to compute directly, leaves are
computed in parallel, and partial results are recombined pairwise into a
single aggregate. The engine is parameterized over the problem domain
through three small contracts:

  - Splittable: an input that knows whether it is a leaf and how to
    split itself into two halves
  - Combinable: a result that knows how to combine itself with another
  - LeafFunc: the computation applied to each leaf input

The library is built for Go's concurrency model with:
  - Type-safe generics for inputs and results
  - Pluggable spawning policies (goroutine-per-fork, bounded pool,
    same-thread for deterministic testing)
  - Leaf-result memoization (memory, SQLite)
  - OpenTelemetry integration for observability

# Basic Usage

Implement the two data contracts, supply a leaf function, and run:

	type Chunk struct{ Items []int }

	func (c Chunk) Leaf() bool { return len(c.Items) <= 1 }

	func (c Chunk) Split() (Chunk, Chunk, error) {
	    if c.Leaf() {
	        return Chunk{}, Chunk{}, forkjoin.ErrNotSplittable
	    }
	    mid := (len(c.Items) + 1) / 2
	    return Chunk{c.Items[:mid]}, Chunk{c.Items[mid:]}, nil
	}

	type Sums struct{ Values []int }

	func (s Sums) Combine(other Sums) (Sums, error) {
	    merged := make([]int, 0, len(s.Values)+len(other.Values))
	    merged = append(merged, s.Values...)
	    merged = append(merged, other.Values...)
	    return Sums{merged}, nil
	}

	func double(ctx forkjoin.Context, c Chunk) (Sums, error) {
	    return Sums{[]int{c.Items[0] * 2}}, nil
	}

	func main() {
	    ctx := forkjoin.NewContext(context.Background())
	    result, err := forkjoin.Run(ctx, Chunk{[]int{10, 20, 30, 40}}, double)
	    if err != nil {
	        log.Fatal(err)
	    }
	    fmt.Println(result.Values) // [20 40 60 80]
	}

# Ordering

Split assigns the first half of an ordered payload to the left child and
the second half to the right child. The engine always invokes
leftResult.Combine(rightResult), with left as the receiver, so
order-sensitive payloads such as result lists come out in original input
order no matter which subtree finishes first.

# Spawning Policies

The default policy forks one child per split into its own goroutine
while the current goroutine computes the other child inline, so a tree
over n items submits O(n) forks and the calling goroutine never idles at
a join it could have spent computing. Alternatives:

	// Bounded pool: at most 8 forks in flight, overflow computed inline.
	result, err := forkjoin.Run(ctx, input, leaf, forkjoin.WithMaxWorkers(8))

	// Same-thread: fully deterministic, useful as a test oracle.
	result, err := forkjoin.Run(ctx, input, leaf, forkjoin.WithSequential())

# Memoization

Enable leaf-result memoization to skip recomputation across runs:

	store, err := memo.NewSQLiteStore("./results.db")
	defer store.Close()

	result, err := forkjoin.Run(ctx, input, leaf,
	    forkjoin.WithMemoization(store),
	    forkjoin.WithRunID("run-123"))

Results are keyed by run ID and tree path. Re-running the same input
under the same run ID loads already-computed leaves from the store.

# Observability

Enable logging, metrics, and tracing:

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	result, err := forkjoin.Run(ctx, input, leaf,
	    forkjoin.WithRunLogger(logger),
	    forkjoin.WithMetrics(true),
	    forkjoin.WithTracing(true),
	    forkjoin.WithRunID("run-123"))

Logs include structured fields: run_id, path, duration_ms.
OpenTelemetry metrics: forkjoin.leaf.executions, forkjoin.leaf.latency_ms, etc.
OpenTelemetry tracing: forkjoin.run > forkjoin.task.{path} spans.

# Error Handling

Errors carry the tree path of the failing task:

	result, err := forkjoin.Run(ctx, input, leaf)
	var taskErr *forkjoin.TaskError
	if errors.As(err, &taskErr) {
	    log.Printf("task %q failed: %v", taskErr.Path, taskErr.Err)
	}

	var panicErr *forkjoin.PanicError
	if errors.As(err, &panicErr) {
	    log.Printf("task %q panicked: %v\n%s", panicErr.Path, panicErr.Value, panicErr.Stack)
	}

A failure in a forked subtree surfaces at the join that awaits it,
wrapped in *SpawnError. The first failure cancels the run's internal
context, so still-expanding sibling subtrees stop at their next
dispatch check; domain calls already in flight run to completion and
are not interrupted.

# Thread Safety

  - Splittable, Combinable, and LeafFunc implementations must not rely
    on shared mutable state; sibling leaves execute concurrently
  - Engine is safe for concurrent use once built
  - Context is safe for concurrent use
  - memo.Store implementations are safe for concurrent use

# Subpackages

  - memo: leaf-result storage (memory, SQLite)
  - retry: leaf retry policies with backoff
  - config: file-based engine configuration
  - observability: logging, metrics, and tracing helpers
*/
package forkjoin
