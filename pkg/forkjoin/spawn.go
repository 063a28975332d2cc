package forkjoin

import (
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Handle is the engine's view of a forked task.
// Join blocks until the forked task's Compute has returned, then
// yields its result. A failed subtree surfaces as a *SpawnError
// wrapping the subtree's own error.
type Handle[R any] interface {
	Join() (R, error)
}

// Spawner is the pluggable policy that maps fork/join onto a concrete
// concurrency substrate. Fork schedules task.Compute for execution and
// returns a handle without waiting for the result.
//
// The engine forks exactly one child per split and computes the other
// child inline, so at most one fork per tree level is ever in flight
// from a single goroutine.
type Spawner[I Splittable[I], R Combinable[R]] interface {
	Fork(ctx Context, task *Task[I, R]) Handle[R]
}

// forkHandle is the shared Handle implementation: a done channel
// guarding a result slot.
type forkHandle[R any] struct {
	done   chan struct{}
	result R
	err    error
	path   string
}

// Join implements Handle.
func (h *forkHandle[R]) Join() (R, error) {
	<-h.done
	if h.err != nil {
		var zero R
		return zero, &SpawnError{Path: h.path, Err: h.err}
	}
	return h.result, nil
}

// GoroutineSpawner runs every forked task in its own goroutine.
// This is the default policy: the Go scheduler multiplexes the
// goroutines over GOMAXPROCS threads, and because the engine forks
// only one child per split, a tree over n items creates O(n)
// goroutines rather than one per task node.
type GoroutineSpawner[I Splittable[I], R Combinable[R]] struct{}

// NewGoroutineSpawner creates a goroutine-per-fork spawner.
func NewGoroutineSpawner[I Splittable[I], R Combinable[R]]() *GoroutineSpawner[I, R] {
	return &GoroutineSpawner[I, R]{}
}

// Fork implements Spawner.
func (s *GoroutineSpawner[I, R]) Fork(ctx Context, task *Task[I, R]) Handle[R] {
	h := &forkHandle[R]{done: make(chan struct{}), path: task.path}
	go func() {
		defer close(h.done)
		h.result, h.err = task.Compute(ctx)
	}()
	return h
}

// PoolSpawner bounds the number of forked tasks in flight. When no
// slot is free, the forked child is computed immediately in the
// calling goroutine instead of queueing, which keeps memory bounded
// without ever making Fork wait on another task.
type PoolSpawner[I Splittable[I], R Combinable[R]] struct {
	sem *semaphore.Weighted
}

// NewPoolSpawner creates a bounded spawner with the given number of
// worker slots. workers <= 0 defaults to runtime.GOMAXPROCS(0).
func NewPoolSpawner[I Splittable[I], R Combinable[R]](workers int) *PoolSpawner[I, R] {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &PoolSpawner[I, R]{sem: semaphore.NewWeighted(int64(workers))}
}

// Fork implements Spawner.
func (s *PoolSpawner[I, R]) Fork(ctx Context, task *Task[I, R]) Handle[R] {
	h := &forkHandle[R]{done: make(chan struct{}), path: task.path}
	if s.sem.TryAcquire(1) {
		go func() {
			defer s.sem.Release(1)
			defer close(h.done)
			h.result, h.err = task.Compute(ctx)
		}()
		return h
	}
	// No slot free: run in the caller.
	h.result, h.err = task.Compute(ctx)
	close(h.done)
	return h
}

// SameThreadSpawner computes every forked task immediately in the
// calling goroutine and stores the result for Join to return. The
// whole tree then executes depth-first on one goroutine, which makes
// runs fully deterministic - the baseline oracle for testing the
// parallel policies against.
type SameThreadSpawner[I Splittable[I], R Combinable[R]] struct{}

// NewSameThreadSpawner creates a same-thread spawner.
func NewSameThreadSpawner[I Splittable[I], R Combinable[R]]() *SameThreadSpawner[I, R] {
	return &SameThreadSpawner[I, R]{}
}

// Fork implements Spawner.
func (s *SameThreadSpawner[I, R]) Fork(ctx Context, task *Task[I, R]) Handle[R] {
	h := &forkHandle[R]{done: make(chan struct{}), path: task.path}
	h.result, h.err = task.Compute(ctx)
	close(h.done)
	return h
}
