package forkjoin

import (
	"errors"
	"fmt"
)

// Sentinel errors for contract violations.
var (
	// ErrNotSplittable indicates Split() was called on a leaf input.
	ErrNotSplittable = errors.New("input is a leaf; split not allowed")

	// ErrTaskConsumed indicates Compute() was called on a task that
	// already computed.
	ErrTaskConsumed = errors.New("task already computed")

	// ErrLeafNotComputable indicates the leaf function was dispatched
	// on an input whose Leaf() is false. This is an engine bug, not a
	// caller error.
	ErrLeafNotComputable = errors.New("leaf computation requires a leaf input")

	// ErrIncompatibleResult indicates Combine() received an operand of
	// an incompatible shape. Domain Combine implementations wrap this.
	ErrIncompatibleResult = errors.New("results are not combinable")
)

// Sentinel errors for execution.
var (
	// ErrNilContext indicates Run() or Compute() was called with a nil context.
	ErrNilContext = errors.New("context cannot be nil")

	// ErrMaxDepth indicates the split recursion exceeded the configured limit.
	ErrMaxDepth = errors.New("exceeded maximum split depth")

	// ErrRunIDRequired indicates memoization was enabled without a run ID.
	ErrRunIDRequired = errors.New("run ID required for memoization")
)

// TaskError wraps an error with task-tree context.
// Path is the position of the failing task in the split tree: "" for
// the root, then "L"/"R" per level (so "LR" is the right child of the
// root's left child).
type TaskError struct {
	// Path locates the task in the tree.
	Path string
	// Op is the operation that failed ("split", "leaf", "combine", "compute").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *TaskError) Error() string {
	return fmt.Sprintf("task %q: %s: %v", e.Path, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *TaskError) Unwrap() error {
	return e.Err
}

// SpawnError reports that a forked subtree failed. It surfaces at the
// join point awaiting that subtree and wraps the subtree's own error.
type SpawnError struct {
	// Path is the root of the failed subtree.
	Path string
	// Err is the error the subtree's Compute returned.
	Err error
}

// Error implements the error interface.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("forked task %q failed: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *SpawnError) Unwrap() error {
	return e.Err
}

// PanicError captures panic information from domain code (split, leaf
// computation, or combine). It includes the stack trace for debugging.
type PanicError struct {
	// Path locates the panicking task in the tree.
	Path string
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("task %q panicked: %v", e.Path, e.Value)
}

// MemoError wraps errors from memo store operations.
type MemoError struct {
	// Path is the task whose result was being saved or loaded.
	Path string
	// Op is the operation that failed ("save", "load", "serialize", "deserialize").
	Op string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *MemoError) Error() string {
	return fmt.Sprintf("memo %s at task %q: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *MemoError) Unwrap() error {
	return e.Err
}

// DepthError provides context when the split depth limit is exceeded.
// It usually means a Splittable implementation does not strictly
// decrease size on Split, so Leaf never becomes true.
type DepthError struct {
	// Max is the configured depth limit.
	Max int
	// Path is the task at which the limit was hit.
	Path string
}

// Error implements the error interface.
func (e *DepthError) Error() string {
	return fmt.Sprintf("exceeded maximum split depth (%d) at task %q", e.Max, e.Path)
}

// Unwrap returns ErrMaxDepth for errors.Is support.
func (e *DepthError) Unwrap() error {
	return ErrMaxDepth
}
