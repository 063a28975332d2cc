// Package memo provides persistent storage for computed leaf results.
//
// When memoization is enabled, the engine keys each leaf result by
// (run ID, tree path). Re-running the same input under the same run ID
// loads already-computed leaves instead of recomputing them, which is
// the divide-and-conquer analog of resuming a crashed run from
// checkpoints.
package memo

import (
	"errors"
	"time"
)

// Store persists leaf results.
// Implementations must be safe for concurrent use: sibling leaves save
// results in parallel.
type Store interface {
	// Save stores a leaf result for a run at a specific tree path.
	// Overwrites if a result for (runID, path) already exists.
	Save(runID, path string, data []byte) error

	// Load retrieves a leaf result.
	// Returns ErrNotFound if no result exists.
	Load(runID, path string) ([]byte, error)

	// List returns all stored results for a run, ordered by sequence.
	// Returns empty slice (not error) if the run has no results.
	List(runID string) ([]Info, error)

	// Delete removes a specific result.
	// Returns nil if the result doesn't exist.
	Delete(runID, path string) error

	// DeleteRun removes all results for a run.
	// Returns nil if the run has no results.
	DeleteRun(runID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info provides metadata without loading the full result.
type Info struct {
	RunID     string
	Path      string
	Sequence  int
	Timestamp time.Time
	Size      int64
}

// Sentinel errors for memo operations.
var (
	// ErrNotFound indicates no result is stored for the key.
	ErrNotFound = errors.New("memo result not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("memo store closed")
)
