package memo

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Version is the current record format version.
// Increment when making breaking changes to the record structure.
const Version = 1

// ErrVersionMismatch indicates a stored record was written by an
// incompatible format version.
var ErrVersionMismatch = errors.New("memo record version mismatch")

// Record is the persisted envelope around one serialized leaf result.
type Record struct {
	// Metadata
	Version   int       `json:"version"`
	RunID     string    `json:"run_id"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`

	// Result is the JSON-serialized leaf result.
	Result json.RawMessage `json:"result"`
}

// New creates a record for a leaf result.
// Result must already be JSON-serialized.
func New(runID, path string, result []byte) *Record {
	return &Record{
		Version:   Version,
		RunID:     runID,
		Path:      path,
		Timestamp: time.Now().UTC(),
		Result:    result,
	}
}

// Marshal serializes a record to JSON.
func (r *Record) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// Unmarshal deserializes a record from JSON and checks its version.
func Unmarshal(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if r.Version != Version {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrVersionMismatch, r.Version, Version)
	}
	return &r, nil
}
