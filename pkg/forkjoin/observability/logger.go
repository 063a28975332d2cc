// Package observability provides production-grade observability features
// for forkjoin: structured logging, metrics, and distributed tracing.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds forkjoin context to a logger.
// Returns a new logger with run_id and path fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "run-123", "LR")
//	enriched.Info("doing work") // includes run_id, path
func EnrichLogger(logger *slog.Logger, runID, path string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("run_id", runID),
		slog.String("path", path),
	)
}

// LogRunStart logs the start of a computation run.
func LogRunStart(logger *slog.Logger, runID string) {
	if logger == nil {
		return
	}
	logger.Info("run starting",
		slog.String("run_id", runID),
	)
}

// LogRunComplete logs successful run completion.
func LogRunComplete(logger *slog.Logger, runID string, durationMs float64, leafCount int) {
	if logger == nil {
		return
	}
	logger.Info("run completed",
		slog.String("run_id", runID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("leaves_computed", leafCount),
	)
}

// LogRunError logs run failure.
func LogRunError(logger *slog.Logger, runID string, err error, durationMs float64, path string) {
	if logger == nil {
		return
	}
	logger.Error("run failed",
		slog.String("run_id", runID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
		slog.String("path", path),
	)
}

// LogSplit logs a task splitting into two children.
func LogSplit(logger *slog.Logger, path string) {
	if logger == nil {
		return
	}
	logger.Debug("task split",
		slog.String("path", path),
	)
}

// LogLeafStart logs leaf computation start.
func LogLeafStart(logger *slog.Logger, path string) {
	if logger == nil {
		return
	}
	logger.Debug("leaf starting",
		slog.String("path", path),
	)
}

// LogLeafComplete logs successful leaf completion.
func LogLeafComplete(logger *slog.Logger, path string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("leaf completed",
		slog.String("path", path),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogLeafError logs leaf computation error.
func LogLeafError(logger *slog.Logger, path string, err error) {
	if logger == nil {
		return
	}
	logger.Error("leaf failed",
		slog.String("path", path),
		slog.String("error", err.Error()),
	)
}

// LogMemoHit logs a leaf result served from the memo store.
func LogMemoHit(logger *slog.Logger, path string, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("memo hit",
		slog.String("path", path),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogMemoSave logs a leaf result saved to the memo store.
func LogMemoSave(logger *slog.Logger, path string, sizeBytes int) {
	if logger == nil {
		return
	}
	logger.Debug("memo saved",
		slog.String("path", path),
		slog.Int("size_bytes", sizeBytes),
	)
}

// LogMemoError logs a memo store failure (non-fatal).
func LogMemoError(logger *slog.Logger, path string, op string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("memo failed",
		slog.String("path", path),
		slog.String("operation", op),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
