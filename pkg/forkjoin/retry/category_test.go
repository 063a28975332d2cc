package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCategoryString(t *testing.T) {
	tests := []struct {
		category Category
		expected string
	}{
		{CategoryTransient, "transient"},
		{CategoryPermanent, "permanent"},
		{Category(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.category.String(); got != tt.expected {
				t.Errorf("Category(%d).String() = %s, want %s", tt.category, got, tt.expected)
			}
		})
	}
}

// timeoutErr implements net.Error with Timeout() true.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestCategorize(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Category
	}{
		{"nil error", nil, CategoryPermanent},
		{"context canceled", context.Canceled, CategoryPermanent},
		{"deadline exceeded", context.DeadlineExceeded, CategoryPermanent},
		{"wrapped deadline", fmt.Errorf("op: %w", context.DeadlineExceeded), CategoryPermanent},
		{"net timeout", timeoutErr{}, CategoryTransient},
		{"wrapped net timeout", fmt.Errorf("dial: %w", timeoutErr{}), CategoryTransient},
		{"categorized transient", Transient(errors.New("x"), "op"), CategoryTransient},
		{"categorized permanent", Permanent(errors.New("x"), "op"), CategoryPermanent},
		{"unknown error", errors.New("unknown"), CategoryPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Categorize(tt.err); got != tt.expected {
				t.Errorf("Categorize() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestCategorizedError(t *testing.T) {
	t.Run("error message with context", func(t *testing.T) {
		err := Transient(errors.New("failed"), "leaf compute")
		expected := "leaf compute: failed (category: transient, attempts: 0)"
		if got := err.Error(); got != expected {
			t.Errorf("Error() = %q, want %q", got, expected)
		}
	})

	t.Run("error message without context", func(t *testing.T) {
		err := &CategorizedError{Err: errors.New("failed"), Category: CategoryPermanent}
		if got := err.Error(); got != "failed (category: permanent, attempts: 0)" {
			t.Errorf("Error() = %q", got)
		}
	})

	t.Run("unwrap", func(t *testing.T) {
		inner := errors.New("inner error")
		err := Permanent(inner, "test")
		if !errors.Is(err, inner) {
			t.Error("Unwrap should return inner error")
		}
	})
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(Permanent(errors.New("x"), "op")) {
		t.Error("permanent error reported retryable")
	}
	if !IsRetryable(Transient(errors.New("x"), "op")) {
		t.Error("transient error reported not retryable")
	}
	if IsRetryable(context.DeadlineExceeded) {
		t.Error("deadline error reported retryable")
	}
}
