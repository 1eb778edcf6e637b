package logging

import (
	"errors"
	"fmt"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewOperationErrorNilStaysNil(t *testing.T) {
	if err := NewOperationError("op", "req", nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestOperationErrorMessage(t *testing.T) {
	err := NewOperationError("usecase.classify", "req-1", errors.New("boom"))
	if got := err.Error(); got != "usecase.classify (request_id=req-1): boom" {
		t.Fatalf("unexpected message: %s", got)
	}

	err = NewOperationError("vision.describe", "", errors.New("boom"))
	if got := err.Error(); got != "vision.describe: boom" {
		t.Fatalf("unexpected message: %s", got)
	}
}

func TestCauseUnwrapsNestedOperationErrors(t *testing.T) {
	root := errors.New("upstream unavailable")
	inner := NewOperationError("vision.describe", "req", root)
	outer := NewOperationError("usecase.classify", "req", fmt.Errorf("attempt 2: %w", inner))

	if got := Cause(outer); got != root {
		t.Fatalf("expected root cause through fmt wrapping, got %v", got)
	}
	if got := Cause(inner); got != root {
		t.Fatalf("expected root cause, got %v", got)
	}
	if !errors.Is(outer, root) {
		t.Fatal("expected errors.Is to reach the root cause")
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := NewLogger("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	logger, err := NewLogger("debug")
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected debug level to be enabled")
	}
}
