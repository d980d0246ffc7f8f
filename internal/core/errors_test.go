package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{Code: "TEST_ERROR", Message: "test message"}
	if err.Error() != "[TEST_ERROR] test message" {
		t.Errorf("unexpected error string: %s", err.Error())
	}

	wrapped := WrapError(ErrFeedUnavailable, errors.New("timeout"))
	if wrapped.Error() != "[FEED_UNAVAILABLE] feed unavailable: timeout" {
		t.Errorf("unexpected wrapped string: %s", wrapped.Error())
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{Code: "WRAP", Message: "wrapped", Cause: cause}
	if !errors.Is(err, cause) {
		t.Error("Unwrap should return cause")
	}
}

func TestError_Is(t *testing.T) {
	if !errors.Is(ErrInsufficientHistory, ErrInsufficientHistory) {
		t.Error("same error should match")
	}
	if errors.Is(ErrInsufficientHistory, ErrInsufficientData) {
		t.Error("different codes should not match")
	}

	// Matching survives fmt.Errorf wrapping.
	err := fmt.Errorf("replay btc: %w", WrapError(ErrInsufficientHistory, errors.New("10 points")))
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Error("wrapped error should match by code")
	}
}

func TestWrapError(t *testing.T) {
	cause := errors.New("original")
	wrapped := WrapError(ErrCollectorFailed, cause)
	if wrapped.Cause != cause {
		t.Error("cause not set")
	}
	if wrapped.Code != ErrCollectorFailed.Code {
		t.Error("code not preserved")
	}
	if ErrCollectorFailed.Cause != nil {
		t.Error("base error must not be mutated")
	}
}
