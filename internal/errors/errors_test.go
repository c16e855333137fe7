package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestNetworkError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNetworkError("chat", "http://localhost:8000/chat", cause)

	msg := err.Error()
	if msg != "network error during chat (http://localhost:8000/chat): connection refused" {
		t.Errorf("unexpected message: %q", msg)
	}
	if !errors.Is(err, cause) {
		t.Error("NetworkError should unwrap to its cause")
	}

	bare := NewNetworkError("chat", "", cause)
	if bare.Error() != "network error during chat: connection refused" {
		t.Errorf("unexpected message without endpoint: %q", bare.Error())
	}
}

func TestAPIErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			"with status",
			NewAPIError(500, "/chat", "internal error"),
			"API error [500] at /chat: internal error",
		},
		{
			"without status",
			NewAPIError(0, "/chat", "broken reply"),
			"API error at /chat: broken reply",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseErrorMatchesSentinel(t *testing.T) {
	err := NewParseError("not an object", `"just a string"`)

	if !errors.Is(err, ErrInvalidResponse) {
		t.Error("ParseError should match ErrInvalidResponse")
	}
	if !errors.Is(err, &ParseError{}) {
		t.Error("ParseError should match other ParseErrors")
	}
	if errors.Is(err, ErrCancelled) {
		t.Error("ParseError should not match unrelated sentinels")
	}
}

func TestStreamErrorMessage(t *testing.T) {
	if got := NewStreamError("model overloaded").Error(); got != "stream error: model overloaded" {
		t.Errorf("Error() = %q", got)
	}
	if got := NewStreamError("").Error(); got != "stream error" {
		t.Errorf("empty message Error() = %q", got)
	}
}

func TestIsCancelled(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"sentinel", ErrCancelled, true},
		{"wrapped sentinel", fmt.Errorf("submit: %w", ErrCancelled), true},
		{"context cancellation", context.Canceled, true},
		{"context cancellation inside transport error", NewNetworkError("stream", "/chat/stream", context.Canceled), true},
		{"deadline is not a cancel", context.DeadlineExceeded, false},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCancelled(tt.err); got != tt.want {
				t.Errorf("IsCancelled(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsNetworkError(t *testing.T) {
	wrapped := fmt.Errorf("request failed: %w", NewNetworkError("chat", "/chat", errors.New("reset")))
	if !IsNetworkError(wrapped) {
		t.Error("wrapped NetworkError should classify as network error")
	}
	if IsNetworkError(NewAPIError(500, "/chat", "boom")) {
		t.Error("APIError is not a network error")
	}
	if IsNetworkError(nil) {
		t.Error("nil is not a network error")
	}
}

func TestGetHTTPStatus(t *testing.T) {
	wrapped := fmt.Errorf("list failed: %w", NewAPIError(404, "/conversations/x", "not found"))
	if got := GetHTTPStatus(wrapped); got != 404 {
		t.Errorf("GetHTTPStatus() = %d, want 404", got)
	}
	if got := GetHTTPStatus(errors.New("boom")); got != 0 {
		t.Errorf("GetHTTPStatus() = %d, want 0", got)
	}
}
