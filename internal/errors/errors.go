// Package errors provides the error types used across the chat client.
//
// Only transport failures are ever shown to the user; cancellation,
// malformed stream events, unknown conversation ids and title
// persistence failures are absorbed where they occur.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrCancelled           = errors.New("exchange cancelled")
	ErrUnknownConversation = errors.New("unknown conversation")
	ErrInvalidResponse     = errors.New("invalid response format")
	ErrEmptyMessage        = errors.New("message cannot be empty")
)

// NetworkError represents a connection-level failure (dial, reset,
// timeout before the stream opened).
type NetworkError struct {
	Op       string
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("network error during %s (%s): %v", e.Op, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// NewNetworkError creates a NetworkError for the given operation.
func NewNetworkError(op, endpoint string, err error) *NetworkError {
	return &NetworkError{Op: op, Endpoint: endpoint, Err: err}
}

// APIError represents a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("API error [%d] at %s: %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API error at %s: %s", e.Endpoint, e.Message)
}

// NewAPIError creates a new APIError.
func NewAPIError(statusCode int, endpoint, message string) *APIError {
	return &APIError{StatusCode: statusCode, Endpoint: endpoint, Message: message}
}

// ParseError represents a malformed response or stream event.
type ParseError struct {
	Message string
	Payload string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Message)
}

// Is allows comparison with the ErrInvalidResponse sentinel.
func (e *ParseError) Is(target error) bool {
	if target == ErrInvalidResponse {
		return true
	}
	_, ok := target.(*ParseError)
	return ok
}

// NewParseError creates a new ParseError. payload may carry the offending
// raw data for verbose logging.
func NewParseError(message, payload string) *ParseError {
	return &ParseError{Message: message, Payload: payload}
}

// StreamError represents an error event delivered inside an open stream
// by the backend (as opposed to a failure of the transport itself).
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	if e.Message == "" {
		return "stream error"
	}
	return fmt.Sprintf("stream error: %s", e.Message)
}

// NewStreamError creates a new StreamError.
func NewStreamError(message string) *StreamError {
	return &StreamError{Message: message}
}

// IsCancelled reports whether err stems from a user-initiated cancel.
// Cancellation is never surfaced as a visible error.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled) || errors.Is(err, context.Canceled)
}

// IsNetworkError reports whether err is a connection-level failure.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// GetHTTPStatus returns the HTTP status carried by err, or 0.
func GetHTTPStatus(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}
