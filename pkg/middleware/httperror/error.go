// Package httperror carries the HTTP representation of middleware failures.
package httperror

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// Error codes
const (
	// ErrCodeInvalidBackendData indicates that key or nonce storage failed or holds unusable data
	ErrCodeInvalidBackendData = "ERR_INVALID_BACKEND_DATA"

	// ErrCodeResponseSigning indicates that the response could not be signed
	ErrCodeResponseSigning = "ERR_RESPONSE_SIGNING"

	// ErrCodeInternal indicates any other internal failure
	ErrCodeInternal = "ERR_INTERNAL"
)

// Error is a failure to be reported to the client.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

// Error returns the message together with the cause.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%d %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%d %s: %v", e.StatusCode, e.Message, e.Err)
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Handler writes httpErr to the response.
type Handler func(ctx context.Context, log *slog.Logger, httpErr *Error, w http.ResponseWriter, r *http.Request)

// DefaultHandler writes a JSON error document.
func DefaultHandler(ctx context.Context, log *slog.Logger, httpErr *Error, w http.ResponseWriter, _ *http.Request) {
	if err := Respond(w, httpErr.StatusCode, httpErr.Code, httpErr.Message); err != nil {
		log.ErrorContext(ctx, "Failed to write error response", slog.String("error", err.Error()))
	}
}

// Respond creates a standardized error response.
func Respond(w http.ResponseWriter, status int, code, message string) error {
	resp := map[string]any{
		"status":      "error",
		"code":        code,
		"description": message,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		return fmt.Errorf("failed to encode error response: %w", err)
	}
	return nil
}
