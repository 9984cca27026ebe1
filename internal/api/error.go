package api

import (
	"context"
	"errors"
	"fmt"
)

// Error is a business rejection from the backend: the request reached the
// server and was answered with success:false. The server message is the only
// guaranteed field and is surfaced to the user verbatim.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend rejected request (status %d)", e.StatusCode)
	}
	return e.Message
}

// IsRejection reports whether err is a business rejection rather than a
// transport failure. Callers use this to decide between showing the server
// message verbatim and showing a generic network error.
func IsRejection(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr)
}

// RejectionMessage extracts the server message from a business rejection,
// or "" when err is not one.
func RejectionMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// IsCancelled reports whether err is the result of context cancellation,
// which the engine treats as a silent discard, never a user-visible error.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
