package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for consistent error handling across the client.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized indicates there is no session, or the session token expired
// or was rejected by the remote API.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrForbidden indicates a valid session whose role does not allow the operation.
type ErrForbidden struct {
	Action string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("forbidden: %s", e.Action)
}

// ErrValidation indicates a client- or server-side field validation failure.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrConflict indicates the remote API rejected a duplicate, e.g. a second
// financial month for the same (year, month).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "conflict"
}

// ErrNetwork indicates a transport-level failure talking to the remote API:
// connection errors, timeouts, 5xx answers and an open circuit breaker.
type ErrNetwork struct {
	Service string
	Status  int
	Err     error
}

func (e *ErrNetwork) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("network failure [%s]: status %d: %v", e.Service, e.Status, e.Err)
	}
	return fmt.Sprintf("network failure [%s]: %v", e.Service, e.Err)
}

func (e *ErrNetwork) Unwrap() error {
	return e.Err
}

// ErrorKind names an entry of the error taxonomy.
type ErrorKind string

const (
	KindNone           ErrorKind = ""
	KindUnauthorized   ErrorKind = "unauthorized"
	KindForbidden      ErrorKind = "forbidden"
	KindInvalid        ErrorKind = "invalid"
	KindConflict       ErrorKind = "conflict"
	KindNetworkFailure ErrorKind = "network_failure"
	KindNotFound       ErrorKind = "not_found"
	KindUnknown        ErrorKind = "unknown"
)

// Kind classifies err into the taxonomy. Wrapped errors are unwrapped.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindNone
	}

	var unauthorized *ErrUnauthorized
	var forbidden *ErrForbidden
	var validation *ErrValidation
	var conflict *ErrConflict
	var network *ErrNetwork
	var notFound *ErrNotFound

	switch {
	case errors.As(err, &unauthorized):
		return KindUnauthorized
	case errors.As(err, &forbidden):
		return KindForbidden
	case errors.As(err, &validation):
		return KindInvalid
	case errors.As(err, &conflict):
		return KindConflict
	case errors.As(err, &network):
		return KindNetworkFailure
	case errors.As(err, &notFound):
		return KindNotFound
	default:
		return KindUnknown
	}
}

// APIErrorPayload is the error body returned by the remote API:
// {"errors":[{"description":"..."}]}.
type APIErrorPayload struct {
	Errors []APIErrorItem `json:"errors"`
}

// APIErrorItem is one entry of APIErrorPayload.
type APIErrorItem struct {
	Code        string `json:"code,omitempty"`
	Description string `json:"description"`
}

// Message joins all descriptions, or returns "" when there are none.
func (p APIErrorPayload) Message() string {
	parts := make([]string, 0, len(p.Errors))
	for _, e := range p.Errors {
		if d := strings.TrimSpace(e.Description); d != "" {
			parts = append(parts, d)
		}
	}
	return strings.Join(parts, "; ")
}
