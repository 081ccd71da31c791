package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the domain layer.
var (
	// ErrConfiguration marks a request rejected before any network call:
	// missing credential, unknown provider, or missing endpoint.
	ErrConfiguration = fmt.Errorf("configuration invalid")
	// ErrProtocol marks a malformed or unexpected response body from a
	// provider that returned a 2xx status.
	ErrProtocol = fmt.Errorf("protocol error")

	// Transport categories, matched from HTTP status codes.
	ErrRateLimit       = fmt.Errorf("rate limit exceeded")
	ErrAuthInvalid     = fmt.Errorf("authentication failed")
	ErrContextOverflow = fmt.Errorf("context window exceeded")
	ErrUpstream        = fmt.Errorf("upstream provider error")

	// Store lookups.
	ErrAgentNotFound   = fmt.Errorf("agent not found")
	ErrTaskNotFound    = fmt.Errorf("task not found")
	ErrProfileNotFound = fmt.Errorf("provider profile not found")
)

// TransportError is returned for any non-2xx HTTP response from a provider.
// It carries the status, the raw response body, and the endpoint that was
// called so callers can display something actionable without re-probing.
type TransportError struct {
	Status   int
	Body     string
	Endpoint string
	Err      error // category sentinel (ErrRateLimit, ErrAuthInvalid, ...)
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("API error %d from %s: %s", e.Status, e.Endpoint, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DomainError wraps a sentinel error with operation context.
type DomainError struct {
	Op     string // operation name (e.g., "llm.Chat")
	Err    error  // underlying sentinel or wrapped error
	Detail string // human-readable detail
}

func (e *DomainError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

func (e *DomainError) Unwrap() error { return e.Err }

// NewDomainError creates a new DomainError.
func NewDomainError(op string, err error, detail string) *DomainError {
	return &DomainError{Op: op, Err: err, Detail: detail}
}

// WrapOp adds operation context to an error using fmt.Errorf wrapping.
// Returns nil if err is nil, enabling idiomatic use: return domain.WrapOp("op", err)
func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsConfiguration reports whether err was rejected before any network call.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
