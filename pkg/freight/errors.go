package freight

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the quoting error taxonomy. Handlers map these to
// HTTP statuses; everything else is an internal failure.
var (
	// ErrInvalidRequest indicates bad caller input. The carrier is never
	// called for these.
	ErrInvalidRequest = errors.New("invalid quote request")

	// ErrServiceNotAvailable indicates a valid request for which the
	// carrier quoted nothing for the destination.
	ErrServiceNotAvailable = errors.New("service not available for destination")

	// ErrCarrierUnavailable indicates a transport, status, or
	// authentication failure talking to the carrier.
	ErrCarrierUnavailable = errors.New("carrier unavailable")

	// ErrPersistence indicates a quote store read or write failure.
	ErrPersistence = errors.New("quote store failure")
)

// CarrierError carries the provider-specific diagnostics of a failed
// carrier call. The Cause links it into the sentinel taxonomy, so callers
// classify with errors.Is and the raw provider text stays in logs only.
type CarrierError struct {
	Carrier    string
	Code       string
	Message    string
	StatusCode int
	Retryable  bool
	Cause      error
}

// Error implements the error interface.
func (e *CarrierError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s error (%s): %s: %v", e.Carrier, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error (%s): %s", e.Carrier, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *CarrierError) Unwrap() error {
	return e.Cause
}

// Is matches two CarrierErrors by code.
func (e *CarrierError) Is(target error) bool {
	t, ok := target.(*CarrierError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewCarrierError creates a new CarrierError.
func NewCarrierError(carrier, code, message string) *CarrierError {
	return &CarrierError{
		Carrier: carrier,
		Code:    code,
		Message: message,
	}
}

// WithCause links the error to a sentinel or underlying error.
func (e *CarrierError) WithCause(err error) *CarrierError {
	e.Cause = err
	return e
}

// WithStatusCode records the carrier's HTTP status.
func (e *CarrierError) WithStatusCode(code int) *CarrierError {
	e.StatusCode = code
	return e
}

// WithRetryable marks the error as retryable by the caller.
func (e *CarrierError) WithRetryable(retryable bool) *CarrierError {
	e.Retryable = retryable
	return e
}

// IsRetryable reports whether the caller may usefully retry.
func IsRetryable(err error) bool {
	var carrierErr *CarrierError
	if errors.As(err, &carrierErr) {
		return carrierErr.Retryable
	}
	return false
}
