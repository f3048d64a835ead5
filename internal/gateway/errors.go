package gateway

import "errors"

// Sentinel errors for the gateway package.
// Use errors.Is() to check for these error types.
var (
	// ErrServerNotStarted is returned when an operation requires a
	// running HTTP listener.
	ErrServerNotStarted = errors.New("gateway server not started")
)

// ValidationKind classifies why an inbound payload was rejected.
type ValidationKind int

const (
	// MalformedBody means the request body was not a JSON object.
	MalformedBody ValidationKind = iota

	// MissingRequiredField means a field the endpoint requires was
	// absent or empty.
	MissingRequiredField
)

// ValidationError describes a rejected inbound payload. Message holds
// the fixed, endpoint-specific text returned to the caller.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}
