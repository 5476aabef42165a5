package errors

import "errors"

// Sentinel errors for common error conditions
var (
	// ErrCapabilityUnavailable indicates a capability could not be reached
	// (transport failure or timeout). Retried under the controller budget.
	ErrCapabilityUnavailable = errors.New("capability unavailable")

	// ErrMalformedOutput indicates a capability produced output that is
	// missing required fields or otherwise fails reflection checks.
	ErrMalformedOutput = errors.New("capability output malformed")

	// ErrConfiguration indicates an invalid threshold or required-fields
	// table. Fatal at startup, never recovered at request time.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrInternalInconsistency indicates the planner and conversation
	// manager disagree about the session state. Aborts the current turn.
	ErrInternalInconsistency = errors.New("internal inconsistency")

	// ErrSessionNotFound indicates that a requested session was not found
	ErrSessionNotFound = errors.New("session not found")

	// ErrFieldConflict indicates a step attempted to overwrite a case
	// record field owned by another step.
	ErrFieldConflict = errors.New("case record field conflict")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")
)
