package services

import "fmt"

// ErrorKind classifies service failures so the HTTP layer can map them to
// status codes without string matching.
type ErrorKind int

const (
	// KindInternal is an unexpected fault (storage down, serialization failure)
	KindInternal ErrorKind = iota
	// KindValidation is a malformed or incompatible request
	KindValidation
	// KindNotFound means the referenced payment does not exist
	KindNotFound
	// KindInvalidState means the payment's status forbids the operation
	KindInvalidState
	// KindInvalidArgument means a request value is out of bounds, e.g. a
	// refund amount above the remaining refundable balance
	KindInvalidArgument
	// KindProvider means the gateway reported failure or timed out; for
	// refunds this surfaces to the caller after compensation
	KindProvider
)

// Error is the tagged error type returned by the orchestrator and the refund
// workflow.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from a service error, defaulting to KindInternal
func KindOf(err error) ErrorKind {
	if se, ok := err.(*Error); ok {
		return se.Kind
	}
	return KindInternal
}
