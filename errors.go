package shttp

import "fmt"

// Kind classifies the recoverable failures the message engine can raise,
// grounded on the error taxonomy of spec.md §7 (itself grounded on the
// original C++ exception hierarchy: bad_message, not_implemented,
// http_version_not_supported, not_found, bound_exception, system_error,
// invalid_argument).
type Kind int

const (
	// ErrBadMessage maps to 400: the wire bytes do not form a valid
	// request or response (malformed start line, header, or chunk size).
	ErrBadMessage Kind = iota
	// ErrNotImplemented maps to 501: a well-formed request asks for a
	// method or feature the engine does not support.
	ErrNotImplemented
	// ErrHTTPVersionNotSupported maps to 505: the request line names a
	// version other than HTTP/1.0 or HTTP/1.1.
	ErrHTTPVersionNotSupported
	// ErrNotFound maps to 404: no route matches the request path.
	ErrNotFound
)

var kindStatus = map[Kind]int{
	ErrBadMessage:              StatusBadRequest,
	ErrNotImplemented:          StatusNotImplemented,
	ErrHTTPVersionNotSupported: StatusHTTPVersionNotSupported,
	ErrNotFound:                StatusNotFound,
}

// Error is the engine's typed failure: Kind selects the status the
// Transmitter writes back to the client, the way the original threw a
// distinct exception type per failure class and the caller mapped each
// type to a status code.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code this error's Kind maps to.
func (e *Error) Status() int {
	if s, ok := kindStatus[e.Kind]; ok {
		return s
	}
	return StatusInternalServerError
}

func newBadMessage(msg string) *Error {
	return &Error{Kind: ErrBadMessage, Message: msg}
}

func newNotImplemented(msg string) *Error {
	return &Error{Kind: ErrNotImplemented, Message: msg}
}

func newHTTPVersionNotSupported(msg string) *Error {
	return &Error{Kind: ErrHTTPVersionNotSupported, Message: msg}
}

func newNotFound(msg string) *Error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

// SystemError wraps a transport-level failure (connection reset, broken
// pipe, timeout, short write) that the Transmitter cannot recover from.
// The connection is closed after one of these; nothing is written back,
// matching the original's "system_error: close connection" policy.
type SystemError struct {
	Op  string
	Err error
}

func (e *SystemError) Error() string { return fmt.Sprintf("snf-http: %s: %v", e.Op, e.Err) }
func (e *SystemError) Unwrap() error { return e.Err }
