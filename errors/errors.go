package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode identifies a class of stream failure.
type ErrorCode string

const (
	// ErrBufferCapacity indicates a single token did not fit in the carry-over buffer.
	ErrBufferCapacity ErrorCode = "buffer-capacity-exceeded"
	// ErrSelectorSyntax indicates a selector could not be parsed.
	ErrSelectorSyntax ErrorCode = "selector-syntax"
	// ErrUnsupportedSelector indicates a selector uses a construct the matcher cannot express.
	ErrUnsupportedSelector ErrorCode = "selector-unsupported"
	// ErrUnsupportedEncoding indicates an unknown or non-ASCII-compatible encoding label.
	ErrUnsupportedEncoding ErrorCode = "unsupported-encoding"
	// ErrInvalidOptions indicates stream options failed validation.
	ErrInvalidOptions ErrorCode = "invalid-options"
	// ErrController indicates a transform controller callback failed.
	ErrController ErrorCode = "controller-failed"
	// ErrOutput indicates the output sink rejected a chunk.
	ErrOutput ErrorCode = "output-failed"
)

// Error describes a stream failure with a code, message, and optional context.
type Error struct {
	Err     error
	Code    string
	Message string
	Context string
}

// Error formats the failure for display, including code, message, and context.
func (e *Error) Error() string {
	if e == nil {
		return "error <nil>"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))
	if e.Err != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	if e.Context != "" {
		b.WriteString(fmt.Sprintf(" (%s)", e.Context))
	}
	return b.String()
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New builds an Error with a code and message.
func New(code ErrorCode, msg string) *Error {
	return &Error{Code: string(code), Message: msg}
}

// Wrap builds an Error with a code and message around a cause.
func Wrap(code ErrorCode, msg string, err error) *Error {
	return &Error{Code: string(code), Message: msg, Err: err}
}

// WithContext returns a copy of e carrying a diagnostic explanation.
func (e *Error) WithContext(context string) *Error {
	if e == nil {
		return nil
	}
	out := *e
	out.Context = context
	return &out
}

// AsError extracts a stream Error from err.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var target *Error
	if errors.As(err, &target) && target != nil {
		return target, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	e, ok := AsError(err)
	return ok && e.Code == string(code)
}
