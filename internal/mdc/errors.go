// internal/mdc/errors.go
package mdc

import (
	"errors"
	"fmt"
)

// Kind classifies a failed operation.
type Kind uint8

const (
	KindConnect          Kind = iota + 1 // dial timeout, refused, unreachable
	KindIO                               // write failure, read timeout, reset mid-exchange
	KindMalformed                        // short or truncated frame
	KindProtocolMismatch                 // bad header or wrong display id
	KindRejected                         // display answered NAK
	KindFaulted                          // session is faulted and must be reset
	KindValidation                       // caller parameter out of range, no I/O performed
	KindExhaustedRetries                 // retry budget spent
)

func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "ConnectError"
	case KindIO:
		return "IoError"
	case KindMalformed:
		return "Malformed"
	case KindProtocolMismatch:
		return "ProtocolMismatch"
	case KindRejected:
		return "Rejected"
	case KindFaulted:
		return "Faulted"
	case KindValidation:
		return "ValidationError"
	case KindExhaustedRetries:
		return "ExhaustedRetries"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Retryable reports whether another attempt may succeed.
func (k Kind) Retryable() bool {
	switch k {
	case KindConnect, KindIO, KindMalformed:
		return true
	}
	return false
}

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrConnect          = &Error{Kind: KindConnect}
	ErrIO               = &Error{Kind: KindIO}
	ErrMalformed        = &Error{Kind: KindMalformed}
	ErrProtocolMismatch = &Error{Kind: KindProtocolMismatch}
	ErrRejected         = &Error{Kind: KindRejected}
	ErrFaulted          = &Error{Kind: KindFaulted}
	ErrValidation       = &Error{Kind: KindValidation}
	ErrExhaustedRetries = &Error{Kind: KindExhaustedRetries}
)

// Error is the single failure type reported by the controller.
type Error struct {
	Kind     Kind
	Msg      string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Attempts > 0 {
		s += fmt.Sprintf(" (attempts=%d)", e.Attempts)
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of err, or 0 if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Wrap builds an *Error of kind k around err.
func Wrap(k Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: k, Msg: fmt.Sprintf(format, args...), Err: err}
}

func validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func mismatchf(format string, args ...any) *Error {
	return &Error{Kind: KindProtocolMismatch, Msg: fmt.Sprintf(format, args...)}
}

func malformedf(format string, args ...any) *Error {
	return &Error{Kind: KindMalformed, Msg: fmt.Sprintf(format, args...)}
}
