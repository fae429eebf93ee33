package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an Error.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindAuth
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not found"
	case KindAuth:
		return "auth"
	case KindStore:
		return "store"
	}
	return "unknown"
}

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrValidation = &Error{Kind: KindValidation, Msg: "validation failed"}
	ErrNotFound   = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrAuth       = &Error{Kind: KindAuth, Msg: "unauthorized"}
	ErrStore      = &Error{Kind: KindStore, Msg: "store failure"}
)

// Error is a classified failure with a caller-facing message.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg == "" {
		return e.Err.Error()
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func Validation(format string, args ...interface{}) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Auth(format string, args ...interface{}) error {
	return &Error{Kind: KindAuth, Msg: fmt.Sprintf(format, args...)}
}

// Store wraps a database failure. A nil err yields nil.
func Store(err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: KindStore, Err: err}
}

// KindOf returns the kind of err, or 0 when err is not classified.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

// Status maps err to an HTTP status code. Unclassified errors are 500.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuth:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// Message returns the caller-facing text for err. Store failures are not
// described to callers.
func Message(err error) string {
	var ae *Error
	if !errors.As(err, &ae) || ae.Kind == KindStore {
		return "internal server error"
	}
	return ae.Msg
}
