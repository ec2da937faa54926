// Package apperr classifies the failures a shelf workflow can surface.
//
// Every error that reaches the async result container is an *Error carrying
// one of four kinds. The kind decides how the view reacts: validation errors
// stay on the form, auth errors redirect to sign-in, network and not-found
// errors render in place of the list with a manual retry hint.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind is the category of a failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuth
	KindNetwork
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNetwork:
		return "network"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching by kind.
var (
	ErrValidation = &Error{Kind: KindValidation}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrNetwork    = &Error{Kind: KindNetwork}
	ErrNotFound   = &Error{Kind: KindNotFound}
)

// FieldError describes one rejected field of a request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the single error type produced by shelf workflows and collaborators.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String() + " error"
	}
	b.WriteString(msg)
	if len(e.Fields) > 0 {
		parts := make([]string, 0, len(e.Fields))
		for _, f := range e.Fields {
			parts = append(parts, f.Message)
		}
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, "; "))
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality so callers can write errors.Is(err, apperr.ErrAuth).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Message == ""
}

// Validation builds a client- or server-side validation error.
func Validation(message string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: message, Fields: fields}
}

// Auth builds an authentication error. cause may be nil.
func Auth(message string, cause error) *Error {
	return &Error{Kind: KindAuth, Message: message, Err: cause}
}

// Network wraps a transport, timeout or unexpected-status failure.
func Network(op string, cause error) *Error {
	return &Error{Kind: KindNetwork, Op: op, Message: "request failed", Err: cause}
}

// NotFound builds a not-found error.
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// NotFoundf is NotFound with formatting.
func NotFoundf(format string, args ...any) *Error {
	return NotFound(fmt.Sprintf(format, args...))
}

// KindOf classifies any error. Context cancellation and deadlines count as
// network failures since they only ever interrupt collaborator calls.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	return KindUnknown
}

// IsKind reports whether err classifies as k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// FieldsOf returns the field errors carried by err, if any.
func FieldsOf(err error) []FieldError {
	var e *Error
	if errors.As(err, &e) {
		return e.Fields
	}
	return nil
}
