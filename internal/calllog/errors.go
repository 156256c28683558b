package calllog

import (
	"errors"
	"fmt"
)

// Kind classifies terminal request failures. Values are stable wire codes.
type Kind string

const (
	KindAlreadyRunning       Kind = "ALREADY_RUNNING"
	KindPermissionNotGranted Kind = "PERMISSION_NOT_GRANTED"
	KindInternal             Kind = "INTERNAL_ERROR"
	KindNotImplemented       Kind = "NOT_IMPLEMENTED"
)

// Error is the failure delivered to callers. Message is optional.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "calllog: <nil>"
	}
	if e.Message == "" {
		return fmt.Sprintf("calllog: %s", e.Kind)
	}
	return fmt.Sprintf("calllog: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

var (
	ErrAlreadyRunning       = &Error{Kind: KindAlreadyRunning}
	ErrPermissionNotGranted = &Error{Kind: KindPermissionNotGranted}
	ErrInternal             = &Error{Kind: KindInternal}
	ErrNotImplemented       = &Error{Kind: KindNotImplemented}
)

func alreadyRunning() *Error {
	return &Error{Kind: KindAlreadyRunning, Message: "one method call is already running"}
}

func notImplemented(method string) *Error {
	return &Error{Kind: KindNotImplemented, Message: fmt.Sprintf("method %q is not implemented", method)}
}

func internalError(err error) *Error {
	var ce *Error
	if errors.As(err, &ce) && ce.Kind == KindInternal {
		return ce
	}
	return &Error{Kind: KindInternal, Message: err.Error(), Err: err}
}

// KindOf returns the Kind carried by err, or "" when err is not a *Error.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
