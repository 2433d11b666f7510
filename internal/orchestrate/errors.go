// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrate

import (
	"errors"
	"fmt"
)

// Kind classifies orchestration errors.
type Kind string

const (
	// KindTimeout marks a worker that exceeded its allotted time.
	KindTimeout Kind = "timeout"

	// KindException marks any other worker failure, including panics.
	KindException Kind = "exception"

	// KindInvalidInput marks a caller-side contract violation. It is the
	// only kind returned before any worker is scheduled.
	KindInvalidInput Kind = "invalid_input"

	// KindCanceled marks a run abandoned by its caller.
	KindCanceled Kind = "canceled"
)

// Error is an orchestration failure. Worker-level errors (timeout, exception)
// are captured into the result map and never returned from Run; they are
// logged with this type. InvalidInput and Canceled are returned to the caller.
type Error struct {
	Kind    Kind
	Worker  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	var msg string
	if e.Worker != "" {
		msg = fmt.Sprintf("%s: worker %s: %s", e.Kind, e.Worker, e.Message)
	} else {
		msg = fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrInvalidInput)
// holds for every invalid-input error regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInvalidInput = &Error{Kind: KindInvalidInput}
	ErrTimeout      = &Error{Kind: KindTimeout}
	ErrCanceled     = &Error{Kind: KindCanceled}
)

func invalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// resultMessage is the error string recorded in a failed worker's result:
// "Timeout" for timeouts, the worker's own error text otherwise.
func (e *Error) resultMessage() string {
	switch e.Kind {
	case KindTimeout:
		return "Timeout"
	case KindCanceled:
		return "Canceled"
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Message
}
