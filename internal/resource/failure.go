package resource

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a failure for conditional handling by consumers.
type Kind int

const (
	UnknownFailure Kind = iota
	NetworkFailure
	ValidationFailure
	NotFoundFailure
)

func (k Kind) String() string {
	switch k {
	case NetworkFailure:
		return "network"
	case ValidationFailure:
		return "validation"
	case NotFoundFailure:
		return "not_found"
	default:
		return "unknown"
	}
}

// Sentinel errors matched by errors.Is against a *Failure of the same kind.
var (
	ErrNetwork    = errors.New("network failure")
	ErrValidation = errors.New("validation failure")
	ErrNotFound   = errors.New("not found")
)

// ErrSuperseded is returned by Call.Wait when a newer invocation or a reset
// took over before the call settled.
var ErrSuperseded = errors.New("resource: invocation superseded")

// Failure is the normalised error surfaced in a Failed snapshot.
type Failure struct {
	Kind    Kind
	Message string
	Err     error
}

// Fail builds a Failure.
func Fail(kind Kind, message string, err error) *Failure {
	return &Failure{Kind: kind, Message: message, Err: err}
}

func (f *Failure) Error() string {
	if f.Message != "" {
		return f.Message
	}
	if f.Err != nil {
		return f.Err.Error()
	}
	return f.Kind.String() + " failure"
}

func (f *Failure) Unwrap() error { return f.Err }

// Is reports whether target is the sentinel for f's kind.
func (f *Failure) Is(target error) bool {
	switch target {
	case ErrNetwork:
		return f.Kind == NetworkFailure
	case ErrValidation:
		return f.Kind == ValidationFailure
	case ErrNotFound:
		return f.Kind == NotFoundFailure
	}
	return false
}

// Normalize maps any error onto a Failure. A nil error yields nil.
func Normalize(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Fail(NetworkFailure, "request timed out", err)
	case errors.Is(err, context.Canceled):
		return Fail(NetworkFailure, "request canceled", err)
	case errors.Is(err, ErrNotFound):
		return Fail(NotFoundFailure, err.Error(), err)
	case errors.Is(err, ErrValidation):
		return Fail(ValidationFailure, err.Error(), err)
	case errors.Is(err, ErrNetwork):
		return Fail(NetworkFailure, err.Error(), err)
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return Fail(NetworkFailure, fmt.Sprintf("service unreachable: %v", err), err)
	}
	return Fail(UnknownFailure, err.Error(), err)
}
