package properties

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a load failure.
type Kind int

const (
	// KindUnavailable means a source could not be opened; the next source is tried.
	KindUnavailable Kind = iota + 1
	// KindMalformed means the opened source could not be parsed.
	KindMalformed
	// KindClose means the source stream failed to close.
	KindClose
	// KindNoSource means every candidate source was unavailable.
	KindNoSource
	// KindFatal aborts the load and is returned to the caller.
	KindFatal
)

var (
	ErrUnavailable = errors.New("source unavailable")
	ErrMalformed   = errors.New("malformed properties")
	ErrClose       = errors.New("close failed")
	ErrNoSource    = errors.New("no configuration source available")

	// ErrAborted reports that the process is tearing down the load.
	ErrAborted = errors.New("load aborted")
	// ErrExhausted reports process-level resource exhaustion.
	ErrExhausted = errors.New("resources exhausted")
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindMalformed:
		return "malformed"
	case KindClose:
		return "close"
	case KindNoSource:
		return "no_source"
	case KindFatal:
		return "fatal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error describes a failure while loading from a source.
type Error struct {
	Kind   Kind
	Source string
	Err    error
}

func (e *Error) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Source, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel belonging to the error's kind.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindUnavailable:
		return target == ErrUnavailable
	case KindMalformed:
		return target == ErrMalformed
	case KindClose:
		return target == ErrClose
	case KindNoSource:
		return target == ErrNoSource
	}
	return false
}

// IsFatal reports whether err must abort the load instead of falling back.
func IsFatal(err error) bool {
	var loadErr *Error
	if errors.As(err, &loadErr) && loadErr.Kind == KindFatal {
		return true
	}
	return errors.Is(err, ErrAborted) ||
		errors.Is(err, ErrExhausted) ||
		errors.Is(err, context.Canceled)
}

// classify wraps a source failure, promoting fatal causes to KindFatal.
func classify(kind Kind, source string, err error) *Error {
	if IsFatal(err) {
		kind = KindFatal
	}
	return &Error{Kind: kind, Source: source, Err: err}
}
