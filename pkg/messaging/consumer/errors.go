package consumer

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sokol111/student-housing/pkg/messaging/bus"
)

var (
	// ErrDecode marks a message that cannot be decoded. It is skipped and committed.
	ErrDecode = errors.New("message decode failed")
	// ErrHandler marks a side-effect failure. It is retried, then skipped and committed.
	ErrHandler = errors.New("message handler failed")
	// ErrDuplicateDelivery marks a message that was already handled.
	ErrDuplicateDelivery = errors.New("duplicate delivery")
	// ErrPermanent stops retrying a handler error.
	ErrPermanent = errors.New("permanent error")
)

// Permanent marks err as not retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// PanicError is produced when a handler panics.
type PanicError struct {
	Panic any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Panic)
}

// Class is the outcome category of handling one message.
type Class int

const (
	ClassSuccess Class = iota
	ClassDecode
	ClassDuplicate
	ClassHandler
	// ClassAbort leaves the message uncommitted so that it is redelivered.
	ClassAbort
)

func (c Class) String() string {
	switch c {
	case ClassSuccess:
		return "ok"
	case ClassDecode:
		return "decode_error"
	case ClassDuplicate:
		return "duplicate"
	case ClassHandler:
		return "handler_error"
	case ClassAbort:
		return "aborted"
	}
	return "unknown"
}

// Commits reports whether a message with this outcome is committed.
func (c Class) Commits() bool {
	return c != ClassAbort
}

// Classify is the single mapping from a handling error to its policy.
func Classify(err error) Class {
	switch {
	case err == nil:
		return ClassSuccess
	case errors.Is(err, ErrDecode):
		return ClassDecode
	case errors.Is(err, ErrDuplicateDelivery):
		return ClassDuplicate
	case errors.Is(err, bus.ErrBusUnavailable):
		return ClassAbort
	case errors.Is(err, ErrHandler):
		return ClassHandler
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ClassAbort
	default:
		return ClassHandler
	}
}
