package engine

import (
	"errors"
	"fmt"
)

// RuntimeError is an event the engine could not apply.
//
// Err holds the underlying cause, so errors.Is matches world and store
// sentinels through a RuntimeError.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Event is the kind of the event that failed.
	Event EventType

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause, if any.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodeRejected indicates the world refused the event.
	ErrCodeRejected RuntimeErrorCode = "REJECTED"

	// ErrCodeStorage indicates a store read or write failed.
	ErrCodeStorage RuntimeErrorCode = "STORAGE"

	// ErrCodeInvalidEvent indicates a malformed event.
	ErrCodeInvalidEvent RuntimeErrorCode = "INVALID_EVENT"

	// ErrCodeStopped indicates the engine no longer accepts events.
	ErrCodeStopped RuntimeErrorCode = "STOPPED"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Event != 0 {
		return fmt.Sprintf("%s: %s (event=%s)", e.Code, msg, e.Event)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// IsRejected returns true if the world refused the event.
// Uses errors.As to handle wrapped errors.
func IsRejected(err error) bool {
	return hasCode(err, ErrCodeRejected)
}

// IsStorageError returns true if the event failed in the store.
func IsStorageError(err error) bool {
	return hasCode(err, ErrCodeStorage)
}

// IsStopped returns true if the engine was stopped before the event ran.
func IsStopped(err error) bool {
	return hasCode(err, ErrCodeStopped)
}

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

func rejected(ev EventType, err error) *RuntimeError {
	return &RuntimeError{Code: ErrCodeRejected, Event: ev, Err: err}
}

func storageFailed(ev EventType, msg string, err error) *RuntimeError {
	return &RuntimeError{Code: ErrCodeStorage, Event: ev, Message: msg, Err: err}
}

var errStopped = &RuntimeError{Code: ErrCodeStopped, Message: "engine stopped"}
