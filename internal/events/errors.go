package events

import (
	"errors"
	"fmt"
)

// ErrEventAlreadyRaised is the cause of a raise rejected by the uniqueness guard.
var ErrEventAlreadyRaised = errors.New("event already raised")

// RaiseError is returned by RaiseEvent when the (subject, name) pair already exists.
// Redundant marks a repeated delivery of an already recorded event; DoNotRetry tells
// callers that retrying cannot change the outcome.
type RaiseError struct {
	SubjectID  string
	EventName  EventName
	Redundant  bool
	DoNotRetry bool
	Err        error
}

func (e *RaiseError) Error() string {
	return fmt.Sprintf("raise %s for %s: %v", e.EventName, e.SubjectID, e.Err)
}

func (e *RaiseError) Unwrap() error { return e.Err }

// IsRedundantRaise reports whether err is a repeated raise of a recorded event.
func IsRedundantRaise(err error) bool {
	var re *RaiseError
	return errors.As(err, &re) && re.Redundant
}

// IsDoNotRetry reports whether err is tagged as not worth retrying.
func IsDoNotRetry(err error) bool {
	var re *RaiseError
	return errors.As(err, &re) && re.DoNotRetry
}
