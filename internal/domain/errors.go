package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownField indicates a field name that the document does not carry.
	ErrUnknownField = errors.New("unknown field")

	// ErrInvalidTransition indicates a status change the lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// MissingIDError is returned when an EDIT or DELETE targets an item that
// was never persisted.
type MissingIDError struct {
	Action Action
}

func (e *MissingIDError) Error() string {
	verb := "edit"
	if e.Action == ActionDelete {
		verb = "delete"
	}
	return fmt.Sprintf("Cannot %s a custom highlight that has no id!", verb)
}

// InvariantViolationError signals a programming error upstream of the
// resolver, such as a REMOVE item that was not filtered out.
type InvariantViolationError struct {
	Message string
}

func (e *InvariantViolationError) Error() string { return e.Message }

// ErrRemoveReachedResolver is the message carried by the REMOVE invariant.
const ErrRemoveReachedResolver = "The REMOVE action must not be processed by the commit function"

// UnknownActionError reports an action value outside the closed set.
type UnknownActionError struct {
	Action Action
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", string(e.Action))
}

// UnknownResourceKeyError reports a sub-resource key with no endpoint.
type UnknownResourceKeyError struct {
	Key ResourceKey
}

func (e *UnknownResourceKeyError) Error() string {
	return fmt.Sprintf("unknown resource key %q", string(e.Key))
}

// ValidationError collects per-field validation failures.
type ValidationError struct {
	Fields map[string]error
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		for name, err := range e.Fields {
			return fmt.Sprintf("invalid field %s: %v", name, err)
		}
	}
	return fmt.Sprintf("%d invalid fields", len(e.Fields))
}
