// Package models provides the data structures and state management for
// simulated option-chain sessions.
package models

import (
	"errors"
	"fmt"
)

// SessionErrorKind classifies a SessionError for HTTP status mapping and
// caller dispatch via errors.As/errors.Is.
type SessionErrorKind string

const (
	// KindInvalidParameter marks a validation failure on a request field.
	KindInvalidParameter SessionErrorKind = "invalid_parameter"
	// KindNotFound marks a lookup miss on a session id.
	KindNotFound SessionErrorKind = "not_found"
	// KindInvalidTransition marks a rejected state-machine transition.
	KindInvalidTransition SessionErrorKind = "invalid_transition"
	// KindAlreadyCompleted marks a read against a completed session.
	KindAlreadyCompleted SessionErrorKind = "already_completed"
	// KindInErrorState marks a read against a session parked in Error.
	KindInErrorState SessionErrorKind = "in_error_state"
	// KindNumericUnderflow marks a fatal exp-underflow during path generation.
	KindNumericUnderflow SessionErrorKind = "numeric_underflow"
	// KindIVDidNotConverge marks an implied-vol solver that failed to
	// converge; callers treat this as a warning, not a failure.
	KindIVDidNotConverge SessionErrorKind = "iv_did_not_converge"
	// KindDataSourceUnavailable marks an external historical-source failure.
	KindDataSourceUnavailable SessionErrorKind = "data_source_unavailable"
	// KindSymbolUnknown marks a symbol the historical source doesn't carry.
	KindSymbolUnknown SessionErrorKind = "symbol_unknown"
	// KindInsufficientHistory marks a historical series shorter than needed.
	KindInsufficientHistory SessionErrorKind = "insufficient_history"
	// KindStoreTimeout marks an external call that exceeded its deadline.
	KindStoreTimeout SessionErrorKind = "store_timeout"
	// KindBug marks an invariant violation caught at runtime.
	KindBug SessionErrorKind = "bug"
)

// SessionError is the single error type surfaced across the engine. Kind
// drives HTTP status mapping in internal/api; Field/Message carry detail.
type SessionError struct {
	Kind    SessionErrorKind
	Field   string
	Message string
	Cause   error
}

func (e *SessionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the wrapped cause, if any, for errors.Is/As chains.
func (e *SessionError) Unwrap() error {
	return e.Cause
}

// Is allows errors.Is(err, &SessionError{Kind: KindNotFound}) style checks
// against kind alone, ignoring Field/Message/Cause.
func (e *SessionError) Is(target error) bool {
	var t *SessionError
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind
}

// NewInvalidParameter builds a KindInvalidParameter error for field/reason.
func NewInvalidParameter(field, reason string) *SessionError {
	return &SessionError{Kind: KindInvalidParameter, Field: field, Message: reason}
}

// NewNotFound builds a KindNotFound error for the given session id.
func NewNotFound(id string) *SessionError {
	return &SessionError{Kind: KindNotFound, Message: fmt.Sprintf("session %s not found", id)}
}

// NewInvalidTransition builds a KindInvalidTransition error describing the
// rejected (state, event) pair.
func NewInvalidTransition(from SessionState, event Event) *SessionError {
	return &SessionError{
		Kind:    KindInvalidTransition,
		Message: fmt.Sprintf("invalid transition from %s on event %s", from, event),
	}
}

// NewBug wraps an invariant violation caught at runtime.
func NewBug(description string, cause error) *SessionError {
	return &SessionError{Kind: KindBug, Message: description, Cause: cause}
}

// IsKind reports whether err is a *SessionError of the given kind.
func IsKind(err error, kind SessionErrorKind) bool {
	var se *SessionError
	if !errors.As(err, &se) {
		return false
	}
	return se.Kind == kind
}
