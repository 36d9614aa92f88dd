// Package apperr holds the error taxonomy returned by the accounting engine.
// Callers discriminate with errors.As or KindOf; nothing in the engine retries.
package apperr

import (
	"errors"
	"fmt"

	"kasirstok/backend/internal/store"
)

type Kind string

const (
	KindValidation  Kind = "validation"
	KindConflict    Kind = "conflict"
	KindPersistence Kind = "persistence"
	KindConsistency Kind = "consistency"
	KindForbidden   Kind = "forbidden"
	KindNotFound    Kind = "not_found"
	KindUnknown     Kind = "unknown"
)

// ValidationError is a local precondition failure. It never reaches the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

func Invalid(field string, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// ConflictError reports a duplicate human-facing document number, or a
// record that cannot change because of Reason.
type ConflictError struct {
	Document string
	Number   string
	Reason   string
}

func (e *ConflictError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s %q %s", e.Document, e.Number, e.Reason)
	}
	return fmt.Sprintf("%s number %q already exists", e.Document, e.Number)
}

// PersistenceError wraps a failed store call.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func Persistence(op string, err error) *PersistenceError {
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return pe
	}
	return &PersistenceError{Op: op, Err: err}
}

// ConsistencyError reports a saga that failed after its header was written.
// When OrphanHeader is set the compensating delete also failed and the header
// may still be visible in the store.
type ConsistencyError struct {
	Op           string
	HeaderID     string
	Cause        *PersistenceError
	RollbackErr  error
	OrphanHeader bool
}

func (e *ConsistencyError) Error() string {
	if e.OrphanHeader {
		return fmt.Sprintf("%s: %v; rollback of header %s failed: %v (orphan header needs operator attention)", e.Op, e.Cause, e.HeaderID, e.RollbackErr)
	}
	return fmt.Sprintf("%s: %v; header %s rolled back", e.Op, e.Cause, e.HeaderID)
}

func (e *ConsistencyError) Unwrap() error {
	return e.Cause
}

type ForbiddenError struct {
	Action string
	Role   string
}

func (e *ForbiddenError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("%s requires an authenticated session", e.Action)
	}
	return fmt.Sprintf("role %s may not %s", e.Role, e.Action)
}

// KindOf classifies err. ConsistencyError is checked before PersistenceError
// because it wraps one.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var (
		validation  *ValidationError
		conflict    *ConflictError
		consistency *ConsistencyError
		persistence *PersistenceError
		forbidden   *ForbiddenError
	)
	switch {
	case errors.As(err, &validation):
		return KindValidation
	case errors.As(err, &conflict):
		return KindConflict
	case errors.As(err, &consistency):
		return KindConsistency
	case errors.As(err, &forbidden):
		return KindForbidden
	case errors.Is(err, store.ErrNotFound):
		return KindNotFound
	case errors.As(err, &persistence):
		return KindPersistence
	default:
		return KindUnknown
	}
}
