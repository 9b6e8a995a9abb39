package ontology

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by "required" lookups when the element does
// not exist in the requested namespace. Plain lookups return nil
// instead of this error.
var ErrNotFound = errors.New("ontology element not found")

// ValidationError reports caller-recoverable input problems: missing
// domain/range on a relationship, a property declared with no owners,
// a dependent property that does not exist.
type ValidationError struct {
	Entity  string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Entity == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Entity, e.Message)
}

// NewValidationError builds a ValidationError naming the offending
// entity.
func NewValidationError(entity, format string, args ...any) *ValidationError {
	return &ValidationError{Entity: entity, Message: fmt.Sprintf(format, args...)}
}

// ConsistencyError indicates a corrupted or misconfigured catalog:
// more than one IS_A parent, or an ambiguous intent match. Fatal to
// the current operation.
type ConsistencyError struct {
	Entity    string
	Conflicts []string
	Message   string
}

func (e *ConsistencyError) Error() string {
	msg := e.Message
	if e.Entity != "" {
		msg = fmt.Sprintf("%s: %s", e.Entity, msg)
	}
	if len(e.Conflicts) > 0 {
		msg = fmt.Sprintf("%s (conflicting: %s)", msg, strings.Join(e.Conflicts, ", "))
	}
	return msg
}

// AccessError reports a denied mutation. It identifies the actor and
// the missing privilege or workspace access without leaking whether
// the target element exists.
type AccessError struct {
	User      string
	Namespace string
	Required  string
}

func (e *AccessError) Error() string {
	msg := fmt.Sprintf("user %s lacks %s", e.User, e.Required)
	if e.Namespace != PublicNamespace {
		msg = fmt.Sprintf("%s in workspace %s", msg, e.Namespace)
	}
	return msg
}

// DeleteBlockedError reports a delete precondition failure: the
// element has children or is still referenced by live data. The
// caller can recover by deleting dependents or migrating data first.
type DeleteBlockedError struct {
	Entity string
	Reason string
}

func (e *DeleteBlockedError) Error() string {
	return fmt.Sprintf("cannot delete %s: %s", e.Entity, e.Reason)
}

// StoreError wraps a graph-collaborator failure crossing the
// repository boundary, carrying the attempted operation and its key
// parameters for diagnostics. No raw collaborator error escapes
// unwrapped.
type StoreError struct {
	Op        string
	Entity    string
	Namespace string
	Err       error
}

func (e *StoreError) Error() string {
	msg := e.Op
	if e.Entity != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Entity)
	}
	if e.Namespace != PublicNamespace {
		msg = fmt.Sprintf("%s (namespace %s)", msg, e.Namespace)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// WrapStore wraps a collaborator error; nil in, nil out.
func WrapStore(err error, op, entity, namespace string) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Entity: entity, Namespace: namespace, Err: err}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsConsistency reports whether err is a ConsistencyError.
func IsConsistency(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}

// IsAccess reports whether err is an AccessError.
func IsAccess(err error) bool {
	var ae *AccessError
	return errors.As(err, &ae)
}

// IsDeleteBlocked reports whether err is a DeleteBlockedError.
func IsDeleteBlocked(err error) bool {
	var de *DeleteBlockedError
	return errors.As(err, &de)
}
