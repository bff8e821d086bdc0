package store

import (
	"context"
	"errors"
)

// Kind classifies a store failure so callers can decide on recovery without
// inspecting messages.
type Kind int

const (
	KindUnknown Kind = iota
	// KindSchemaAbsent means the relation or a column does not exist.
	KindSchemaAbsent
	// KindAlreadyExists is returned by DDL that targets an existing object.
	KindAlreadyExists
	// KindConstraint covers unique, not-null, foreign key and check violations.
	KindConstraint
	// KindValidation covers malformed input such as bad identifiers or values.
	KindValidation
	// KindTransient covers connection loss, timeouts and lock contention.
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindSchemaAbsent:
		return "schema_absent"
	case KindAlreadyExists:
		return "already_exists"
	case KindConstraint:
		return "constraint"
	case KindValidation:
		return "validation"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Error is the structured failure every backend returns.
type Error struct {
	Kind     Kind
	Code     string
	Message  string
	Detail   string
	Op       string
	Relation string
	Err      error
}

// Error returns the remote message unchanged.
func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the kind from err. Context expiry counts as transient.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTransient
	}
	return KindUnknown
}

// IsKind reports whether err carries kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// Message returns the human-readable remote message for err.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}
