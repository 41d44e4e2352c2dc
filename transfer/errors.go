package transfer

import (
	"errors"
	"fmt"
)

// Kind classifies a transfer failure. None of these are retried; each is
// surfaced once on the Result after the open transaction is rolled back.
type Kind string

const (
	// KindValidation marks a malformed request, rejected before any
	// connection is touched.
	KindValidation Kind = "validation"

	// KindConnection marks an unreachable or unauthenticated server.
	KindConnection Kind = "connection"

	// KindSchema marks an unmappable source type or a failed
	// destination-table creation; surfaced before any row is moved.
	KindSchema Kind = "schema"

	// KindTransfer marks a failed count, read or batch load; the open
	// transaction is rolled back, no partial rows persist.
	KindTransfer Kind = "transfer"

	// KindCancelled marks a caller-initiated abort, honored at a batch
	// boundary and rolled back like a failure.
	KindCancelled Kind = "cancelled"
)

// Error is a classified transfer failure.
type Error struct {
	Kind  Kind
	State State
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error in state %s: %v", e.Kind, e.State, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, state State, err error) *Error {
	return &Error{Kind: kind, State: state, Err: err}
}

// KindOf extracts the failure kind, or "" for nil/unclassified errors.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return ""
}

// IsCancelled reports whether err is a cancellation outcome.
func IsCancelled(err error) bool { return KindOf(err) == KindCancelled }
