// Package transfer moves one result set between two servers: count,
// optional destination-table creation, batched transactional loading
// with progress snapshots and cooperative cancellation.
package transfer

import "fmt"

// Mode selects what the source expression is.
type Mode string

const (
	// ModeTable transfers a whole named table.
	ModeTable Mode = "table"
	// ModeQuery transfers the result set of an arbitrary query.
	ModeQuery Mode = "query"
)

// Action selects what happens to rows already in the destination table.
type Action string

const (
	// ActionAppend adds the source rows to the existing destination rows.
	ActionAppend Action = "append"
	// ActionReplace deletes the existing destination rows first, inside
	// the same transaction that loads the new ones.
	ActionReplace Action = "replace"
)

// DefaultBatchSize is the number of rows moved per batch.
const DefaultBatchSize = 1000

// Request is the immutable configuration of one transfer. Exactly one of
// SourceTable/SourceQuery is meaningful depending on Mode. DestTable is
// always an explicit input; the engine never infers it.
type Request struct {
	SourceDatabase string
	Mode           Mode
	SourceTable    string
	SourceQuery    string

	DestDatabase string
	DestTable    string

	Action Action

	// KeepIdentity preserves explicit source key values on the
	// destination instead of letting them be regenerated.
	KeepIdentity bool

	// BatchSize overrides DefaultBatchSize when > 0.
	BatchSize int
}

// SourceExpression returns the table name or query text for the selected
// mode, plus whether it is a query.
func (r Request) SourceExpression() (string, bool) {
	if r.Mode == ModeQuery {
		return r.SourceQuery, true
	}
	return r.SourceTable, false
}

func (r Request) batchSize() int {
	if r.BatchSize > 0 {
		return r.BatchSize
	}
	return DefaultBatchSize
}

// Validate checks the request before any connection is touched.
func (r Request) Validate() error {
	switch r.Mode {
	case ModeTable:
		if r.SourceTable == "" {
			return fmt.Errorf("source table name is required in table mode")
		}
	case ModeQuery:
		if r.SourceQuery == "" {
			return fmt.Errorf("source query is required in query mode")
		}
	default:
		return fmt.Errorf("unknown transfer mode %q", r.Mode)
	}

	if r.DestTable == "" {
		return fmt.Errorf("destination table name is required")
	}

	switch r.Action {
	case ActionAppend, ActionReplace:
	default:
		return fmt.Errorf("unknown transfer action %q", r.Action)
	}
	return nil
}
