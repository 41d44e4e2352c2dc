// Package dest loads rows into the destination table. A Writer owns the
// destination connection; a Session owns exactly one transaction, so the
// optional delete, every batch and the identity toggle either all commit
// or all roll back together.
package dest

import "context"

// SessionOptions configures one write session.
type SessionOptions struct {
	// Database is the destination database name (unquoted). Writers
	// qualify table references with it where the engine allows and
	// verify it against the connection where it does not; it is never
	// silently ignored.
	Database string

	// Table is the destination table name (unquoted).
	Table string

	// Columns are the destination column names in batch value order.
	Columns []string

	// Replace deletes all existing rows inside the session transaction
	// before the first batch.
	Replace bool

	// KeepIdentity preserves explicit source key values instead of
	// letting the destination regenerate them.
	KeepIdentity bool
}

// Writer prepares the destination table and opens write sessions.
type Writer interface {
	// TableExists checks the named database's catalog for the table.
	TableExists(ctx context.Context, database, table string) (bool, error)

	// EnsureTable executes a create-table statement.
	EnsureTable(ctx context.Context, ddl string) error

	// Begin opens a session bound to a single new transaction. When
	// opts.Replace is set the delete has already happened, uncommitted,
	// by the time Begin returns.
	Begin(ctx context.Context, opts SessionOptions) (Session, error)

	// Close releases the destination connection.
	Close(ctx context.Context) error
}

// Session is one open destination transaction.
type Session interface {
	// Load appends a batch of rows and returns the total loaded so far
	// in this session.
	Load(ctx context.Context, batch [][]any) (int64, error)

	// Commit finalizes everything the session did.
	Commit(ctx context.Context) error

	// Rollback discards everything the session did. Safe to call after
	// a failed Commit.
	Rollback(ctx context.Context) error
}
