package dialect

import "fmt"

// Dialect captures the engine-specific SQL needed by the transfer engine:
// identifier quoting, placeholder syntax, catalog queries and the type
// mapping used when a destination table has to be created.
type Dialect interface {
	// Name returns the database/sql driver name ("sqlserver", "postgres").
	Name() string

	// QuoteIdent quotes a single identifier.
	QuoteIdent(name string) string

	// QualifyTable builds the fully qualified table reference for a
	// database and table name. Engines that cannot address another
	// database from one connection ignore the database part.
	QualifyTable(database, table string) string

	// Placeholder returns the parameter placeholder for 1-based position n.
	Placeholder(n int) string

	// MaxParams is the engine's parameter-count limit per statement.
	MaxParams() int

	// SelectQuery returns the statement streaming every row of the
	// source expression (a table reference or a caller-supplied query).
	SelectQuery(expr string, isQuery bool) string

	// CountQuery returns the statement counting the rows the source
	// expression yields.
	CountQuery(expr string, isQuery bool) string

	// PreviewQuery returns the statement yielding at most maxRows rows
	// of the source expression.
	PreviewQuery(expr string, isQuery bool, maxRows int) string

	// TableExistsQuery returns a one-parameter query (table name)
	// counting matching entries in the named database's catalog, or the
	// connection's own catalog when database is "".
	TableExistsQuery(database string) string

	// ColumnsQuery returns a one-parameter query (table name) yielding,
	// in ordinal order: column name, data type, is-nullable ("YES"/"NO"),
	// character max length, numeric precision, numeric scale and an
	// identity flag (0/1). Like TableExistsQuery it targets the named
	// database's catalog.
	ColumnsQuery(database string) string

	// CurrentDatabaseQuery returns the query resolving the connection's
	// database name, or "" for engines that address other databases by
	// qualifying table references instead.
	CurrentDatabaseQuery() string

	// ColumnType maps a source column type to this engine's type,
	// applying length and precision/scale where the type carries them.
	// Unmapped types fail rather than defaulting.
	ColumnType(dataType string, maxLength, precision, scale *int64) (string, error)

	// IdentityInsertOn and IdentityInsertOff return the statements
	// toggling explicit key insertion for a table, or "" when the
	// engine needs no toggle.
	IdentityInsertOn(table string) string
	IdentityInsertOff(table string) string

	// ListDatabasesQuery returns the query listing database names.
	ListDatabasesQuery() string

	// ListTablesQuery returns the query listing user table names with
	// approximate row counts.
	ListTablesQuery() string
}

// ForDriver returns the dialect for a database/sql driver name.
func ForDriver(driver string) (Dialect, error) {
	switch driver {
	case "sqlserver", "mssql":
		return MSSQL{}, nil
	case "postgres", "postgresql":
		return Postgres{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}
