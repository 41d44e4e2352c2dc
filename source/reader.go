// Package source reads the result set being transferred: row counts,
// bounded previews and the streaming cursor the orchestrator drains.
package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fzseyedi/DatabaseHelper/dialect"
	"github.com/fzseyedi/DatabaseHelper/schema"
)

// DefaultPreviewRows bounds Preview when the caller passes maxRows <= 0.
const DefaultPreviewRows = 10

// Reader executes read-only statements against the source server. The
// source expression is either a table name (isQuery false) or an
// arbitrary query (isQuery true).
type Reader struct {
	db      *sql.DB
	dialect dialect.Dialect
}

func NewReader(db *sql.DB, d dialect.Dialect) *Reader {
	return &Reader{db: db, dialect: d}
}

// expr resolves the source expression: table names become qualified,
// quoted references; query text passes through untouched.
func (r *Reader) expr(database, expression string, isQuery bool) string {
	if isQuery {
		return expression
	}
	return r.dialect.QualifyTable(database, expression)
}

// RowCount counts the rows the source expression yields. Query mode
// wraps the caller's query as a subquery.
func (r *Reader) RowCount(ctx context.Context, database, expression string, isQuery bool) (int64, error) {
	query := r.dialect.CountQuery(r.expr(database, expression, isQuery), isQuery)
	var n int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count source rows: %w", err)
	}
	return n, nil
}

// Preview returns at most maxRows rows with their column metadata. It
// issues a single bounded select and never mutates anything.
func (r *Reader) Preview(ctx context.Context, database, expression string, isQuery bool, maxRows int) ([]schema.Column, [][]any, error) {
	if maxRows <= 0 {
		maxRows = DefaultPreviewRows
	}
	query := r.dialect.PreviewQuery(r.expr(database, expression, isQuery), isQuery, maxRows)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to preview source rows: %w", err)
	}
	defer rows.Close()

	cols, err := columnsFromResult(rows)
	if err != nil {
		return nil, nil, err
	}

	var out [][]any
	for rows.Next() {
		row, err := scanRow(rows, cols)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

// OpenCursor starts streaming the source expression. Table mode takes
// column metadata from the catalog so nullability, lengths and
// precision/scale are exact; query mode falls back to the result-set
// metadata the driver reports.
func (r *Reader) OpenCursor(ctx context.Context, database, expression string, isQuery bool) (*Cursor, error) {
	var catalog []schema.Column
	if !isQuery {
		var err error
		catalog, err = r.TableColumns(ctx, database, expression)
		if err != nil {
			return nil, err
		}
	}

	rows, err := r.db.QueryContext(ctx, r.dialect.SelectQuery(r.expr(database, expression, isQuery), isQuery))
	if err != nil {
		return nil, fmt.Errorf("failed to query source: %w", err)
	}

	cols := catalog
	if cols == nil {
		cols, err = columnsFromResult(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
	}

	return &Cursor{rows: rows, cols: cols}, nil
}

// TableColumns introspects a table's columns from the catalog in
// ordinal order. The catalog lookup targets the same database the data
// queries qualify, not whatever database the connection is bound to.
func (r *Reader) TableColumns(ctx context.Context, database, table string) ([]schema.Column, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.ColumnsQuery(database), table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []schema.Column
	for rows.Next() {
		var (
			col      schema.Column
			nullable string
			maxLen   sql.NullInt64
			prec     sql.NullInt64
			scale    sql.NullInt64
			identity sql.NullInt64
		)
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &maxLen, &prec, &scale, &identity); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		if maxLen.Valid {
			v := maxLen.Int64
			col.MaxLength = &v
		}
		if prec.Valid {
			v := prec.Int64
			col.Precision = &v
		}
		if scale.Valid {
			v := scale.Int64
			col.Scale = &v
		}
		col.IsIdentity = identity.Valid && identity.Int64 == 1
		cols = append(cols, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("source table %s does not exist or has no columns", table)
	}
	return cols, nil
}

// Cursor streams rows from an open source query in bounded batches.
type Cursor struct {
	rows *sql.Rows
	cols []schema.Column
}

// Columns returns the projected column metadata in source order.
func (c *Cursor) Columns() []schema.Column { return c.cols }

// Next returns up to batchSize rows, or an empty batch when the cursor
// is exhausted. Values are normalized for loading (see Convert).
func (c *Cursor) Next(batchSize int) ([][]any, error) {
	var batch [][]any
	for len(batch) < batchSize && c.rows.Next() {
		row, err := scanRow(c.rows, c.cols)
		if err != nil {
			return nil, err
		}
		batch = append(batch, row)
	}
	if err := c.rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading source rows: %w", err)
	}
	return batch, nil
}

func (c *Cursor) Close() error { return c.rows.Close() }

// columnsFromResult derives column metadata from the driver's result-set
// description, used for query-mode sources.
func columnsFromResult(rows *sql.Rows) ([]schema.Column, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get result column types: %w", err)
	}

	cols := make([]schema.Column, len(types))
	for i, t := range types {
		col := schema.Column{Name: t.Name(), DataType: t.DatabaseTypeName(), Nullable: true}
		if nullable, ok := t.Nullable(); ok {
			col.Nullable = nullable
		}
		if length, ok := t.Length(); ok {
			col.MaxLength = &length
		}
		if prec, scale, ok := t.DecimalSize(); ok {
			col.Precision, col.Scale = &prec, &scale
		}
		cols[i] = col
	}
	return cols, nil
}

func scanRow(rows *sql.Rows, cols []schema.Column) ([]any, error) {
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("failed to scan source row: %w", err)
	}
	for i, v := range values {
		values[i] = Convert(v, cols[i].DataType)
	}
	return values, nil
}
