package dest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/fzseyedi/DatabaseHelper/dialect"
)

// SQLWriter loads through database/sql with multi-row parameterized
// INSERT statements. Unlike engine-specific bulk APIs, parameterized
// inserts on a *sql.Tx provably share the session transaction with the
// replace-delete and the identity toggle.
type SQLWriter struct {
	db      *sql.DB
	dialect dialect.Dialect
}

func NewSQLWriter(db *sql.DB, d dialect.Dialect) *SQLWriter {
	return &SQLWriter{db: db, dialect: d}
}

func (w *SQLWriter) TableExists(ctx context.Context, database, table string) (bool, error) {
	if err := w.checkDatabase(ctx, database); err != nil {
		return false, err
	}
	var n int64
	if err := w.db.QueryRowContext(ctx, w.dialect.TableExistsQuery(database), table).Scan(&n); err != nil {
		return false, fmt.Errorf("failed to check destination table %s: %w", table, err)
	}
	return n > 0, nil
}

// checkDatabase verifies a requested database name on engines whose
// connections cannot address another database. Engines that qualify
// table references instead return no verification query.
func (w *SQLWriter) checkDatabase(ctx context.Context, database string) error {
	query := w.dialect.CurrentDatabaseQuery()
	if database == "" || query == "" {
		return nil
	}
	var current string
	if err := w.db.QueryRowContext(ctx, query).Scan(&current); err != nil {
		return fmt.Errorf("failed to resolve destination database: %w", err)
	}
	if !strings.EqualFold(current, database) {
		return fmt.Errorf("destination database %q requested but the connection is bound to %q", database, current)
	}
	return nil
}

func (w *SQLWriter) EnsureTable(ctx context.Context, ddl string) error {
	if _, err := w.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create destination table: %w", err)
	}
	return nil
}

func (w *SQLWriter) Begin(ctx context.Context, opts SessionOptions) (Session, error) {
	if len(opts.Columns) == 0 {
		return nil, fmt.Errorf("no destination columns for table %s", opts.Table)
	}

	if err := w.checkDatabase(ctx, opts.Database); err != nil {
		return nil, err
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin destination transaction: %w", err)
	}

	table := w.dialect.QualifyTable(opts.Database, opts.Table)

	if opts.Replace {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to clear destination table: %w", err)
		}
	}

	identityOff := ""
	if opts.KeepIdentity {
		if on := w.dialect.IdentityInsertOn(table); on != "" {
			if _, err := tx.ExecContext(ctx, on); err != nil {
				tx.Rollback()
				return nil, fmt.Errorf("failed to enable identity insert: %w", err)
			}
			identityOff = w.dialect.IdentityInsertOff(table)
		}
	}

	quoted := make([]string, len(opts.Columns))
	for i, col := range opts.Columns {
		quoted[i] = w.dialect.QuoteIdent(col)
	}

	return &sqlSession{
		tx:          tx,
		dialect:     w.dialect,
		insertHead:  fmt.Sprintf("INSERT INTO %s (%s) VALUES ", table, strings.Join(quoted, ", ")),
		columns:     len(opts.Columns),
		identityOff: identityOff,
	}, nil
}

func (w *SQLWriter) Close(ctx context.Context) error { return w.db.Close() }

type sqlSession struct {
	tx          *sql.Tx
	dialect     dialect.Dialect
	insertHead  string
	columns     int
	identityOff string
	loaded      int64
}

func (s *sqlSession) Load(ctx context.Context, batch [][]any) (int64, error) {
	// A single statement may not exceed the engine's parameter limit,
	// so a batch can span several INSERTs on the same transaction.
	rowsPerStmt := s.dialect.MaxParams() / s.columns
	if rowsPerStmt < 1 {
		rowsPerStmt = 1
	}

	for start := 0; start < len(batch); start += rowsPerStmt {
		end := start + rowsPerStmt
		if end > len(batch) {
			end = len(batch)
		}
		if err := s.insert(ctx, batch[start:end]); err != nil {
			return s.loaded, err
		}
		s.loaded += int64(end - start)
	}
	return s.loaded, nil
}

func (s *sqlSession) insert(ctx context.Context, rows [][]any) error {
	query, args, err := buildInsert(s.dialect, s.insertHead, s.columns, rows)
	if err != nil {
		return err
	}
	if _, err := s.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to load batch into destination: %w", err)
	}
	return nil
}

// buildInsert renders one multi-row INSERT with the dialect's
// placeholders and the flattened argument list.
func buildInsert(d dialect.Dialect, head string, columns int, rows [][]any) (string, []any, error) {
	var sb strings.Builder
	sb.WriteString(head)

	args := make([]any, 0, len(rows)*columns)
	n := 1
	for i, row := range rows {
		if len(row) != columns {
			return "", nil, fmt.Errorf("row has %d values, destination expects %d", len(row), columns)
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j, v := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(d.Placeholder(n))
			args = append(args, v)
			n++
		}
		sb.WriteByte(')')
	}
	return sb.String(), args, nil
}

func (s *sqlSession) Commit(ctx context.Context) error {
	if s.identityOff != "" {
		if _, err := s.tx.ExecContext(ctx, s.identityOff); err != nil {
			return fmt.Errorf("failed to disable identity insert: %w", err)
		}
	}
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit destination transaction: %w", err)
	}
	return nil
}

func (s *sqlSession) Rollback(ctx context.Context) error {
	if err := s.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return err
	}
	return nil
}
