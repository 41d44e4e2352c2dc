package dest

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// PGXWriter loads into PostgreSQL through pgx COPY. CopyFrom on a
// pgx.Tx runs inside that transaction, which keeps the delete + batches
// + commit atomicity guarantee while being far faster than inserts.
type PGXWriter struct {
	conn *pgx.Conn
}

// NewPGXWriter connects to PostgreSQL with the native pgx protocol.
func NewPGXWriter(ctx context.Context, connStr string) (*PGXWriter, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return &PGXWriter{conn: conn}, nil
}

func (w *PGXWriter) TableExists(ctx context.Context, database, table string) (bool, error) {
	if err := w.checkDatabase(ctx, database); err != nil {
		return false, err
	}
	var n int64
	err := w.conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1`,
		table).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check destination table %s: %w", table, err)
	}
	return n > 0, nil
}

// checkDatabase verifies a requested database name against the bound
// connection; PostgreSQL cannot address another database from it.
func (w *PGXWriter) checkDatabase(ctx context.Context, database string) error {
	if database == "" {
		return nil
	}
	var current string
	if err := w.conn.QueryRow(ctx, "SELECT current_database()").Scan(&current); err != nil {
		return fmt.Errorf("failed to resolve destination database: %w", err)
	}
	if !strings.EqualFold(current, database) {
		return fmt.Errorf("destination database %q requested but the connection is bound to %q", database, current)
	}
	return nil
}

func (w *PGXWriter) EnsureTable(ctx context.Context, ddl string) error {
	if _, err := w.conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create destination table: %w", err)
	}
	return nil
}

func (w *PGXWriter) Begin(ctx context.Context, opts SessionOptions) (Session, error) {
	if len(opts.Columns) == 0 {
		return nil, fmt.Errorf("no destination columns for table %s", opts.Table)
	}
	if err := w.checkDatabase(ctx, opts.Database); err != nil {
		return nil, err
	}

	tx, err := w.conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin destination transaction: %w", err)
	}

	table := pgx.Identifier{opts.Table}

	if opts.Replace {
		if _, err := tx.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table.Sanitize())); err != nil {
			tx.Rollback(ctx)
			return nil, fmt.Errorf("failed to clear destination table: %w", err)
		}
	}

	// PostgreSQL accepts explicit values for serial columns; identity
	// preservation needs no toggle here.
	return &pgxSession{tx: tx, table: table, columns: opts.Columns}, nil
}

func (w *PGXWriter) Close(ctx context.Context) error { return w.conn.Close(ctx) }

type pgxSession struct {
	tx      pgx.Tx
	table   pgx.Identifier
	columns []string
	loaded  int64
}

func (s *pgxSession) Load(ctx context.Context, batch [][]any) (int64, error) {
	rows := make([][]any, len(batch))
	for i, row := range batch {
		out := make([]any, len(row))
		for j, v := range row {
			// COPY encodes values in binary; hand decimals over as text.
			if d, ok := v.(decimal.Decimal); ok {
				out[j] = d.String()
			} else {
				out[j] = v
			}
		}
		rows[i] = out
	}

	n, err := s.tx.CopyFrom(ctx, s.table, s.columns, pgx.CopyFromRows(rows))
	if err != nil {
		return s.loaded, fmt.Errorf("failed to copy batch into destination: %w", err)
	}
	s.loaded += n
	return s.loaded, nil
}

func (s *pgxSession) Commit(ctx context.Context) error {
	if err := s.tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit destination transaction: %w", err)
	}
	return nil
}

func (s *pgxSession) Rollback(ctx context.Context) error {
	if err := s.tx.Rollback(ctx); err != nil && err != pgx.ErrTxClosed {
		return err
	}
	return nil
}
