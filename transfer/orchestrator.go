package transfer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fzseyedi/DatabaseHelper/dest"
	"github.com/fzseyedi/DatabaseHelper/dialect"
	"github.com/fzseyedi/DatabaseHelper/mapper"
	"github.com/fzseyedi/DatabaseHelper/schema"
	"github.com/fzseyedi/DatabaseHelper/source"
)

// State names the phase a transfer is in. Failed and Cancelled are
// reachable from every non-terminal state.
type State string

const (
	StateValidating          State = "validating"
	StateCounting            State = "counting"
	StatePreparingSchema     State = "preparing_schema"
	StateClearingDestination State = "clearing_destination"
	StateLoading             State = "loading"
	StateCommitting          State = "committing"
	StateSucceeded           State = "succeeded"
	StateFailed              State = "failed"
	StateCancelled           State = "cancelled"
)

// Cursor streams source rows in bounded batches. An empty batch marks
// the end of the result set.
type Cursor interface {
	Columns() []schema.Column
	Next(batchSize int) ([][]any, error)
	Close() error
}

// Reader is the source-side contract the orchestrator drives.
type Reader interface {
	RowCount(ctx context.Context, database, expression string, isQuery bool) (int64, error)
	OpenCursor(ctx context.Context, database, expression string, isQuery bool) (Cursor, error)
}

// Resolver builds the destination column list and create-table DDL from
// source column metadata.
type Resolver interface {
	CreateTableDDL(sourceTable, destDatabase, destTable string, cols []schema.Column) (string, error)
	DestColumns(sourceTable string, cols []schema.Column) []string
}

// Result is the final outcome of one transfer call.
type Result struct {
	RunID     string
	State     State
	Succeeded bool
	Cancelled bool

	// Rows is the number of rows moved (and rolled back, on failure).
	Rows  int64
	Total int64

	Duration time.Duration
	Err      error
}

// Orchestrator sequences one transfer at a time: count, schema, clear,
// batched load, commit. It owns the destination transaction for the
// duration of a call; cancellation is honored at batch boundaries and
// always rolls back.
type Orchestrator struct {
	reader   Reader
	resolver Resolver
	writer   dest.Writer
}

func New(reader Reader, resolver Resolver, writer dest.Writer) *Orchestrator {
	return &Orchestrator{reader: reader, resolver: resolver, writer: writer}
}

// Run executes the request, publishing a snapshot to sink after every
// batch and once more at completion. A nil sink is allowed.
func (o *Orchestrator) Run(ctx context.Context, req Request, sink Sink) Result {
	if sink == nil {
		sink = nopSink{}
	}

	start := time.Now()
	r := &run{o: o, req: req, sink: sink, state: StateValidating}

	err := r.execute(ctx)

	res := Result{
		RunID:    uuid.NewString(),
		Rows:     r.transferred,
		Total:    r.total,
		Duration: time.Since(start),
		Err:      err,
	}

	switch {
	case err == nil:
		res.State = StateSucceeded
		res.Succeeded = true
		sink.Publish(Progress{
			Total:       r.total,
			Transferred: r.transferred,
			Percent:     100,
			Status:      fmt.Sprintf("transferred %d rows", r.transferred),
			Done:        true,
			Succeeded:   true,
		})
	case IsCancelled(err):
		res.State = StateCancelled
		res.Cancelled = true
		sink.Publish(Progress{
			Total:       r.total,
			Transferred: r.transferred,
			Percent:     percent(r.transferred, r.total),
			Status:      "transfer cancelled, destination rolled back",
			Done:        true,
			Err:         err.Error(),
		})
	default:
		res.State = StateFailed
		sink.Publish(Progress{
			Total:       r.total,
			Transferred: r.transferred,
			Percent:     percent(r.transferred, r.total),
			Status:      "transfer failed, destination rolled back",
			Done:        true,
			Err:         err.Error(),
		})
	}
	return res
}

// run carries the mutable state of a single transfer call.
type run struct {
	o    *Orchestrator
	req  Request
	sink Sink

	state       State
	total       int64
	transferred int64
}

// to transitions the run to a new state and publishes a snapshot.
func (r *run) to(state State, status string) {
	r.state = state
	r.sink.Publish(Progress{
		Total:       r.total,
		Transferred: r.transferred,
		Percent:     percent(r.transferred, r.total),
		Status:      status,
	})
}

func (r *run) cancelled(err error) error {
	return newError(KindCancelled, r.state, err)
}

// failed classifies an I/O failure. An error a driver surfaces because
// the context was already cancelled is a cancellation, not a failure.
func (r *run) failed(kind Kind, state State, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return newError(KindCancelled, state, err)
	}
	return newError(kind, state, err)
}

func (r *run) execute(ctx context.Context) error {
	req := r.req

	if err := req.Validate(); err != nil {
		return newError(KindValidation, StateValidating, err)
	}
	expr, isQuery := req.SourceExpression()

	r.to(StateCounting, "counting source rows")
	total, err := r.o.reader.RowCount(ctx, req.SourceDatabase, expr, isQuery)
	if err != nil {
		return r.failed(KindTransfer, StateCounting, err)
	}
	r.total = total

	if err := ctx.Err(); err != nil {
		return r.cancelled(err)
	}

	r.to(StatePreparingSchema, "resolving destination schema")
	cursor, err := r.o.reader.OpenCursor(ctx, req.SourceDatabase, expr, isQuery)
	if err != nil {
		return r.failed(KindTransfer, StatePreparingSchema, err)
	}
	defer cursor.Close()

	cols := cursor.Columns()
	destCols := r.o.resolver.DestColumns(req.SourceTable, cols)

	exists, err := r.o.writer.TableExists(ctx, req.DestDatabase, req.DestTable)
	if err != nil {
		return r.failed(KindSchema, StatePreparingSchema, err)
	}
	if !exists {
		ddl, err := r.o.resolver.CreateTableDDL(req.SourceTable, req.DestDatabase, req.DestTable, cols)
		if err != nil {
			return newError(KindSchema, StatePreparingSchema, err)
		}
		if err := r.o.writer.EnsureTable(ctx, ddl); err != nil {
			return r.failed(KindSchema, StatePreparingSchema, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return r.cancelled(err)
	}

	replace := req.Action == ActionReplace
	if replace {
		r.to(StateClearingDestination, "clearing destination table")
	}
	session, err := r.o.writer.Begin(ctx, dest.SessionOptions{
		Database:     req.DestDatabase,
		Table:        req.DestTable,
		Columns:      destCols,
		Replace:      replace,
		KeepIdentity: req.KeepIdentity,
	})
	if err != nil {
		return r.failed(KindTransfer, r.state, err)
	}

	// From here on every failure path must roll the session back so the
	// destination keeps its pre-transfer row count.
	rollback := func() {
		session.Rollback(context.WithoutCancel(ctx))
	}

	r.to(StateLoading, "loading rows")
	batchSize := req.batchSize()
	for {
		if err := ctx.Err(); err != nil {
			rollback()
			return r.cancelled(err)
		}

		batch, err := cursor.Next(batchSize)
		if err != nil {
			rollback()
			return r.failed(KindTransfer, StateLoading, err)
		}
		if len(batch) == 0 {
			break
		}

		loaded, err := session.Load(ctx, batch)
		if err != nil {
			rollback()
			return r.failed(KindTransfer, StateLoading, err)
		}
		r.transferred = loaded

		r.sink.Publish(Progress{
			Total:       r.total,
			Transferred: r.transferred,
			Percent:     percent(r.transferred, r.total),
			Status:      fmt.Sprintf("loaded %d of %d rows", r.transferred, r.total),
		})
	}

	r.to(StateCommitting, "committing destination transaction")
	if err := session.Commit(ctx); err != nil {
		rollback()
		return r.failed(KindTransfer, StateCommitting, err)
	}
	return nil
}

// Transfer runs one request over already-open connections: the primary
// single-call entry point. Cancel ctx to abort; the abort is honored at
// the next batch boundary and rolls the destination back.
func Transfer(ctx context.Context, sourceDB *sql.DB, sourceDialect dialect.Dialect,
	writer dest.Writer, destDialect dialect.Dialect, names mapper.NameMapper,
	req Request, sink Sink) Result {
	reader := NewSourceReader(source.NewReader(sourceDB, sourceDialect))
	resolver := schema.NewResolver(destDialect, names)
	return New(reader, resolver, writer).Run(ctx, req, sink)
}

// NewSourceReader adapts the concrete source reader to the Reader
// contract the orchestrator consumes.
func NewSourceReader(r *source.Reader) Reader { return sourceReader{r} }

type sourceReader struct{ r *source.Reader }

func (s sourceReader) RowCount(ctx context.Context, database, expression string, isQuery bool) (int64, error) {
	return s.r.RowCount(ctx, database, expression, isQuery)
}

func (s sourceReader) OpenCursor(ctx context.Context, database, expression string, isQuery bool) (Cursor, error) {
	c, err := s.r.OpenCursor(ctx, database, expression, isQuery)
	if err != nil {
		return nil, err
	}
	return c, nil
}
