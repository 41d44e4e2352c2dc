package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fzseyedi/DatabaseHelper/dest"
	"github.com/fzseyedi/DatabaseHelper/dialect"
	"github.com/fzseyedi/DatabaseHelper/schema"
)

type fakeCursor struct {
	cols   []schema.Column
	rows   [][]any
	pos    int
	closed bool
}

func (c *fakeCursor) Columns() []schema.Column { return c.cols }

func (c *fakeCursor) Next(batchSize int) ([][]any, error) {
	end := c.pos + batchSize
	if end > len(c.rows) {
		end = len(c.rows)
	}
	batch := c.rows[c.pos:end]
	c.pos = end
	return batch, nil
}

func (c *fakeCursor) Close() error {
	c.closed = true
	return nil
}

type fakeReader struct {
	count    int64
	countErr error
	cursor   *fakeCursor

	countCalls int
}

func (r *fakeReader) RowCount(ctx context.Context, database, expression string, isQuery bool) (int64, error) {
	r.countCalls++
	return r.count, r.countErr
}

func (r *fakeReader) OpenCursor(ctx context.Context, database, expression string, isQuery bool) (Cursor, error) {
	return r.cursor, nil
}

type fakeSession struct {
	batches    []int
	loaded     int64
	loadErrAt  int // batch index that fails, -1 for never
	commitErr  error
	onLoad     func(total int64)
	committed  bool
	rolledBack bool
}

func (s *fakeSession) Load(ctx context.Context, batch [][]any) (int64, error) {
	if s.loadErrAt >= 0 && len(s.batches) == s.loadErrAt {
		return s.loaded, errors.New("constraint violation")
	}
	s.batches = append(s.batches, len(batch))
	s.loaded += int64(len(batch))
	if s.onLoad != nil {
		s.onLoad(s.loaded)
	}
	return s.loaded, nil
}

func (s *fakeSession) Commit(ctx context.Context) error {
	if s.commitErr != nil {
		return s.commitErr
	}
	s.committed = true
	return nil
}

func (s *fakeSession) Rollback(ctx context.Context) error {
	s.rolledBack = true
	return nil
}

type fakeWriter struct {
	exists    bool
	ensureErr error

	existsDatabase string
	ddl            string
	opts           dest.SessionOptions
	beginCalls     int
	session        *fakeSession
}

func (w *fakeWriter) TableExists(ctx context.Context, database, table string) (bool, error) {
	w.existsDatabase = database
	return w.exists, nil
}

func (w *fakeWriter) EnsureTable(ctx context.Context, ddl string) error {
	w.ddl = ddl
	return w.ensureErr
}

func (w *fakeWriter) Begin(ctx context.Context, opts dest.SessionOptions) (dest.Session, error) {
	w.beginCalls++
	w.opts = opts
	return w.session, nil
}

func (w *fakeWriter) Close(ctx context.Context) error { return nil }

func intColumns() []schema.Column {
	return []schema.Column{
		{Name: "ID", DataType: "int", IsIdentity: true},
		{Name: "Name", DataType: "text", Nullable: true},
	}
}

func makeRows(n int) [][]any {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{i + 1, fmt.Sprintf("row-%d", i+1)}
	}
	return rows
}

func tableRequest(action Action) Request {
	return Request{
		SourceDatabase: "Sales",
		Mode:           ModeTable,
		SourceTable:    "Customers",
		DestDatabase:   "Archive",
		DestTable:      "Customers",
		Action:         action,
	}
}

// collectSink records every snapshot in order.
type collectSink struct{ snaps []Progress }

func (s *collectSink) Publish(p Progress) { s.snaps = append(s.snaps, p) }

func newOrchestrator(rows int, exists bool) (*Orchestrator, *fakeReader, *fakeWriter) {
	reader := &fakeReader{
		count:  int64(rows),
		cursor: &fakeCursor{cols: intColumns(), rows: makeRows(rows)},
	}
	writer := &fakeWriter{exists: exists, session: &fakeSession{loadErrAt: -1}}
	resolver := schema.NewResolver(dialect.Postgres{}, nil)
	return New(reader, resolver, writer), reader, writer
}

func TestAppendCreatesTableAndTransfers(t *testing.T) {
	orch, _, writer := newOrchestrator(2500, false)
	sink := &collectSink{}

	res := orch.Run(context.Background(), tableRequest(ActionAppend), sink)

	require.NoError(t, res.Err)
	assert.True(t, res.Succeeded)
	assert.Equal(t, StateSucceeded, res.State)
	assert.Equal(t, int64(2500), res.Rows)
	assert.Equal(t, int64(2500), res.Total)
	assert.NotEmpty(t, res.RunID)

	assert.True(t, strings.HasPrefix(writer.ddl, "CREATE TABLE"), "missing destination table must be created")
	assert.Equal(t, []int{1000, 1000, 500}, writer.session.batches)
	assert.Equal(t, "Archive", writer.existsDatabase)
	assert.Equal(t, "Archive", writer.opts.Database)
	assert.False(t, writer.opts.Replace)
	assert.True(t, writer.session.committed)
	assert.False(t, writer.session.rolledBack)

	require.NotEmpty(t, sink.snaps)
	last := sink.snaps[len(sink.snaps)-1]
	assert.True(t, last.Done)
	assert.True(t, last.Succeeded)
	assert.Equal(t, 100, last.Percent)
	assert.Equal(t, int64(2500), last.Transferred)

	prev := 0
	for _, p := range sink.snaps {
		assert.GreaterOrEqual(t, p.Percent, prev, "percentage must never decrease")
		prev = p.Percent
	}
	assert.Equal(t, 0, sink.snaps[0].Percent)
}

func TestReplaceUsesExistingTable(t *testing.T) {
	orch, _, writer := newOrchestrator(5, true)

	res := orch.Run(context.Background(), tableRequest(ActionReplace), nil)

	require.NoError(t, res.Err)
	assert.Empty(t, writer.ddl, "existing destination table must not get DDL")
	assert.True(t, writer.opts.Replace, "replace must be delegated to the write session")
	assert.Equal(t, int64(5), res.Rows)
	assert.True(t, writer.session.committed)
}

func TestZeroRowTransferStillCommits(t *testing.T) {
	orch, _, writer := newOrchestrator(0, false)
	sink := &collectSink{}

	res := orch.Run(context.Background(), tableRequest(ActionReplace), sink)

	require.NoError(t, res.Err)
	assert.True(t, res.Succeeded)
	assert.Equal(t, int64(0), res.Rows)
	assert.NotEmpty(t, writer.ddl, "zero-row transfer still creates the missing table")
	assert.Empty(t, writer.session.batches)
	assert.True(t, writer.session.committed)

	last := sink.snaps[len(sink.snaps)-1]
	assert.Equal(t, 100, last.Percent)
	assert.True(t, last.Succeeded)
}

func TestCancellationRollsBackAtBatchBoundary(t *testing.T) {
	orch, _, writer := newOrchestrator(5000, true)

	ctx, cancel := context.WithCancel(context.Background())
	writer.session.onLoad = func(total int64) {
		// Request cancellation mid-run; it must be honored before the
		// next batch, not mid-batch.
		if total >= 2000 {
			cancel()
		}
	}

	res := orch.Run(ctx, tableRequest(ActionAppend), nil)

	assert.True(t, res.Cancelled)
	assert.Equal(t, StateCancelled, res.State)
	assert.Equal(t, KindCancelled, KindOf(res.Err))
	assert.Equal(t, []int{1000, 1000}, writer.session.batches)
	assert.True(t, writer.session.rolledBack)
	assert.False(t, writer.session.committed)
}

func TestCreateTableTargetsDestinationDatabase(t *testing.T) {
	reader := &fakeReader{
		count:  1,
		cursor: &fakeCursor{cols: intColumns(), rows: makeRows(1)},
	}
	writer := &fakeWriter{session: &fakeSession{loadErrAt: -1}}
	orch := New(reader, schema.NewResolver(dialect.MSSQL{}, nil), writer)

	res := orch.Run(context.Background(), tableRequest(ActionAppend), nil)

	require.NoError(t, res.Err)
	assert.True(t, strings.HasPrefix(writer.ddl, "CREATE TABLE [Archive].[dbo].[Customers]"),
		"DDL must target the requested destination database, got %q", writer.ddl)
}

func TestCancelledCountReportsCancelled(t *testing.T) {
	orch, reader, _ := newOrchestrator(10, true)
	reader.countErr = fmt.Errorf("query aborted: %w", context.Canceled)

	res := orch.Run(context.Background(), tableRequest(ActionAppend), nil)

	assert.True(t, res.Cancelled)
	assert.Equal(t, StateCancelled, res.State)
	assert.Equal(t, KindCancelled, KindOf(res.Err))
}

func TestCancelledCommitRollsBackAsCancelled(t *testing.T) {
	orch, _, writer := newOrchestrator(10, true)
	writer.session.commitErr = fmt.Errorf("commit aborted: %w", context.Canceled)

	res := orch.Run(context.Background(), tableRequest(ActionAppend), nil)

	assert.True(t, res.Cancelled)
	assert.Equal(t, KindCancelled, KindOf(res.Err))
	assert.True(t, writer.session.rolledBack)
	assert.False(t, writer.session.committed)
}

func TestLoadFailureRollsBack(t *testing.T) {
	orch, _, writer := newOrchestrator(2500, true)
	writer.session.loadErrAt = 1

	res := orch.Run(context.Background(), tableRequest(ActionAppend), nil)

	require.Error(t, res.Err)
	assert.Equal(t, StateFailed, res.State)
	assert.Equal(t, KindTransfer, KindOf(res.Err))
	assert.True(t, writer.session.rolledBack)
	assert.False(t, writer.session.committed)
}

func TestCommitFailureRollsBack(t *testing.T) {
	orch, _, writer := newOrchestrator(10, true)
	writer.session.commitErr = errors.New("connection lost")

	res := orch.Run(context.Background(), tableRequest(ActionAppend), nil)

	require.Error(t, res.Err)
	assert.Equal(t, KindTransfer, KindOf(res.Err))
	assert.True(t, writer.session.rolledBack)
}

func TestUnmappedTypeFailsBeforeAnyWrite(t *testing.T) {
	reader := &fakeReader{
		count: 3,
		cursor: &fakeCursor{
			cols: []schema.Column{{Name: "Shape", DataType: "geography"}},
			rows: makeRows(3),
		},
	}
	writer := &fakeWriter{session: &fakeSession{loadErrAt: -1}}
	orch := New(reader, schema.NewResolver(dialect.Postgres{}, nil), writer)

	res := orch.Run(context.Background(), tableRequest(ActionAppend), nil)

	require.Error(t, res.Err)
	assert.Equal(t, KindSchema, KindOf(res.Err))
	assert.Zero(t, writer.beginCalls, "no write session may open after a schema failure")
	assert.Empty(t, writer.ddl)
}

func TestValidationRejectsBadRequests(t *testing.T) {
	orch, reader, _ := newOrchestrator(1, true)

	req := tableRequest(ActionAppend)
	req.DestTable = ""
	res := orch.Run(context.Background(), req, nil)
	assert.Equal(t, KindValidation, KindOf(res.Err))
	assert.Zero(t, reader.countCalls, "validation failures must precede any source access")

	req = tableRequest(ActionAppend)
	req.Mode = ModeQuery // no query text
	res = orch.Run(context.Background(), req, nil)
	assert.Equal(t, KindValidation, KindOf(res.Err))
}

func TestKeepIdentityReachesSession(t *testing.T) {
	orch, _, writer := newOrchestrator(5, true)

	req := tableRequest(ActionAppend)
	req.KeepIdentity = true
	res := orch.Run(context.Background(), req, nil)

	require.NoError(t, res.Err)
	assert.True(t, writer.opts.KeepIdentity)
}

func TestCursorClosedOnSuccessAndFailure(t *testing.T) {
	orch, reader, writer := newOrchestrator(10, true)
	res := orch.Run(context.Background(), tableRequest(ActionAppend), nil)
	require.NoError(t, res.Err)
	assert.True(t, reader.cursor.closed)

	orch, reader, writer = newOrchestrator(10, true)
	writer.session.loadErrAt = 0
	res = orch.Run(context.Background(), tableRequest(ActionAppend), nil)
	require.Error(t, res.Err)
	assert.True(t, reader.cursor.closed)
}
