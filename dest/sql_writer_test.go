package dest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fzseyedi/DatabaseHelper/dialect"
)

func TestBuildInsertMSSQL(t *testing.T) {
	rows := [][]any{
		{1, "a"},
		{2, "b"},
	}
	query, args, err := buildInsert(dialect.MSSQL{}, "INSERT INTO [t] ([id], [name]) VALUES ", 2, rows)
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO [t] ([id], [name]) VALUES (@p1, @p2), (@p3, @p4)", query)
	assert.Equal(t, []any{1, "a", 2, "b"}, args)
}

func TestBuildInsertPostgres(t *testing.T) {
	query, args, err := buildInsert(dialect.Postgres{}, `INSERT INTO "t" ("id") VALUES `, 1, [][]any{{7}})
	require.NoError(t, err)
	assert.Equal(t, `INSERT INTO "t" ("id") VALUES ($1)`, query)
	assert.Equal(t, []any{7}, args)
}

func TestBuildInsertRejectsRaggedRows(t *testing.T) {
	_, _, err := buildInsert(dialect.Postgres{}, "INSERT ", 2, [][]any{{1}})
	assert.Error(t, err)
}
