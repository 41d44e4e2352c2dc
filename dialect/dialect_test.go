package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func i64(v int64) *int64 { return &v }

func TestForDriver(t *testing.T) {
	d, err := ForDriver("sqlserver")
	require.NoError(t, err)
	assert.Equal(t, "sqlserver", d.Name())

	d, err = ForDriver("postgresql")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	_, err = ForDriver("oracle")
	assert.Error(t, err)
}

func TestMSSQLQueries(t *testing.T) {
	d := MSSQL{}

	assert.Equal(t, "[Cust]]omers]", d.QuoteIdent("Cust]omers"))
	assert.Equal(t, "[Sales].[dbo].[Orders]", d.QualifyTable("Sales", "Orders"))
	assert.Equal(t, "@p3", d.Placeholder(3))

	assert.Equal(t, "SELECT COUNT_BIG(*) FROM [Orders]", d.CountQuery("[Orders]", false))
	assert.Equal(t,
		"SELECT COUNT_BIG(*) FROM (SELECT * FROM Orders WHERE Total > 500) AS src",
		d.CountQuery("SELECT * FROM Orders WHERE Total > 500", true))

	assert.Equal(t, "SELECT TOP 10 * FROM [Orders]", d.PreviewQuery("[Orders]", false, 10))
	assert.Equal(t,
		"SELECT TOP 5 src.* FROM (SELECT 1 AS n) AS src",
		d.PreviewQuery("SELECT 1 AS n", true, 5))

	assert.Equal(t, "SET IDENTITY_INSERT [t] ON", d.IdentityInsertOn("[t]"))
	assert.Equal(t, "SET IDENTITY_INSERT [t] OFF", d.IdentityInsertOff("[t]"))
}

func TestMSSQLCatalogQueriesFollowDatabase(t *testing.T) {
	d := MSSQL{}

	// A connection bound elsewhere must still introspect the requested
	// database's catalog, not its own.
	assert.Contains(t, d.ColumnsQuery("Sales"), "[Sales].INFORMATION_SCHEMA.COLUMNS")
	assert.Contains(t, d.ColumnsQuery("Sales"), "OBJECT_ID('Sales.' + c.TABLE_SCHEMA")
	assert.Contains(t, d.ColumnsQuery(""), "FROM INFORMATION_SCHEMA.COLUMNS")
	assert.NotContains(t, d.ColumnsQuery(""), "].INFORMATION_SCHEMA")

	assert.Contains(t, d.TableExistsQuery("Archive"), "[Archive].INFORMATION_SCHEMA.TABLES")
	assert.Contains(t, d.TableExistsQuery(""), "FROM INFORMATION_SCHEMA.TABLES")

	assert.Empty(t, d.CurrentDatabaseQuery(), "qualified names make a connection check unnecessary")
}

func TestPostgresCatalogQueriesIgnoreDatabase(t *testing.T) {
	d := Postgres{}

	assert.Equal(t, d.ColumnsQuery(""), d.ColumnsQuery("sales"))
	assert.Equal(t, d.TableExistsQuery(""), d.TableExistsQuery("sales"))
	assert.Equal(t, "SELECT current_database()", d.CurrentDatabaseQuery())
}

func TestPostgresQueries(t *testing.T) {
	d := Postgres{}

	assert.Equal(t, `"or""ders"`, d.QuoteIdent(`or"ders`))
	// PostgreSQL cannot address another database on one connection.
	assert.Equal(t, `"orders"`, d.QualifyTable("sales", "orders"))
	assert.Equal(t, "$7", d.Placeholder(7))

	assert.Equal(t, `SELECT COUNT(*) FROM "orders"`, d.CountQuery(`"orders"`, false))
	assert.Equal(t, `SELECT * FROM "orders" LIMIT 10`, d.PreviewQuery(`"orders"`, false, 10))
	assert.Equal(t,
		"SELECT src.* FROM (SELECT 1 AS n) AS src LIMIT 3",
		d.PreviewQuery("SELECT 1 AS n", true, 3))

	assert.Empty(t, d.IdentityInsertOn(`"orders"`))
	assert.Empty(t, d.IdentityInsertOff(`"orders"`))
}

func TestPostgresColumnType(t *testing.T) {
	d := Postgres{}

	tests := []struct {
		name     string
		dataType string
		maxLen   *int64
		prec     *int64
		scale    *int64
		want     string
	}{
		{"int", "int", nil, nil, nil, "integer"},
		{"varchar with length", "nvarchar", i64(50), nil, nil, "varchar(50)"},
		{"varchar max collapses to text", "nvarchar", i64(-1), nil, nil, "text"},
		{"varchar without length", "varchar", nil, nil, nil, "text"},
		{"decimal", "decimal", nil, i64(12), i64(4), "numeric(12,4)"},
		{"money", "money", nil, i64(19), i64(4), "numeric(19,4)"},
		{"datetime", "datetime2", nil, nil, nil, "timestamp"},
		{"uniqueidentifier", "uniqueidentifier", nil, nil, nil, "uuid"},
		{"varbinary", "varbinary", i64(-1), nil, nil, "bytea"},
		{"case and spacing", " DateTime ", nil, nil, nil, "timestamp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.ColumnType(tt.dataType, tt.maxLen, tt.prec, tt.scale)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := d.ColumnType("hierarchyid", nil, nil, nil)
	assert.Error(t, err, "unmapped types must fail, not default")
}

func TestMSSQLColumnType(t *testing.T) {
	d := MSSQL{}

	got, err := d.ColumnType("character varying", i64(255), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "nvarchar(255)", got)

	got, err = d.ColumnType("text", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "nvarchar(max)", got)

	got, err = d.ColumnType("numeric", nil, i64(18), i64(2))
	require.NoError(t, err)
	assert.Equal(t, "decimal(18,2)", got)

	got, err = d.ColumnType("bytea", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "varbinary(max)", got)

	got, err = d.ColumnType("uuid", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "uniqueidentifier", got)

	_, err = d.ColumnType("jsonb", nil, nil, nil)
	assert.Error(t, err)
}
