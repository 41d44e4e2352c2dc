package dialect

import (
	"fmt"
	"strings"
)

// Postgres implements Dialect for PostgreSQL. A connection is bound to
// one database, so table references are never database-qualified.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d Postgres) QualifyTable(database, table string) string {
	return d.QuoteIdent(table)
}

func (Postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (Postgres) MaxParams() int { return 65535 }

func (Postgres) SelectQuery(expr string, isQuery bool) string {
	if isQuery {
		return expr
	}
	return fmt.Sprintf("SELECT * FROM %s", expr)
}

func (Postgres) CountQuery(expr string, isQuery bool) string {
	if isQuery {
		return fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS src", expr)
	}
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", expr)
}

func (Postgres) PreviewQuery(expr string, isQuery bool, maxRows int) string {
	if isQuery {
		return fmt.Sprintf("SELECT src.* FROM (%s) AS src LIMIT %d", expr, maxRows)
	}
	return fmt.Sprintf("SELECT * FROM %s LIMIT %d", expr, maxRows)
}

// The catalog queries ignore the database argument: a connection only
// ever sees its own catalog (see CurrentDatabaseQuery).
func (Postgres) TableExistsQuery(database string) string {
	return `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1`
}

func (Postgres) ColumnsQuery(database string) string {
	return `
		SELECT
			column_name,
			data_type,
			is_nullable,
			character_maximum_length,
			numeric_precision,
			numeric_scale,
			CASE WHEN is_identity = 'YES' OR column_default LIKE 'nextval(%' THEN 1 ELSE 0 END
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position`
}

// pgTypes maps normalized source type names to PostgreSQL types.
var pgTypes = map[string]string{
	"int":                         "integer",
	"integer":                     "integer",
	"int4":                        "integer",
	"bigint":                      "bigint",
	"int8":                        "bigint",
	"smallint":                    "smallint",
	"int2":                        "smallint",
	"tinyint":                     "smallint",
	"bit":                         "boolean",
	"bool":                        "boolean",
	"boolean":                     "boolean",
	"varchar":                     "varchar(%n)",
	"nvarchar":                    "varchar(%n)",
	"character varying":           "varchar(%n)",
	"char":                        "char(%n)",
	"nchar":                       "char(%n)",
	"character":                   "char(%n)",
	"bpchar":                      "char(%n)",
	"text":                        "text",
	"ntext":                       "text",
	"decimal":                     "numeric(%p,%s)",
	"numeric":                     "numeric(%p,%s)",
	"money":                       "numeric(19,4)",
	"smallmoney":                  "numeric(10,4)",
	"float":                       "double precision",
	"float8":                      "double precision",
	"double precision":            "double precision",
	"real":                        "real",
	"float4":                      "real",
	"date":                        "date",
	"time":                        "time",
	"time without time zone":      "time",
	"datetime":                    "timestamp",
	"smalldatetime":               "timestamp",
	"datetime2":                   "timestamp",
	"timestamp without time zone": "timestamp",
	"datetimeoffset":              "timestamptz",
	"timestamptz":                 "timestamptz",
	"timestamp with time zone":    "timestamptz",
	"uniqueidentifier":            "uuid",
	"uuid":                        "uuid",
	"binary":                      "bytea",
	"varbinary":                   "bytea",
	"image":                       "bytea",
	"bytea":                       "bytea",
	"xml":                         "xml",
}

func (Postgres) ColumnType(dataType string, maxLength, precision, scale *int64) (string, error) {
	lower := strings.ToLower(strings.TrimSpace(dataType))
	// MSSQL reports (n)varchar(max) as length -1; those collapse to text.
	if (lower == "varchar" || lower == "nvarchar" || lower == "character varying") &&
		(maxLength == nil || *maxLength <= 0) {
		return "text", nil
	}
	return expandType(pgTypes, dataType, maxLength, precision, scale, "")
}

// PostgreSQL accepts explicit values for serial columns without a toggle.
func (Postgres) IdentityInsertOn(table string) string  { return "" }
func (Postgres) IdentityInsertOff(table string) string { return "" }

// A connection is bound to one database; callers verify a requested
// database name against this instead of qualifying table references.
func (Postgres) CurrentDatabaseQuery() string { return "SELECT current_database()" }

func (Postgres) ListDatabasesQuery() string {
	return `SELECT datname FROM pg_database WHERE datistemplate = false ORDER BY datname`
}

func (Postgres) ListTablesQuery() string {
	return `
		SELECT c.relname, GREATEST(c.reltuples::bigint, 0)
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		WHERE c.relkind = 'r' AND n.nspname = 'public'
		ORDER BY c.relname`
}
