package dialect

import (
	"fmt"
	"strings"
)

// MSSQL implements Dialect for Microsoft SQL Server.
type MSSQL struct{}

func (MSSQL) Name() string { return "sqlserver" }

func (MSSQL) QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (d MSSQL) QualifyTable(database, table string) string {
	if database == "" {
		return d.QuoteIdent(table)
	}
	return d.QuoteIdent(database) + ".[dbo]." + d.QuoteIdent(table)
}

func (MSSQL) Placeholder(n int) string { return fmt.Sprintf("@p%d", n) }

// SQL Server rejects statements with more than 2100 parameters.
func (MSSQL) MaxParams() int { return 2100 }

func (MSSQL) SelectQuery(expr string, isQuery bool) string {
	if isQuery {
		return expr
	}
	return fmt.Sprintf("SELECT * FROM %s", expr)
}

func (MSSQL) CountQuery(expr string, isQuery bool) string {
	if isQuery {
		return fmt.Sprintf("SELECT COUNT_BIG(*) FROM (%s) AS src", expr)
	}
	return fmt.Sprintf("SELECT COUNT_BIG(*) FROM %s", expr)
}

func (MSSQL) PreviewQuery(expr string, isQuery bool, maxRows int) string {
	if isQuery {
		return fmt.Sprintf("SELECT TOP %d src.* FROM (%s) AS src", maxRows, expr)
	}
	return fmt.Sprintf("SELECT TOP %d * FROM %s", maxRows, expr)
}

// catalogPrefix targets the named database's INFORMATION_SCHEMA views,
// so introspection follows the qualified table even when the connection
// is bound to a different database.
func (d MSSQL) catalogPrefix(database string) string {
	if database == "" {
		return ""
	}
	return d.QuoteIdent(database) + "."
}

func (d MSSQL) TableExistsQuery(database string) string {
	return fmt.Sprintf(
		`SELECT COUNT(*) FROM %sINFORMATION_SCHEMA.TABLES WHERE TABLE_SCHEMA = 'dbo' AND TABLE_NAME = @p1`,
		d.catalogPrefix(database))
}

func (d MSSQL) ColumnsQuery(database string) string {
	// OBJECT_ID needs the same three-part name the catalog rows describe.
	object := "c.TABLE_SCHEMA + '.' + c.TABLE_NAME"
	if database != "" {
		object = "'" + strings.ReplaceAll(database, "'", "''") + ".' + " + object
	}
	return fmt.Sprintf(`
		SELECT
			c.COLUMN_NAME,
			c.DATA_TYPE,
			c.IS_NULLABLE,
			c.CHARACTER_MAXIMUM_LENGTH,
			c.NUMERIC_PRECISION,
			c.NUMERIC_SCALE,
			COLUMNPROPERTY(OBJECT_ID(%s), c.COLUMN_NAME, 'IsIdentity')
		FROM %sINFORMATION_SCHEMA.COLUMNS c
		WHERE c.TABLE_NAME = @p1
		ORDER BY c.ORDINAL_POSITION`, object, d.catalogPrefix(database))
}

// SQL Server reaches other databases through qualified names, so there
// is nothing to verify against the connection.
func (MSSQL) CurrentDatabaseQuery() string { return "" }

// mssqlTypes maps normalized source type names to SQL Server types.
// %n expands to the character length, %p,%s to precision and scale.
var mssqlTypes = map[string]string{
	"int":                         "int",
	"integer":                     "int",
	"int4":                        "int",
	"bigint":                      "bigint",
	"int8":                        "bigint",
	"smallint":                    "smallint",
	"int2":                        "smallint",
	"tinyint":                     "tinyint",
	"bit":                         "bit",
	"bool":                        "bit",
	"boolean":                     "bit",
	"varchar":                     "nvarchar(%n)",
	"nvarchar":                    "nvarchar(%n)",
	"character varying":           "nvarchar(%n)",
	"char":                        "nchar(%n)",
	"nchar":                       "nchar(%n)",
	"character":                   "nchar(%n)",
	"bpchar":                      "nchar(%n)",
	"text":                        "nvarchar(max)",
	"ntext":                       "nvarchar(max)",
	"decimal":                     "decimal(%p,%s)",
	"numeric":                     "decimal(%p,%s)",
	"money":                       "money",
	"smallmoney":                  "smallmoney",
	"float":                       "float",
	"float8":                      "float",
	"double precision":            "float",
	"real":                        "real",
	"float4":                      "real",
	"date":                        "date",
	"time":                        "time",
	"time without time zone":      "time",
	"datetime":                    "datetime2",
	"smalldatetime":               "datetime2",
	"datetime2":                   "datetime2",
	"timestamp without time zone": "datetime2",
	"datetimeoffset":              "datetimeoffset",
	"timestamptz":                 "datetimeoffset",
	"timestamp with time zone":    "datetimeoffset",
	"uniqueidentifier":            "uniqueidentifier",
	"uuid":                        "uniqueidentifier",
	"binary":                      "varbinary(%n)",
	"varbinary":                   "varbinary(%n)",
	"image":                       "varbinary(max)",
	"bytea":                       "varbinary(max)",
	"xml":                         "xml",
}

func (MSSQL) ColumnType(dataType string, maxLength, precision, scale *int64) (string, error) {
	return expandType(mssqlTypes, dataType, maxLength, precision, scale, "max")
}

func (d MSSQL) IdentityInsertOn(table string) string {
	return fmt.Sprintf("SET IDENTITY_INSERT %s ON", table)
}

func (d MSSQL) IdentityInsertOff(table string) string {
	return fmt.Sprintf("SET IDENTITY_INSERT %s OFF", table)
}

func (MSSQL) ListDatabasesQuery() string {
	return `SELECT name FROM sys.databases WHERE database_id > 4 ORDER BY name`
}

func (MSSQL) ListTablesQuery() string {
	return `
		SELECT t.name, SUM(p.rows)
		FROM sys.tables t
		JOIN sys.partitions p ON p.object_id = t.object_id AND p.index_id IN (0, 1)
		WHERE t.is_ms_shipped = 0
		GROUP BY t.name
		ORDER BY t.name`
}

// expandType resolves a template from the type map, substituting length
// and precision/scale. maxWord is the engine's unbounded-length keyword.
func expandType(types map[string]string, dataType string, maxLength, precision, scale *int64, maxWord string) (string, error) {
	tpl, ok := types[strings.ToLower(strings.TrimSpace(dataType))]
	if !ok {
		return "", fmt.Errorf("no type mapping for source type %q", dataType)
	}

	if strings.Contains(tpl, "%n") {
		switch {
		case maxLength != nil && *maxLength > 0:
			tpl = strings.ReplaceAll(tpl, "%n", fmt.Sprintf("%d", *maxLength))
		case maxWord != "":
			tpl = strings.ReplaceAll(tpl, "%n", maxWord)
		default:
			// No declared length and no unbounded keyword: drop the length.
			tpl = strings.Replace(tpl, "(%n)", "", 1)
		}
	}
	if strings.Contains(tpl, "%p") {
		p, s := int64(18), int64(0)
		if precision != nil && *precision > 0 {
			p = *precision
		}
		if scale != nil && *scale >= 0 {
			s = *scale
		}
		tpl = strings.ReplaceAll(tpl, "%p", fmt.Sprintf("%d", p))
		tpl = strings.ReplaceAll(tpl, "%s", fmt.Sprintf("%d", s))
	}
	return tpl, nil
}
