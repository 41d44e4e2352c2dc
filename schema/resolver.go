package schema

import (
	"fmt"
	"strings"

	"github.com/fzseyedi/DatabaseHelper/dialect"
	"github.com/fzseyedi/DatabaseHelper/mapper"
)

// Resolver builds the destination column list and, when the destination
// table is missing, the create-table statement replicating the source
// columns. Whether the table exists is the destination writer's question;
// the resolver itself holds no connection.
type Resolver struct {
	dialect dialect.Dialect
	names   mapper.NameMapper
}

func NewResolver(d dialect.Dialect, names mapper.NameMapper) *Resolver {
	if names == nil {
		names = mapper.Identity{}
	}
	return &Resolver{dialect: d, names: names}
}

// CreateTableDDL builds the create-table statement for the destination.
// Columns keep their source order and nullability; character lengths and
// numeric precision/scale carry over through the dialect's type mapping.
// An unmapped source type fails the resolution outright. The table
// reference is qualified with destDatabase where the engine allows.
func (r *Resolver) CreateTableDDL(sourceTable, destDatabase, destTable string, cols []Column) (string, error) {
	if len(cols) == 0 {
		return "", fmt.Errorf("no columns resolved for table %s", destTable)
	}

	defs := make([]string, len(cols))
	for i, col := range cols {
		destType, err := r.dialect.ColumnType(col.DataType, col.MaxLength, col.Precision, col.Scale)
		if err != nil {
			return "", fmt.Errorf("column %s: %w", col.Name, err)
		}
		null := "NOT NULL"
		if col.Nullable {
			null = "NULL"
		}
		name := r.names.MapColumnName(sourceTable, col.Name)
		defs[i] = fmt.Sprintf("  %s %s %s", r.dialect.QuoteIdent(name), destType, null)
	}

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)",
		r.dialect.QualifyTable(destDatabase, destTable), strings.Join(defs, ",\n")), nil
}

// DestColumns maps the source column names to their destination names,
// preserving order.
func (r *Resolver) DestColumns(sourceTable string, cols []Column) []string {
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = r.names.MapColumnName(sourceTable, col.Name)
	}
	return names
}
