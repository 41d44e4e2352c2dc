package mapper

import (
	"strings"

	"github.com/iancoleman/strcase"
)

// NameMapper decides the destination name for source tables and columns.
// The transfer engine applies it when creating the destination table and
// when building insert column lists, so a PascalCase SQL Server schema
// can land as snake_case in PostgreSQL.
type NameMapper interface {
	// MapTableName maps a source table name to its destination name.
	MapTableName(sourceTable string) string

	// MapColumnName maps a source column name to its destination name.
	MapColumnName(sourceTable, sourceColumn string) string
}

// Identity keeps every name unchanged. It is the engine default.
type Identity struct{}

func (Identity) MapTableName(sourceTable string) string { return sourceTable }

func (Identity) MapColumnName(sourceTable, sourceColumn string) string { return sourceColumn }

// Custom maps names through explicit overrides first, then an optional
// transform. A nil transform leaves unmatched names unchanged.
type Custom struct {
	Tables  map[string]string
	Columns map[string]map[string]string // table -> source column -> dest column

	TableTransform  func(string) string
	ColumnTransform func(table, column string) string
}

func NewCustom() *Custom {
	return &Custom{
		Tables:  make(map[string]string),
		Columns: make(map[string]map[string]string),
	}
}

func (m *Custom) MapTableName(sourceTable string) string {
	if mapped, ok := m.Tables[sourceTable]; ok {
		return mapped
	}
	if m.TableTransform != nil {
		return m.TableTransform(sourceTable)
	}
	return sourceTable
}

func (m *Custom) MapColumnName(sourceTable, sourceColumn string) string {
	if cols, ok := m.Columns[sourceTable]; ok {
		if mapped, ok := cols[sourceColumn]; ok {
			return mapped
		}
	}
	if m.ColumnTransform != nil {
		return m.ColumnTransform(sourceTable, sourceColumn)
	}
	return sourceColumn
}

// AddColumn registers an explicit column override for one table.
func (m *Custom) AddColumn(table, sourceColumn, destColumn string) {
	if m.Columns[table] == nil {
		m.Columns[table] = make(map[string]string)
	}
	m.Columns[table][sourceColumn] = destColumn
}

// Snake converts PascalCase/camelCase names to snake_case.
func Snake(name string) string { return strcase.ToSnake(name) }

// Lower converts names to lowercase.
func Lower(name string) string { return strings.ToLower(name) }
