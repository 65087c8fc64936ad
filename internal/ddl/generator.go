package ddl

import (
	"fmt"
	"strings"

	"db-migrate/internal/schema"

	"github.com/lib/pq"
)

// QualifiedName renders a table identity as a quoted target identifier.
func QualifiedName(t schema.TableIdentity) string {
	if t.Schema == "" {
		return pq.QuoteIdentifier(t.Name)
	}
	return pq.QuoteIdentifier(t.Schema) + "." + pq.QuoteIdentifier(t.Name)
}

// QuoteColumns quotes and joins column names for a column list.
func QuoteColumns(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = pq.QuoteIdentifier(n)
	}
	return strings.Join(quoted, ", ")
}

// BuildCreateSchemaStatements returns one CREATE SCHEMA per distinct schema.
// Tables are created schema-qualified, so their schemas must exist first.
func BuildCreateSchemaStatements(columns []schema.ColumnDescriptor) []string {
	var stmts []string
	for _, s := range schema.Schemas(columns) {
		stmts = append(stmts, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pq.QuoteIdentifier(s)))
	}
	return stmts
}

// BuildCreateTableStatements returns one CREATE TABLE per (schema, table), in
// the order the tables first appear in columns.
func BuildCreateTableStatements(columns []schema.ColumnDescriptor) []string {
	var stmts []string
	for _, t := range schema.GroupByTable(columns) {
		stmts = append(stmts, buildCreateTable(t))
	}
	return stmts
}

func buildCreateTable(t schema.Table) string {
	var lines []string
	var pkColumns []string

	for _, c := range t.Columns {
		lines = append(lines, fmt.Sprintf("%s %s", pq.QuoteIdentifier(c.ColumnName), TranslateType(c.SourceType)))
		if c.IsPrimaryKey {
			pkColumns = append(pkColumns, c.ColumnName)
		}
	}
	if len(pkColumns) > 0 {
		lines = append(lines, fmt.Sprintf("PRIMARY KEY (%s)", QuoteColumns(pkColumns)))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", QualifiedName(t.Identity), strings.Join(lines, ",\n  "))
}

// BuildForeignKeyStatements returns exactly one ALTER TABLE ... ADD CONSTRAINT
// per descriptor. Referenced tables are not checked; a statement naming a
// missing table simply fails when applied.
func BuildForeignKeyStatements(foreignKeys []schema.ForeignKeyDescriptor) []string {
	stmts := make([]string, 0, len(foreignKeys))
	for _, fk := range foreignKeys {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
			QualifiedName(fk.Parent()),
			pq.QuoteIdentifier(fk.ConstraintName),
			pq.QuoteIdentifier(fk.ParentColumn),
			QualifiedName(fk.Referenced()),
			pq.QuoteIdentifier(fk.ReferencedColumn),
		))
	}
	return stmts
}
