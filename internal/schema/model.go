package schema

import "sort"

// TableIdentity is the (schema, table) pair that names a table across the
// pipeline. Tables sharing a name in different schemas are distinct.
type TableIdentity struct {
	Schema string
	Name   string
}

func (t TableIdentity) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// ColumnDescriptor is one source column as read from the catalog.
type ColumnDescriptor struct {
	SchemaName      string
	TableName       string
	ColumnName      string
	SourceType      string
	OrdinalPosition int
	IsPrimaryKey    bool
}

func (c ColumnDescriptor) Table() TableIdentity {
	return TableIdentity{Schema: c.SchemaName, Name: c.TableName}
}

// ForeignKeyDescriptor is one column pair of a source foreign key. Composite
// keys appear as several descriptors sharing ConstraintName.
type ForeignKeyDescriptor struct {
	ConstraintName   string
	ParentSchema     string
	ParentTable      string
	ParentColumn     string
	ReferencedSchema string
	ReferencedTable  string
	ReferencedColumn string
}

func (f ForeignKeyDescriptor) Parent() TableIdentity {
	return TableIdentity{Schema: f.ParentSchema, Name: f.ParentTable}
}

func (f ForeignKeyDescriptor) Referenced() TableIdentity {
	return TableIdentity{Schema: f.ReferencedSchema, Name: f.ReferencedTable}
}

type Table struct {
	Identity TableIdentity
	Columns  []ColumnDescriptor // ordinal order
}

// ColumnNames returns the column names in ordinal order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.ColumnName
	}
	return names
}

// GroupByTable groups columns by TableIdentity, keeping tables in first-seen
// order and columns in ordinal order.
func GroupByTable(columns []ColumnDescriptor) []Table {
	index := make(map[TableIdentity]int)
	var tables []Table

	for _, c := range columns {
		id := c.Table()
		i, ok := index[id]
		if !ok {
			i = len(tables)
			index[id] = i
			tables = append(tables, Table{Identity: id})
		}
		tables[i].Columns = append(tables[i].Columns, c)
	}

	for i := range tables {
		cols := tables[i].Columns
		sort.SliceStable(cols, func(a, b int) bool {
			return cols[a].OrdinalPosition < cols[b].OrdinalPosition
		})
	}
	return tables
}

// Identities returns the distinct table identities in first-seen order.
func Identities(columns []ColumnDescriptor) []TableIdentity {
	seen := make(map[TableIdentity]bool)
	var ids []TableIdentity
	for _, c := range columns {
		id := c.Table()
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// Schemas returns the distinct non-empty schema names in first-seen order.
func Schemas(columns []ColumnDescriptor) []string {
	seen := make(map[string]bool)
	var names []string
	for _, c := range columns {
		if c.SchemaName == "" || seen[c.SchemaName] {
			continue
		}
		seen[c.SchemaName] = true
		names = append(names, c.SchemaName)
	}
	return names
}
