package dialect

// Dialect abstracts the source engine's catalog and query syntax.
type Dialect interface {
	Name() string

	// Metadata Queries (Schema Introspection)
	CurrentDatabaseQuery() string
	// ColumnsQuery yields: schema, table, column, type, ordinal, is_primary_key (0/1),
	// ordered by schema, table, ordinal.
	ColumnsQuery(database string) (string, []any)
	// ForeignKeysQuery yields: constraint, parent schema, parent table, parent column,
	// referenced schema, referenced table, referenced column,
	// ordered by constraint name then column ordinal.
	ForeignKeysQuery(database string) (string, []any)

	// Query Generation
	SelectRowsQuery(schema, table string, columns []string) string
	QuoteIdent(name string) string

	// Helpers
	NormalizeType(sqlType string) string
	// DecodeValue turns a scanned driver value of a column with the given
	// normalized type into what the value serializer expects.
	DecodeValue(sourceType string, raw any) any
}
