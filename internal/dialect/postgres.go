package dialect

import (
	"strings"
)

type PostgresDialect struct{}

func (d *PostgresDialect) Name() string {
	return "postgres"
}

func (d *PostgresDialect) CurrentDatabaseQuery() string {
	return `SELECT current_database()`
}

// UDT_NAME is used rather than DATA_TYPE: it gives int4/varchar instead of
// "integer"/"character varying".
func (d *PostgresDialect) ColumnsQuery(database string) (string, []any) {
	return `SELECT
    c.table_schema,
    c.table_name,
    c.column_name,
    c.udt_name,
    c.ordinal_position,
    CASE WHEN EXISTS (
        SELECT 1 FROM information_schema.table_constraints tc
        JOIN information_schema.key_column_usage kcu
          ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
        WHERE tc.constraint_type = 'PRIMARY KEY'
          AND kcu.table_schema = c.table_schema AND kcu.table_name = c.table_name AND kcu.column_name = c.column_name
    ) THEN 1 ELSE 0 END AS is_primary_key
FROM information_schema.columns c
JOIN information_schema.tables t ON t.table_schema = c.table_schema AND t.table_name = c.table_name
WHERE c.table_catalog = $1
  AND t.table_type = 'BASE TABLE'
  AND c.table_schema NOT IN ('pg_catalog', 'information_schema', 'pg_toast')
ORDER BY c.table_schema, c.table_name, c.ordinal_position`, []any{database}
}

func (d *PostgresDialect) ForeignKeysQuery(database string) (string, []any) {
	return `SELECT
    rc.constraint_name,
    kcu.table_schema,
    kcu.table_name,
    kcu.column_name,
    rku.table_schema AS referenced_schema,
    rku.table_name AS referenced_table,
    rku.column_name AS referenced_column
FROM information_schema.referential_constraints rc
JOIN information_schema.key_column_usage kcu
  ON rc.constraint_schema = kcu.constraint_schema AND rc.constraint_name = kcu.constraint_name
JOIN information_schema.key_column_usage rku
  ON rc.unique_constraint_schema = rku.constraint_schema AND rc.unique_constraint_name = rku.constraint_name
 AND kcu.position_in_unique_constraint = rku.ordinal_position
WHERE rc.constraint_catalog = $1
ORDER BY rc.constraint_name, kcu.ordinal_position`, []any{database}
}

func (d *PostgresDialect) SelectRowsQuery(schema, table string, columns []string) string {
	return selectRows(d.QuoteIdent, schema, table, columns)
}

func (d *PostgresDialect) QuoteIdent(name string) string {
	return QuoteWith(name, `"`, `"`)
}

func (d *PostgresDialect) NormalizeType(sqlType string) string {
	t := DefaultNormalizeType(sqlType)
	switch t {
	case "int4", "integer", "serial":
		return "int"
	case "int8", "bigserial":
		return "bigint"
	case "int2", "smallserial":
		return "smallint"
	case "bool", "boolean":
		return "bit"
	case "bpchar":
		return "char"
	case "timestamp", "timestamptz":
		return "datetime"
	case "float8":
		return "float"
	case "float4":
		return "real"
	default:
		if strings.HasPrefix(t, "_") { // array types
			return "text"
		}
		return t
	}
}

func (d *PostgresDialect) DecodeValue(_ string, raw any) any {
	return raw
}
