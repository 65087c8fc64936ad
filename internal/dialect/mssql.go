package dialect

import (
	"fmt"

	mssql "github.com/denisenkom/go-mssqldb" // SQL Server Driver
)

type MSSQLDialect struct{}

func (d *MSSQLDialect) Name() string {
	return "sqlserver"
}

func (d *MSSQLDialect) CurrentDatabaseQuery() string {
	return `SELECT DB_NAME()`
}

// Catalog views are addressed with three-part names ([db].sys.tables) so the
// source handle does not need to be scoped to the migrated database. The
// database name cannot be bound as a parameter there, so it is quoted instead.

func (d *MSSQLDialect) ColumnsQuery(database string) (string, []any) {
	db := d.QuoteIdent(database)
	return fmt.Sprintf(`
		SELECT
			s.name AS schema_name,
			t.name AS table_name,
			c.name AS column_name,
			typ.name AS data_type,
			c.column_id AS ordinal_position,
			CASE WHEN pk.column_id IS NOT NULL THEN 1 ELSE 0 END AS is_primary_key
		FROM %[1]s.sys.tables t
		JOIN %[1]s.sys.schemas s ON t.schema_id = s.schema_id
		JOIN %[1]s.sys.columns c ON t.object_id = c.object_id
		JOIN %[1]s.sys.types typ ON c.user_type_id = typ.user_type_id
		LEFT JOIN (
			SELECT ic.object_id, ic.column_id
			FROM %[1]s.sys.indexes i
			JOIN %[1]s.sys.index_columns ic ON i.object_id = ic.object_id AND i.index_id = ic.index_id
			WHERE i.is_primary_key = 1
		) pk ON c.object_id = pk.object_id AND c.column_id = pk.column_id
		WHERE t.type = 'U'
			AND t.is_ms_shipped = 0
			AND s.name NOT IN ('sys', 'INFORMATION_SCHEMA', 'guest')
			AND s.name NOT LIKE 'db[_]%%'
		ORDER BY s.name, t.name, c.column_id`, db), nil
}

func (d *MSSQLDialect) ForeignKeysQuery(database string) (string, []any) {
	db := d.QuoteIdent(database)
	return fmt.Sprintf(`
		SELECT
			fk.name AS fk_name,
			ps.name AS parent_schema,
			pt.name AS parent_table,
			pc.name AS parent_column,
			rs.name AS ref_schema,
			rt.name AS ref_table,
			rc.name AS ref_column
		FROM %[1]s.sys.foreign_keys fk
		JOIN %[1]s.sys.foreign_key_columns fkc ON fk.object_id = fkc.constraint_object_id
		JOIN %[1]s.sys.tables pt ON fkc.parent_object_id = pt.object_id
		JOIN %[1]s.sys.schemas ps ON pt.schema_id = ps.schema_id
		JOIN %[1]s.sys.columns pc ON fkc.parent_object_id = pc.object_id AND fkc.parent_column_id = pc.column_id
		JOIN %[1]s.sys.tables rt ON fkc.referenced_object_id = rt.object_id
		JOIN %[1]s.sys.schemas rs ON rt.schema_id = rs.schema_id
		JOIN %[1]s.sys.columns rc ON fkc.referenced_object_id = rc.object_id AND fkc.referenced_column_id = rc.column_id
		ORDER BY fk.name, fkc.constraint_column_id`, db), nil
}

func (d *MSSQLDialect) SelectRowsQuery(schema, table string, columns []string) string {
	return selectRows(d.QuoteIdent, schema, table, columns)
}

func (d *MSSQLDialect) QuoteIdent(name string) string {
	return QuoteWith(name, "[", "]")
}

// NormalizeType keeps SQL Server names as they are: they already are the
// translator's vocabulary.
func (d *MSSQLDialect) NormalizeType(sqlType string) string {
	return DefaultNormalizeType(sqlType)
}

// DecodeValue renders uniqueidentifier columns as GUID text. The driver hands
// them over as 16 bytes in SQL Server's mixed byte order.
func (d *MSSQLDialect) DecodeValue(sourceType string, raw any) any {
	if sourceType != "uniqueidentifier" || raw == nil {
		return raw
	}
	var id mssql.UniqueIdentifier
	if err := id.Scan(raw); err != nil {
		return raw
	}
	return id.String()
}
