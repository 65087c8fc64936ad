package dialect

import (
	"strings"
)

type MysqlDialect struct{}

func (d *MysqlDialect) Name() string {
	return "mysql"
}

func (d *MysqlDialect) CurrentDatabaseQuery() string {
	return `SELECT DATABASE()`
}

// In MySQL a database is a schema, so TABLE_SCHEMA doubles as the schema name.
func (d *MysqlDialect) ColumnsQuery(database string) (string, []any) {
	return `SELECT c.TABLE_SCHEMA, c.TABLE_NAME, c.COLUMN_NAME, c.DATA_TYPE, c.ORDINAL_POSITION,
		CASE WHEN c.COLUMN_KEY = 'PRI' THEN 1 ELSE 0 END AS IS_PRIMARY_KEY
		FROM information_schema.COLUMNS c
		JOIN information_schema.TABLES t ON t.TABLE_SCHEMA = c.TABLE_SCHEMA AND t.TABLE_NAME = c.TABLE_NAME
		WHERE c.TABLE_SCHEMA = ? AND t.TABLE_TYPE = 'BASE TABLE'
		ORDER BY c.TABLE_SCHEMA, c.TABLE_NAME, c.ORDINAL_POSITION`, []any{database}
}

func (d *MysqlDialect) ForeignKeysQuery(database string) (string, []any) {
	return `SELECT CONSTRAINT_NAME, TABLE_SCHEMA, TABLE_NAME, COLUMN_NAME,
		REFERENCED_TABLE_SCHEMA, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = ? AND REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY CONSTRAINT_NAME, ORDINAL_POSITION`, []any{database}
}

func (d *MysqlDialect) SelectRowsQuery(schema, table string, columns []string) string {
	return selectRows(d.QuoteIdent, schema, table, columns)
}

func (d *MysqlDialect) QuoteIdent(name string) string {
	return QuoteWith(name, "`", "`")
}

func (d *MysqlDialect) NormalizeType(sqlType string) string {
	t := DefaultNormalizeType(sqlType)
	switch t {
	case "integer", "mediumint":
		return "int"
	case "tinytext", "mediumtext", "longtext":
		return "text"
	case "timestamp":
		return "datetime"
	case "double":
		return "float"
	case "float":
		// single precision in MySQL
		return "real"
	default:
		if strings.HasPrefix(t, "enum") || strings.HasPrefix(t, "set") {
			return "varchar"
		}
		return t
	}
}

func (d *MysqlDialect) DecodeValue(_ string, raw any) any {
	return raw
}
