package dialect

import (
	"strings"
)

type OracleDialect struct{}

func (d *OracleDialect) Name() string {
	return "oracle"
}

func (d *OracleDialect) CurrentDatabaseQuery() string {
	return `SELECT SYS_CONTEXT('USERENV', 'DB_NAME') FROM DUAL`
}

// Oracle migrates the current user's tables (USER_* views); the schema is the user.
func (d *OracleDialect) ColumnsQuery(database string) (string, []any) {
	return `
SELECT
    USER,
    t.TABLE_NAME,
    t.COLUMN_NAME,
    CASE
        WHEN t.DATA_TYPE = 'NUMBER' AND t.DATA_PRECISION IS NULL AND t.DATA_SCALE IS NULL THEN 'NUMBER'
        WHEN t.DATA_TYPE = 'NUMBER' AND COALESCE(t.DATA_SCALE, 0) > 0 THEN 'DECIMAL'
        WHEN t.DATA_TYPE = 'NUMBER' AND t.DATA_PRECISION <= 4 THEN 'SMALLINT'
        WHEN t.DATA_TYPE = 'NUMBER' AND t.DATA_PRECISION <= 9 THEN 'INT'
        WHEN t.DATA_TYPE = 'NUMBER' THEN 'BIGINT'
        ELSE t.DATA_TYPE
    END,
    t.COLUMN_ID,
    CASE WHEN p.COLUMN_NAME IS NOT NULL THEN 1 ELSE 0 END
FROM USER_TAB_COLUMNS t
JOIN USER_TABLES ut ON ut.TABLE_NAME = t.TABLE_NAME
LEFT JOIN (
    SELECT cc.TABLE_NAME, cc.COLUMN_NAME
    FROM USER_CONS_COLUMNS cc
    JOIN USER_CONSTRAINTS uc ON cc.CONSTRAINT_NAME = uc.CONSTRAINT_NAME
    WHERE uc.CONSTRAINT_TYPE = 'P'
) p ON t.TABLE_NAME = p.TABLE_NAME AND t.COLUMN_NAME = p.COLUMN_NAME
ORDER BY t.TABLE_NAME, t.COLUMN_ID`, nil
}

func (d *OracleDialect) ForeignKeysQuery(database string) (string, []any) {
	return `
SELECT
    c.CONSTRAINT_NAME,
    c.OWNER,
    c.TABLE_NAME,
    cc.COLUMN_NAME,
    r.OWNER,
    r.TABLE_NAME,
    rcc.COLUMN_NAME
FROM USER_CONSTRAINTS c
JOIN USER_CONS_COLUMNS cc
    ON c.CONSTRAINT_NAME = cc.CONSTRAINT_NAME
    AND c.OWNER = cc.OWNER
JOIN ALL_CONSTRAINTS r
    ON c.R_CONSTRAINT_NAME = r.CONSTRAINT_NAME
    AND c.R_OWNER = r.OWNER
JOIN ALL_CONS_COLUMNS rcc
    ON r.CONSTRAINT_NAME = rcc.CONSTRAINT_NAME
    AND r.OWNER = rcc.OWNER
    AND cc.POSITION = rcc.POSITION
WHERE c.CONSTRAINT_TYPE = 'R'
ORDER BY c.CONSTRAINT_NAME, cc.POSITION`, nil
}

func (d *OracleDialect) SelectRowsQuery(schema, table string, columns []string) string {
	return selectRows(d.QuoteIdent, schema, table, columns)
}

func (d *OracleDialect) QuoteIdent(name string) string {
	return QuoteWith(name, `"`, `"`)
}

func (d *OracleDialect) NormalizeType(sqlType string) string {
	s := DefaultNormalizeType(sqlType)
	switch {
	case s == "number":
		return "numeric"
	case strings.Contains(s, "char") || strings.Contains(s, "clob"):
		return "nvarchar"
	case s == "binary_float":
		return "real"
	case s == "binary_double" || strings.HasPrefix(s, "float"):
		return "float"
	case s == "date" || strings.HasPrefix(s, "timestamp"):
		// Oracle DATE carries a time component
		return "datetime"
	}
	return s
}

func (d *OracleDialect) DecodeValue(_ string, raw any) any {
	return raw
}
