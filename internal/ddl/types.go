package ddl

import "strings"

// DefaultType is the target type for anything the table does not know.
const DefaultType = "TEXT"

// typeMap converts SQL Server type names to PostgreSQL type names.
var typeMap = map[string]string{
	"int":           "INTEGER",
	"bigint":        "BIGINT",
	"smallint":      "SMALLINT",
	"tinyint":       "SMALLINT",
	"bit":           "BOOLEAN",
	"nvarchar":      "TEXT",
	"varchar":       "TEXT",
	"nchar":         "TEXT",
	"char":          "TEXT",
	"text":          "TEXT",
	"ntext":         "TEXT",
	"datetime":      "TIMESTAMP",
	"smalldatetime": "TIMESTAMP",
	"date":          "DATE",
	"decimal":       "NUMERIC",
	"numeric":       "NUMERIC",
	"float":         "DOUBLE PRECISION",
	"real":          "REAL",
}

// TranslateType maps a source type name to a target type name. It never
// fails: unknown or empty names degrade to TEXT so the column's data can still
// be carried over.
func TranslateType(sourceType string) string {
	if t, ok := LookupType(sourceType); ok {
		return t
	}
	return DefaultType
}

// LookupType is TranslateType without the fallback.
func LookupType(sourceType string) (string, bool) {
	t, ok := typeMap[strings.ToLower(strings.TrimSpace(sourceType))]
	return t, ok
}
