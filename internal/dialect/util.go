package dialect

import (
	"strings"
)

// QuoteWith wraps name in left/right and doubles any embedded right character.
func QuoteWith(name, left, right string) string {
	return left + strings.ReplaceAll(name, right, right+right) + right
}

// QualifiedColumns quotes each column with quote and joins them for a select list.
func QualifiedColumns(columns []string, quote func(string) string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = quote(c)
	}
	return strings.Join(quoted, ", ")
}

// selectRows builds "SELECT <cols> FROM <schema>.<table>" for any dialect quoting.
func selectRows(quote func(string) string, schema, table string, columns []string) string {
	from := quote(table)
	if schema != "" {
		from = quote(schema) + "." + from
	}
	cols := "*"
	if len(columns) > 0 {
		cols = QualifiedColumns(columns, quote)
	}
	return "SELECT " + cols + " FROM " + from
}

// DefaultNormalizeType is a default implementation for type normalization (lowercase).
func DefaultNormalizeType(sqlType string) string {
	return strings.ToLower(strings.TrimSpace(sqlType))
}
