package engine

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"db-migrate/internal/ddl"

	"github.com/shopspring/decimal"
)

// ValueKind selects how a column's values are written as target literals.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindText
	KindInteger
	KindDecimal
	KindBoolean
	KindTimestamp
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindBoolean:
		return "boolean"
	case KindTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

// TimestampLayout is ISO-8601 with milliseconds; values are written in UTC.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// KindFor picks the literal kind from a column's declared source type, through
// the target type the column is created with.
func KindFor(sourceType string) ValueKind {
	switch ddl.TranslateType(sourceType) {
	case "INTEGER", "BIGINT", "SMALLINT":
		return KindInteger
	case "NUMERIC", "DOUBLE PRECISION", "REAL":
		return KindDecimal
	case "BOOLEAN":
		return KindBoolean
	case "TIMESTAMP", "DATE":
		return KindTimestamp
	default:
		return KindText
	}
}

// Value is one typed cell: Null | Text | Integer | Decimal | Boolean | Timestamp.
type Value struct {
	Kind    ValueKind
	text    string
	number  decimal.Decimal
	boolean bool
	ts      time.Time
	hasTime bool
}

// NewValue converts a driver value into the union member for kind. A nil
// value is Null whatever the kind.
func NewValue(kind ValueKind, raw any) (Value, error) {
	if raw == nil {
		return Value{Kind: KindNull}, nil
	}
	v := Value{Kind: kind}

	switch kind {
	case KindNull:
		return Value{Kind: KindNull}, nil
	case KindInteger, KindDecimal:
		d, err := toDecimal(raw)
		if err != nil {
			return Value{}, err
		}
		if kind == KindInteger && !d.IsInteger() {
			return Value{}, fmt.Errorf("value %s is not an integer", d)
		}
		v.number = d
	case KindBoolean:
		b, err := toBool(raw)
		if err != nil {
			return Value{}, err
		}
		v.boolean = b
	case KindTimestamp:
		switch t := raw.(type) {
		case time.Time:
			v.ts, v.hasTime = t, true
		case string:
			v.text = strings.TrimSpace(t)
		case []byte:
			v.text = strings.TrimSpace(string(t))
		default:
			return Value{}, fmt.Errorf("cannot use %T as a timestamp", raw)
		}
	default:
		v.Kind = KindText
		v.text = toText(raw)
	}
	return v, nil
}

// Literal renders the value in target SQL syntax.
func (v Value) Literal() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindInteger, KindDecimal:
		return v.number.String()
	case KindBoolean:
		if v.boolean {
			return "TRUE"
		}
		return "FALSE"
	case KindTimestamp:
		if v.hasTime {
			return QuoteText(v.ts.UTC().Format(TimestampLayout))
		}
		return QuoteText(v.text)
	default:
		return QuoteText(v.text)
	}
}

// FormatLiteral is NewValue followed by Literal.
func FormatLiteral(kind ValueKind, raw any) (string, error) {
	v, err := NewValue(kind, raw)
	if err != nil {
		return "", err
	}
	return v.Literal(), nil
}

// QuoteText single-quotes s, doubling embedded single quotes.
func QuoteText(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func toDecimal(raw any) (decimal.Decimal, error) {
	switch n := raw.(type) {
	case decimal.Decimal:
		return n, nil
	case int64:
		return decimal.NewFromInt(n), nil
	case int32:
		return decimal.NewFromInt32(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int16:
		return decimal.NewFromInt(int64(n)), nil
	case int8:
		return decimal.NewFromInt(int64(n)), nil
	case uint64:
		return decimal.NewFromString(strconv.FormatUint(n, 10))
	case uint32:
		return decimal.NewFromInt(int64(n)), nil
	case uint16:
		return decimal.NewFromInt(int64(n)), nil
	case uint8:
		return decimal.NewFromInt(int64(n)), nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Decimal{}, fmt.Errorf("cannot represent %v as a number literal", n)
		}
		return decimal.NewFromFloat(n), nil
	case float32:
		if math.IsNaN(float64(n)) || math.IsInf(float64(n), 0) {
			return decimal.Decimal{}, fmt.Errorf("cannot represent %v as a number literal", n)
		}
		return decimal.NewFromFloat32(n), nil
	case bool:
		if n {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, nil
	case []byte:
		return parseDecimal(string(n))
	case string:
		return parseDecimal(n)
	default:
		return decimal.Decimal{}, fmt.Errorf("cannot use %T as a number", raw)
	}
}

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return d, nil
}

func toBool(raw any) (bool, error) {
	switch b := raw.(type) {
	case bool:
		return b, nil
	case int64:
		return b != 0, nil
	case int:
		return b != 0, nil
	case int32:
		return b != 0, nil
	case uint8:
		return b != 0, nil
	case []byte:
		// MySQL BIT(1) arrives as a single raw byte
		if len(b) == 1 && b[0] <= 1 {
			return b[0] == 1, nil
		}
		return parseBool(string(b))
	case string:
		return parseBool(b)
	default:
		return false, fmt.Errorf("cannot use %T as a boolean", raw)
	}
}

func parseBool(s string) (bool, error) {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("invalid boolean %q", s)
	}
	return b, nil
}

func toText(raw any) string {
	switch t := raw.(type) {
	case string:
		return t
	case []byte:
		// PostgreSQL text cannot hold NUL
		if utf8.Valid(t) && bytes.IndexByte(t, 0) < 0 {
			return string(t)
		}
		return `\x` + hex.EncodeToString(t)
	case time.Time:
		return t.UTC().Format(TimestampLayout)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(raw)
	}
}
