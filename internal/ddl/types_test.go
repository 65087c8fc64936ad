package ddl

import "testing"

func TestTranslateType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"int", "INTEGER"},
		{"INT ", "INTEGER"},
		{"Int", "INTEGER"},
		{"  bigint", "BIGINT"},
		{"smallint", "SMALLINT"},
		{"tinyint", "SMALLINT"},
		{"bit", "BOOLEAN"},
		{"nvarchar", "TEXT"},
		{"varchar", "TEXT"},
		{"nchar", "TEXT"},
		{"char", "TEXT"},
		{"text", "TEXT"},
		{"ntext", "TEXT"},
		{"datetime", "TIMESTAMP"},
		{"smalldatetime", "TIMESTAMP"},
		{"date", "DATE"},
		{"decimal", "NUMERIC"},
		{"NUMERIC", "NUMERIC"},
		{"float", "DOUBLE PRECISION"},
		{"real", "REAL"},
		{"", "TEXT"},
		{"   ", "TEXT"},
		{"uniqueidentifier", "TEXT"},
		{"datetime2", "TEXT"},
		{"%$#garbage", "TEXT"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := TranslateType(tt.in); got != tt.want {
				t.Errorf("TranslateType(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTranslateType_Deterministic(t *testing.T) {
	for _, in := range []string{"int", "xml", "", "DECIMAL"} {
		first := TranslateType(in)
		if first == "" {
			t.Errorf("TranslateType(%q) returned empty string", in)
		}
		for i := 0; i < 3; i++ {
			if got := TranslateType(in); got != first {
				t.Errorf("TranslateType(%q) not deterministic: %q then %q", in, first, got)
			}
		}
	}
}

func TestLookupType(t *testing.T) {
	if _, ok := LookupType("geography"); ok {
		t.Error("geography should not be a known type")
	}
	if got, ok := LookupType("Real"); !ok || got != "REAL" {
		t.Errorf("LookupType(Real) = %q, %v", got, ok)
	}
}
