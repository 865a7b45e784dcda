package check

import "testing"

func TestCanonicalType(t *testing.T) {
	tests := []struct {
		declared string
		isInt    bool
		want     string
	}{
		{"str", false, "string"},
		{"EmailStr", false, "string"},
		{"string", false, "string"},
		{"int", false, "integer"},
		{"number", true, "integer"}, // Zod's z.number().int() carries the int validator
		{"number", false, "number"},
		{"float", false, "number"},
		{"bool", false, "boolean"},
		{"boolean", false, "boolean"},
		{"datetime", false, "date"},
		{"Optional[str]", false, "string"},
		{"str | None", false, "string"},
		{"string | undefined", false, "string"},
		{"List[int]", false, "integer"},
		{"string[]", false, "array"},
		{"Array<string>", false, "array"},
		{"dict", false, "object"},
		{"Record<string, string>", false, "object"},
		{"uuid", false, "string"},
		{"UUID", false, "string"},
		{"", false, "unknown"},
		{"SomeWeirdType", false, "unknown"},
	}

	for _, tt := range tests {
		if got := canonicalType(tt.declared, tt.isInt); got != tt.want {
			t.Errorf("canonicalType(%q, %v) = %q, want %q", tt.declared, tt.isInt, got, tt.want)
		}
	}
}
