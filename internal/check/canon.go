// Package check is the contract checker (spec §4.7): for every stitch in
// every chain, it evaluates the two bordering schemas for shape, typing,
// required-field, and normalization mismatches.
package check

import "strings"

// canonicalType reduces one of the many declared-type spellings a Python,
// TypeScript, Zod, or OpenAPI extractor can produce down to a small,
// finite set, per the canonicalization table of spec §4.7:
//   - integer widths (int, int32, number-with-.int()) unify to "integer";
//   - string + format (email, uri, uuid) unifies with its validator-bearing
//     counterpart (both sides end up plain "string"; UnnormalizedData,
//     not TypeMismatch, is what flags a missing validator);
//   - arrays/objects are stripped to their element/field-wise comparison
//     by the caller, not here.
func canonicalType(declaredType string, isInt bool) string {
	t := strings.ToLower(strings.TrimSpace(declaredType))
	t = stripWrappers(t)

	switch {
	case t == "":
		return "unknown"
	case isInt:
		return "integer"
	case containsAny(t, "int32", "int64", "bigint"):
		return "integer"
	case t == "int" || t == "integer":
		return "integer"
	case t == "float" || t == "number" || t == "double" || t == "decimal":
		return "number"
	case t == "bool" || t == "boolean":
		return "boolean"
	case t == "str" || t == "string" || containsAny(t, "emailstr", "httpurl", "anyurl", "uuid"):
		return "string"
	case containsAny(t, "datetime", "date"):
		return "date"
	case strings.HasPrefix(t, "array<") || strings.HasPrefix(t, "list[") || strings.HasSuffix(t, "[]"):
		return "array"
	case t == "object" || t == "dict" || strings.HasPrefix(t, "record<"):
		return "object"
	default:
		return "unknown"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// stripWrappers removes nullability/array wrapper syntax so the base type
// can be classified: "Optional[str]" → "str", "str | None" → "str",
// "string[]" stays (array handling happens after), "List[int]" → "int".
func stripWrappers(t string) string {
	t = strings.TrimSuffix(t, " | undefined")
	t = strings.TrimSuffix(t, "| undefined")
	t = strings.TrimSuffix(t, " | null")
	t = strings.TrimSuffix(t, "| null")
	t = strings.TrimSuffix(t, " | none")
	t = strings.TrimSuffix(t, "| none")
	t = strings.TrimSpace(t)

	if strings.HasPrefix(t, "optional[") && strings.HasSuffix(t, "]") {
		return t[len("optional[") : len(t)-1]
	}
	if strings.HasPrefix(t, "list[") && strings.HasSuffix(t, "]") {
		return t[len("list[") : len(t)-1]
	}
	return t
}
