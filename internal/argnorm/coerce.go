package argnorm

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CoerceInt converts integers, integral-or-truncatable floats and numeric
// strings to int. ok is false when v has no integer reading.
func CoerceInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int32:
		return int(t), true
	case int64:
		return int(t), true
	case float32:
		return floatToInt(float64(t))
	case float64:
		return floatToInt(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i), true
		}
		if f, err := t.Float64(); err == nil {
			return floatToInt(f)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f > math.MaxInt32 {
		return math.MaxInt32, true
	}
	if f < math.MinInt32 {
		return math.MinInt32, true
	}
	return int(f), true
}

func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// CoerceBool accepts booleans, numbers (nonzero is true) and the strings
// true/false/yes/no/on/off/1/0 in any case. Anything else is returned as is.
func CoerceBool(v any) any {
	switch t := v.(type) {
	case bool:
		return t
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return v
}

// ParseList reads a sequence of strings from a native list, a JSON array
// string, a literal list or tuple string, a comma-separated string, or a
// single (optionally quoted) scalar.
func ParseList(v any) []string {
	switch t := v.(type) {
	case nil:
		return nil
	case []string:
		return append([]string(nil), t...)
	case []any:
		return stringsOf(t)
	case string:
		return parseListString(t)
	default:
		return []string{fmt.Sprint(t)}
	}
}

func parseListString(raw string) []string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	var arr []any
	if err := json.Unmarshal([]byte(s), &arr); err == nil {
		return stringsOf(arr)
	}
	if lit, err := ParseLiteral(s); err == nil {
		switch l := lit.(type) {
		case []any:
			return stringsOf(l)
		case string:
			return []string{l}
		}
	}
	if strings.Contains(s, ",") {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return []string{s[1 : len(s)-1]}
	}
	return []string{s}
}

func stringsOf(items []any) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		switch s := it.(type) {
		case nil:
		case string:
			out = append(out, s)
		default:
			out = append(out, fmt.Sprint(s))
		}
	}
	return out
}
