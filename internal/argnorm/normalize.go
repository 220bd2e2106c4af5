package argnorm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/petasbytes/localmind/internal/safety"
)

// Normalizer normalizes arguments for a fixed set of tool specs.
type Normalizer struct {
	specs      map[string]Spec
	systemRoot string
}

// New builds a Normalizer for specs. Relative path entries are anchored to
// systemRoot; pass safety.SystemRoot() outside tests.
func New(specs []Spec, systemRoot string) *Normalizer {
	m := make(map[string]Spec, len(specs))
	for _, s := range specs {
		m[s.Tool] = s
	}
	return &Normalizer{specs: m, systemRoot: systemRoot}
}

// decodeAttempt is one way of reading raw arguments as a mapping.
type decodeAttempt struct {
	name   string
	decode func(raw any) (map[string]any, bool)
}

// decoders run in order; the first mapping wins.
var decoders = []decodeAttempt{
	{"mapping", decodeMapping},
	{"json", decodeJSON},
	{"literal", decodeLiteral},
}

// Decode reads raw arguments as a mapping, falling back to an empty mapping
// when no attempt succeeds. It also reports which attempt matched.
func Decode(raw any) (map[string]any, string) {
	for _, d := range decoders {
		if m, ok := d.decode(raw); ok {
			return m, d.name
		}
	}
	return map[string]any{}, "empty"
}

func decodeMapping(raw any) (map[string]any, bool) {
	switch v := raw.(type) {
	case nil:
		return map[string]any{}, true
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = val
		}
		return out, true
	case Args:
		return decodeMapping(map[string]any(v))
	}
	return nil, false
}

func rawText(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case json.RawMessage:
		return string(v), true
	}
	return "", false
}

func decodeJSON(raw any) (map[string]any, bool) {
	s, ok := rawText(raw)
	if !ok {
		return nil, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return map[string]any{}, true
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	switch t := v.(type) {
	case map[string]any:
		return t, true
	case nil:
		return map[string]any{}, true
	case string:
		// Double-encoded object: "{\"top_n\": 5}".
		if inner, ok := decodeJSON(t); ok {
			return inner, true
		}
		return decodeLiteral(t)
	}
	return nil, false
}

func decodeLiteral(raw any) (map[string]any, bool) {
	s, ok := rawText(raw)
	if !ok {
		return nil, false
	}
	v, err := ParseLiteral(strings.TrimSpace(s))
	if err != nil {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// Normalize decodes raw and coerces it against the spec registered for tool.
// Unknown keys pass through untouched.
func (n *Normalizer) Normalize(tool string, raw any) (Args, error) {
	spec, ok := n.specs[tool]
	if !ok {
		return nil, &ArgumentError{Tool: tool, Reason: fmt.Sprintf("no parameter spec for tool %q", tool)}
	}
	m, _ := Decode(raw)
	out := Args(m)

	for _, p := range spec.Params {
		v, present := out[p.Name]
		if present && isBlank(v) {
			present = false
		}
		if !present {
			if p.Required {
				return nil, &ArgumentError{Tool: tool, Field: p.Name, Reason: "required field is missing"}
			}
			delete(out, p.Name)
			if p.Default != nil {
				out[p.Name] = p.Default
			}
			continue
		}
		out[p.Name] = n.coerce(p, v)
	}
	return out, nil
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func (n *Normalizer) coerce(p Param, v any) any {
	switch p.Kind {
	case KindInteger:
		i, ok := CoerceInt(v)
		if !ok {
			return v
		}
		return clamp(i, p.Min, p.Max)
	case KindNumber:
		if f, ok := coerceFloat(v); ok {
			return f
		}
		return v
	case KindBoolean:
		return CoerceBool(v)
	case KindStringList:
		return ParseList(v)
	case KindPathList:
		return safety.CleanRoots(ParseList(v), n.systemRoot)
	default:
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		return matchEnum(strings.TrimSpace(s), p.Enum)
	}
}

func clamp(v int, lo, hi *int) int {
	if lo != nil && v < *lo {
		v = *lo
	}
	if hi != nil && v > *hi {
		v = *hi
	}
	return v
}

// matchEnum returns the declared spelling of s when it matches an enum value
// case-insensitively; otherwise s unchanged.
func matchEnum(s string, enum []string) string {
	for _, e := range enum {
		if strings.EqualFold(s, e) {
			return e
		}
	}
	return s
}
