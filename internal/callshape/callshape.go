// Package callshape extracts tool invocation requests from one assistant
// message, whichever wire shape the inference server used.
//
// Shapes are tried in priority order and the first that yields at least one
// request wins:
//
//	tool_calls    -> ids from the entries, "tool_<i>" when missing
//	function_call -> id "func_0"
//	content text  -> first embedded JSON object with a "name" key, id "text_0"
package callshape

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// Invocation is one requested tool call. RawArguments is a string when the
// server sent encoded arguments, a map when it sent an object.
type Invocation struct {
	ID           string
	Name         string
	RawArguments any
}

// emptyArguments stands in for absent arguments.
const emptyArguments = "{}"

// Parser is one extraction attempt.
type Parser struct {
	Name    string
	Extract func(msg gjson.Result) []Invocation
}

// Parsers lists the attempts in priority order.
var Parsers = []Parser{
	{Name: "tool_calls", Extract: fromToolCalls},
	{Name: "function_call", Extract: fromFunctionCall},
	{Name: "content", Extract: fromContent},
}

// Extract returns the invocations requested by an assistant message encoded
// as JSON, plus the name of the shape that matched ("" when none did).
func Extract(message []byte) ([]Invocation, string) {
	if !gjson.ValidBytes(message) {
		return nil, ""
	}
	msg := gjson.ParseBytes(message)
	for _, p := range Parsers {
		if calls := p.Extract(msg); len(calls) > 0 {
			return calls, p.Name
		}
	}
	return nil, ""
}

func fromToolCalls(msg gjson.Result) []Invocation {
	list := msg.Get("tool_calls")
	if !list.IsArray() {
		return nil
	}
	var out []Invocation
	for i, tc := range list.Array() {
		id := tc.Get("id").String()
		if id == "" {
			id = fmt.Sprintf("tool_%d", i)
		}
		out = append(out, Invocation{
			ID:           id,
			Name:         tc.Get("function.name").String(),
			RawArguments: arguments(tc.Get("function.arguments")),
		})
	}
	return out
}

func fromFunctionCall(msg gjson.Result) []Invocation {
	fc := msg.Get("function_call")
	name := fc.Get("name").String()
	if !fc.IsObject() || name == "" {
		return nil
	}
	return []Invocation{{ID: "func_0", Name: name, RawArguments: arguments(fc.Get("arguments"))}}
}

func fromContent(msg gjson.Result) []Invocation {
	content := msg.Get("content")
	if content.Type != gjson.String {
		return nil
	}
	for _, blob := range embeddedObjects(content.Str, `"name"`) {
		var obj struct {
			Name       string          `json:"name"`
			Parameters json.RawMessage `json:"parameters"`
			Arguments  json.RawMessage `json:"arguments"`
		}
		if err := json.Unmarshal([]byte(blob), &obj); err != nil || obj.Name == "" {
			continue
		}
		args := firstNonEmpty(obj.Parameters, obj.Arguments)
		return []Invocation{{ID: "text_0", Name: obj.Name, RawArguments: arguments(gjson.ParseBytes(args))}}
	}
	return nil
}

func firstNonEmpty(candidates ...json.RawMessage) []byte {
	for _, c := range candidates {
		r := gjson.ParseBytes(c)
		if !r.Exists() || r.Type == gjson.Null {
			continue
		}
		if r.IsObject() && len(r.Map()) == 0 {
			continue
		}
		if r.Type == gjson.String && r.Str == "" {
			continue
		}
		return c
	}
	return []byte(emptyArguments)
}

// arguments keeps strings as strings and objects as maps.
func arguments(r gjson.Result) any {
	switch {
	case !r.Exists() || r.Type == gjson.Null:
		return emptyArguments
	case r.Type == gjson.String:
		if r.Str == "" {
			return emptyArguments
		}
		return r.Str
	case r.IsObject():
		if m, ok := r.Value().(map[string]any); ok {
			return m
		}
	}
	return r.Raw
}
