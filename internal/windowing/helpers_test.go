package windowing_test

import (
	"github.com/petasbytes/localmind/internal/windowing"
	"github.com/petasbytes/localmind/memory"
)

// Asst returns an assistant message requesting one call per id.
func Asst(ids ...string) memory.Message {
	m := memory.Message{Role: memory.RoleAssistant}
	for _, id := range ids {
		m.ToolCalls = append(m.ToolCalls, memory.ToolCall{
			ID:       id,
			Type:     "function",
			Function: memory.FunctionCall{Name: "disk_usage", Arguments: "{}"},
		})
	}
	return m
}

// Reply returns a tool-role reply with payload s.
func Reply(id, s string) memory.Message { return memory.Tool(id, "disk_usage", s) }

func groupsEqual(got, want []windowing.Group) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func roles(msgs []memory.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Role
	}
	return out
}
