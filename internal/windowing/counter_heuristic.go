package windowing

import (
	"unicode/utf8"

	"github.com/petasbytes/localmind/memory"
)

// TokenCounter estimates input-token cost for messages or groups.
type TokenCounter interface {
	CountMessage(m memory.Message) int
	CountGroup(g Group, all []memory.Message) int
}

// HeuristicCounter is the default deterministic estimator.
// Rules:
//   - content: rune count plus one block overhead
//   - each tool call: runes of name and arguments plus one block overhead
//   - a message with neither still costs one overhead
type HeuristicCounter struct{}

// Fixed per-block overhead; tests derive it from an empty message.
const blockOverhead = 4

func (HeuristicCounter) CountMessage(m memory.Message) int {
	total, blocks := 0, 0
	if m.Content != nil {
		total += utf8.RuneCountInString(*m.Content)
		blocks++
	}
	for _, tc := range m.ToolCalls {
		total += utf8.RuneCountInString(tc.Function.Name) + utf8.RuneCountInString(tc.Function.Arguments)
		blocks++
	}
	if fc := m.FunctionCall; fc != nil {
		total += utf8.RuneCountInString(fc.Name) + utf8.RuneCountInString(fc.Arguments)
		blocks++
	}
	if blocks == 0 {
		blocks = 1
	}
	return total + blocks*blockOverhead
}

func (h HeuristicCounter) CountGroup(g Group, all []memory.Message) int {
	total := 0
	for i := g.Start; i < g.End && i < len(all); i++ {
		total += h.CountMessage(all[i])
	}
	return total
}
