// Package windowing trims the transcript sent to a model to a token budget
// without splitting an assistant tool-call message from its replies.
//
// The stored transcript is never modified; PrepareSendWindow returns the
// subset to send.
package windowing

import (
	"encoding/json"

	"github.com/petasbytes/localmind/internal/callshape"
	"github.com/petasbytes/localmind/memory"
)

// GroupKind denotes the atomic unit type when preparing a send window.
type GroupKind int

const (
	GroupSingleton GroupKind = iota
	GroupPair
	GroupPinned
)

func (k GroupKind) String() string {
	switch k {
	case GroupPair:
		return "pair"
	case GroupPinned:
		return "pinned"
	default:
		return "singleton"
	}
}

// Group describes a contiguous span of messages [Start, End) in the original slice.
type Group struct {
	Kind  GroupKind
	Start int // inclusive index into msgs
	End   int // exclusive index into msgs
}

// GroupBlocks groups messages into atomic units.
//
// A leading system message is its own pinned group. A pair is an assistant
// message requesting tools followed immediately by tool-role replies whose
// ids are exactly the requested ids, in any order. Anything else is a
// singleton.
func GroupBlocks(msgs []memory.Message) []Group {
	groups := make([]Group, 0, len(msgs))
	i := 0
	if len(msgs) > 0 && msgs[0].Role == memory.RoleSystem {
		groups = append(groups, Group{Kind: GroupPinned, Start: 0, End: 1})
		i = 1
	}
	for i < len(msgs) {
		if msgs[i].Role == memory.RoleAssistant {
			if want := callIDs(msgs[i]); len(want) > 0 {
				end, got := toolReplies(msgs, i+1)
				if end > i+1 && sameIDs(got, want) {
					groups = append(groups, Group{Kind: GroupPair, Start: i, End: end})
					i = end
					continue
				}
			}
		}
		groups = append(groups, Group{Kind: GroupSingleton, Start: i, End: i + 1})
		i++
	}
	return groups
}

// callIDs returns the ids the loop assigns to the calls requested by m.
func callIDs(m memory.Message) map[string]struct{} {
	b, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	calls, _ := callshape.Extract(b)
	ids := make(map[string]struct{}, len(calls))
	for _, c := range calls {
		ids[c.ID] = struct{}{}
	}
	return ids
}

// toolReplies collects the run of tool-role messages starting at from.
func toolReplies(msgs []memory.Message, from int) (end int, ids map[string]struct{}) {
	ids = make(map[string]struct{})
	end = from
	for end < len(msgs) && msgs[end].Role == memory.RoleTool {
		ids[msgs[end].ToolCallID] = struct{}{}
		end++
	}
	return end, ids
}

// sameIDs reports whether every requested call has a reply and no reply
// answers an unrequested call.
func sameIDs(have, want map[string]struct{}) bool {
	if len(have) != len(want) {
		return false
	}
	for id := range want {
		if _, ok := have[id]; !ok {
			return false
		}
	}
	return true
}
