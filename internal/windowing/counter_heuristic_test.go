package windowing_test

import (
	"testing"

	"github.com/petasbytes/localmind/internal/windowing"
	"github.com/petasbytes/localmind/memory"
)

func TestHeuristicCounter_ContentCountsRunes(t *testing.T) {
	h := windowing.HeuristicCounter{}
	overhead := h.CountMessage(memory.User(""))
	if overhead <= 0 {
		t.Fatalf("overhead = %d", overhead)
	}
	// "héllo 世界" is 8 runes.
	if got, want := h.CountMessage(memory.User("héllo 世界")), 8+overhead; got != want {
		t.Fatalf("got=%d want=%d", got, want)
	}
}

func TestHeuristicCounter_ToolCalls(t *testing.T) {
	h := windowing.HeuristicCounter{}
	overhead := h.CountMessage(memory.User(""))

	// Name "disk_usage" (10) plus arguments "{}" (2) per call, no content.
	if got, want := h.CountMessage(Asst("a", "b")), 2*(12+overhead); got != want {
		t.Fatalf("got=%d want=%d", got, want)
	}
	// A message with nothing still costs one overhead.
	if got := h.CountMessage(memory.Message{Role: memory.RoleAssistant}); got != overhead {
		t.Fatalf("empty message = %d want %d", got, overhead)
	}
}

func TestHeuristicCounter_CountGroup_SumsMessages(t *testing.T) {
	h := windowing.HeuristicCounter{}
	msgs := []memory.Message{memory.User("a"), Asst("t1"), Reply("t1", "xyz")}
	overhead := h.CountMessage(memory.User(""))

	pair := windowing.Group{Kind: windowing.GroupPair, Start: 1, End: 3}
	if got, want := h.CountGroup(pair, msgs), (12+overhead)+(3+overhead); got != want {
		t.Fatalf("got=%d want=%d", got, want)
	}
	// End past the slice is tolerated.
	if got := h.CountGroup(windowing.Group{Start: 0, End: 10}, msgs); got != 1+overhead+12+overhead+3+overhead {
		t.Fatalf("got=%d", got)
	}
}
