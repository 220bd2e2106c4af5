package telemetry_test

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/petasbytes/localmind/internal/telemetry"
)

func readEvents(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open events: %v", err)
	}
	defer f.Close()
	var out []map[string]any
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func TestEmit_NilRecorderDropsEvents(t *testing.T) {
	var r *telemetry.Recorder
	r.Emit("test_event", map[string]any{"foo": "bar"})
	r.ConversationStarted(context.Background(), "hi", 2)
	if r.Enabled() || r.Path() != "" {
		t.Fatal("nil recorder should be disabled")
	}
}

func TestEmit_WritesLineWithTimeAndEvent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", ".localmind")
	r := telemetry.New(dir, zerolog.Nop())

	fields := map[string]any{"foo": "bar"}
	r.Emit("test_event", fields)

	if _, ok := fields["event"]; ok {
		t.Fatal("caller map was mutated")
	}
	events := readEvents(t, filepath.Join(dir, "events.jsonl"))
	if len(events) != 1 {
		t.Fatalf("got %d events want 1", len(events))
	}
	ev := events[0]
	if ev["event"] != "test_event" || ev["foo"] != "bar" {
		t.Fatalf("unexpected event: %v", ev)
	}
	ts, _ := ev["time"].(string)
	if _, err := time.Parse(time.RFC3339Nano, ts); err != nil {
		t.Fatalf("bad time %q: %v", ts, err)
	}
}

func TestEmit_ConcurrentWritersKeepLinesIntact(t *testing.T) {
	dir := t.TempDir()
	r := telemetry.New(dir, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Emit("tool_exec", map[string]any{"i": i})
		}(i)
	}
	wg.Wait()

	if got := len(readEvents(t, r.Path())); got != 20 {
		t.Fatalf("got %d events want 20", got)
	}
}

func TestConversationStarted_RecordsFeaturesNotText(t *testing.T) {
	dir := t.TempDir()
	r := telemetry.New(dir, zerolog.Nop())
	ctx := telemetry.WithConversationID(context.Background(), "conv-1")

	r.ConversationStarted(ctx, "how much free disk space do I have?", 2)

	b, err := os.ReadFile(r.Path())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev struct {
		Event          string         `json:"event"`
		ConversationID string         `json:"conversation_id"`
		Messages       int            `json:"messages"`
		Question       map[string]int `json:"question"`
	}
	if err := json.Unmarshal(b, &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Event != "conversation_started" || ev.ConversationID != "conv-1" || ev.Messages != 2 {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Question["words"] != 8 || ev.Question["lines"] != 1 {
		t.Fatalf("unexpected features: %v", ev.Question)
	}
	if strings.Contains(string(b), "disk space") {
		t.Fatal("raw question text leaked into telemetry")
	}
}

func TestContextIDs(t *testing.T) {
	ctx := telemetry.WithTurnID(context.Background(), "turn-123")
	if got, ok := telemetry.TurnIDFromContext(ctx); !ok || got != "turn-123" {
		t.Fatalf("want turn-123,true; got %q,%v", got, ok)
	}
	if _, ok := telemetry.ConversationIDFromContext(ctx); ok {
		t.Fatal("conversation id should be absent")
	}
	if got, ok := telemetry.TurnIDFromContext(telemetry.WithTurnID(context.Background(), "")); ok || got != "" {
		t.Fatalf("empty id should read as absent; got %q,%v", got, ok)
	}

	ctx = telemetry.WithConversationID(ctx, "c1")
	f := telemetry.Fields(ctx)
	if f["turn_id"] != "turn-123" || f["conversation_id"] != "c1" {
		t.Fatalf("unexpected fields: %v", f)
	}
	if a, b := telemetry.NewID(), telemetry.NewID(); a == b || len(a) != 36 {
		t.Fatalf("ids should be unique uuids: %q %q", a, b)
	}
}
