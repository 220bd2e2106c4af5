package memory_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/petasbytes/localmind/memory"
)

func TestTranscript_RoundTripJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "conv.json")

	in := []memory.Message{memory.System("sys"), memory.User("hi"), memory.Tool("tool_0", "disk_usage", `{"ok":true}`)}
	if err := memory.SaveTranscript(p, in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := memory.LoadTranscript(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("length mismatch: got %d want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].Role != in[i].Role || out[i].Text() != in[i].Text() || out[i].ToolCallID != in[i].ToolCallID {
			t.Fatalf("mismatch at %d: got %+v want %+v", i, out[i], in[i])
		}
	}
}

func TestTranscript_RoundTripYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "conv.yaml")

	asst, err := memory.Decode([]byte(`{"role":"assistant","content":null,"tool_calls":[{"id":"c1","type":"function","function":{"name":"disk_usage","arguments":"{}"}}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	in := []memory.Message{memory.User("q"), asst}
	if err := memory.SaveTranscript(p, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := memory.LoadTranscript(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d messages", len(out))
	}
	if out[1].Content != nil {
		t.Fatalf("expected null content, got %q", out[1].Text())
	}
	if len(out[1].ToolCalls) != 1 || out[1].ToolCalls[0].Function.Name != "disk_usage" {
		t.Fatalf("tool calls lost: %+v", out[1].ToolCalls)
	}
}

func TestTranscript_LoadMissing_ReturnsNil(t *testing.T) {
	p := filepath.Join(t.TempDir(), "does-not-exist.json")

	msgs, err := memory.LoadTranscript(p)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if msgs != nil {
		t.Fatalf("expected nil slice for missing file, got %#v", msgs)
	}
}

func TestTranscript_LoadInvalidJSON_ReturnsError(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(p, []byte("{oops"), 0o664); err != nil {
		t.Fatalf("prep: %v", err)
	}
	if _, err := memory.LoadTranscript(p); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestMessage_AssistantReplaysVerbatim(t *testing.T) {
	raw := `{"role":"assistant","content":"","function_call":{"name":"wifi_info","arguments":{"verbose":true}},"x_extra":1}`
	m, err := memory.Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m.FunctionCall == nil || m.FunctionCall.Arguments != `{"verbose":true}` {
		t.Fatalf("function_call not decoded: %+v", m.FunctionCall)
	}
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != raw {
		t.Fatalf("replay changed bytes:\n got %s\nwant %s", b, raw)
	}
}

func TestMessage_ToolReplyShape(t *testing.T) {
	b, err := json.Marshal(memory.Tool("tool_3", "startup_items", "{}"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := map[string]any{"role": "tool", "tool_call_id": "tool_3", "name": "startup_items", "content": "{}"}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("%s: got %v want %v", k, got[k], v)
		}
	}
}

func TestTranscript_AppendOnly(t *testing.T) {
	tr := memory.NewTranscript("sys", "question")
	snap := tr.Messages()
	tr.Append(memory.Assistant("done"))

	if len(snap) != 2 || tr.Len() != 3 {
		t.Fatalf("snapshot should not grow: snap=%d len=%d", len(snap), tr.Len())
	}
	last, ok := tr.Last()
	if !ok || last.Text() != "done" {
		t.Fatalf("unexpected last: %+v", last)
	}
}
