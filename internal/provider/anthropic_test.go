package provider_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"

	"github.com/petasbytes/localmind/internal/provider"
	"github.com/petasbytes/localmind/memory"
)

type fakeTransport struct {
	respStatus int
	respBody   []byte
	body       []byte
	calls      int
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	b, _ := io.ReadAll(req.Body)
	_ = req.Body.Close()
	f.body = b
	f.calls++
	resp := &http.Response{
		StatusCode: f.respStatus,
		Body:       io.NopCloser(bytes.NewReader(f.respBody)),
		Header:     make(http.Header),
		Request:    req,
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp, nil
}

func newAnthropic(rt http.RoundTripper) *provider.Anthropic {
	cli := provider.NewAnthropicClient(
		option.WithHTTPClient(&http.Client{Transport: rt}),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)
	a := provider.NewAnthropic(cli, "", 0)
	a.RequireTool = true
	return a
}

const toolUseReply = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-3-7-sonnet-latest",
  "content": [
    {"type": "text", "text": "Let me check."},
    {"type": "tool_use", "id": "toolu_1", "name": "get_system_overview", "input": {"top_n": 3}}
  ],
  "stop_reason": "tool_use",
  "usage": {"input_tokens": 10, "output_tokens": 5}
}`

func TestAnthropic_ConvertsTranscriptAndReply(t *testing.T) {
	fake := &fakeTransport{respStatus: 200, respBody: []byte(toolUseReply)}
	a := newAnthropic(fake)

	prior := memory.Message{
		Role: memory.RoleAssistant,
		ToolCalls: []memory.ToolCall{
			{ID: "a", Type: "function", Function: memory.FunctionCall{Name: "disk_usage", Arguments: "{}"}},
			{ID: "b", Type: "function", Function: memory.FunctionCall{Name: "startup_items", Arguments: "not json"}},
		},
	}
	req := provider.Request{
		Messages: []memory.Message{
			memory.System("be brief"),
			memory.User("status?"),
			prior,
			memory.Tool("a", "disk_usage", `{"ok":true}`),
			memory.Tool("b", "startup_items", `{"ok":true}`),
		},
		Tools: testSpecs(),
	}
	resp, err := a.Chat(context.Background(), req)
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	body := gjson.ParseBytes(fake.body)
	checks := map[string]string{
		"system.0.text":                    "be brief",
		"messages.#":                       "3",
		"messages.1.role":                  "assistant",
		"messages.1.content.#":             "2",
		"messages.1.content.0.type":        "tool_use",
		"messages.1.content.1.input":       "{}",
		"messages.2.role":                  "user",
		"messages.2.content.#":             "2",
		"messages.2.content.1.tool_use_id": "b",
		"tool_choice.type":                 "any",
		"tools.#":                          "2",
	}
	for path, want := range checks {
		if got := body.Get(path).String(); got != want {
			t.Errorf("%s = %q want %q", path, got, want)
		}
	}
	if got := body.Get("tools.1.input_schema.properties.top_n.maximum").String(); got != "50" {
		t.Errorf("top_n maximum = %q\nbody=%s", got, fake.body)
	}

	msg := gjson.ParseBytes(resp.Message)
	if msg.Get("role").String() != "assistant" || msg.Get("content").String() != "Let me check." {
		t.Fatalf("unexpected message: %s", resp.Message)
	}
	call := msg.Get("tool_calls.0")
	if call.Get("id").String() != "toolu_1" || call.Get("function.name").String() != "get_system_overview" {
		t.Fatalf("unexpected call: %s", call.Raw)
	}
	if gjson.Get(call.Get("function.arguments").String(), "top_n").Int() != 3 {
		t.Fatalf("arguments not carried as a JSON string: %s", call.Raw)
	}
}

func TestAnthropic_UndeclaredToolRepliesBecomeText(t *testing.T) {
	fake := &fakeTransport{respStatus: 200, respBody: []byte(toolUseReply)}
	a := newAnthropic(fake)

	embedded := `{"name": "disk_usage", "parameters": {}}`
	legacy := memory.Message{
		Role:         memory.RoleAssistant,
		FunctionCall: &memory.FunctionCall{Name: "startup_items", Arguments: "{}"},
	}
	req := provider.Request{Messages: []memory.Message{
		memory.User("status?"),
		memory.Assistant(embedded),
		memory.Tool("text_0", "disk_usage", `{"ok":true}`),
		legacy,
		memory.Tool("func_0", "startup_items", `{"ok":true}`),
	}}
	if _, err := a.Chat(context.Background(), req); err != nil {
		t.Fatalf("chat: %v", err)
	}

	body := gjson.ParseBytes(fake.body)
	checks := map[string]string{
		"messages.#":                       "5",
		"messages.1.content.0.type":        "text",
		"messages.1.content.0.text":        embedded,
		"messages.2.role":                  "user",
		"messages.2.content.0.type":        "text",
		"messages.2.content.0.text":        `Result of disk_usage: {"ok":true}`,
		"messages.3.content.0.type":        "tool_use",
		"messages.3.content.0.id":          "func_0",
		"messages.4.content.0.type":        "tool_result",
		"messages.4.content.0.tool_use_id": "func_0",
	}
	for path, want := range checks {
		if got := body.Get(path).String(); got != want {
			t.Errorf("%s = %q want %q\nbody=%s", path, got, want, fake.body)
		}
	}
}

func TestAnthropic_TextOnlyReplyHasNoToolCalls(t *testing.T) {
	fake := &fakeTransport{respStatus: 200, respBody: []byte(`{"id":"m","type":"message","role":"assistant","model":"x","content":[{"type":"text","text":"All good."}],"stop_reason":"end_turn","usage":{"input_tokens":1,"output_tokens":1}}`)}
	resp, err := newAnthropic(fake).Chat(context.Background(), provider.Request{Messages: []memory.Message{memory.User("hi")}})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if gjson.GetBytes(resp.Message, "tool_calls").Exists() {
		t.Fatalf("unexpected tool calls: %s", resp.Message)
	}
	if gjson.GetBytes(fake.body, "tools").Exists() || gjson.GetBytes(fake.body, "tool_choice").Exists() {
		t.Fatalf("tools sent without specs: %s", fake.body)
	}
}

func TestAnthropic_APIErrorIsTransportError(t *testing.T) {
	fake := &fakeTransport{
		respStatus: http.StatusBadRequest,
		respBody:   []byte(`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`),
	}
	_, err := newAnthropic(fake).Chat(context.Background(), provider.Request{Messages: []memory.Message{memory.User("hi")}})
	var te *provider.TransportError
	if !errors.As(err, &te) || te.StatusCode != http.StatusBadRequest {
		t.Fatalf("want 400 TransportError, got %v", err)
	}
	if fake.calls != 1 {
		t.Fatalf("calls = %d want 1", fake.calls)
	}
}
