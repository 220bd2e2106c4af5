package memory

import (
	"encoding/json"
	"fmt"
)

// Roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one transcript entry.
type Message struct {
	Role         string        `json:"role" yaml:"role"`
	Content      *string       `json:"content" yaml:"content"`
	Name         string        `json:"name,omitempty" yaml:"name,omitempty"`
	ToolCallID   string        `json:"tool_call_id,omitempty" yaml:"tool_call_id,omitempty"`
	ToolCalls    []ToolCall    `json:"tool_calls,omitempty" yaml:"tool_calls,omitempty"`
	FunctionCall *FunctionCall `json:"function_call,omitempty" yaml:"function_call,omitempty"`

	// raw is the exact encoding received from the model, if any.
	raw json.RawMessage
}

// ToolCall is an entry of an assistant message's tool_calls list.
type ToolCall struct {
	ID       string       `json:"id" yaml:"id"`
	Type     string       `json:"type" yaml:"type"`
	Function FunctionCall `json:"function" yaml:"function"`
}

// FunctionCall names a function and its JSON-encoded arguments.
type FunctionCall struct {
	Name      string `json:"name" yaml:"name"`
	Arguments string `json:"arguments" yaml:"arguments"`
}

// wireMessage mirrors Message for decoding. Arguments may arrive as a JSON
// string or as an object.
type wireMessage struct {
	Role         string          `json:"role"`
	Content      json.RawMessage `json:"content"`
	Name         string          `json:"name,omitempty"`
	ToolCallID   string          `json:"tool_call_id,omitempty"`
	ToolCalls    []wireToolCall  `json:"tool_calls,omitempty"`
	FunctionCall *wireFunction   `json:"function_call,omitempty"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Text returns the message content, or "" when it is null.
func (m Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// Raw returns the bytes the message was decoded from, if any.
func (m Message) Raw() json.RawMessage { return m.raw }

// System returns a system message.
func System(text string) Message { return Message{Role: RoleSystem, Content: &text} }

// User returns a user message.
func User(text string) Message { return Message{Role: RoleUser, Content: &text} }

// Tool returns a tool-role reply to the call identified by callID.
func Tool(callID, name, content string) Message {
	return Message{Role: RoleTool, ToolCallID: callID, Name: name, Content: &content}
}

// Assistant returns an assistant text message.
func Assistant(text string) Message { return Message{Role: RoleAssistant, Content: &text} }

// Decode parses one message and remembers its encoding for verbatim replay.
func Decode(b []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return Message{}, err
	}
	return m, nil
}

// MarshalJSON replays the original encoding when one was captured.
func (m Message) MarshalJSON() ([]byte, error) {
	if len(m.raw) > 0 {
		return m.raw, nil
	}
	type plain Message
	return json.Marshal(plain(m))
}

// UnmarshalJSON decodes m and keeps a copy of b.
func (m *Message) UnmarshalJSON(b []byte) error {
	var w wireMessage
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	out := Message{Role: w.Role, Name: w.Name, ToolCallID: w.ToolCallID}

	if len(w.Content) > 0 && string(w.Content) != "null" {
		var s string
		if err := json.Unmarshal(w.Content, &s); err != nil {
			// Some servers send content parts; keep their JSON text.
			s = string(w.Content)
		}
		out.Content = &s
	}
	for _, tc := range w.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:       tc.ID,
			Type:     tc.Type,
			Function: FunctionCall{Name: tc.Function.Name, Arguments: argumentsText(tc.Function.Arguments)},
		})
	}
	if w.FunctionCall != nil {
		out.FunctionCall = &FunctionCall{Name: w.FunctionCall.Name, Arguments: argumentsText(w.FunctionCall.Arguments)}
	}
	out.raw = append(json.RawMessage(nil), b...)
	*m = out
	return nil
}

func argumentsText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func (m Message) String() string {
	return fmt.Sprintf("[%s] %s", m.Role, m.Text())
}
