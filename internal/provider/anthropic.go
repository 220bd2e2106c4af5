package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/petasbytes/localmind/memory"
	"github.com/petasbytes/localmind/tools"
)

const DefaultAnthropicModel = anthropic.ModelClaude3_7SonnetLatest

// Anthropic adapts the Messages API to the chat-completions message shape.
type Anthropic struct {
	Client      *anthropic.Client
	Model       anthropic.Model
	MaxTokens   int64
	Temperature float64
	// RequireTool forces a tool call each turn, like tool_choice "required".
	RequireTool bool
	Log         zerolog.Logger
}

// NewAnthropicClient returns a client using the API key from the env.
func NewAnthropicClient(opts ...option.RequestOption) *anthropic.Client {
	c := anthropic.NewClient(opts...)
	return &c
}

// NewAnthropic returns an adapter for model. An empty model selects
// DefaultAnthropicModel.
func NewAnthropic(client *anthropic.Client, model string, maxTokens int64) *Anthropic {
	m := anthropic.Model(model)
	if model == "" {
		m = DefaultAnthropicModel
	}
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &Anthropic{Client: client, Model: m, MaxTokens: maxTokens, Log: zerolog.Nop()}
}

// Chat converts the transcript, sends one Messages request and returns the
// reply as a chat-completions assistant message.
func (a *Anthropic) Chat(ctx context.Context, req Request) (*Response, error) {
	system, msgs := anthropicMessages(req.Messages)
	params := anthropic.MessageNewParams{
		Model:       a.Model,
		MaxTokens:   a.MaxTokens,
		Messages:    msgs,
		System:      system,
		Temperature: anthropic.Float(a.Temperature),
	}
	if len(req.Tools) > 0 {
		params.Tools = anthropicTools(req.Tools)
		if a.RequireTool {
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}
		}
	}

	msg, err := a.Client.Messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, &TransportError{StatusCode: apiErr.StatusCode, Err: err}
		}
		return nil, &TransportError{Err: err}
	}

	out, err := canonicalMessage(msg)
	if err != nil {
		return nil, err
	}
	if ev := a.Log.Debug(); ev.Enabled() {
		ev.RawJSON("response", pretty.Pretty(out)).Msg("chat response")
	}
	return &Response{Message: out}, nil
}

func anthropicTools(specs []tools.Spec) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, s := range specs {
		schema := anthropic.ToolInputSchemaParam{}
		if s.Parameters != nil {
			schema.Properties = s.Parameters.Properties
			schema.Required = s.Parameters.Required
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        s.Name,
			Description: anthropic.String(s.Description),
			InputSchema: schema,
		}})
	}
	return out
}

// anthropicMessages splits out system text and folds consecutive messages
// of the same Anthropic role into one, so tool replies to one assistant turn
// travel together. A tool reply whose id the preceding assistant turn did
// not declare as a tool_use block (calls parsed from text) is sent as user
// text instead of a tool_result.
func anthropicMessages(msgs []memory.Message) ([]anthropic.TextBlockParam, []anthropic.MessageParam) {
	var system []anthropic.TextBlockParam
	var out []anthropic.MessageParam
	// tool_use ids of the latest assistant turn not yet answered.
	pending := map[string]bool{}

	add := func(role anthropic.MessageParamRole, blocks ...anthropic.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, blocks...)
			return
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: blocks})
	}

	for _, m := range msgs {
		switch m.Role {
		case memory.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Text()})
		case memory.RoleUser:
			add(anthropic.MessageParamRoleUser, anthropic.NewTextBlock(m.Text()))
		case memory.RoleTool:
			if pending[m.ToolCallID] {
				delete(pending, m.ToolCallID)
				add(anthropic.MessageParamRoleUser, anthropic.NewToolResultBlock(m.ToolCallID, m.Text(), false))
				continue
			}
			add(anthropic.MessageParamRoleUser, anthropic.NewTextBlock(fmt.Sprintf("Result of %s: %s", m.Name, m.Text())))
		case memory.RoleAssistant:
			clear(pending)
			var blocks []anthropic.ContentBlockParamUnion
			if t := m.Text(); t != "" {
				blocks = append(blocks, anthropic.NewTextBlock(t))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, toolInput(tc.Function.Arguments), tc.Function.Name))
				pending[tc.ID] = true
			}
			if len(m.ToolCalls) == 0 && m.FunctionCall != nil {
				blocks = append(blocks, anthropic.NewToolUseBlock("func_0", toolInput(m.FunctionCall.Arguments), m.FunctionCall.Name))
				pending["func_0"] = true
			}
			add(anthropic.MessageParamRoleAssistant, blocks...)
		}
	}
	return system, out
}

// toolInput returns arguments as a JSON object, or an empty object when
// they are not one.
func toolInput(args string) json.RawMessage {
	if gjson.Valid(args) && gjson.Parse(args).IsObject() {
		return json.RawMessage(args)
	}
	return json.RawMessage(`{}`)
}

// canonicalMessage rewrites a Messages API reply as
// {"role":"assistant","content":...,"tool_calls":[...]}.
func canonicalMessage(msg *anthropic.Message) (json.RawMessage, error) {
	out := []byte(`{"role":"assistant","content":null}`)
	var text string
	var err error
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			text += v.Text
		case anthropic.ToolUseBlock:
			args := v.JSON.Input.Raw()
			if args == "" {
				args = "{}"
			}
			call := map[string]any{
				"id":   v.ID,
				"type": "function",
				"function": map[string]any{
					"name":      v.Name,
					"arguments": args,
				},
			}
			if out, err = sjson.SetBytes(out, "tool_calls.-1", call); err != nil {
				return nil, err
			}
		}
	}
	if text != "" {
		if out, err = sjson.SetBytes(out, "content", text); err != nil {
			return nil, err
		}
	}
	return json.RawMessage(out), nil
}
