package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/petasbytes/localmind/memory"
)

// DefaultBaseURL is a local Ollama server.
const DefaultBaseURL = "http://127.0.0.1:11434"

// maxErrorBody bounds the response text kept in a TransportError.
const maxErrorBody = 2048

// OpenAI talks to any server exposing /v1/chat/completions.
type OpenAI struct {
	BaseURL     string
	Model       string
	Temperature float64
	// ToolChoice is sent verbatim when non-empty ("required", "auto", ...).
	ToolChoice string
	HTTPClient *http.Client
	Log        zerolog.Logger
}

// NewOpenAI returns a client for model at baseURL with a per-request
// timeout.
func NewOpenAI(baseURL, model string, timeout time.Duration) *OpenAI {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OpenAI{
		BaseURL:    baseURL,
		Model:      model,
		ToolChoice: "required",
		HTTPClient: &http.Client{Timeout: timeout},
		Log:        zerolog.Nop(),
	}
}

// Endpoint returns the chat completions URL.
func (c *OpenAI) Endpoint() string {
	return strings.TrimRight(c.BaseURL, "/") + "/v1/chat/completions"
}

// Chat sends one non-streaming completion request.
func (c *OpenAI) Chat(ctx context.Context, req Request) (*Response, error) {
	body, err := c.requestBody(req)
	if err != nil {
		return nil, err
	}
	if ev := c.Log.Debug(); ev.Enabled() {
		ev.RawJSON("request", pretty.Pretty(body)).Msg("chat request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: clip(data)}
	}
	if !gjson.ValidBytes(data) {
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: clip(data), Err: errors.New("response is not JSON")}
	}
	if ev := c.Log.Debug(); ev.Enabled() {
		ev.RawJSON("response", pretty.Pretty(data)).Msg("chat response")
	}

	msg := gjson.GetBytes(data, "choices.0.message")
	if !msg.IsObject() {
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: clip(data), Err: errors.New("response has no choices[0].message")}
	}
	raw := []byte(msg.Raw)
	if !gjson.GetBytes(raw, "role").Exists() {
		raw, _ = sjson.SetBytes(raw, "role", "assistant")
	}
	return &Response{Message: json.RawMessage(raw)}, nil
}

// requestBody assembles the chat completions payload.
func (c *OpenAI) requestBody(req Request) ([]byte, error) {
	msgs := req.Messages
	if msgs == nil {
		msgs = []memory.Message{}
	}
	encoded, err := json.Marshal(msgs)
	if err != nil {
		return nil, fmt.Errorf("encode messages: %w", err)
	}

	body := []byte(`{}`)
	body, err = sjson.SetBytes(body, "model", c.Model)
	if err != nil {
		return nil, err
	}
	if body, err = sjson.SetRawBytes(body, "messages", encoded); err != nil {
		return nil, err
	}
	if len(req.Tools) > 0 {
		for i, spec := range req.Tools {
			fn, err := json.Marshal(spec)
			if err != nil {
				return nil, fmt.Errorf("encode tool %s: %w", spec.Name, err)
			}
			if body, err = sjson.SetBytes(body, fmt.Sprintf("tools.%d.type", i), "function"); err != nil {
				return nil, err
			}
			if body, err = sjson.SetRawBytes(body, fmt.Sprintf("tools.%d.function", i), fn); err != nil {
				return nil, err
			}
		}
		if c.ToolChoice != "" {
			if body, err = sjson.SetBytes(body, "tool_choice", c.ToolChoice); err != nil {
				return nil, err
			}
		}
	}
	if body, err = sjson.SetBytes(body, "temperature", c.Temperature); err != nil {
		return nil, err
	}
	return sjson.SetBytes(body, "stream", false)
}

func clip(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody] + "..."
	}
	return s
}
