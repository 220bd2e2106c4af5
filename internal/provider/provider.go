// Package provider sends a transcript to an inference server and returns
// the assistant message it produced.
//
// Every Model returns the assistant message in the chat-completions shape
// ({role, content, tool_calls}) so the rest of the program reads one format.
package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/petasbytes/localmind/memory"
	"github.com/petasbytes/localmind/tools"
)

// Request is one model turn.
type Request struct {
	Messages []memory.Message
	Tools    []tools.Spec
}

// Response carries the assistant message exactly as encoded.
type Response struct {
	Message json.RawMessage
}

// Model is an inference endpoint.
type Model interface {
	Chat(ctx context.Context, req Request) (*Response, error)
}

// TransportError reports an unreachable endpoint or a non-2xx reply.
// Callers decide whether to retry the turn.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Body != "":
		return fmt.Sprintf("inference endpoint returned %d: %s", e.StatusCode, e.Body)
	case e.StatusCode != 0:
		return fmt.Sprintf("inference endpoint returned %d", e.StatusCode)
	case e.Err != nil:
		return "inference endpoint: " + e.Err.Error()
	default:
		return "inference endpoint failed"
	}
}

func (e *TransportError) Unwrap() error { return e.Err }
