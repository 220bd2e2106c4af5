// Package mcpserver exposes the tool catalog as a Model Context Protocol
// server so MCP clients can call the same handlers the conversation loop
// uses.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/petasbytes/localmind/tools"
)

// Name and Version identify the server during the MCP handshake.
const (
	Name    = "localmind"
	Version = "0.1.0"
)

var emptySchema = json.RawMessage(`{"type":"object","properties":{}}`)

// Dispatcher runs tools by name. *dispatch.Dispatcher satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, raw any) tools.Envelope
	Specs() []tools.Spec
}

// New builds an MCP server with one tool per catalog entry of d.
func New(d Dispatcher, log zerolog.Logger) (*server.MCPServer, error) {
	s := server.NewMCPServer(Name, Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	for _, spec := range d.Specs() {
		schema := emptySchema
		if spec.Parameters != nil {
			b, err := json.Marshal(spec.Parameters)
			if err != nil {
				return nil, err
			}
			schema = b
		}
		s.AddTool(mcp.NewToolWithRawSchema(spec.Name, spec.Description, schema), handler(d, spec.Name, log))
	}
	return s, nil
}

func handler(d Dispatcher, name string, log zerolog.Logger) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		env := d.Dispatch(ctx, name, req.GetRawArguments())
		text, err := json.Marshal(env)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		log.Debug().Str("tool", name).Bool("ok", env.OK).Msg("mcp call")

		var structured map[string]any
		if err := json.Unmarshal(text, &structured); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res := mcp.NewToolResultStructured(structured, string(text))
		res.IsError = !env.OK
		return res, nil
	}
}

// ServeStdio serves s over r and w until ctx is done or r is closed.
func ServeStdio(ctx context.Context, s *server.MCPServer, r io.Reader, w io.Writer) error {
	return server.NewStdioServer(s).Listen(ctx, r, w)
}
