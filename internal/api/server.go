// Package api serves the conversation loop over HTTP.
//
// Routes:
//
//	POST /chat     {messages:[...]} -> {messages, answer_markdown}
//	GET  /healthz  -> {ok:true}
//	GET  /tools    -> tool catalog
//
// Every response carries CORS headers; OPTIONS preflights get 204.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/petasbytes/localmind/internal/provider"
	"github.com/petasbytes/localmind/internal/runner"
	"github.com/petasbytes/localmind/memory"
	"github.com/petasbytes/localmind/tools"
)

const maxRequestBytes = 4 << 20

// Conversation runs the loop over a transcript. *runner.Runner satisfies it.
type Conversation interface {
	Run(ctx context.Context, t *memory.Transcript) (*runner.Result, error)
}

// Server holds the HTTP handlers.
type Server struct {
	conv         Conversation
	specs        []tools.Spec
	systemPrompt string
	corsOrigin   string
	log          zerolog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l zerolog.Logger) Option { return func(s *Server) { s.log = l } }

// WithCORSOrigin sets Access-Control-Allow-Origin. Default "*".
func WithCORSOrigin(origin string) Option { return func(s *Server) { s.corsOrigin = origin } }

// New returns a Server answering with conv. specs is the catalog served on
// /tools; systemPrompt is prepended to every /chat transcript.
func New(conv Conversation, specs []tools.Spec, systemPrompt string, opts ...Option) *Server {
	s := &Server{
		conv:         conv,
		specs:        specs,
		systemPrompt: systemPrompt,
		corsOrigin:   "*",
		log:          zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the routed handler with CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /tools", s.handleTools)
	return s.logRequests(s.cors(mux))
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info().Str("addr", addr).Msg("api listening")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type chatRequest struct {
	Messages []memory.Message `json:"messages"`
}

type chatResponse struct {
	Messages       []memory.Message `json:"messages"`
	AnswerMarkdown string           `json:"answer_markdown"`
}

type errorResponse struct {
	Error    string           `json:"error"`
	Messages []memory.Message `json:"messages,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if err := validateMessages(req.Messages); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	msgs := append([]memory.Message{memory.System(s.systemPrompt)}, req.Messages...)
	res, err := s.conv.Run(r.Context(), memory.FromMessages(msgs))
	if err != nil {
		status := statusFor(err)
		s.log.Warn().Err(err).Int("status", status).Msg("chat failed")
		body := errorResponse{Error: err.Error()}
		if status == http.StatusUnprocessableEntity && res != nil {
			body.Messages = res.Messages
		}
		writeJSON(w, status, body)
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Messages: res.Messages, AnswerMarkdown: res.Answer})
}

func validateMessages(msgs []memory.Message) error {
	if len(msgs) == 0 {
		return errors.New("messages: at least one message is required")
	}
	for i, m := range msgs {
		switch m.Role {
		case memory.RoleSystem, memory.RoleUser, memory.RoleAssistant, memory.RoleTool:
		default:
			return fmt.Errorf("messages[%d]: unknown role %q", i, m.Role)
		}
	}
	return nil
}

func statusFor(err error) int {
	var te *provider.TransportError
	switch {
	case errors.As(err, &te):
		return http.StatusBadGateway
	case errors.Is(err, runner.ErrMaxTurnsExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version": tools.CatalogVersion,
		"tools":   s.specs,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
