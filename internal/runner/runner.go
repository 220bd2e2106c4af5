package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/petasbytes/localmind/internal/callshape"
	"github.com/petasbytes/localmind/internal/metrics"
	"github.com/petasbytes/localmind/internal/provider"
	"github.com/petasbytes/localmind/internal/telemetry"
	"github.com/petasbytes/localmind/internal/windowing"
	"github.com/petasbytes/localmind/memory"
	"github.com/petasbytes/localmind/tools"
)

// ErrMaxTurnsExceeded ends a conversation whose model keeps requesting
// tools after the configured number of model calls.
var ErrMaxTurnsExceeded = errors.New("maximum turns exceeded")

// ErrWindowTooSmall means the newest message group does not fit the token
// budget, so no request was sent.
var ErrWindowTooSmall = errors.New("newest message group exceeds token budget")

// Defaults.
const (
	DefaultMaxTurns           = 8
	DefaultMaxToolResultChars = 120_000
)

// State is a conversation loop state.
type State int

const (
	StateAwaitModel State = iota
	StateExecuteTools
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitModel:
		return "AWAIT_MODEL"
	case StateExecuteTools:
		return "EXECUTE_TOOLS"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Dispatcher runs tool calls. *dispatch.Dispatcher satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, name string, raw any) tools.Envelope
	Specs() []tools.Spec
}

// Config bounds a conversation.
type Config struct {
	// MaxTurns caps model calls per conversation.
	MaxTurns int
	// MaxToolResultChars caps the runes of each tool message.
	MaxToolResultChars int
	// ParallelTools runs the calls of one turn concurrently.
	ParallelTools bool
	// TokenBudget windows the transcript sent each turn; 0 sends it all.
	TokenBudget int
}

// Runner owns the loop. It holds no per-conversation state and may run
// several conversations at once.
type Runner struct {
	model   provider.Model
	tools   Dispatcher
	cfg     Config
	log     zerolog.Logger
	rec     *telemetry.Recorder
	counter windowing.TokenCounter
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the diagnostic logger.
func WithLogger(l zerolog.Logger) Option { return func(r *Runner) { r.log = l } }

// WithRecorder enables conversation events.
func WithRecorder(rec *telemetry.Recorder) Option { return func(r *Runner) { r.rec = rec } }

// WithCounter replaces the token estimator used for windowing.
func WithCounter(c windowing.TokenCounter) Option { return func(r *Runner) { r.counter = c } }

// New returns a Runner. Zero Config fields take the defaults.
func New(model provider.Model, d Dispatcher, cfg Config, opts ...Option) *Runner {
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.MaxToolResultChars <= 0 {
		cfg.MaxToolResultChars = DefaultMaxToolResultChars
	}
	r := &Runner{
		model:   model,
		tools:   d,
		cfg:     cfg,
		log:     zerolog.Nop(),
		counter: windowing.HeuristicCounter{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Result is the outcome of a conversation. On error it still carries the
// transcript as far as it got.
type Result struct {
	Messages []memory.Message
	Answer   string
	Turns    int
	State    State
}

// Ask starts a conversation from a system prompt and one question.
func (r *Runner) Ask(ctx context.Context, systemPrompt, question string) (*Result, error) {
	return r.Run(ctx, memory.NewTranscript(systemPrompt, question))
}

// Run continues the conversation in t until the model stops requesting
// tools. t is appended to in place.
func (r *Runner) Run(ctx context.Context, t *memory.Transcript) (*Result, error) {
	if _, ok := telemetry.ConversationIDFromContext(ctx); !ok {
		ctx = telemetry.WithConversationID(ctx, telemetry.NewID())
	}
	r.rec.ConversationStarted(ctx, lastUserText(t), t.Len())

	start := time.Now()
	res, err := r.loop(ctx, t)
	res.Messages = t.Messages()

	fields := telemetry.Fields(ctx)
	fields["turns"] = res.Turns
	fields["messages"] = t.Len()
	fields["duration_ms"] = time.Since(start).Milliseconds()
	fields["outcome"] = outcome(err)
	r.rec.Emit("conversation_done", fields)

	return res, err
}

func (r *Runner) loop(ctx context.Context, t *memory.Transcript) (*Result, error) {
	res := &Result{State: StateAwaitModel}
	var calls []callshape.Invocation
	turnCtx := ctx

	for {
		r.log.Debug().Stringer("state", res.State).Int("turn", res.Turns).Msg("conversation step")

		switch res.State {
		case StateAwaitModel:
			if res.Turns >= r.cfg.MaxTurns {
				return res, fmt.Errorf("%w: model still requesting tools after %d turns", ErrMaxTurnsExceeded, r.cfg.MaxTurns)
			}
			res.Turns++
			turnCtx = telemetry.WithTurnID(ctx, telemetry.NewID())
			var err error
			calls, err = r.awaitModel(turnCtx, t, res.Turns)
			if err != nil {
				return res, err
			}
			if len(calls) == 0 {
				res.State = StateDone
			} else {
				res.State = StateExecuteTools
			}

		case StateExecuteTools:
			for _, m := range r.executeTools(turnCtx, calls) {
				t.Append(m)
			}
			calls = nil
			res.State = StateAwaitModel

		case StateDone:
			if last, ok := t.Last(); ok && last.Role == memory.RoleAssistant {
				res.Answer = strings.TrimSpace(last.Text())
			}
			return res, nil
		}
	}
}

// awaitModel sends the transcript, appends the reply and returns the calls
// it requests.
func (r *Runner) awaitModel(ctx context.Context, t *memory.Transcript, turn int) ([]callshape.Invocation, error) {
	send := t.Messages()
	if r.cfg.TokenBudget > 0 {
		window, stats := windowing.PrepareSendWindow(send, r.cfg.TokenBudget, r.counter)
		fields := telemetry.Fields(ctx)
		fields["budget"] = stats.Budget
		fields["total_estimated"] = stats.Total
		fields["pinned"] = stats.Pinned
		fields["included_groups"] = stats.IncludedGroups
		fields["skipped_groups"] = stats.SkippedGroups
		fields["over_budget_newest"] = stats.OverBudgetNewest
		r.rec.Emit("window_prepared", fields)
		r.log.Debug().
			Int("budget", stats.Budget).
			Int("est_total", stats.Total).
			Int("groups_in", stats.IncludedGroups).
			Int("groups_skip", stats.SkippedGroups).
			Msg("window prepared")
		if stats.OverBudgetNewest {
			return nil, fmt.Errorf("%w (%d); raise loop.token_budget or lower loop.max_tool_result_chars", ErrWindowTooSmall, r.cfg.TokenBudget)
		}
		send = window
	}

	start := time.Now()
	resp, err := r.model.Chat(ctx, provider.Request{Messages: send, Tools: r.tools.Specs()})
	if err != nil {
		return nil, err
	}
	msg, err := memory.Decode(resp.Message)
	if err != nil {
		return nil, fmt.Errorf("decode assistant message: %w", err)
	}
	t.Append(msg)

	calls, shape := callshape.Extract(resp.Message)
	for _, c := range calls {
		r.log.Debug().Str("id", c.ID).Str("tool", c.Name).Str("shape", shape).Msg("tool call requested")
	}

	fields := telemetry.Fields(ctx)
	fields["turn_index"] = turn
	fields["messages"] = len(send)
	fields["duration_ms"] = time.Since(start).Milliseconds()
	fields["tool_calls"] = len(calls)
	fields["shape"] = shape
	r.rec.Emit("model_turn", fields)

	return calls, nil
}

// executeTools dispatches calls and returns their tool messages in request
// order.
func (r *Runner) executeTools(ctx context.Context, calls []callshape.Invocation) []memory.Message {
	out := make([]memory.Message, len(calls))
	run := func(i int) {
		c := calls[i]
		env := r.tools.Dispatch(ctx, c.Name, c.RawArguments)
		content := metrics.Truncate(encodeEnvelope(env), r.cfg.MaxToolResultChars)
		r.log.Debug().
			Str("id", c.ID).
			Str("tool", c.Name).
			Bool("ok", env.OK).
			Str("preview", metrics.Truncate(content, 200)).
			Msg("tool result")
		out[i] = memory.Tool(c.ID, c.Name, content)
	}

	if !r.cfg.ParallelTools || len(calls) < 2 {
		for i := range calls {
			run(i)
		}
		return out
	}

	var wg sync.WaitGroup
	for i := range calls {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			run(i)
		}(i)
	}
	wg.Wait()
	return out
}

// encodeEnvelope serializes env, reporting unserializable results as a
// failure envelope.
func encodeEnvelope(env tools.Envelope) string {
	b, err := json.Marshal(env)
	if err != nil {
		b, _ = json.Marshal(tools.Failure("result not serializable: " + err.Error()))
	}
	return string(b)
}

func lastUserText(t *memory.Transcript) string {
	msgs := t.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == memory.RoleUser {
			return msgs[i].Text()
		}
	}
	return ""
}

func outcome(err error) string {
	var te *provider.TransportError
	switch {
	case err == nil:
		return "done"
	case errors.Is(err, ErrMaxTurnsExceeded):
		return "max_turns"
	case errors.Is(err, ErrWindowTooSmall):
		return "window"
	case errors.As(err, &te):
		return "transport"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}
