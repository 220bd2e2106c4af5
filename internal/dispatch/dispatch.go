// Package dispatch resolves tool calls by name, normalizes their arguments,
// and runs handlers behind a uniform result envelope.
//
// Dispatch never returns a Go error and never panics: unknown tools,
// argument failures and handler failures all come back as
// tools.Envelope{OK: false}.
package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/rs/zerolog"

	"github.com/petasbytes/localmind/internal/argnorm"
	"github.com/petasbytes/localmind/internal/safety"
	"github.com/petasbytes/localmind/internal/sysinfo"
	"github.com/petasbytes/localmind/internal/telemetry"
	"github.com/petasbytes/localmind/tools"
)

// Error kinds reported in "<tool> failed: <kind>: <detail>".
const (
	KindUnsupported     = "unsupported"
	KindTimeout         = "timeout"
	KindNotFound        = "not_found"
	KindPermission      = "permission"
	KindInvalidArgument = "invalid_argument"
	KindPanic           = "panic"
	KindError           = "error"
)

// Dispatcher maps tool names to handlers. It is safe for concurrent use.
type Dispatcher struct {
	defs       map[string]tools.ToolDefinition
	order      []string
	normalizer *argnorm.Normalizer
	root       string
	timeout    time.Duration
	log        zerolog.Logger
	rec        *telemetry.Recorder
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout bounds each handler call. Zero leaves handlers to bound
// themselves.
func WithTimeout(d time.Duration) Option {
	return func(x *Dispatcher) { x.timeout = d }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l zerolog.Logger) Option {
	return func(x *Dispatcher) { x.log = l }
}

// WithRecorder enables tool_exec events.
func WithRecorder(r *telemetry.Recorder) Option {
	return func(x *Dispatcher) { x.rec = r }
}

// WithSystemRoot anchors relative path arguments somewhere other than the
// running system's root.
func WithSystemRoot(root string) Option {
	return func(x *Dispatcher) { x.root = root }
}

// New builds a Dispatcher over defs. Later definitions with a duplicate
// name replace earlier ones.
func New(defs []tools.ToolDefinition, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		defs: make(map[string]tools.ToolDefinition, len(defs)),
		root: safety.SystemRoot(),
		log:  zerolog.Nop(),
	}
	for _, o := range opts {
		o(d)
	}
	for _, def := range defs {
		if _, dup := d.defs[def.Name]; !dup {
			d.order = append(d.order, def.Name)
		}
		d.defs[def.Name] = def
	}
	specs := make([]argnorm.Spec, 0, len(d.order))
	for _, name := range d.order {
		specs = append(specs, d.defs[name].ArgSpec())
	}
	d.normalizer = argnorm.New(specs, d.root)
	return d
}

// Names returns the registered tool names in registration order.
func (d *Dispatcher) Names() []string {
	return append([]string(nil), d.order...)
}

// Specs returns the advertised form of every registered tool.
func (d *Dispatcher) Specs() []tools.Spec {
	out := make([]tools.Spec, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.defs[name].Spec())
	}
	return out
}

// Lookup returns the definition registered under name.
func (d *Dispatcher) Lookup(name string) (tools.ToolDefinition, bool) {
	def, ok := d.defs[name]
	return def, ok
}

// Dispatch runs the named tool with raw model-supplied arguments.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, raw any) tools.Envelope {
	start := time.Now()
	env, kind := d.dispatch(ctx, name, raw)
	d.emit(ctx, name, raw, env, kind, time.Since(start))
	return env
}

func (d *Dispatcher) dispatch(ctx context.Context, name string, raw any) (tools.Envelope, string) {
	def, ok := d.defs[name]
	if !ok {
		return tools.Failure("unknown tool: " + name), "unknown_tool"
	}

	args, err := d.normalizer.Normalize(name, raw)
	if err != nil {
		return tools.Failure("arg normalization failed: " + err.Error()), "arg_normalization"
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	result, err := invoke(ctx, def.Handler, args)
	if err != nil {
		kind := Classify(err)
		return tools.Failure(fmt.Sprintf("%s failed: %s: %v", name, kind, err)), kind
	}
	switch v := result.(type) {
	case tools.Envelope:
		return v, reported(v)
	case *tools.Envelope:
		if v != nil {
			return *v, reported(*v)
		}
	}
	return tools.Success(result), ""
}

// reported is the telemetry kind of a handler-built envelope.
func reported(env tools.Envelope) string {
	if env.OK {
		return ""
	}
	return "reported"
}

// panicError carries a recovered handler panic.
type panicError struct{ v any }

func (p panicError) Error() string { return fmt.Sprint(p.v) }

func invoke(ctx context.Context, h tools.Handler, args argnorm.Args) (result any, err error) {
	if h == nil {
		return nil, errors.New("no handler")
	}
	defer func() {
		if v := recover(); v != nil {
			result, err = nil, panicError{v: v}
		}
	}()
	return h(ctx, args)
}

// Classify names the failure kind of a handler error.
func Classify(err error) string {
	var argErr *argnorm.ArgumentError
	var pe panicError
	switch {
	case errors.As(err, &pe):
		return KindPanic
	case errors.Is(err, sysinfo.ErrUnsupported):
		return KindUnsupported
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, fs.ErrNotExist):
		return KindNotFound
	case errors.Is(err, fs.ErrPermission):
		return KindPermission
	case errors.As(err, &argErr):
		return KindInvalidArgument
	default:
		return KindError
	}
}

func (d *Dispatcher) emit(ctx context.Context, name string, raw any, env tools.Envelope, kind string, elapsed time.Duration) {
	outSize := 0
	if b, err := json.Marshal(env); err == nil {
		outSize = len(b)
	}
	ev := d.log.Debug().Str("tool", name).Bool("ok", env.OK).Dur("elapsed", elapsed)
	if kind != "" {
		ev = ev.Str("kind", kind)
	}
	ev.Msg("tool dispatched")

	if !d.rec.Enabled() {
		return
	}
	fields := telemetry.Fields(ctx)
	fields["tool_name"] = name
	fields["duration_ms"] = elapsed.Milliseconds()
	fields["input_size"] = inputSize(raw)
	fields["output_size"] = outSize
	if kind != "" {
		fields["error"] = kind
	} else {
		fields["error"] = nil
	}
	d.rec.Emit("tool_exec", fields)
}

func inputSize(raw any) int {
	switch v := raw.(type) {
	case nil:
		return 0
	case string:
		return len(v)
	case []byte:
		return len(v)
	case json.RawMessage:
		return len(v)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return 0
	}
	return len(b)
}
