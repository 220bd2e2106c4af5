// Package telemetry appends structured events to a local JSON Lines file.
//
// Events never carry raw user text or tool arguments; callers pass sizes,
// durations, names and ids. Correlation ids travel in context.Context.
package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Recorder appends events to <dir>/events.jsonl. A nil *Recorder is valid
// and drops every event.
type Recorder struct {
	dir string
	log zerolog.Logger

	mu sync.Mutex
}

// New returns a Recorder writing under dir. Write failures are logged to
// log and otherwise ignored.
func New(dir string, log zerolog.Logger) *Recorder {
	return &Recorder{dir: dir, log: log}
}

// Enabled reports whether events are recorded.
func (r *Recorder) Enabled() bool { return r != nil }

// Path returns the events file path.
func (r *Recorder) Path() string {
	if r == nil {
		return ""
	}
	return filepath.Join(r.dir, "events.jsonl")
}

// Emit writes one JSON line. It augments fields with RFC3339Nano time and
// the event name.
func (r *Recorder) Emit(name string, fields map[string]any) {
	if r == nil {
		return
	}

	// Make a shallow copy so callers' maps aren't mutated.
	m := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		m[k] = v
	}
	m["time"] = time.Now().UTC().Format(time.RFC3339Nano)
	m["event"] = name

	b, err := json.Marshal(m)
	if err != nil {
		r.log.Warn().Err(err).Str("event", name).Msg("telemetry: marshal")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		r.log.Warn().Err(err).Str("dir", r.dir).Msg("telemetry: mkdir")
		return
	}
	f, err := os.OpenFile(r.Path(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		r.log.Warn().Err(err).Str("path", r.Path()).Msg("telemetry: open")
		return
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		r.log.Warn().Err(err).Str("path", r.Path()).Msg("telemetry: write")
	}
}
