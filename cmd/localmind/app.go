package main

import (
	"io"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/petasbytes/localmind/internal/config"
	"github.com/petasbytes/localmind/internal/dispatch"
	"github.com/petasbytes/localmind/internal/provider"
	"github.com/petasbytes/localmind/internal/runner"
	"github.com/petasbytes/localmind/internal/sysinfo"
	"github.com/petasbytes/localmind/internal/telemetry"
	"github.com/petasbytes/localmind/tools"
)

// app wires the configured components for one command.
type app struct {
	cfg        *config.Config
	log        zerolog.Logger
	dispatcher *dispatch.Dispatcher
	runner     *runner.Runner
}

func newApp(opts options, stderr io.Writer) (*app, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFrom(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if opts.verbose {
		cfg.Log.Verbose = true
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	log := newLogger(cfg, stderr)
	if p := cfg.Path(); p != "" {
		log.Debug().Str("path", p).Msg("config loaded")
	}

	var rec *telemetry.Recorder
	if cfg.Telemetry.Enabled {
		rec = telemetry.New(cfg.Telemetry.Dir, log)
	}

	env := tools.Env{Host: sysinfo.New()}
	if roots := cfg.Scan.DefaultRoots; len(roots) > 0 {
		env.DefaultRoots = func() []string { return roots }
	}
	d := dispatch.New(tools.Registry(env),
		dispatch.WithTimeout(cfg.ToolTimeout()),
		dispatch.WithLogger(log),
		dispatch.WithRecorder(rec),
	)

	r := runner.New(newModel(cfg, log), d, runner.Config{
		MaxTurns:           cfg.Loop.MaxTurns,
		MaxToolResultChars: cfg.Loop.MaxToolResultChars,
		ParallelTools:      cfg.Loop.ParallelTools,
		TokenBudget:        cfg.Loop.TokenBudget,
	}, runner.WithLogger(log), runner.WithRecorder(rec))

	return &app{cfg: cfg, log: log, dispatcher: d, runner: r}, nil
}

func newModel(cfg *config.Config, log zerolog.Logger) provider.Model {
	m := cfg.Model
	if m.Provider == "anthropic" {
		client := provider.NewAnthropicClient(option.WithRequestTimeout(cfg.ModelTimeout()))
		a := provider.NewAnthropic(client, m.Name, m.MaxTokens)
		a.Temperature = m.Temperature
		a.RequireTool = m.ToolChoice == "required"
		a.Log = log
		return a
	}
	c := provider.NewOpenAI(m.BaseURL, m.Name, cfg.ModelTimeout())
	c.Temperature = m.Temperature
	c.ToolChoice = m.ToolChoice
	c.Log = log
	return c
}

// newLogger writes to stderr: a console writer on a terminal, JSON
// otherwise, unless log.format forces one.
func newLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	console := cfg.Log.Format == "console"
	if cfg.Log.Format == "" || cfg.Log.Format == "auto" {
		if f, ok := w.(*os.File); ok {
			console = isatty.IsTerminal(f.Fd())
		}
	}
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(cfg.Level()).With().Timestamp().Logger()
}
