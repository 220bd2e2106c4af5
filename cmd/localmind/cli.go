package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/pretty"

	"github.com/petasbytes/localmind/internal/api"
	"github.com/petasbytes/localmind/internal/mcpserver"
	"github.com/petasbytes/localmind/memory"
	"github.com/petasbytes/localmind/tools"
)

const usage = `localmind - read-only system assistant

Usage:
  localmind [ask] [flags] [question...]
  localmind serve [flags]
  localmind mcp [flags]
  localmind tools [flags]

Flags:
`

var commands = map[string]bool{"ask": true, "serve": true, "mcp": true, "tools": true}

type options struct {
	command    string
	configPath string
	verbose    bool
	transcript string
	json       bool
	addr       string
	args       []string
}

// parseArgs splits the subcommand from its flags. A missing or unknown
// first word means ask.
func parseArgs(args []string, stderr io.Writer) (options, error) {
	opts := options{command: "ask"}
	if len(args) > 0 && commands[args[0]] {
		opts.command = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet("localmind "+opts.command, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/localmind/config.toml)")
	fs.BoolVar(&opts.verbose, "verbose", false, "debug logging")
	fs.StringVar(&opts.transcript, "transcript", "", "ask: write the final transcript to this .json or .yaml file")
	fs.BoolVar(&opts.json, "json", false, "ask: print the full transcript as JSON")
	fs.StringVar(&opts.addr, "addr", "", "serve: listen address (overrides server.addr)")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	opts.args = fs.Args()
	return opts, nil
}

// readQuestion joins args, or reads one line from stdin when there are none.
func readQuestion(args []string, stdin io.Reader) (string, error) {
	q := strings.TrimSpace(strings.Join(args, " "))
	if q == "" {
		scanner := bufio.NewScanner(stdin)
		if scanner.Scan() {
			q = strings.TrimSpace(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("reading question: %w", err)
		}
	}
	if q == "" {
		return "", errors.New("no question given")
	}
	return q, nil
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}

	a, err := newApp(opts, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	switch opts.command {
	case "serve":
		err = a.serve(ctx, opts)
	case "mcp":
		err = a.serveMCP(ctx, stdin, stdout)
	case "tools":
		err = a.printTools(stdout)
	default:
		err = a.ask(ctx, opts, stdin, stdout)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	return 0
}

func (a *app) ask(ctx context.Context, opts options, stdin io.Reader, stdout io.Writer) error {
	question, err := readQuestion(opts.args, stdin)
	if err != nil {
		return err
	}
	res, runErr := a.runner.Ask(ctx, a.cfg.SystemPrompt(), question)
	if res == nil {
		return runErr
	}

	if opts.transcript != "" {
		if err := memory.SaveTranscript(opts.transcript, res.Messages); err != nil {
			a.log.Warn().Err(err).Str("path", opts.transcript).Msg("failed to save transcript")
		}
	}
	if opts.json {
		if err := writePretty(stdout, res.Messages); err != nil {
			return err
		}
	} else if res.Answer != "" {
		fmt.Fprintln(stdout, res.Answer)
	}
	return runErr
}

func (a *app) serve(ctx context.Context, opts options) error {
	addr := a.cfg.Server.Addr
	if opts.addr != "" {
		addr = opts.addr
	}
	srv := api.New(a.runner, a.dispatcher.Specs(), a.cfg.SystemPrompt(),
		api.WithLogger(a.log),
		api.WithCORSOrigin(a.cfg.Server.CORSOrigin),
	)
	return srv.ListenAndServe(ctx, addr)
}

func (a *app) serveMCP(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	s, err := mcpserver.New(a.dispatcher, a.log)
	if err != nil {
		return err
	}
	a.log.Info().Int("tools", len(a.dispatcher.Names())).Msg("mcp server on stdio")
	return mcpserver.ServeStdio(ctx, s, stdin, stdout)
}

func (a *app) printTools(stdout io.Writer) error {
	return writePretty(stdout, map[string]any{
		"version": tools.CatalogVersion,
		"tools":   a.dispatcher.Specs(),
	})
}

func writePretty(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(pretty.Pretty(b))
	return err
}
