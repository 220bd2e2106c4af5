package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Validate checks configuration invariants and returns every problem found.
func Validate(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	var errs []error

	switch cfg.Model.Provider {
	case "openai", "anthropic":
	default:
		errs = append(errs, fmt.Errorf("model.provider: unknown provider %q (want openai or anthropic)", cfg.Model.Provider))
	}
	if cfg.Model.Name == "" && cfg.Model.Provider == "openai" {
		errs = append(errs, errors.New("model.name: required for provider openai"))
	}
	errs = append(errs, validateDuration("model.timeout", cfg.Model.Timeout))
	errs = append(errs, validateDuration("loop.tool_timeout", cfg.Loop.ToolTimeout))

	if cfg.Loop.MaxTurns <= 0 {
		errs = append(errs, fmt.Errorf("loop.max_turns: must be positive, got %d", cfg.Loop.MaxTurns))
	}
	if cfg.Loop.MaxToolResultChars <= 0 {
		errs = append(errs, fmt.Errorf("loop.max_tool_result_chars: must be positive, got %d", cfg.Loop.MaxToolResultChars))
	}
	if cfg.Loop.TokenBudget < 0 {
		errs = append(errs, fmt.Errorf("loop.token_budget: must not be negative, got %d", cfg.Loop.TokenBudget))
	}

	switch cfg.Log.Format {
	case "", "auto", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q (want auto, console or json)", cfg.Log.Format))
	}
	if cfg.Log.Level != "" {
		if _, err := zerolog.ParseLevel(cfg.Log.Level); err != nil {
			errs = append(errs, fmt.Errorf("log.level: %w", err))
		}
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.Dir == "" {
		errs = append(errs, errors.New("telemetry.dir: required when telemetry is enabled"))
	}

	return errors.Join(errs...)
}

func validateDuration(field, s string) error {
	if s == "" {
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%s: invalid duration %q", field, s)
	}
	if d < 0 {
		return fmt.Errorf("%s: must not be negative", field)
	}
	return nil
}

// Level returns the effective log level: debug when verbose.
func (c *Config) Level() zerolog.Level {
	if c.Log.Verbose {
		return zerolog.DebugLevel
	}
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || c.Log.Level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
