// Package config loads LocalMind settings from a TOML file, applies
// environment overrides once, and validates the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/petasbytes/localmind/internal/paths"
)

// DefaultSystemPrompt is used when the prompt file cannot be read.
const DefaultSystemPrompt = "You are LocalMind, a read-only system assistant."

var envVarRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Provider:    "openai",
			BaseURL:     "http://127.0.0.1:11434",
			Name:        "llama3.1:8b-instruct-q8_0",
			Timeout:     "120s",
			Temperature: 0.0,
			MaxTokens:   1024,
			ToolChoice:  "required",
		},
		Loop: LoopConfig{
			MaxTurns:           8,
			MaxToolResultChars: 120_000,
			ToolTimeout:        "90s",
		},
		Log:              LogConfig{Level: "info", Format: "auto"},
		Telemetry:        TelemetryConfig{Dir: ".localmind"},
		Server:           ServerConfig{Addr: "127.0.0.1:8765", CORSOrigin: "*"},
		SystemPromptFile: "system_prompt.txt",
	}
}

// Load reads the default config file.
func Load() (*Config, error) {
	return LoadFrom(paths.ConfigFile())
}

// LoadFrom reads path over the defaults, expands ${VAR} placeholders and
// applies environment overrides. A missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
		cfg.path = path
	}
	expandConfigEnvVars(cfg)
	applyEnv(cfg)
	return cfg, nil
}

// Path returns the file the config was read from, or "".
func (c *Config) Path() string { return c.path }

// applyEnv applies the supported environment overrides.
func applyEnv(cfg *Config) {
	if v := os.Getenv("OLLAMA_URL"); v != "" {
		cfg.Model.BaseURL = v
	}
	if v := os.Getenv("LOCALMIND_MODEL"); v != "" {
		cfg.Model.Name = v
	}
	switch strings.ToLower(os.Getenv("LOCALMIND_DEBUG")) {
	case "1", "true", "yes", "on":
		cfg.Log.Verbose = true
	}
}

func expandConfigEnvVars(cfg *Config) {
	cfg.Model.BaseURL = expandEnvVars(cfg.Model.BaseURL)
	cfg.Model.Name = expandEnvVars(cfg.Model.Name)
	cfg.Telemetry.Dir = expandEnvVars(cfg.Telemetry.Dir)
	cfg.Server.Addr = expandEnvVars(cfg.Server.Addr)
	cfg.SystemPromptFile = expandEnvVars(cfg.SystemPromptFile)
	for i := range cfg.Scan.DefaultRoots {
		cfg.Scan.DefaultRoots[i] = expandEnvVars(cfg.Scan.DefaultRoots[i])
	}
}

// expandEnvVars replaces ${VAR_NAME} with the value of the environment variable.
func expandEnvVars(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarRe.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match // leave unresolved vars as-is
	})
}

// ModelTimeout returns model.timeout; call Validate first.
func (c *Config) ModelTimeout() time.Duration { return mustDuration(c.Model.Timeout) }

// ToolTimeout returns loop.tool_timeout; call Validate first.
func (c *Config) ToolTimeout() time.Duration { return mustDuration(c.Loop.ToolTimeout) }

func mustDuration(s string) time.Duration {
	if s == "" {
		return 0
	}
	d, _ := time.ParseDuration(s)
	return d
}

// SystemPrompt reads the prompt file, resolved next to the config file when
// relative, and falls back to DefaultSystemPrompt.
func (c *Config) SystemPrompt() string {
	p := c.SystemPromptFile
	if p == "" {
		return DefaultSystemPrompt
	}
	if c.path != "" {
		p = paths.Resolve(filepath.Dir(c.path), p)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		return DefaultSystemPrompt
	}
	if s := strings.TrimSpace(string(b)); s != "" {
		return s
	}
	return DefaultSystemPrompt
}
