package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"OLLAMA_URL", "LOCALMIND_MODEL", "LOCALMIND_DEBUG"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.NoError(t, Validate(cfg))
	require.Equal(t, 120*time.Second, cfg.ModelTimeout())
	require.Equal(t, 90*time.Second, cfg.ToolTimeout())
	require.Equal(t, "", cfg.Path())
}

func TestLoadFromOverlaysFileOnDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("LM_TEST_HOST", "gpu-box")
	path := writeConfig(t, `
[model]
base_url = "http://${LM_TEST_HOST}:11434"
name = "qwen2.5:14b"

[loop]
max_turns = 4
parallel_tools = true

[scan]
default_roots = ["${LM_TEST_HOST}/data", "${LM_TEST_UNSET}"]
`)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	require.Equal(t, "http://gpu-box:11434", cfg.Model.BaseURL)
	require.Equal(t, "qwen2.5:14b", cfg.Model.Name)
	require.Equal(t, "openai", cfg.Model.Provider)
	require.Equal(t, 4, cfg.Loop.MaxTurns)
	require.True(t, cfg.Loop.ParallelTools)
	require.Equal(t, 120_000, cfg.Loop.MaxToolResultChars)
	require.Equal(t, []string{"gpu-box/data", "${LM_TEST_UNSET}"}, cfg.Scan.DefaultRoots)
	require.Equal(t, path, cfg.Path())
}

func TestLoadFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OLLAMA_URL", "http://10.0.0.5:11434")
	t.Setenv("LOCALMIND_MODEL", "mistral")
	t.Setenv("LOCALMIND_DEBUG", "1")
	path := writeConfig(t, "[model]\nbase_url = \"http://ignored\"\n")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	require.Equal(t, "http://10.0.0.5:11434", cfg.Model.BaseURL)
	require.Equal(t, "mistral", cfg.Model.Name)
	require.True(t, cfg.Log.Verbose)
	require.Equal(t, zerolog.DebugLevel, cfg.Level())
}

func TestLoadFromRejectsMalformedTOML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "[model\nname = ")
	_, err := LoadFrom(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "parsing config")
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Model.Provider = "bard"
	cfg.Model.Timeout = "soon"
	cfg.Loop.MaxTurns = 0
	cfg.Loop.MaxToolResultChars = -1
	cfg.Loop.TokenBudget = -5
	cfg.Log.Format = "xml"
	cfg.Log.Level = "loud"

	err := Validate(cfg)
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		`model.provider: unknown provider "bard"`,
		`model.timeout: invalid duration "soon"`,
		"loop.max_turns: must be positive",
		"loop.max_tool_result_chars: must be positive",
		"loop.token_budget: must not be negative",
		`log.format: unknown format "xml"`,
		"log.level:",
	} {
		require.Contains(t, msg, want)
	}
	require.Len(t, strings.Split(msg, "\n"), 7)
}

func TestSystemPromptResolvesNextToConfig(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `system_prompt_file = "prompt.txt"`)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "prompt.txt"), []byte("  Be terse.\n"), 0o600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	require.Equal(t, "Be terse.", cfg.SystemPrompt())
}

func TestSystemPromptFallsBack(t *testing.T) {
	cfg := Default()
	cfg.SystemPromptFile = filepath.Join(t.TempDir(), "missing.txt")
	require.Equal(t, DefaultSystemPrompt, cfg.SystemPrompt())

	cfg.SystemPromptFile = ""
	require.Equal(t, DefaultSystemPrompt, cfg.SystemPrompt())
}

func TestLevelDefaultsToInfo(t *testing.T) {
	cfg := Default()
	require.Equal(t, zerolog.InfoLevel, cfg.Level())
	cfg.Log.Level = "warn"
	require.Equal(t, zerolog.WarnLevel, cfg.Level())
}
