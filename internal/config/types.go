package config

// Config is the full LocalMind configuration.
type Config struct {
	Model            ModelConfig     `toml:"model"`
	Loop             LoopConfig      `toml:"loop"`
	Log              LogConfig       `toml:"log"`
	Telemetry        TelemetryConfig `toml:"telemetry"`
	Server           ServerConfig    `toml:"server"`
	Scan             ScanConfig      `toml:"scan"`
	SystemPromptFile string          `toml:"system_prompt_file"`

	// path is the file the config was read from, "" for defaults.
	path string
}

// ModelConfig selects the inference endpoint.
type ModelConfig struct {
	Provider    string  `toml:"provider"` // "openai" or "anthropic"
	BaseURL     string  `toml:"base_url"`
	Name        string  `toml:"name"`
	Timeout     string  `toml:"timeout"`
	Temperature float64 `toml:"temperature"`
	MaxTokens   int64   `toml:"max_tokens"`
	ToolChoice  string  `toml:"tool_choice"`
}

// LoopConfig bounds each conversation.
type LoopConfig struct {
	MaxTurns           int    `toml:"max_turns"`
	MaxToolResultChars int    `toml:"max_tool_result_chars"`
	ParallelTools      bool   `toml:"parallel_tools"`
	TokenBudget        int    `toml:"token_budget"`
	ToolTimeout        string `toml:"tool_timeout"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Verbose bool   `toml:"verbose"`
	Level   string `toml:"level"`
	Format  string `toml:"format"` // auto, console or json
}

// TelemetryConfig controls the local event file.
type TelemetryConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// ServerConfig configures the HTTP front end.
type ServerConfig struct {
	Addr       string `toml:"addr"`
	CORSOrigin string `toml:"cors_origin"`
}

// ScanConfig configures filesystem tools.
type ScanConfig struct {
	DefaultRoots []string `toml:"default_roots"`
}
