package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config describes the top-level application configuration loaded from YAML and ENV.
type Config struct {
	Version   string                    `mapstructure:"version"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Models    map[string]ModelConfig    `mapstructure:"models"`
	Strategy  StrategyConfig            `mapstructure:"strategy"`
	Agent     AgentConfig               `mapstructure:"agent"`
	Memory    MemoryConfig              `mapstructure:"memory"`
	Roles     map[string]RoleConfig     `mapstructure:"roles"`
	Sandbox   SandboxConfig             `mapstructure:"sandbox"`
	Tools     ToolsConfig               `mapstructure:"tools"`
	Session   SessionConfig             `mapstructure:"session"`
	Logging   LoggingConfig             `mapstructure:"logging"`
	Server    ServerConfig              `mapstructure:"server"`
}

// ProviderConfig represents LLM provider configuration such as OpenAI, Ollama, or custom gateways.
type ProviderConfig struct {
	Type      string        `mapstructure:"type"`       // openai, openrouter, ollama, vllm, lmstudio, custom
	Model     string        `mapstructure:"model"`      // default model for the provider
	BaseURL   string        `mapstructure:"base_url"`   // API base URL
	APIKey    string        `mapstructure:"api_key"`    // optional API key
	Timeout   time.Duration `mapstructure:"timeout"`    // request timeout
	MaxTokens int           `mapstructure:"max_tokens"` // optional provider-level token cap
}

// ModelConfig binds a logical model name to a provider entry and model parameters.
type ModelConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Default     bool    `mapstructure:"default"`
	Expensive   bool    `mapstructure:"expensive"`
}

// StrategyConfig defines per-role model selections and fallbacks.
type StrategyConfig struct {
	DefaultModel string            `mapstructure:"default_model"`
	RoleModels   map[string]string `mapstructure:"role_models"`   // role key -> model id
	Fallbacks    []string          `mapstructure:"fallbacks"`     // ordered fallback model ids
	MaxExpensive int               `mapstructure:"max_expensive"` // limit expensive model uses per run (0=unlimited)
}

// AgentConfig describes execution loop runtime parameters.
type AgentConfig struct {
	MaxIterations      int     `mapstructure:"max_iterations"`
	MaxDelegationDepth int     `mapstructure:"max_delegation_depth"`
	ParallelTools      bool    `mapstructure:"parallel_tools"`
	MaxTokens          int     `mapstructure:"max_tokens"`
	Temperature        float64 `mapstructure:"temperature"`
	RolesFile          string  `mapstructure:"roles_file"` // optional YAML persona overrides
}

// MemoryConfig controls conversation compaction.
type MemoryConfig struct {
	Threshold       int    `mapstructure:"threshold"`   // estimated-token threshold
	KeepRecent      int    `mapstructure:"keep_recent"` // messages retained verbatim
	SummarizerModel string `mapstructure:"summarizer_model"`
}

// RoleConfig overrides persona, toolset, or model for a built-in role.
type RoleConfig struct {
	Persona string   `mapstructure:"persona" yaml:"persona"`
	Tools   []string `mapstructure:"tools" yaml:"tools"`
	Model   string   `mapstructure:"model" yaml:"model"`
}

// SandboxConfig controls command and filesystem restrictions.
type SandboxConfig struct {
	Enabled         bool     `mapstructure:"enabled"`
	AllowNetwork    bool     `mapstructure:"allow_network"`
	AllowWrite      bool     `mapstructure:"allow_write"`
	AllowedCommands []string `mapstructure:"allowed_commands"`
	DeniedCommands  []string `mapstructure:"denied_commands"`
	WorkspaceRoot   string   `mapstructure:"workspace_root"`
	TimeoutSeconds  int      `mapstructure:"timeout_seconds"`
}

// ToolsConfig configures tool behaviour.
type ToolsConfig struct {
	AllowExec          bool `mapstructure:"allow_exec"`
	AllowGit           bool `mapstructure:"allow_git"`
	AllowFileWrite     bool `mapstructure:"allow_file_write"`
	ExecTimeoutSeconds int  `mapstructure:"exec_timeout_seconds"`
}

// SessionConfig controls optional conversation persistence.
type SessionConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig controls logger behaviour.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
}

// ServerConfig describes daemon settings.
type ServerConfig struct {
	Addr           string `mapstructure:"addr"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
	Transport      string `mapstructure:"transport"` // connect or ndjson
}

// Load reads configuration from the provided path or defaults to configs/config.yaml.
// Environment variables override file values (prefix: CODEFORGE_, dots replaced with underscores).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CODEFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	} else {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && path == "" {
			v.SetConfigName("config.example")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults populates sensible defaults for optional fields.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("sandbox.enabled", true)
	v.SetDefault("sandbox.allow_network", false)
	v.SetDefault("sandbox.allow_write", true)
	v.SetDefault("sandbox.timeout_seconds", 120)

	v.SetDefault("tools.allow_exec", true)
	v.SetDefault("tools.allow_git", true)
	v.SetDefault("tools.allow_file_write", true)
	v.SetDefault("tools.exec_timeout_seconds", 120)

	v.SetDefault("agent.max_iterations", 10)
	v.SetDefault("agent.max_delegation_depth", 2)
	v.SetDefault("agent.parallel_tools", false)
	v.SetDefault("agent.max_tokens", 1024)
	v.SetDefault("agent.temperature", 0.2)
	v.SetDefault("agent.roles_file", "")

	v.SetDefault("memory.threshold", 6000)
	v.SetDefault("memory.keep_recent", 10)
	v.SetDefault("memory.summarizer_model", "")

	v.SetDefault("strategy.default_model", "")
	v.SetDefault("strategy.role_models", map[string]string{})
	v.SetDefault("strategy.fallbacks", []string{})
	v.SetDefault("strategy.max_expensive", 0)

	v.SetDefault("session.enabled", false)
	v.SetDefault("session.path", "codeforge.db")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.metrics_enabled", true)
	v.SetDefault("server.transport", "connect")
}

// Validate performs basic sanity checks on configuration values.
func (c *Config) Validate() error {
	if len(c.Providers) == 0 {
		return errors.New("at least one provider must be configured")
	}

	if len(c.Models) == 0 {
		return errors.New("at least one model must be defined")
	}

	var defaultFound bool
	for name, p := range c.Providers {
		if p.Type == "" {
			return fmt.Errorf("provider %q must define type", name)
		}
	}

	for name, m := range c.Models {
		if m.Provider == "" {
			return fmt.Errorf("model %q must reference provider", name)
		}

		if _, ok := c.Providers[m.Provider]; !ok {
			return fmt.Errorf("model %q references unknown provider %q", name, m.Provider)
		}

		if m.Temperature < 0 || m.Temperature > 2 {
			return fmt.Errorf("model %q temperature must be within [0,2]", name)
		}

		if m.MaxTokens < 0 {
			return fmt.Errorf("model %q max_tokens cannot be negative", name)
		}

		if m.Default {
			defaultFound = true
		}
	}

	if !defaultFound {
		return errors.New("at least one model should be marked as default")
	}

	if c.Agent.MaxIterations <= 0 {
		return errors.New("agent.max_iterations must be > 0")
	}
	if c.Agent.MaxDelegationDepth < 0 {
		return errors.New("agent.max_delegation_depth must be >= 0")
	}

	if c.Memory.Threshold <= 0 {
		return errors.New("memory.threshold must be > 0")
	}
	if c.Memory.KeepRecent <= 0 {
		return errors.New("memory.keep_recent must be > 0")
	}
	if c.Memory.SummarizerModel != "" {
		if _, ok := c.Models[c.Memory.SummarizerModel]; !ok {
			return fmt.Errorf("memory.summarizer_model references unknown model %q", c.Memory.SummarizerModel)
		}
	}

	if c.Sandbox.TimeoutSeconds <= 0 {
		return errors.New("sandbox.timeout_seconds must be > 0")
	}

	if c.Tools.ExecTimeoutSeconds <= 0 {
		return errors.New("tools.exec_timeout_seconds must be > 0")
	}

	if c.Session.Enabled && strings.TrimSpace(c.Session.Path) == "" {
		return errors.New("session.path must be set when session.enabled is true")
	}

	if strings.TrimSpace(c.Strategy.DefaultModel) != "" {
		if _, ok := c.Models[c.Strategy.DefaultModel]; !ok {
			return fmt.Errorf("strategy references unknown model %q", c.Strategy.DefaultModel)
		}
	}
	for role, modelID := range c.Strategy.RoleModels {
		if _, ok := c.Models[modelID]; !ok {
			return fmt.Errorf("strategy role %q references unknown model %q", role, modelID)
		}
	}
	for _, modelID := range c.Strategy.Fallbacks {
		if _, ok := c.Models[modelID]; !ok {
			return fmt.Errorf("strategy fallback references unknown model %q", modelID)
		}
	}
	if c.Strategy.MaxExpensive < 0 {
		return fmt.Errorf("strategy.max_expensive must be >= 0")
	}

	switch strings.ToLower(strings.TrimSpace(c.Server.Transport)) {
	case "", "connect", "ndjson":
	default:
		return fmt.Errorf("server.transport must be one of connect or ndjson, got %q", c.Server.Transport)
	}

	return nil
}
