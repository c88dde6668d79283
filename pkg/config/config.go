// Package config loads the runtime configuration for the resolution
// engine: deployment mode, provider credentials, and router defaults.
// Defaults come from the struct below; environment variables override
// them. The returned Config is read-only after Load.
package config

import (
	"github.com/stepkit/stepkit/engine/core"
)

// Config is the root configuration.
type Config struct {
	Mode      string          `koanf:"mode"      validate:"oneof=hosted self-hosted" env:"STEPKIT_MODE"`
	Log       LogConfig       `koanf:"log"`
	Router    RouterConfig    `koanf:"router"`
	Providers ProvidersConfig `koanf:"providers"`
}

// LogConfig controls the logger.
type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error" env:"STEPKIT_LOG_LEVEL"`
	JSON  bool   `koanf:"json"                                         env:"STEPKIT_LOG_JSON"`
}

// RouterConfig holds defaults for destination selection.
type RouterConfig struct {
	DefaultModel string  `koanf:"default_model" env:"STEPKIT_ROUTER_DEFAULT_MODEL"`
	MaxTokens    int     `koanf:"max_tokens"    validate:"min=1" env:"STEPKIT_ROUTER_MAX_TOKENS"`
	Temperature  float64 `koanf:"temperature"   validate:"min=0,max=2" env:"STEPKIT_ROUTER_TEMPERATURE"`
}

// ProviderConfig holds the credentials for one LLM provider.
type ProviderConfig struct {
	APIKey SensitiveString `koanf:"api_key"`
	APIURL string          `koanf:"api_url"`
}

// ProvidersConfig maps provider names to their credentials.
type ProvidersConfig struct {
	OpenAI    ProviderConfig `koanf:"openai"`
	Anthropic ProviderConfig `koanf:"anthropic"`
	Groq      ProviderConfig `koanf:"groq"`
	Google    ProviderConfig `koanf:"google"`
	DeepSeek  ProviderConfig `koanf:"deepseek"`
	XAI       ProviderConfig `koanf:"xai"`
	Ollama    ProviderConfig `koanf:"ollama"`
}

// ForProvider returns the credentials configured for a provider name.
func (p *ProvidersConfig) ForProvider(name core.ProviderName) (ProviderConfig, bool) {
	switch name {
	case core.ProviderOpenAI:
		return p.OpenAI, true
	case core.ProviderAnthropic:
		return p.Anthropic, true
	case core.ProviderGroq:
		return p.Groq, true
	case core.ProviderGoogle:
		return p.Google, true
	case core.ProviderDeepSeek:
		return p.DeepSeek, true
	case core.ProviderXAI:
		return p.XAI, true
	case core.ProviderOllama:
		return p.Ollama, true
	default:
		return ProviderConfig{}, false
	}
}

// DeploymentMode returns the mode as the engine's typed constant.
func (c *Config) DeploymentMode() core.DeploymentMode {
	if c.Mode == "self-hosted" {
		return core.ModeSelfHosted
	}
	return core.ModeHosted
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Mode: "hosted",
		Log: LogConfig{
			Level: "info",
		},
		Router: RouterConfig{
			DefaultModel: "gpt-4o-mini",
			MaxTokens:    64,
			Temperature:  0,
		},
	}
}
