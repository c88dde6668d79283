package core

import (
	"dario.cat/mergo"
)

// ProviderName represents the name of a model provider
type ProviderName string

const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderGroq      ProviderName = "groq"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderGoogle    ProviderName = "google"
	ProviderOllama    ProviderName = "ollama"
	ProviderDeepSeek  ProviderName = "deepseek"
	ProviderXAI       ProviderName = "xai"
	ProviderMock      ProviderName = "mock" // Mock provider for testing
)

func (p ProviderName) String() string {
	return string(p)
}

type PromptParams struct {
	MaxTokens   int32    `json:"max_tokens,omitempty"  yaml:"max_tokens,omitempty"  mapstructure:"max_tokens,omitempty"`
	Temperature float64  `json:"temperature,omitempty" yaml:"temperature,omitempty" mapstructure:"temperature,omitempty"`
	StopWords   []string `json:"stop_words,omitempty"  yaml:"stop_words,omitempty"  mapstructure:"stop_words,omitempty"`
	TopP        float64  `json:"top_p,omitempty"       yaml:"top_p,omitempty"       mapstructure:"top_p,omitempty"`
	Seed        int      `json:"seed,omitempty"        yaml:"seed,omitempty"        mapstructure:"seed,omitempty"`
}

// ProviderConfig represents provider-specific configuration options
type ProviderConfig struct {
	Provider     ProviderName `json:"provider"     yaml:"provider"     mapstructure:"provider"`
	Model        string       `json:"model"        yaml:"model"        mapstructure:"model"`
	APIKey       string       `json:"api_key"      yaml:"api_key"      mapstructure:"api_key"`
	APIURL       string       `json:"api_url"      yaml:"api_url"      mapstructure:"api_url"`
	Params       PromptParams `json:"params"       yaml:"params"       mapstructure:"params"`
	Organization string       `json:"organization" yaml:"organization" mapstructure:"organization"`
}

// NewProviderConfig creates a new ProviderConfig
func NewProviderConfig(provider ProviderName, model string, apiKey string) *ProviderConfig {
	return &ProviderConfig{
		Provider: provider,
		Model:    model,
		APIKey:   apiKey,
	}
}

// AsMap converts the provider configuration to a map
func (p *ProviderConfig) AsMap() (map[string]any, error) {
	return AsMapDefault(p)
}

// FromMap updates the provider configuration from a map
func (p *ProviderConfig) FromMap(data any) error {
	config, err := FromMapDefault[ProviderConfig](data)
	if err != nil {
		return err
	}
	return mergo.Merge(p, config, mergo.WithOverride)
}
