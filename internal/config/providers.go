package config

import "time"

// Provider ids as exposed to widgets through the aiProvider setting.
const (
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
	ProviderDummy  = "dummy"
)

type ProvidersConfig struct {
	DefaultProvider string         `yaml:"default_provider"`
	Anthropic       ProviderConfig `yaml:"anthropic"`
	OpenAI          ProviderConfig `yaml:"openai"`
	Dummy           DummyConfig    `yaml:"dummy"`
}

// ProviderConfig configures an API-key backed provider. The provider is
// registered only when APIKey is non-empty. An empty BaseURL uses the SDK's
// public endpoint.
type ProviderConfig struct {
	APIKey        string            `yaml:"api_key"`
	Model         string            `yaml:"model"`
	BotName       string            `yaml:"bot_name"`
	BaseURL       string            `yaml:"base_url"`
	MaxTokens     int               `yaml:"max_tokens"`
	MaxConcurrent int               `yaml:"max_concurrent"`
	Timeout       time.Duration     `yaml:"timeout"`
	Headers       map[string]string `yaml:"headers,omitempty"`
}

type DummyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
	BotName string `yaml:"bot_name"`
}

func DefaultProvidersConfig() *ProvidersConfig {
	return &ProvidersConfig{
		DefaultProvider: ProviderClaude,
		Anthropic: ProviderConfig{
			Model:     "claude-3-5-sonnet-20241022",
			BotName:   "Claude",
			MaxTokens: 1000,
			Timeout:   60 * time.Second,
		},
		OpenAI: ProviderConfig{
			Model:     "gpt-4o-mini",
			BotName:   "ChatGPT",
			MaxTokens: 1000,
			Timeout:   60 * time.Second,
		},
		Dummy: DummyConfig{
			Model:   "dummy-model-v1",
			BotName: "Dummy Assistant",
		},
	}
}

// Equal reports whether two provider configurations would build the same registry.
func (p *ProvidersConfig) Equal(o *ProvidersConfig) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.DefaultProvider == o.DefaultProvider &&
		p.Dummy == o.Dummy &&
		p.Anthropic.equal(o.Anthropic) &&
		p.OpenAI.equal(o.OpenAI)
}

func (c ProviderConfig) equal(o ProviderConfig) bool {
	if c.APIKey != o.APIKey || c.Model != o.Model || c.BotName != o.BotName ||
		c.BaseURL != o.BaseURL || c.MaxTokens != o.MaxTokens ||
		c.MaxConcurrent != o.MaxConcurrent || c.Timeout != o.Timeout ||
		len(c.Headers) != len(o.Headers) {
		return false
	}
	for k, v := range c.Headers {
		if o.Headers[k] != v {
			return false
		}
	}
	return true
}
