package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/seoforge/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "gemini", "google":
		return NewGeminiProvider(config)

	case "deepseek":
		return NewDeepSeekProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (supported: openai, anthropic, gemini, deepseek, ollama)", config.Provider)
	}
}

var defaultModels = map[string]string{
	"openai":    "gpt-4o",
	"anthropic": "claude-sonnet-4-20250514",
	"gemini":    "gemini-2.5-flash",
	"deepseek":  "deepseek-chat",
}

// DefaultModel returns the model used when none is configured. Ollama has
// no default; its model must be named.
func DefaultModel(provider string) string {
	switch strings.ToLower(provider) {
	case "claude":
		provider = "anthropic"
	case "google":
		provider = "gemini"
	}
	return defaultModels[strings.ToLower(provider)]
}

// ConfigFor builds the adapter config for one request: sampling defaults and
// endpoint overrides come from cfg, the key from the request credentials
func ConfigFor(cfg *model.Config, provider model.Provider, modelName string, creds model.Credentials) Config {
	c := DefaultConfig()
	c.Provider = string(provider)
	c.Model = modelName
	c.APIKey = creds.APIKey(provider)
	if cfg != nil {
		c.Timeout = cfg.LLM.Timeout
		c.MaxTokens = cfg.LLM.MaxTokens
		c.Temperature = cfg.LLM.Temperature
		c.BaseURL = cfg.LLM.BaseURLs[string(provider)]
		c.HTTPProxy = cfg.HTTP.HTTPProxy
		c.HTTPSProxy = cfg.HTTP.HTTPSProxy
		c.NoProxy = cfg.HTTP.NoProxy
	}
	if provider == model.ProviderOllama && creds.OllamaBaseURL != "" {
		c.BaseURL = creds.OllamaBaseURL
	}
	return c
}
