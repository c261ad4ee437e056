package llm

import "context"

// Provider defines the interface for LLM backends. An adapter performs exactly
// one HTTP call per Complete and never retries.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends one prompt and returns the first text candidate.
	// A response envelope without text yields "" and no error.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest is the uniform (prompt, system prompt, sampling) tuple
type CompletionRequest struct {
	Prompt       string
	SystemPrompt string

	// Model overrides Config.Model when set
	Model string

	// Temperature and MaxTokens are translated into each backend's field names
	Temperature float64
	MaxTokens   int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "gemini", "deepseek", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted backends
	APIKey string

	// BaseURL for custom endpoints (tests, gateways, remote Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens default when the request carries none
	MaxTokens int

	// Temperature default when the request carries none
	Temperature float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:     180,
		MaxTokens:   8000,
		Temperature: 0.7,
	}
}

func (c Config) resolve(req CompletionRequest, fallbackModel string) (model string, maxTokens int, temperature float64) {
	model = req.Model
	if model == "" {
		model = c.Model
	}
	if model == "" {
		model = fallbackModel
	}

	maxTokens = req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 8000
	}

	temperature = req.Temperature
	if temperature == 0 {
		temperature = c.Temperature
	}
	return model, maxTokens, temperature
}
