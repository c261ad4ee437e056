package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

const ollamaURL = "http://localhost:11434"

// OllamaProvider generates with a local (or gateway-hosted) Ollama server
type OllamaProvider struct {
	call   jsonCall
	config Config
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	System  string        `json:"system,omitempty"`
	Prompt  string        `json:"prompt"`
	Format  string        `json:"format,omitempty"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// NewOllamaProvider never requires a key. When one is set it is sent as a
// bearer token for hosted gateways.
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	host := strings.TrimRight(config.BaseURL, "/")
	if host == "" {
		host = ollamaURL
	}

	header := http.Header{}
	if config.APIKey != "" {
		header.Set("Authorization", "Bearer "+config.APIKey)
	}

	return &OllamaProvider{
		call: jsonCall{
			provider:     "ollama",
			client:       httpClientFor(config, localTimeout),
			url:          host + "/api/generate",
			header:       header,
			errorMessage: ollamaErrorMessage,
		},
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return p.call.provider
}

// Complete runs a non-streaming generate in JSON mode. There is no default
// model: what is pulled locally varies per machine.
func (p *OllamaProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model, maxTokens, temperature := p.config.resolve(req, "")
	if model == "" {
		return "", errors.New("ollama needs an explicit model (e.g. llama3.1:8b)")
	}

	body := ollamaRequest{
		Model:  model,
		System: req.SystemPrompt,
		Prompt: req.Prompt,
		Format: "json",
		Options: ollamaOptions{
			Temperature: temperature,
			NumPredict:  maxTokens,
		},
	}

	var out ollamaResponse
	if err := p.call.do(ctx, body, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

func ollamaErrorMessage(body []byte) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &envelope) != nil {
		return ""
	}
	return envelope.Error
}
