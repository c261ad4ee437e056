package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

const (
	anthropicURL     = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
)

// AnthropicProvider talks to the Claude Messages API over plain HTTP
type AnthropicProvider struct {
	call   jsonCall
	config Config
}

type anthropicRequest struct {
	Model       string          `json:"model"`
	System      string          `json:"system,omitempty"`
	Messages    []anthropicTurn `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature,omitempty"`
}

type anthropicTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicReply struct {
	Content    []anthropicBlock `json:"content"`
	StopReason string           `json:"stop_reason"`
}

// text joins the text blocks of a reply. Tool and thinking blocks are
// ignored; the article prompt never asks for them.
func (r anthropicReply) text() string {
	var sb strings.Builder
	for _, block := range r.Content {
		if block.Type != "" && block.Type != "text" {
			continue
		}
		sb.WriteString(block.Text)
	}
	return sb.String()
}

// NewAnthropicProvider needs an API key; BaseURL overrides the public host
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("Anthropic API key is required")
	}

	host := strings.TrimRight(config.BaseURL, "/")
	if host == "" {
		host = anthropicURL
	}

	header := http.Header{}
	header.Set("x-api-key", config.APIKey)
	header.Set("anthropic-version", anthropicVersion)

	return &AnthropicProvider{
		call: jsonCall{
			provider:     "anthropic",
			client:       httpClientFor(config, hostedTimeout),
			url:          host + "/v1/messages",
			header:       header,
			errorMessage: anthropicErrorMessage,
		},
		config: config,
	}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return p.call.provider
}

// Complete sends one Messages request. A max_tokens stop still returns the
// partial text so the healer gets a chance to close it.
func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model, maxTokens, temperature := p.config.resolve(req, DefaultModel("anthropic"))

	body := anthropicRequest{
		Model:       model,
		System:      req.SystemPrompt,
		Messages:    []anthropicTurn{{Role: "user", Content: req.Prompt}},
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	var reply anthropicReply
	if err := p.call.do(ctx, body, &reply); err != nil {
		return "", err
	}
	return reply.text(), nil
}

// anthropicErrorMessage renders {"error":{"type":..,"message":..}} as
// "type - message"
func anthropicErrorMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &envelope) != nil || envelope.Error.Message == "" {
		return ""
	}
	return envelope.Error.Type + " - " + envelope.Error.Message
}
