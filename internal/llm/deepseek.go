package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DeepSeekProvider implements the Provider interface for DeepSeek models.
// DeepSeek exposes an OpenAI-compatible chat completions API.
type DeepSeekProvider struct {
	opts   []option.RequestOption
	config Config
}

// NewDeepSeekProvider creates a new DeepSeek provider
func NewDeepSeekProvider(config Config) (*DeepSeekProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("DeepSeek API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.deepseek.com"
	}

	opts := []option.RequestOption{
		option.WithAPIKey(config.APIKey),
		option.WithBaseURL(baseURL),
		option.WithMaxRetries(0),
		option.WithHTTPClient(httpClientFor(config, hostedTimeout)),
	}
	return &DeepSeekProvider{opts: opts, config: config}, nil
}

// Name returns the provider name
func (p *DeepSeekProvider) Name() string {
	return "deepseek"
}

// Complete generates text with the chat completions endpoint
func (p *DeepSeekProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model, maxTokens, temperature := p.config.resolve(req, DefaultModel("deepseek"))
	client := openai.NewClient(p.opts...)

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.SystemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(req.SystemPrompt))
	}
	msgs = append(msgs, openai.UserMessage(req.Prompt))

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(model),
		Messages:    msgs,
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(int64(maxTokens)),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &StatusError{Provider: p.Name(), StatusCode: apiErr.StatusCode, Message: truncate(apiErr.Message, errorBodyLimit)}
		}
		return "", fmt.Errorf("deepseek request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
