package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"
)

// GeminiProvider implements the Provider interface for Google Gemini models
type GeminiProvider struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	config     Config
}

// NewGeminiProvider creates a new Gemini provider. The SDK client is built
// per call because genai.NewClient takes a context.
func NewGeminiProvider(config Config) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	return &GeminiProvider{
		apiKey:     config.APIKey,
		baseURL:    config.BaseURL,
		httpClient: httpClientFor(config, hostedTimeout),
		config:     config,
	}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// Complete generates text with the generateContent endpoint
func (p *GeminiProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model, maxTokens, temperature := p.config.resolve(req, DefaultModel("gemini"))

	clientConfig := &genai.ClientConfig{
		APIKey:     p.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: p.httpClient,
	}
	if p.baseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: p.baseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return "", fmt.Errorf("create gemini client: %w", err)
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(temperature)),
		MaxOutputTokens: int32(maxTokens),
	}
	if req.SystemPrompt != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(req.Prompt), genConfig)
	if err != nil {
		return "", p.wrapError(err)
	}
	if resp == nil {
		return "", nil
	}
	return resp.Text(), nil
}

func (p *GeminiProvider) wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &StatusError{Provider: p.Name(), StatusCode: apiErr.Code, Message: truncate(apiErr.Message, errorBodyLimit)}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &StatusError{Provider: p.Name(), StatusCode: apiErrPtr.Code, Message: truncate(apiErrPtr.Message, errorBodyLimit)}
	}
	return fmt.Errorf("gemini request: %w", err)
}
