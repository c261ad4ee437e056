package model

import "time"

// Provider identifies one LLM backend
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
	ProviderDeepSeek  Provider = "deepseek"
	ProviderOllama    Provider = "ollama"
)

// Providers lists every supported backend in display order
func Providers() []Provider {
	return []Provider{ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderDeepSeek, ProviderOllama}
}

// Valid reports whether p is a known backend
func (p Provider) Valid() bool {
	for _, known := range Providers() {
		if p == known {
			return true
		}
	}
	return false
}

// RequiresAPIKey reports whether the backend refuses anonymous calls.
// Ollama runs locally and authenticates nothing.
func (p Provider) RequiresAPIKey() bool {
	return p != ProviderOllama
}

// Tone is the requested writing register
type Tone string

const (
	ToneProfessional   Tone = "professional"
	ToneConversational Tone = "conversational"
	ToneAcademic       Tone = "academic"
	ToneFriendly       Tone = "friendly"
)

// Credentials carries per-request secrets. Keys are never logged.
type Credentials struct {
	APIKeys       map[Provider]string `json:"-" yaml:"-"`
	SearchAPIKey  string              `json:"-" yaml:"-"`
	OllamaBaseURL string              `json:"ollama_base_url,omitempty" yaml:"ollama_base_url,omitempty"`
}

// APIKey returns the key for a backend (empty when missing)
func (c Credentials) APIKey(p Provider) string {
	if c.APIKeys == nil {
		return ""
	}
	return c.APIKeys[p]
}

// GenerationRequest is the immutable input of one generation call
type GenerationRequest struct {
	Topic       string                `json:"topic"`
	Provider    Provider              `json:"provider"`
	Model       string                `json:"model"`
	Credentials Credentials           `json:"-"`
	TargetWords int                   `json:"target_words,omitempty"`
	Tone        Tone                  `json:"tone,omitempty"`
	LinkTargets []LinkTarget          `json:"link_targets,omitempty"`
	References  []DiscoveredReference `json:"references,omitempty"` // Pre-validated; skips reference discovery
	CurrentURL  string                `json:"current_url,omitempty"`
}

// FAQ is one question/answer pair
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ParsedDraft is the healed, structured model output
type ParsedDraft struct {
	Title           string `json:"title"`
	MetaDescription string `json:"meta_description"`
	Slug            string `json:"slug"`
	HTML            string `json:"html"`
	Excerpt         string `json:"excerpt"`
	WordCount       int    `json:"word_count"`
	FAQs            []FAQ  `json:"faqs,omitempty"`
}

// ContentContract is the final, link-injected, word-count-validated document
type ContentContract struct {
	Title           string                `json:"title"`
	MetaDescription string                `json:"meta_description"`
	Slug            string                `json:"slug"`
	HTML            string                `json:"html"`
	Excerpt         string                `json:"excerpt"`
	WordCount       int                   `json:"word_count"` // Always recomputed from HTML
	FAQs            []FAQ                 `json:"faqs,omitempty"`
	References      []DiscoveredReference `json:"references"`
	Links           []LinkPlacement       `json:"links"`
	Video           *DiscoveredVideo      `json:"video,omitempty"`
}

// GenerationResult wraps the contract with generation metadata
type GenerationResult struct {
	Contract   ContentContract       `json:"contract"`
	Method     string                `json:"method"` // provider:model
	Attempts   int                   `json:"attempts"`
	Elapsed    time.Duration         `json:"-"`
	ElapsedMs  int64                 `json:"elapsed_ms"`
	Video      *DiscoveredVideo      `json:"video,omitempty"`
	References []DiscoveredReference `json:"references,omitempty"`
}
