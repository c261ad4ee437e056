package model

import "time"

// Config holds every tunable of the generator
type Config struct {
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Retry     RetryConfig     `yaml:"retry" mapstructure:"retry"`
	Breaker   BreakerConfig   `yaml:"breaker" mapstructure:"breaker"`
	Links     LinkConfig      `yaml:"links" mapstructure:"links"`
	Discovery DiscoveryConfig `yaml:"discovery" mapstructure:"discovery"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Content   ContentConfig   `yaml:"content" mapstructure:"content"`
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
}

// LLMConfig holds sampling defaults and endpoint overrides
type LLMConfig struct {
	Provider    string            `yaml:"provider" mapstructure:"provider"`
	Model       string            `yaml:"model" mapstructure:"model"`
	Temperature float64           `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int               `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout     int               `yaml:"timeout" mapstructure:"timeout"` // seconds, HTTP client level
	BaseURLs    map[string]string `yaml:"base_urls,omitempty" mapstructure:"base_urls"`
}

// RetryConfig controls the orchestrator attempt loop
type RetryConfig struct {
	MaxAttempts      int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelay        time.Duration `yaml:"base_delay" mapstructure:"base_delay"`
	StageTimeout     time.Duration `yaml:"stage_timeout" mapstructure:"stage_timeout"`
	DiscoveryTimeout time.Duration `yaml:"discovery_timeout" mapstructure:"discovery_timeout"`
}

// BreakerConfig controls the per-provider circuit breaker
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	Cooldown         time.Duration `yaml:"cooldown" mapstructure:"cooldown"`
}

// LinkConfig bounds the link injection engine
type LinkConfig struct {
	MaxLinks            int  `yaml:"max_links" mapstructure:"max_links"`
	MaxPerSection       int  `yaml:"max_per_section" mapstructure:"max_per_section"`
	MinWordDistance     int  `yaml:"min_word_distance" mapstructure:"min_word_distance"`
	MinAnchorChars      int  `yaml:"min_anchor_chars" mapstructure:"min_anchor_chars"`
	MaxAnchorChars      int  `yaml:"max_anchor_chars" mapstructure:"max_anchor_chars"`
	MinAnchorWords      int  `yaml:"min_anchor_words" mapstructure:"min_anchor_words"`
	MaxAnchorWords      int  `yaml:"max_anchor_words" mapstructure:"max_anchor_words"`
	CandidatePool       int  `yaml:"candidate_pool" mapstructure:"candidate_pool"`
	MinParagraphChars   int  `yaml:"min_paragraph_chars" mapstructure:"min_paragraph_chars"`
	TargetsPerParagraph int  `yaml:"targets_per_paragraph" mapstructure:"targets_per_paragraph"`
	Strict              bool `yaml:"strict" mapstructure:"strict"`
}

// DiscoveryConfig controls reference and video discovery
type DiscoveryConfig struct {
	TargetReferences  int            `yaml:"target_references" mapstructure:"target_references"`
	MinAuthorityScore int            `yaml:"min_authority_score" mapstructure:"min_authority_score"`
	QueryDelay        time.Duration  `yaml:"query_delay" mapstructure:"query_delay"`
	MinVideoViews     int64          `yaml:"min_video_views" mapstructure:"min_video_views"`
	GoodRelevance     int            `yaml:"good_relevance" mapstructure:"good_relevance"`
	PerAttempt        bool           `yaml:"per_attempt" mapstructure:"per_attempt"`
	VerifyReferences  bool           `yaml:"verify_references" mapstructure:"verify_references"`
	ProbeWorkers      int            `yaml:"probe_workers" mapstructure:"probe_workers"`
	DomainScores      map[string]int `yaml:"domain_scores,omitempty" mapstructure:"domain_scores"`
}

// SearchConfig configures the third-party search API client
type SearchConfig struct {
	BaseURL           string        `yaml:"base_url" mapstructure:"base_url"`
	Locale            string        `yaml:"locale" mapstructure:"locale"`
	Language          string        `yaml:"language" mapstructure:"language"`
	ResultCount       int           `yaml:"result_count" mapstructure:"result_count"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxRetries        int           `yaml:"max_retries" mapstructure:"max_retries"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	CacheEnabled      bool          `yaml:"cache_enabled" mapstructure:"cache_enabled"`
	CacheTTL          time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	CacheDir          string        `yaml:"cache_dir,omitempty" mapstructure:"cache_dir"`
}

// ContentConfig holds the acceptance gate
type ContentConfig struct {
	MinWordCount       int `yaml:"min_word_count" mapstructure:"min_word_count"`
	DefaultTargetWords int `yaml:"default_target_words" mapstructure:"default_target_words"`
}

// HTTPConfig holds shared outbound HTTP settings
type HTTPConfig struct {
	UserAgent  string `yaml:"user_agent" mapstructure:"user_agent"`
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    string(ProviderOpenAI),
			Model:       "gpt-4o",
			Temperature: 0.7,
			MaxTokens:   8000,
			Timeout:     180,
		},
		Retry: RetryConfig{
			MaxAttempts:      3,
			BaseDelay:        2 * time.Second,
			StageTimeout:     180 * time.Second,
			DiscoveryTimeout: 45 * time.Second,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 3,
			Cooldown:         60 * time.Second,
		},
		Links: DefaultLinkConfig(),
		Discovery: DiscoveryConfig{
			TargetReferences:  8,
			MinAuthorityScore: 60,
			QueryDelay:        time.Second,
			MinVideoViews:     1000,
			GoodRelevance:     60,
			PerAttempt:        true,
			VerifyReferences:  false,
			ProbeWorkers:      8,
		},
		Search: SearchConfig{
			BaseURL:           "https://google.serper.dev",
			Locale:            "us",
			Language:          "en",
			ResultCount:       10,
			Timeout:           15 * time.Second,
			MaxRetries:        3,
			RequestsPerSecond: 2,
			Burst:             2,
			CacheEnabled:      true,
			CacheTTL:          6 * time.Hour,
		},
		Content: ContentConfig{
			MinWordCount:       2000,
			DefaultTargetWords: 2500,
		},
		HTTP: HTTPConfig{
			UserAgent: "seoforge/0.1 (+https://github.com/ppiankov/seoforge)",
		},
	}
}

// DefaultLinkConfig returns the relaxed anchor bounds used by default
func DefaultLinkConfig() LinkConfig {
	return LinkConfig{
		MaxLinks:            8,
		MaxPerSection:       2,
		MinWordDistance:     120,
		MinAnchorChars:      5,
		MaxAnchorChars:      60,
		MinAnchorWords:      1,
		MaxAnchorWords:      7,
		CandidatePool:       30,
		MinParagraphChars:   80,
		TargetsPerParagraph: 5,
	}
}

const (
	strictMinAnchorChars = 15
	strictMinAnchorWords = 3
)

// StrictLinkConfig is the default config with strict anchors
func StrictLinkConfig() LinkConfig {
	cfg := DefaultLinkConfig()
	cfg.Strict = true
	return cfg.Tightened()
}

// Tightened returns c with the anchor minimums raised to at least 15
// characters and 3 words when Strict is set. Every other limit is kept.
func (c LinkConfig) Tightened() LinkConfig {
	if !c.Strict {
		return c
	}
	c.MinAnchorChars = max(c.MinAnchorChars, strictMinAnchorChars)
	c.MinAnchorWords = max(c.MinAnchorWords, strictMinAnchorWords)
	return c
}
