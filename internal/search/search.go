// Package search is a client for a Serper-style web and video search API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/seoforge/internal/cache"
	"github.com/ppiankov/seoforge/internal/model"
	"github.com/ppiankov/seoforge/internal/util"
	"github.com/ppiankov/seoforge/internal/worker"
)

// ErrNoAPIKey is returned before any network call when the key is empty
var ErrNoAPIKey = errors.New("search API key is required")

// StatusError is a non-2xx answer from the search API
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search API error (%d): %s", e.StatusCode, e.Body)
}

// OrganicResult is one web result
type OrganicResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Date     string `json:"date,omitempty"`
	Position int    `json:"position,omitempty"`
}

// VideoResult is one video result
type VideoResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet,omitempty"`
	Channel  string `json:"channel,omitempty"`
	Views    Views  `json:"views,omitempty"`
	Duration string `json:"duration,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	Date     string `json:"date,omitempty"`
}

// Views holds a view count as the API reports it: "1.2M views" or 1200000
type Views string

// UnmarshalJSON accepts both strings and numbers
func (v *Views) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Views(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("views: %w", err)
	}
	*v = Views(n.String())
	return nil
}

type searchRequest struct {
	Q   string `json:"q"`
	GL  string `json:"gl,omitempty"`
	HL  string `json:"hl,omitempty"`
	Num int    `json:"num,omitempty"`
}

type organicResponse struct {
	Organic []OrganicResult `json:"organic"`
}

type videoResponse struct {
	Videos []VideoResult `json:"videos"`
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLimiter shares a rate limiter with other components
func WithLimiter(l *worker.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithCache shares a response cache
func WithCache(rc cache.Cache) Option {
	return func(c *Client) { c.cache = rc }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithSleep replaces the backoff sleep (tests)
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

// Client queries the search API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	locale     string
	language   string
	num        int
	maxRetries int
	cacheTTL   time.Duration
	userAgent  string

	httpClient *http.Client
	limiter    *worker.Limiter
	cache      cache.Cache
	logger     *zap.Logger
	sleep      func(context.Context, time.Duration) error
}

// NewClient creates a client from the search section of the config
func NewClient(cfg model.SearchConfig, httpCfg model.HTTPConfig, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	c := &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		locale:     cfg.Locale,
		language:   cfg.Language,
		num:        cfg.ResultCount,
		maxRetries: maxRetries,
		cacheTTL:   cfg.CacheTTL,
		userAgent:  httpCfg.UserAgent,
		httpClient: util.NewHTTPClient(timeout, util.ProxySettings{
			HTTPProxy:  httpCfg.HTTPProxy,
			HTTPSProxy: httpCfg.HTTPSProxy,
			NoProxy:    httpCfg.NoProxy,
		}, 0),
		limiter: worker.NewLimiter(cfg.RequestsPerSecond, cfg.Burst),
		cache:   cache.Nop{},
		logger:  zap.NewNop(),
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Organic runs a web search
func (c *Client) Organic(ctx context.Context, apiKey, query string) ([]OrganicResult, error) {
	body, err := c.query(ctx, "/search", apiKey, query)
	if err != nil {
		return nil, err
	}
	var resp organicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal organic results: %w", err)
	}
	return resp.Organic, nil
}

// Videos runs a video search
func (c *Client) Videos(ctx context.Context, apiKey, query string) ([]VideoResult, error) {
	body, err := c.query(ctx, "/videos", apiKey, query)
	if err != nil {
		return nil, err
	}
	var resp videoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal video results: %w", err)
	}
	return resp.Videos, nil
}

// query returns the raw response body, from cache when possible
func (c *Client) query(ctx context.Context, endpoint, apiKey, query string) ([]byte, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}

	key := cache.Key("search", endpoint, query, c.locale, c.language, strconv.Itoa(c.num))
	if body, ok := c.cache.Get(key); ok {
		c.logger.Debug("search cache hit", zap.String("endpoint", endpoint), zap.String("query", query))
		return body, nil
	}

	body, err := c.doWithRetry(ctx, endpoint, apiKey, query)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("search API returned invalid JSON for %q", query)
	}

	if err := c.cache.Set(key, body, c.cacheTTL); err != nil {
		c.logger.Warn("search cache write failed", zap.Error(err))
	}
	return body, nil
}

func (c *Client) doWithRetry(ctx context.Context, endpoint, apiKey, query string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		body, err := c.do(ctx, endpoint, apiKey, query)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !isRetryable(ctx, err) || attempt == c.maxRetries-1 {
			break
		}

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		c.logger.Debug("search retry",
			zap.String("query", query),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err))
		if err := c.sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, endpoint, apiKey, query string) ([]byte, error) {
	url := c.baseURL + endpoint
	if err := c.limiter.Wait(ctx, url); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	payload, err := json.Marshal(searchRequest{Q: query, GL: c.locale, HL: c.language, Num: c.num})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", apiKey)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > 200 {
			snippet = snippet[:200] + "..."
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}
	return body, nil
}

// isRetryable reports whether a failed call is worth repeating: 429, 5xx and
// network errors are; 4xx and a finished context are not
func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode == http.StatusTooManyRequests || statusErr.StatusCode >= 500
	}
	return true
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
