package discovery

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/seoforge/internal/model"
	"github.com/ppiankov/seoforge/internal/util"
	"github.com/ppiankov/seoforge/internal/worker"
)

const probeMaxRetries = 3

// ProbeStatus is the verdict for one reference URL
type ProbeStatus string

const (
	ProbeAlive      ProbeStatus = "alive"
	ProbeDead       ProbeStatus = "dead"
	ProbeUnverified ProbeStatus = "unverified" // robots.txt disallows us, or the host kept failing with 5xx
)

// ProbeResult is the outcome of checking one URL
type ProbeResult struct {
	URL        string
	Status     ProbeStatus
	StatusCode int
	Err        error
}

// Prober HEAD-checks reference URLs with bounded concurrency
type Prober struct {
	httpClient *http.Client
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	userAgent  string
	workers    int
	logger     *zap.Logger
	sleep      func(context.Context, time.Duration) error
}

// NewProber creates a prober. limiter may be nil.
func NewProber(client *http.Client, userAgent string, workers int, limiter *worker.Limiter, logger *zap.Logger) *Prober {
	if workers <= 0 {
		workers = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if limiter == nil {
		limiter = worker.NewLimiter(0, 1)
	}
	return &Prober{
		httpClient: client,
		robots:     util.NewRobotsChecker(userAgent, client),
		limiter:    limiter,
		userAgent:  userAgent,
		workers:    workers,
		logger:     logger,
		sleep:      sleepContext,
	}
}

// Filter drops references whose URL is dead and keeps order otherwise
func (p *Prober) Filter(ctx context.Context, refs []model.DiscoveredReference) []model.DiscoveredReference {
	results := p.ProbeAll(ctx, refs)
	out := make([]model.DiscoveredReference, 0, len(refs))
	for i, ref := range refs {
		if results[i].Status == ProbeDead {
			p.logger.Debug("dropping dead reference",
				zap.String("url", ref.URL),
				zap.Int("status", results[i].StatusCode),
				zap.Error(results[i].Err))
			continue
		}
		out = append(out, ref)
	}
	return out
}

// ProbeAll checks every reference; results are index-aligned with refs
func (p *Prober) ProbeAll(ctx context.Context, refs []model.DiscoveredReference) []ProbeResult {
	results := make([]ProbeResult, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, ref := range refs {
		g.Go(func() error {
			results[i] = p.probeWithRetry(gctx, ref.URL)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (p *Prober) probeWithRetry(ctx context.Context, rawURL string) ProbeResult {
	allowed, err := p.robots.Allowed(ctx, rawURL)
	if err != nil {
		return ProbeResult{URL: rawURL, Status: ProbeDead, Err: err}
	}
	if !allowed {
		return ProbeResult{URL: rawURL, Status: ProbeUnverified}
	}

	var result ProbeResult
	for attempt := 0; attempt < probeMaxRetries; attempt++ {
		result = p.probe(ctx, rawURL)
		if !isRetryableProbe(result) || attempt == probeMaxRetries-1 {
			break
		}
		backoff := time.Duration(1<<uint(attempt)) * time.Second
		if err := p.sleep(ctx, backoff); err != nil {
			result.Err = err
			break
		}
	}

	// A host that keeps failing with 5xx or 429 is flaky, not gone
	if result.StatusCode == http.StatusTooManyRequests || result.StatusCode >= 500 {
		result.Status = ProbeUnverified
	}
	// Our own cancellation says nothing about the URL
	if ctx.Err() != nil && result.Status == ProbeDead && result.StatusCode == 0 {
		result.Status = ProbeUnverified
	}
	return result
}

func (p *Prober) probe(ctx context.Context, rawURL string) ProbeResult {
	result := ProbeResult{URL: rawURL, Status: ProbeDead}

	if err := p.limiter.Wait(ctx, rawURL); err != nil {
		result.Err = fmt.Errorf("rate limit wait: %w", err)
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		result.Err = fmt.Errorf("create request: %w", err)
		return result
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		result.Err = fmt.Errorf("request failed: %w", err)
		return result
	}
	defer func() { _ = resp.Body.Close() }()

	result.StatusCode = resp.StatusCode
	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		result.Status = ProbeDead
	default:
		// 2xx, 3xx, and 401/403/405 from sites that refuse HEAD or bots
		result.Status = ProbeAlive
	}
	return result
}

// isRetryableProbe returns true for transient failures: 429, 5xx, network errors
func isRetryableProbe(result ProbeResult) bool {
	if result.StatusCode == http.StatusTooManyRequests || result.StatusCode >= 500 {
		return true
	}
	return result.StatusCode == 0 && result.Err != nil
}
