package worker

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

const defaultBurst = 5

// Limiter throttles outbound requests per host. Search API calls and
// reference probes from concurrent generations share one instance.
type Limiter struct {
	mu           sync.Mutex
	hosts        map[string]*rate.Limiter
	perSecond    rate.Limit
	defaultBurst int
}

// NewLimiter allows requestsPerSecond per host; zero or less is unlimited
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	l := &Limiter{
		hosts:        make(map[string]*rate.Limiter),
		perSecond:    rate.Inf,
		defaultBurst: burst,
	}
	if requestsPerSecond > 0 {
		l.perSecond = rate.Limit(requestsPerSecond)
	}
	if l.defaultBurst <= 0 {
		l.defaultBurst = defaultBurst
	}
	return l
}

// Wait blocks until a request to rawURL's host is allowed or ctx ends
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	bucket, err := l.bucketFor(rawURL)
	if err != nil {
		return err
	}
	return bucket.Wait(ctx)
}

// Allow takes a token if one is free; malformed URLs are refused
func (l *Limiter) Allow(rawURL string) bool {
	bucket, err := l.bucketFor(rawURL)
	return err == nil && bucket.Allow()
}

// SetHostRate pins a rate for one host, e.g. a search API with a tighter quota
func (l *Limiter) SetHostRate(host string, requestsPerSecond float64, burst int) {
	if burst <= 0 {
		burst = l.defaultBurst
	}
	l.mu.Lock()
	l.hosts[normalizeHost(host)] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	l.mu.Unlock()
}

func (l *Limiter) bucketFor(rawURL string) (*rate.Limiter, error) {
	host, err := hostKey(rawURL)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	bucket, ok := l.hosts[host]
	if !ok {
		bucket = rate.NewLimiter(l.perSecond, l.defaultBurst)
		l.hosts[host] = bucket
	}
	return bucket, nil
}

// hostKey maps a URL to its bucket: lowercased host, no port, no "www."
func hostKey(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", rawURL, err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("no host in %q", rawURL)
	}
	return normalizeHost(u.Hostname()), nil
}

func normalizeHost(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}
