package util

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

// RobotsChecker answers robots.txt questions for one user agent. Each
// origin's file is fetched once; concurrent first lookups share the fetch.
type RobotsChecker struct {
	userAgent string
	token     string
	client    *http.Client

	inflight singleflight.Group
	mu       sync.Mutex
	origins  map[string]*robotstxt.RobotsData
	allowAll *robotstxt.RobotsData
}

func NewRobotsChecker(userAgent string, client *http.Client) *RobotsChecker {
	if client == nil {
		client = http.DefaultClient
	}
	allowAll, _ := robotstxt.FromStatusAndBytes(http.StatusNotFound, nil)
	return &RobotsChecker{
		userAgent: userAgent,
		token:     NormalizeUserAgent(userAgent),
		client:    client,
		origins:   make(map[string]*robotstxt.RobotsData),
		allowAll:  allowAll,
	}
}

// Allowed reports whether rawURL may be fetched. A robots.txt that cannot
// be retrieved or parsed allows everything.
func (r *RobotsChecker) Allowed(ctx context.Context, rawURL string) (bool, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Errorf("parse URL: %w", err)
	}
	if u.Host == "" {
		return false, fmt.Errorf("no host in %q", rawURL)
	}

	target := u.EscapedPath()
	if target == "" {
		target = "/"
	}
	return r.rulesFor(ctx, u.Scheme+"://"+u.Host).TestAgent(target, r.token), nil
}

func (r *RobotsChecker) rulesFor(ctx context.Context, origin string) *robotstxt.RobotsData {
	r.mu.Lock()
	rules, ok := r.origins[origin]
	r.mu.Unlock()
	if ok {
		return rules
	}

	v, err, _ := r.inflight.Do(origin, func() (any, error) {
		r.mu.Lock()
		cached, ok := r.origins[origin]
		r.mu.Unlock()
		if ok {
			return cached, nil
		}
		data, err := r.download(ctx, origin+"/robots.txt")
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.origins[origin] = data
		r.mu.Unlock()
		return data, nil
	})
	if err != nil {
		// not remembered: a cancelled lookup must not pin the answer
		return r.allowAll
	}
	return v.(*robotstxt.RobotsData)
}

func (r *RobotsChecker) download(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build robots request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", robotsURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", robotsURL, err)
	}
	return data, nil
}

// NormalizeUserAgent keeps the product token: "seoforge/0.1 (+https://...)"
// matches robots.txt groups as "seoforge"
func NormalizeUserAgent(ua string) string {
	first, _, _ := strings.Cut(strings.TrimSpace(ua), " ")
	product, _, _ := strings.Cut(first, "/")
	return product
}
