package discovery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ppiankov/seoforge/internal/search"
)

// fakeSearcher serves canned results per query and records every call
type fakeSearcher struct {
	mu      sync.Mutex
	organic map[string][]search.OrganicResult
	videos  map[string][]search.VideoResult
	fail    map[string]bool
	calls   []string
}

func (f *fakeSearcher) Organic(ctx context.Context, apiKey, query string) ([]search.OrganicResult, error) {
	f.record(query)
	if f.fail[query] {
		return nil, errors.New("search API error (500)")
	}
	return f.organic[query], nil
}

func (f *fakeSearcher) Videos(ctx context.Context, apiKey, query string) ([]search.VideoResult, error) {
	f.record(query)
	if f.fail[query] {
		return nil, errors.New("search API error (500)")
	}
	return f.videos[query], nil
}

func (f *fakeSearcher) record(query string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, query)
}

func fixedClock() time.Time {
	return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
}

func noSleep(slept *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		if slept != nil {
			*slept = append(*slept, d)
		}
		return ctx.Err()
	}
}
