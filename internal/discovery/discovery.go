// Package discovery finds citations and a companion video for an article.
// Both finders treat search failures as empty results.
package discovery

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/seoforge/internal/search"
)

// Searcher is the subset of the search client the finders use
type Searcher interface {
	Organic(ctx context.Context, apiKey, query string) ([]search.OrganicResult, error)
	Videos(ctx context.Context, apiKey, query string) ([]search.VideoResult, error)
}

type options struct {
	logger *zap.Logger
	sleep  func(context.Context, time.Duration) error
	now    func() time.Time
	prober *Prober
}

// Option configures a finder
type Option func(*options)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithSleep replaces the delay between queries (tests)
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(o *options) { o.sleep = sleep }
}

// WithClock fixes the current time used for {year} queries (tests)
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithProber verifies reference URLs before they are returned
func WithProber(p *Prober) Option {
	return func(o *options) { o.prober = p }
}

func buildOptions(opts []Option) options {
	o := options{
		logger: zap.NewNop(),
		sleep:  sleepContext,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
