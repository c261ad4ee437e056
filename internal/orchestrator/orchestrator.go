// Package orchestrator runs one article generation end to end: provider call
// under the circuit breaker, healing, discovery join, assembly and link
// injection, retried as a whole on failure.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/seoforge/internal/breaker"
	"github.com/ppiankov/seoforge/internal/content"
	"github.com/ppiankov/seoforge/internal/heal"
	"github.com/ppiankov/seoforge/internal/linker"
	"github.com/ppiankov/seoforge/internal/llm"
	"github.com/ppiankov/seoforge/internal/model"
)

// ProviderFactory builds an adapter for one request
type ProviderFactory func(llm.Config) (llm.Provider, error)

// Orchestrator generates articles. It is safe for concurrent use; the
// breaker registry is shared by every call.
type Orchestrator struct {
	cfg         *model.Config
	breakers    *breaker.Registry
	references  ReferenceDiscoverer
	videos      VideoDiscoverer
	injector    *linker.Injector
	newProvider ProviderFactory
	logger      *zap.Logger
	sleep       func(context.Context, time.Duration) error
	now         func() time.Time
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithReferenceFinder enables reference discovery
func WithReferenceFinder(d ReferenceDiscoverer) Option {
	return func(o *Orchestrator) { o.references = d }
}

// WithVideoFinder enables video discovery
func WithVideoFinder(d VideoDiscoverer) Option {
	return func(o *Orchestrator) { o.videos = d }
}

// WithBreakers shares a breaker registry between orchestrators
func WithBreakers(r *breaker.Registry) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.breakers = r
		}
	}
}

// WithProviderFactory replaces llm.NewProvider
func WithProviderFactory(f ProviderFactory) Option {
	return func(o *Orchestrator) {
		if f != nil {
			o.newProvider = f
		}
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSleep replaces the backoff sleep (tests)
func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(o *Orchestrator) {
		if sleep != nil {
			o.sleep = sleep
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an orchestrator. A nil cfg means model.DefaultConfig().
func New(cfg *model.Config, opts ...Option) *Orchestrator {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	o := &Orchestrator{
		cfg:         cfg,
		newProvider: llm.NewProvider,
		logger:      zap.NewNop(),
		sleep:       sleepContext,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.breakers == nil {
		o.breakers = breaker.NewRegistry(cfg.Breaker.FailureThreshold, cfg.Breaker.Cooldown)
	}
	o.injector = linker.NewInjector(cfg.Links, linker.WithLogger(o.logger))
	return o
}

// Breakers exposes the registry (status output, tests)
func (o *Orchestrator) Breakers() *breaker.Registry {
	return o.breakers
}

// Generate produces one validated, link-injected article or fails after the
// retry budget with *AttemptsExhaustedError
func (o *Orchestrator) Generate(ctx context.Context, req model.GenerationRequest) (*model.GenerationResult, error) {
	start := o.now()
	log := o.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.String("provider", string(req.Provider)),
	)

	if err := validateRequest(req); err != nil {
		return nil, err
	}

	llmConfig := llm.ConfigFor(o.cfg, req.Provider, o.modelFor(req), req.Credentials)
	provider, err := o.newProvider(llmConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	method := fmt.Sprintf("%s:%s", req.Provider, llmConfig.Model)
	log = log.With(zap.String("model", llmConfig.Model))

	maxAttempts := max(o.cfg.Retry.MaxAttempts, 1)

	var shared *discoveryRun
	if !o.cfg.Discovery.PerAttempt {
		shared = o.startDiscovery(ctx, req, log)
		defer shared.stop()
	}

	var lastErr error
	attempt := 0
	for attempt < maxAttempts {
		attempt++
		alog := log.With(zap.Int("attempt", attempt))

		run := shared
		if run == nil {
			run = o.startDiscovery(ctx, req, alog)
		}
		result, err := o.attempt(ctx, req, provider, run, alog)
		if run != shared {
			run.stop()
		}

		if err == nil {
			elapsed := o.now().Sub(start)
			result.Method = method
			result.Attempts = attempt
			result.Elapsed = elapsed
			result.ElapsedMs = elapsed.Milliseconds()
			alog.Info("article generated",
				zap.Int("words", result.Contract.WordCount),
				zap.Int("links", len(result.Contract.Links)),
				zap.Int("references", len(result.Contract.References)),
				zap.Duration("elapsed", elapsed))
			return result, nil
		}

		lastErr = err
		class := Classify(err)
		alog.Warn("attempt failed", zap.String("class", string(class)), zap.Error(err))
		if class == ClassPermanent || ctx.Err() != nil {
			break
		}

		if attempt < maxAttempts {
			if err := o.sleep(ctx, o.cfg.Retry.BaseDelay*time.Duration(attempt)); err != nil {
				lastErr = fmt.Errorf("wait before retry: %w", err)
				break
			}
		}
	}

	return nil, &AttemptsExhaustedError{
		Attempts: attempt,
		Last:     lastErr,
		Class:    Classify(lastErr),
	}
}

// attempt runs one draft cycle. The discovery run is joined only once a
// draft has passed healing and the first word-count gate.
func (o *Orchestrator) attempt(ctx context.Context, req model.GenerationRequest, provider llm.Provider, run *discoveryRun, log *zap.Logger) (*model.GenerationResult, error) {
	name := string(req.Provider)
	if o.breakers.IsOpen(name) {
		return nil, fmt.Errorf("%w for %s", ErrCircuitOpen, name)
	}

	callCtx, cancel := withTimeout(ctx, o.cfg.Retry.StageTimeout)
	raw, err := provider.Complete(callCtx, llm.CompletionRequest{
		Prompt:       llm.BuildArticlePrompt(req, o.targetWords(req)),
		SystemPrompt: llm.ArticleSystemPrompt,
	})
	cancel()
	if err != nil {
		if llm.IsTransient(err) {
			o.breakers.RecordFailure(name)
		} else {
			o.breakers.ReleaseTrial(name)
		}
		return nil, fmt.Errorf("request draft: %w", err)
	}
	o.breakers.RecordSuccess(name)

	draft, strategy, err := heal.Heal(raw)
	if err != nil {
		return nil, fmt.Errorf("heal draft: %w", err)
	}
	log.Debug("draft healed", zap.String("strategy", string(strategy)), zap.Int("words", draft.WordCount))

	minWords := o.cfg.Content.MinWordCount
	if draft.WordCount < minWords {
		return nil, fmt.Errorf("%w: draft has %d words, need %d", ErrInsufficientContent, draft.WordCount, minWords)
	}

	refs, video := run.wait()

	body := assemble(draft, video, refs)
	linked := o.injector.Inject(body, req.LinkTargets, req.CurrentURL)

	words := content.WordCount(linked.HTML)
	if words < minWords {
		return nil, fmt.Errorf("%w: article has %d words, need %d", ErrInsufficientContent, words, minWords)
	}

	if refs == nil {
		refs = []model.DiscoveredReference{}
	}
	return &model.GenerationResult{
		Contract: model.ContentContract{
			Title:           draft.Title,
			MetaDescription: draft.MetaDescription,
			Slug:            draft.Slug,
			HTML:            linked.HTML,
			Excerpt:         draft.Excerpt,
			WordCount:       words,
			FAQs:            draft.FAQs,
			References:      refs,
			Links:           linked.Placements,
			Video:           video,
		},
		Video:      video,
		References: refs,
	}, nil
}

func validateRequest(req model.GenerationRequest) error {
	if strings.TrimSpace(req.Topic) == "" {
		return fmt.Errorf("%w: topic is empty", ErrInvalidRequest)
	}
	if !req.Provider.Valid() {
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidRequest, req.Provider)
	}
	if req.Provider.RequiresAPIKey() && req.Credentials.APIKey(req.Provider) == "" {
		return fmt.Errorf("%w: no API key for %s", ErrInvalidRequest, req.Provider)
	}
	return nil
}

// modelFor picks the request model, then the configured one when it belongs
// to the same provider, then the adapter default
func (o *Orchestrator) modelFor(req model.GenerationRequest) string {
	if req.Model != "" {
		return req.Model
	}
	if strings.EqualFold(o.cfg.LLM.Provider, string(req.Provider)) && o.cfg.LLM.Model != "" {
		return o.cfg.LLM.Model
	}
	return llm.DefaultModel(string(req.Provider))
}

func (o *Orchestrator) targetWords(req model.GenerationRequest) int {
	if req.TargetWords > 0 {
		return req.TargetWords
	}
	if o.cfg.Content.DefaultTargetWords > 0 {
		return o.cfg.Content.DefaultTargetWords
	}
	return o.cfg.Content.MinWordCount
}

// withTimeout treats a non-positive budget as no deadline
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
