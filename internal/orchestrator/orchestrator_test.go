package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ppiankov/seoforge/internal/breaker"
	"github.com/ppiankov/seoforge/internal/llm"
	"github.com/ppiankov/seoforge/internal/model"
)

// The genai SDK links in opencensus, whose view worker starts in init and
// lives for the whole process.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type reply struct {
	text string
	err  error
}

// stubProvider replays replies in order, repeating the last one
type stubProvider struct {
	mu      sync.Mutex
	replies []reply
	calls   int
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r := p.replies[min(p.calls, len(p.replies)-1)]
	p.calls++
	return r.text, r.err
}

func (p *stubProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type referenceFunc func(ctx context.Context, topic, apiKey string) ([]model.DiscoveredReference, error)

func (f referenceFunc) Discover(ctx context.Context, topic, apiKey string) ([]model.DiscoveredReference, error) {
	return f(ctx, topic, apiKey)
}

type videoFunc func(ctx context.Context, topic, apiKey string) (*model.DiscoveredVideo, error)

func (f videoFunc) Discover(ctx context.Context, topic, apiKey string) (*model.DiscoveredVideo, error) {
	return f(ctx, topic, apiKey)
}

// widgetBody is one section of roughly 150 words mentioning the title phrase
func widgetBody() string {
	filler := strings.Repeat("Careful planning keeps every project on schedule and within a sensible budget. ", 11)
	return "<h2>A</h2><p>Teams that master widget management save hours every week. " + filler + "</p>"
}

func draftJSON(t *testing.T, body string) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"title":           "Widget Management in Practice",
		"metaDescription": "How teams run widget management day to day.",
		"slug":            "widget-management-in-practice",
		"htmlContent":     body,
		"excerpt":         "A practical look at widget management.",
		"faqs": []map[string]string{
			{"question": "How long does setup take?", "answer": "Most teams finish setup in a single afternoon."},
		},
	})
	require.NoError(t, err)
	return string(data)
}

type recorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (r *recorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sleeps = append(r.sleeps, d)
	return ctx.Err()
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Content.MinWordCount = 100
	cfg.Retry.BaseDelay = time.Second
	cfg.Retry.StageTimeout = 5 * time.Second
	cfg.Retry.DiscoveryTimeout = 5 * time.Second
	return cfg
}

func testRequest() model.GenerationRequest {
	return model.GenerationRequest{
		Topic:    "widget management",
		Provider: model.ProviderOpenAI,
		Credentials: model.Credentials{
			APIKeys:      map[model.Provider]string{model.ProviderOpenAI: "sk-test"},
			SearchAPIKey: "serper-test",
		},
	}
}

func newTestOrchestrator(cfg *model.Config, p *stubProvider, rec *recorder, opts ...Option) *Orchestrator {
	base := []Option{
		WithProviderFactory(func(llm.Config) (llm.Provider, error) { return p, nil }),
		WithSleep(rec.sleep),
	}
	return New(cfg, append(base, opts...)...)
}

func noVideo(context.Context, string, string) (*model.DiscoveredVideo, error) { return nil, nil }

func TestGenerateEndToEnd(t *testing.T) {
	p := &stubProvider{replies: []reply{{text: draftJSON(t, widgetBody())}}}
	refs := referenceFunc(func(ctx context.Context, topic, apiKey string) ([]model.DiscoveredReference, error) {
		assert.Equal(t, "widget management", topic)
		assert.Equal(t, "serper-test", apiKey)
		return []model.DiscoveredReference{
			{URL: "https://www.nist.gov/widgets", Title: "Widget Standards", Source: "nist.gov", AuthorityScore: 95},
			{URL: "https://www.reuters.com/widgets", Title: "Widget Market", Source: "reuters.com", AuthorityScore: 85},
		}, nil
	})
	o := newTestOrchestrator(testConfig(), p, &recorder{},
		WithReferenceFinder(refs), WithVideoFinder(videoFunc(noVideo)))

	req := testRequest()
	req.LinkTargets = []model.LinkTarget{{Title: "Widget Management Basics", URL: "/widgets"}}

	res, err := o.Generate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, "openai:gpt-4o", res.Method)
	assert.Nil(t, res.Video)
	assert.Nil(t, res.Contract.Video)
	assert.Len(t, res.References, 2)
	assert.Len(t, res.Contract.References, 2)

	assert.Equal(t, 1, strings.Count(res.Contract.HTML, `href="/widgets"`))
	require.Len(t, res.Contract.Links, 1)
	assert.Contains(t, res.Contract.Links[0].Anchor, "widget management")
	assert.Contains(t, res.Contract.HTML, `<a href="/widgets">widget management</a>`)

	assert.Contains(t, res.Contract.HTML, "<h2>Frequently Asked Questions</h2>")
	assert.Contains(t, res.Contract.HTML, "<h2>References</h2>")
	assert.GreaterOrEqual(t, res.Contract.WordCount, 150)
	assert.Equal(t, "widget-management-in-practice", res.Contract.Slug)
	assert.Equal(t, breaker.StateClosed, o.Breakers().State("openai"))
}

func TestGenerateRetriesAfterUnparsableOutput(t *testing.T) {
	p := &stubProvider{replies: []reply{
		{text: "Sorry, I cannot produce that article right now."},
		{text: draftJSON(t, widgetBody())},
	}}
	rec := &recorder{}
	o := newTestOrchestrator(testConfig(), p, rec)

	res, err := o.Generate(context.Background(), testRequest())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, 2, p.Calls())
	assert.Equal(t, []time.Duration{time.Second}, rec.sleeps)
	// Parse failures say nothing about backend health
	assert.Zero(t, o.Breakers().Snapshot("openai").Failures)
}

func TestGenerateSurvivesFailingDiscovery(t *testing.T) {
	p := &stubProvider{replies: []reply{{text: draftJSON(t, widgetBody())}}}
	refs := referenceFunc(func(context.Context, string, string) ([]model.DiscoveredReference, error) {
		return nil, errors.New("simulated network failure")
	})
	videos := videoFunc(func(context.Context, string, string) (*model.DiscoveredVideo, error) {
		panic("video task exploded")
	})
	o := newTestOrchestrator(testConfig(), p, &recorder{}, WithReferenceFinder(refs), WithVideoFinder(videos))

	res, err := o.Generate(context.Background(), testRequest())
	require.NoError(t, err)

	assert.NotNil(t, res.Contract.References)
	assert.Empty(t, res.Contract.References)
	assert.Nil(t, res.Video)
	assert.NotContains(t, res.Contract.HTML, "<h2>References</h2>")
}

func TestGenerateEmbedsVideo(t *testing.T) {
	body := "<h2>First</h2>" + strings.TrimPrefix(widgetBody(), "<h2>A</h2>") + "<h2>Second</h2><p>Closing thoughts.</p>"
	p := &stubProvider{replies: []reply{{text: draftJSON(t, body)}}}
	videos := videoFunc(func(context.Context, string, string) (*model.DiscoveredVideo, error) {
		return &model.DiscoveredVideo{VideoID: "dQw4w9WgXcQ", Title: "Widget walkthrough", Views: 50000, RelevanceScore: 80}, nil
	})
	o := newTestOrchestrator(testConfig(), p, &recorder{}, WithVideoFinder(videos))

	res, err := o.Generate(context.Background(), testRequest())
	require.NoError(t, err)

	require.NotNil(t, res.Video)
	html := res.Contract.HTML
	iframe := strings.Index(html, "youtube.com/embed/dQw4w9WgXcQ")
	require.Positive(t, iframe)
	assert.Less(t, strings.Index(html, "<h2>First</h2>"), iframe)
	assert.Less(t, iframe, strings.Index(html, "<h2>Second</h2>"))
}

func TestGenerateRejectsInvalidRequests(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.GenerationRequest)
	}{
		{"empty topic", func(r *model.GenerationRequest) { r.Topic = "   " }},
		{"unknown provider", func(r *model.GenerationRequest) { r.Provider = "backend-x" }},
		{"missing key", func(r *model.GenerationRequest) { r.Provider = model.ProviderAnthropic }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubProvider{replies: []reply{{text: draftJSON(t, widgetBody())}}}
			rec := &recorder{}
			o := newTestOrchestrator(testConfig(), p, rec)

			req := testRequest()
			tt.mutate(&req)
			_, err := o.Generate(context.Background(), req)

			require.ErrorIs(t, err, ErrInvalidRequest)
			assert.Equal(t, ClassPermanent, Classify(err))
			assert.Zero(t, p.Calls())
			assert.Empty(t, rec.sleeps)
		})
	}
}

func TestGenerateOllamaNeedsNoKey(t *testing.T) {
	p := &stubProvider{replies: []reply{{text: draftJSON(t, widgetBody())}}}
	o := newTestOrchestrator(testConfig(), p, &recorder{})

	req := testRequest()
	req.Provider = model.ProviderOllama
	req.Model = "llama3.1:8b"
	res, err := o.Generate(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "ollama:llama3.1:8b", res.Method)
}

func TestGenerateShortCircuitsOpenBreaker(t *testing.T) {
	reg := breaker.NewRegistry(3, time.Hour)
	for i := 0; i < 3; i++ {
		reg.RecordFailure("openai")
	}
	p := &stubProvider{replies: []reply{{text: draftJSON(t, widgetBody())}}}
	o := newTestOrchestrator(testConfig(), p, &recorder{}, WithBreakers(reg))

	_, err := o.Generate(context.Background(), testRequest())

	var exhausted *AttemptsExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, ClassCircuitOpen, exhausted.Class)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Zero(t, p.Calls())
}

func TestGenerateTransientErrorsTripBreaker(t *testing.T) {
	cfg := testConfig()
	cfg.Breaker.FailureThreshold = 2
	p := &stubProvider{replies: []reply{{err: &llm.StatusError{Provider: "openai", StatusCode: 503, Message: "overloaded"}}}}
	rec := &recorder{}
	o := newTestOrchestrator(cfg, p, rec)

	_, err := o.Generate(context.Background(), testRequest())

	var exhausted *AttemptsExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, 2, p.Calls())
	assert.Equal(t, ClassCircuitOpen, exhausted.Class)
	assert.Equal(t, breaker.StateOpen, o.Breakers().State("openai"))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.sleeps)
}

func TestGenerateStopsOnPermanentProviderError(t *testing.T) {
	p := &stubProvider{replies: []reply{{err: &llm.StatusError{Provider: "openai", StatusCode: 400, Message: "bad model"}}}}
	rec := &recorder{}
	o := newTestOrchestrator(testConfig(), p, rec)

	_, err := o.Generate(context.Background(), testRequest())

	var exhausted *AttemptsExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 1, exhausted.Attempts)
	assert.Equal(t, ClassPermanent, exhausted.Class)
	assert.Equal(t, 400, llm.StatusCode(err))
	assert.Empty(t, rec.sleeps)
	assert.Zero(t, o.Breakers().Snapshot("openai").Failures)
}

func TestGenerateRejectedTrialFreesHalfOpenCircuit(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	reg := breaker.NewRegistry(3, time.Minute)
	reg.SetClock(func() time.Time { return now })
	for i := 0; i < 3; i++ {
		reg.RecordFailure("openai")
	}
	now = now.Add(time.Minute)

	p := &stubProvider{replies: []reply{
		{err: &llm.StatusError{Provider: "openai", StatusCode: 400, Message: "bad model"}},
		{text: draftJSON(t, widgetBody())},
	}}
	o := newTestOrchestrator(testConfig(), p, &recorder{}, WithBreakers(reg))

	_, err := o.Generate(context.Background(), testRequest())
	assert.Equal(t, 400, llm.StatusCode(err))
	assert.False(t, reg.Snapshot("openai").HalfOpen)

	res, err := o.Generate(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 2, p.Calls())
	assert.Equal(t, breaker.StateClosed, reg.State("openai"))
}

func TestGenerateRejectsShortDrafts(t *testing.T) {
	p := &stubProvider{replies: []reply{{text: draftJSON(t, "<h2>A</h2><p>Too short to publish.</p>")}}}
	rec := &recorder{}
	o := newTestOrchestrator(testConfig(), p, rec)

	_, err := o.Generate(context.Background(), testRequest())

	var exhausted *AttemptsExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, ClassValidation, exhausted.Class)
	assert.ErrorIs(t, err, ErrInsufficientContent)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.sleeps)
}

func TestGenerateDiscoveryLaunchPolicy(t *testing.T) {
	for _, perAttempt := range []bool{true, false} {
		cfg := testConfig()
		cfg.Discovery.PerAttempt = perAttempt
		p := &stubProvider{replies: []reply{
			{text: "not an article"},
			{text: draftJSON(t, widgetBody())},
		}}
		var launches atomic.Int32
		refs := referenceFunc(func(context.Context, string, string) ([]model.DiscoveredReference, error) {
			launches.Add(1)
			return []model.DiscoveredReference{{URL: "https://www.nasa.gov/a", Title: "A", AuthorityScore: 95}}, nil
		})
		o := newTestOrchestrator(cfg, p, &recorder{}, WithReferenceFinder(refs))

		res, err := o.Generate(context.Background(), testRequest())
		require.NoError(t, err)
		assert.Equal(t, 2, res.Attempts)
		assert.Len(t, res.References, 1)

		want := int32(1)
		if perAttempt {
			want = 2
		}
		assert.Equal(t, want, launches.Load(), "perAttempt=%v", perAttempt)
	}
}

func TestGenerateUsesSuppliedReferences(t *testing.T) {
	p := &stubProvider{replies: []reply{{text: draftJSON(t, widgetBody())}}}
	refs := referenceFunc(func(context.Context, string, string) ([]model.DiscoveredReference, error) {
		t.Error("reference discovery must not run when references are supplied")
		return nil, nil
	})
	o := newTestOrchestrator(testConfig(), p, &recorder{}, WithReferenceFinder(refs))

	req := testRequest()
	req.References = []model.DiscoveredReference{
		{URL: "https://example.com/low", Title: "Low", AuthorityScore: 55},
		{URL: "https://www.cdc.gov/high", Title: "High", AuthorityScore: 95},
		{URL: "https://www.cdc.gov/high/", Title: "High again", AuthorityScore: 95},
	}
	res, err := o.Generate(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, res.References, 2)
	assert.Equal(t, "High", res.References[0].Title)
	assert.Equal(t, "Low", res.References[1].Title)
}

func TestGenerateCancelsSlowDiscoveryOnFailedAttempt(t *testing.T) {
	cfg := testConfig()
	cfg.Retry.MaxAttempts = 2
	p := &stubProvider{replies: []reply{{text: "garbage"}}}
	var cancelled atomic.Int32
	videos := videoFunc(func(ctx context.Context, _, _ string) (*model.DiscoveredVideo, error) {
		<-ctx.Done()
		cancelled.Add(1)
		return nil, ctx.Err()
	})
	o := newTestOrchestrator(cfg, p, &recorder{}, WithVideoFinder(videos))

	_, err := o.Generate(context.Background(), testRequest())

	require.Error(t, err)
	assert.Equal(t, ClassParse, Classify(err))
	assert.Equal(t, int32(2), cancelled.Load())
}

func TestGenerateHonorsCancelledContext(t *testing.T) {
	p := &stubProvider{replies: []reply{{text: "garbage"}}}
	o := newTestOrchestrator(testConfig(), p, &recorder{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := o.Generate(ctx, testRequest())

	var exhausted *AttemptsExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 1, exhausted.Attempts)
}
