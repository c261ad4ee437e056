package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/seoforge/internal/heal"
	"github.com/ppiankov/seoforge/internal/llm"
	"github.com/ppiankov/seoforge/internal/model"
)

func TestAssemble(t *testing.T) {
	draft := &model.ParsedDraft{
		HTML: "<h2>One</h2><p>First.</p><h2>Two</h2><p>Second.</p>",
		FAQs: []model.FAQ{{Question: "Is it <safe>?", Answer: "Yes & no."}},
	}
	video := &model.DiscoveredVideo{VideoID: "abcdefghijk", Title: "Demo"}
	refs := []model.DiscoveredReference{
		{URL: "https://www.nih.gov/x", Title: "NIH study", Source: "nih.gov", Year: 2024},
		{URL: "https://example.org/y", Source: "example.org"},
	}

	got := assemble(draft, video, refs)

	embed := strings.Index(got, `src="https://www.youtube.com/embed/abcdefghijk"`)
	assert.Greater(t, embed, strings.Index(got, "<h2>One</h2>"))
	assert.Less(t, embed, strings.Index(got, "<h2>Two</h2>"))
	assert.Contains(t, got, "<figcaption>Demo</figcaption>")
	assert.Contains(t, got, "<h3>Is it &lt;safe&gt;?</h3><p>Yes &amp; no.</p>")
	assert.Contains(t, got, `<li><a href="https://www.nih.gov/x" target="_blank" rel="noopener nofollow">NIH study</a> - nih.gov (2024)</li>`)
	assert.Contains(t, got, `>https://example.org/y</a> - example.org</li>`)
	assert.True(t, strings.HasSuffix(got, "</ol>"))
}

func TestAssembleAppendsVideoWithoutSecondHeading(t *testing.T) {
	draft := &model.ParsedDraft{HTML: "<h2>Only</h2><p>Body.</p>"}
	got := assemble(draft, &model.DiscoveredVideo{VideoID: "abcdefghijk"}, nil)

	assert.True(t, strings.HasPrefix(got, "<h2>Only</h2><p>Body.</p><figure"))
	assert.NotContains(t, got, "figcaption")
}

func TestAssembleKeepsExistingFAQ(t *testing.T) {
	draft := &model.ParsedDraft{
		HTML: "<h2>FAQ</h2><p>Already answered.</p>",
		FAQs: []model.FAQ{{Question: "Q?", Answer: "A."}},
	}
	assert.Equal(t, draft.HTML, assemble(draft, nil, nil))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ""},
		{"invalid", fmt.Errorf("%w: topic is empty", ErrInvalidRequest), ClassPermanent},
		{"circuit", fmt.Errorf("%w for openai", ErrCircuitOpen), ClassCircuitOpen},
		{"unhealable", fmt.Errorf("heal draft: %w", &heal.Error{Reasons: []string{"empty output"}}), ClassParse},
		{"short", fmt.Errorf("%w: 10 words", ErrInsufficientContent), ClassValidation},
		{"rate limited", &llm.StatusError{StatusCode: 429}, ClassTransient},
		{"server", fmt.Errorf("request draft: %w", &llm.StatusError{StatusCode: 502}), ClassTransient},
		{"unauthorized", &llm.StatusError{StatusCode: 401}, ClassTransient},
		{"deadline", fmt.Errorf("request draft: %w", context.DeadlineExceeded), ClassTransient},
		{"bad request", &llm.StatusError{StatusCode: 400}, ClassPermanent},
		{"not found", &llm.StatusError{StatusCode: 404}, ClassPermanent},
		{"request timeout", &llm.StatusError{StatusCode: 408}, ClassTransient},
		{"unknown", errors.New("connection reset"), ClassTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestAttemptsExhaustedError(t *testing.T) {
	last := fmt.Errorf("%w: 10 words", ErrInsufficientContent)
	err := &AttemptsExhaustedError{Attempts: 3, Last: last, Class: ClassValidation}

	assert.ErrorIs(t, err, ErrInsufficientContent)
	assert.Equal(t, "generation failed after 3 attempt(s) [validation]: insufficient content: 10 words", err.Error())
}
