package llm

import (
	"strings"
	"testing"

	"github.com/ppiankov/seoforge/internal/model"
)

func TestBuildArticlePrompt(t *testing.T) {
	req := model.GenerationRequest{
		Topic: "  widget management  ",
		Tone:  model.ToneConversational,
		LinkTargets: []model.LinkTarget{
			{URL: "/widgets", Title: "Widget Management Basics"},
		},
	}

	prompt := BuildArticlePrompt(req, 2500)

	for _, want := range []string{
		"about: widget management\n",
		"at least 2500 words",
		"Tone: conversational.",
		"- Widget Management Basics",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if strings.Contains(prompt, "/widgets") {
		t.Error("prompt must not leak link URLs")
	}
}

func TestBuildArticlePrompt_DefaultTone(t *testing.T) {
	prompt := BuildArticlePrompt(model.GenerationRequest{Topic: "x"}, 2000)
	if !strings.Contains(prompt, "Tone: professional.") {
		t.Errorf("expected default tone, got:\n%s", prompt)
	}
}

func TestArticleSystemPrompt_NamesHealerFields(t *testing.T) {
	for _, field := range []string{`"title"`, `"metaDescription"`, `"slug"`, `"htmlContent"`, `"excerpt"`, `"faqs"`} {
		if !strings.Contains(ArticleSystemPrompt, field) {
			t.Errorf("system prompt missing %s", field)
		}
	}
}
