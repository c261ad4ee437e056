package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/seoforge/internal/model"
)

// ArticleSystemPrompt pins the output shape the healer expects
const ArticleSystemPrompt = `You are a senior SEO content writer. You reply with a single JSON object and nothing else.
The object has these fields:
  "title": string, under 65 characters
  "metaDescription": string, under 155 characters
  "slug": string, lowercase words joined by hyphens
  "htmlContent": string, the article body as HTML using <h2>, <h3>, <p>, <ul>, <ol>, <li>, <strong>
  "excerpt": string, one or two sentences
  "faqs": array of {"question": string, "answer": string}
Do not wrap the JSON in code fences. Do not include <html>, <head> or <body> tags.`

// BuildArticlePrompt renders the user prompt for one article
func BuildArticlePrompt(req model.GenerationRequest, targetWords int) string {
	tone := req.Tone
	if tone == "" {
		tone = model.ToneProfessional
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a comprehensive, original article about: %s\n\n", strings.TrimSpace(req.Topic))
	fmt.Fprintf(&b, "Length: at least %d words in htmlContent.\n", targetWords)
	fmt.Fprintf(&b, "Tone: %s.\n", tone)
	b.WriteString("Structure: an introduction, at least six <h2> sections with <h3> subsections where useful, and a conclusion.\n")
	b.WriteString("Write full paragraphs of 80 words or more. Use concrete examples, numbers and steps.\n")
	b.WriteString("Include 5 to 8 FAQs in the faqs field. Do not repeat them inside htmlContent.\n")
	b.WriteString("Do not add a references section or any hyperlinks; they are added later.\n")

	if len(req.LinkTargets) > 0 {
		b.WriteString("\nRelated pages on the same site (mention their subjects naturally where relevant, without links):\n")
		for i, target := range req.LinkTargets {
			if i >= 15 {
				break
			}
			fmt.Fprintf(&b, "- %s\n", target.Title)
		}
	}

	b.WriteString("\nRespond with the JSON object only.")
	return b.String()
}
