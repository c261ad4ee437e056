package orchestrator

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/seoforge/internal/model"
)

// assemble builds the final article body: the video goes before the second
// h2, FAQs and references are appended
func assemble(draft *model.ParsedDraft, video *model.DiscoveredVideo, refs []model.DiscoveredReference) string {
	body := draft.HTML

	if video != nil && video.VideoID != "" {
		body = insertBeforeSecondH2(body, videoEmbed(video))
	}
	if len(draft.FAQs) > 0 && !hasFAQSection(body) {
		body += faqSection(draft.FAQs)
	}
	if len(refs) > 0 {
		body += referenceSection(refs)
	}
	return body
}

func insertBeforeSecondH2(body, fragment string) string {
	lower := strings.ToLower(body)
	first := strings.Index(lower, "<h2")
	if first >= 0 {
		if second := strings.Index(lower[first+3:], "<h2"); second >= 0 {
			at := first + 3 + second
			return body[:at] + fragment + body[at:]
		}
	}
	return body + fragment
}

func videoEmbed(v *model.DiscoveredVideo) string {
	title := html.EscapeString(v.Title)
	var b strings.Builder
	b.WriteString(`<figure class="video-embed">`)
	b.WriteString(`<div style="position:relative;padding-bottom:56.25%;height:0;overflow:hidden;">`)
	fmt.Fprintf(&b, `<iframe src="%s" title="%s" style="position:absolute;top:0;left:0;width:100%%;height:100%%;border:0;" `,
		html.EscapeString(v.EmbedURL()), title)
	b.WriteString(`allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture" allowfullscreen loading="lazy"></iframe>`)
	b.WriteString(`</div>`)
	if title != "" {
		fmt.Fprintf(&b, `<figcaption>%s</figcaption>`, title)
	}
	b.WriteString(`</figure>`)
	return b.String()
}

func hasFAQSection(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "frequently asked questions") || strings.Contains(lower, ">faq")
}

func faqSection(faqs []model.FAQ) string {
	var b strings.Builder
	b.WriteString(`<section class="faq"><h2>Frequently Asked Questions</h2>`)
	for _, f := range faqs {
		fmt.Fprintf(&b, "<h3>%s</h3><p>%s</p>", html.EscapeString(f.Question), html.EscapeString(f.Answer))
	}
	b.WriteString(`</section>`)
	return b.String()
}

func referenceSection(refs []model.DiscoveredReference) string {
	var b strings.Builder
	b.WriteString(`<h2>References</h2><ol class="references">`)
	for _, r := range refs {
		title := r.Title
		if title == "" {
			title = r.URL
		}
		fmt.Fprintf(&b, `<li><a href="%s" target="_blank" rel="noopener nofollow">%s</a>`,
			html.EscapeString(r.URL), html.EscapeString(title))
		if r.Source != "" {
			fmt.Fprintf(&b, " - %s", html.EscapeString(r.Source))
		}
		if r.Year > 0 {
			fmt.Fprintf(&b, " (%d)", r.Year)
		}
		b.WriteString("</li>")
	}
	b.WriteString("</ol>")
	return b.String()
}
