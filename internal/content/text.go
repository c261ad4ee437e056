// Package content holds text measurements shared by the healer, the link
// injector and the orchestrator's acceptance gate.
package content

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var tagPattern = regexp.MustCompile(`<\s*/?\s*[a-zA-Z][a-zA-Z0-9]*[^>]*>`)

// PlainText returns the visible text of an HTML fragment with whitespace collapsed
func PlainText(htmlContent string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return strings.Join(strings.Fields(tagPattern.ReplaceAllString(htmlContent, " ")), " ")
	}
	doc.Find("script, style, noscript").Remove()

	// Block elements glue their text together in Text(); pad them first
	doc.Find("p, h1, h2, h3, h4, h5, h6, li, td, th, div, br, section, article, blockquote, figcaption").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})

	return strings.Join(strings.Fields(doc.Text()), " ")
}

// WordCount counts words in the visible text of an HTML fragment
func WordCount(htmlContent string) int {
	return CountWords(PlainText(htmlContent))
}

// CountWords counts whitespace-separated tokens that carry a letter or digit
func CountWords(text string) int {
	count := 0
	for _, field := range strings.Fields(text) {
		if strings.IndexFunc(field, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) >= 0 {
			count++
		}
	}
	return count
}

// HasMarkup reports whether text contains at least one HTML tag
func HasMarkup(text string) bool {
	return tagPattern.MatchString(text)
}

// Excerpt truncates plain text to at most limit characters on a word boundary
func Excerpt(text string, limit int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}

	cut := string(runes[:limit])
	if idx := strings.LastIndex(cut, " "); idx > limit/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,.;:-") + "..."
}

// Slugify builds a lowercase, hyphen-separated slug
func Slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteByte('-')
			lastDash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > 80 {
		slug = strings.TrimRight(slug[:80], "-")
	}
	return slug
}
