// Package heal recovers structured article drafts from loosely formatted
// model output: prose-wrapped, fenced, truncated or sprinkled with stray commas.
package heal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/ppiankov/seoforge/internal/content"
	"github.com/ppiankov/seoforge/internal/model"
)

// Strategy names the recovery step that produced a candidate
type Strategy string

const (
	StrategyDirect        Strategy = "direct"
	StrategyFenced        Strategy = "fenced"
	StrategyBraceSpan     Strategy = "brace_span"
	StrategyTrailingComma Strategy = "trailing_comma"
	StrategyBraceBalance  Strategy = "brace_balance"
)

// ErrUnhealable is wrapped by every healing failure
var ErrUnhealable = errors.New("unhealable model output")

// Error lists why each strategy rejected the output
type Error struct {
	Reasons []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnhealable, strings.Join(e.Reasons, "; "))
}

func (e *Error) Unwrap() error {
	return ErrUnhealable
}

var (
	fencePattern     = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\\n?(.*?)```")
	openFencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\\n?(.*)$")
)

// rawDraft mirrors the JSON shape requested in the prompt. Alternate field
// names cover models that drift from the requested schema.
type rawDraft struct {
	Title           string          `json:"title"`
	MetaDescription string          `json:"metaDescription"`
	MetaAlt         string          `json:"meta_description"`
	Slug            string          `json:"slug"`
	HTMLContent     string          `json:"htmlContent"`
	HTMLAlt         string          `json:"html_content"`
	Content         string          `json:"content"`
	Excerpt         string          `json:"excerpt"`
	WordCount       json.RawMessage `json:"wordCount,omitempty"` // Ignored, recomputed
	FAQs            json.RawMessage `json:"faqs,omitempty"`
}

type faqItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// faqs decodes the FAQ list leniently; a malformed list is dropped rather
// than failing an otherwise usable draft
func (r rawDraft) faqs() []faqItem {
	if len(r.FAQs) == 0 {
		return nil
	}
	var items []faqItem
	if err := json.Unmarshal(r.FAQs, &items); err != nil {
		return nil
	}
	return items
}

func (r rawDraft) body() string {
	for _, candidate := range []string{r.HTMLContent, r.HTMLAlt, r.Content} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return ""
}

type step struct {
	name    Strategy
	extract func(string) (string, bool)
}

var cascade = []step{
	{StrategyDirect, func(s string) (string, bool) { return s, true }},
	{StrategyFenced, extractFenced},
	{StrategyBraceSpan, extractBraceSpan},
	{StrategyTrailingComma, stripTrailingCommas},
	{StrategyBraceBalance, balanceBraces},
}

// Extract runs the recovery cascade, most precise step first, and returns the
// first candidate that decodes to an object carrying a content body
func Extract(raw string) ([]byte, Strategy, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil, "", &Error{Reasons: []string{"empty output"}}
	}

	var reasons []string
	for _, st := range cascade {
		candidate, ok := st.extract(text)
		if !ok {
			reasons = append(reasons, fmt.Sprintf("%s: not applicable", st.name))
			continue
		}

		var draft rawDraft
		if err := json.Unmarshal([]byte(candidate), &draft); err != nil {
			reasons = append(reasons, fmt.Sprintf("%s: %v", st.name, err))
			continue
		}
		if draft.body() == "" {
			reasons = append(reasons, fmt.Sprintf("%s: missing htmlContent", st.name))
			continue
		}
		return []byte(candidate), st.name, nil
	}

	return nil, "", &Error{Reasons: reasons}
}

// Heal recovers a ParsedDraft from raw model output. The word count is always
// measured from the body, never taken from the model.
func Heal(raw string) (*model.ParsedDraft, Strategy, error) {
	data, strategy, err := Extract(raw)
	if err != nil {
		return nil, "", err
	}

	var r rawDraft
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, "", fmt.Errorf("decode healed draft: %w", err)
	}

	body := strings.TrimSpace(r.body())
	if !content.HasMarkup(body) {
		rendered, err := renderMarkdown(body)
		if err != nil {
			return nil, "", fmt.Errorf("render markdown body: %w", err)
		}
		body = rendered
	}

	draft := &model.ParsedDraft{
		Title:           strings.TrimSpace(r.Title),
		MetaDescription: strings.TrimSpace(firstNonEmpty(r.MetaDescription, r.MetaAlt)),
		Slug:            strings.TrimSpace(r.Slug),
		HTML:            body,
		Excerpt:         strings.TrimSpace(r.Excerpt),
	}
	for _, f := range r.faqs() {
		if strings.TrimSpace(f.Question) == "" || strings.TrimSpace(f.Answer) == "" {
			continue
		}
		draft.FAQs = append(draft.FAQs, model.FAQ{Question: strings.TrimSpace(f.Question), Answer: strings.TrimSpace(f.Answer)})
	}

	Normalize(draft)
	return draft, strategy, nil
}

// Normalize fills derivable fields and recomputes the word count
func Normalize(draft *model.ParsedDraft) {
	text := content.PlainText(draft.HTML)
	if draft.Slug == "" {
		draft.Slug = content.Slugify(draft.Title)
	} else {
		draft.Slug = content.Slugify(draft.Slug)
	}
	if draft.Excerpt == "" {
		draft.Excerpt = content.Excerpt(text, 160)
	}
	if draft.MetaDescription == "" {
		draft.MetaDescription = content.Excerpt(text, 155)
	}
	draft.WordCount = content.CountWords(text)
}

func extractFenced(text string) (string, bool) {
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	// Truncated output may open a fence and never close it
	if m := openFencePattern.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1]), true
	}
	return "", false
}

func extractBraceSpan(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

func stripTrailingCommas(text string) (string, bool) {
	candidate := text
	if span, ok := extractBraceSpan(text); ok {
		candidate = span
	}
	return dropTrailingCommas(candidate), true
}

// dropTrailingCommas removes each comma that is followed only by whitespace
// before a closing brace or bracket. Commas inside string values are kept.
func dropTrailingCommas(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			b.WriteByte(c)
			continue
		}
		switch c {
		case '"':
			inString = true
		case ',':
			next := strings.TrimLeft(text[i+1:], " \t\r\n")
			if next != "" && (next[0] == '}' || next[0] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// balanceBraces takes everything from the first '{', drops trailing commas,
// closes an unterminated string and appends the closers still owed
func balanceBraces(text string) (string, bool) {
	if fenced, ok := extractFenced(text); ok && strings.Contains(fenced, "{") {
		text = fenced
	}
	start := strings.Index(text, "{")
	if start < 0 {
		return "", false
	}
	candidate := strings.TrimRight(text[start:], " \t\r\n`")
	candidate = dropTrailingCommas(candidate)

	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(candidate); i++ {
		c := candidate[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if len(stack) == 0 && !inString {
		return candidate, true
	}

	var b strings.Builder
	b.WriteString(candidate)
	if inString {
		if escaped {
			b.WriteByte('\\')
		}
		b.WriteByte('"')
	}
	repaired := strings.TrimRight(b.String(), " \t\r\n")
	repaired = strings.TrimSuffix(repaired, ",")
	b.Reset()
	b.WriteString(repaired)
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String(), true
}

func renderMarkdown(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
