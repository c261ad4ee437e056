package linker

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/seoforge/internal/content"
	"github.com/ppiankov/seoforge/internal/model"
)

// Anchor strategies, most precise first
const (
	StrategyPhrase          = "phrase"
	StrategyKeywordAdjacent = "keyword_adjacent"
	StrategyKeywordRelaxed  = "keyword_relaxed"
	StrategySlug            = "slug"
)

var strategyWeights = map[string]float64{
	StrategyPhrase:          1.0,
	StrategyKeywordAdjacent: 0.8,
	StrategyKeywordRelaxed:  0.6,
	StrategySlug:            0.5,
}

// Bounds limits anchor length
type Bounds struct {
	MinChars int
	MaxChars int
	MinWords int
	MaxWords int
}

// BoundsFrom reads the anchor limits out of a link config, strict mode
// included
func BoundsFrom(cfg model.LinkConfig) Bounds {
	cfg = cfg.Tightened()
	return Bounds{
		MinChars: cfg.MinAnchorChars,
		MaxChars: cfg.MaxAnchorChars,
		MinWords: cfg.MinAnchorWords,
		MaxWords: cfg.MaxAnchorWords,
	}
}

// Allows reports whether text fits the bounds
func (b Bounds) Allows(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	chars := utf8.RuneCountInString(text)
	words := len(strings.Fields(text))
	if chars < b.MinChars || (b.MaxChars > 0 && chars > b.MaxChars) {
		return false
	}
	if words < b.MinWords || (b.MaxWords > 0 && words > b.MaxWords) {
		return false
	}
	return true
}

// Anchor is a span of paragraph text chosen as link text
type Anchor struct {
	Text     string
	Start    int // byte offset in the searched text
	Strategy string
	Weight   float64
}

// word is one token of the searched text with its byte span
type word struct {
	lower      string
	start, end int
}

func splitWords(text string) []word {
	var words []word
	start := -1
	for i, r := range text {
		inWord := unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '\''
		if inWord && start < 0 {
			start = i
		}
		if !inWord && start >= 0 {
			words = appendWord(words, text, start, i)
			start = -1
		}
	}
	if start >= 0 {
		words = appendWord(words, text, start, len(text))
	}
	return words
}

func appendWord(words []word, text string, start, end int) []word {
	// Trim hyphens and apostrophes that act as punctuation
	for start < end && (text[start] == '-' || text[start] == '\'') {
		start++
	}
	for end > start && (text[end-1] == '-' || text[end-1] == '\'') {
		end--
	}
	if start == end {
		return words
	}
	return append(words, word{lower: strings.ToLower(text[start:end]), start: start, end: end})
}

// FindAnchor picks link text for target inside text. It returns false when
// no candidate fits the bounds; there is no generic fallback.
func FindAnchor(text string, target model.LinkTarget, bounds Bounds) (Anchor, bool) {
	words := splitWords(text)
	if len(words) == 0 {
		return Anchor{}, false
	}

	titleKeywords := content.Keywords(target.Title, 3)

	// 1. Longest contiguous run of title keywords, 4 words down to 2
	for n := min(4, len(titleKeywords)); n >= 2; n-- {
		for i := 0; i+n <= len(titleKeywords); i++ {
			if a, ok := findPhrase(text, words, titleKeywords[i:i+n], bounds); ok {
				return a.with(StrategyPhrase), true
			}
		}
	}

	// 2. Important keyword plus an adjacent word
	if a, ok := findKeywordAdjacent(text, words, titleKeywords, 5, bounds); ok {
		return a.with(StrategyKeywordAdjacent), true
	}

	// 3. Shorter keywords, same shape
	if a, ok := findKeywordAdjacent(text, words, titleKeywords, 4, bounds); ok {
		return a.with(StrategyKeywordRelaxed), true
	}

	// 4. A single distinctive slug word
	for _, kw := range slugKeywords(target.Slug, 5) {
		if a, ok := findPhrase(text, words, []string{kw}, bounds); ok {
			return a.with(StrategySlug), true
		}
	}

	return Anchor{}, false
}

func (a Anchor) with(strategy string) Anchor {
	a.Strategy = strategy
	a.Weight = strategyWeights[strategy]
	return a
}

// findPhrase returns the first place where phrase occurs as consecutive
// words separated only by whitespace
func findPhrase(text string, words []word, phrase []string, bounds Bounds) (Anchor, bool) {
	n := len(phrase)
	for i := 0; i+n <= len(words); i++ {
		match := true
		for j := 0; j < n; j++ {
			if words[i+j].lower != phrase[j] || (j > 0 && !onlySpace(text[words[i+j-1].end:words[i+j].start])) {
				match = false
				break
			}
		}
		if !match {
			continue
		}
		if a, ok := span(text, words[i], words[i+n-1], bounds); ok {
			return a, true
		}
	}
	return Anchor{}, false
}

func findKeywordAdjacent(text string, words []word, keywords []string, minLen int, bounds Bounds) (Anchor, bool) {
	for _, kw := range keywords {
		if utf8.RuneCountInString(kw) < minLen {
			continue
		}
		for i, w := range words {
			if w.lower != kw {
				continue
			}
			// After, then before
			if i+1 < len(words) && usableNeighbor(text, words[i], words[i+1]) {
				if a, ok := span(text, words[i], words[i+1], bounds); ok {
					return a, true
				}
			}
			if i > 0 && usableNeighbor(text, words[i-1], words[i]) {
				if a, ok := span(text, words[i-1], words[i], bounds); ok {
					return a, true
				}
			}
		}
	}
	return Anchor{}, false
}

// usableNeighbor checks the pair is whitespace-joined and neither side is a
// stop word or a bare number
func usableNeighbor(text string, left, right word) bool {
	if !onlySpace(text[left.end:right.start]) {
		return false
	}
	for _, w := range []word{left, right} {
		if content.IsStopWord(w.lower) || utf8.RuneCountInString(w.lower) < 2 || isNumber(w.lower) {
			return false
		}
	}
	return true
}

func span(text string, first, last word, bounds Bounds) (Anchor, bool) {
	s := text[first.start:last.end]
	if !bounds.Allows(s) {
		return Anchor{}, false
	}
	return Anchor{Text: s, Start: first.start}, true
}

func slugKeywords(slug string, minLen int) []string {
	var out []string
	for _, part := range strings.Split(strings.ToLower(slug), "-") {
		if utf8.RuneCountInString(part) < minLen || content.IsStopWord(part) || content.IsFillerWord(part) || isNumber(part) {
			continue
		}
		out = append(out, part)
	}
	return out
}

func onlySpace(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
