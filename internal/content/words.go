package content

import (
	"strings"
	"unicode"
)

var stopWords = toSet(`a about above after again against all also am an and any are as at be
because been before being below between both but by can could did do does doing down during
each either few for from further had has have having he her here hers him his how i if in
into is it its itself just let me more most my no nor not now of off on once only or other
our ours out over own same she should so some such than that the their them then there these
they this those through to too under until up very was we were what when where which while
who whom why will with within without would you your yours`)

// Words that describe an article's format rather than its subject
var fillerWords = toSet(`guide guides best top tips tricks basics basic ultimate complete
introduction intro beginner beginners beginner's tutorial overview everything need know
ways things simple easy quick step steps essential essentials definitive comprehensive
review reviews vs versus new latest updated`)

// IsStopWord reports whether w (any case) is a function word
func IsStopWord(w string) bool {
	return stopWords[strings.ToLower(w)]
}

// IsFillerWord reports whether w (any case) is a generic title word
func IsFillerWord(w string) bool {
	return fillerWords[strings.ToLower(w)]
}

// Tokenize splits text into lowercase words of letters, digits, hyphens and
// apostrophes, keeping their order
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '\'')
	})
	out := fields[:0]
	for _, f := range fields {
		f = strings.Trim(f, "-'")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// Keywords returns the distinct content words of text at least minLen runes
// long, in first-seen order
func Keywords(text string, minLen int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range Tokenize(text) {
		if len([]rune(tok)) < minLen || IsStopWord(tok) || IsFillerWord(tok) || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	return out
}

func toSet(words string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(words) {
		set[w] = true
	}
	return set
}
