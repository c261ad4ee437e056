package discovery

import (
	"net/url"
	"strings"
)

// Authority tiers on the 0-100 scale
const (
	ScoreInstitutional = 95 // government, education, military, intergovernmental
	ScoreMajorNews     = 85
	ScoreTechPress     = 75
	ScoreReference     = 70
	ScoreHTTPS         = 55
	ScoreHTTP          = 40
	ScoreBlocked       = 0
)

var institutionalSuffixes = []string{
	".gov", ".edu", ".mil", ".int",
	".gov.uk", ".ac.uk", ".nhs.uk", ".gov.au", ".edu.au", ".gc.ca", ".europa.eu",
}

var majorNewsDomains = []string{
	"reuters.com", "apnews.com", "bbc.com", "bbc.co.uk", "nytimes.com",
	"washingtonpost.com", "theguardian.com", "wsj.com", "ft.com", "bloomberg.com",
	"economist.com", "npr.org", "cnbc.com", "forbes.com", "theatlantic.com",
}

var techPressDomains = []string{
	"techcrunch.com", "wired.com", "arstechnica.com", "theverge.com", "zdnet.com",
	"cnet.com", "engadget.com", "technologyreview.com", "infoworld.com", "venturebeat.com",
}

var referenceDomains = []string{
	"wikipedia.org", "britannica.com", "nature.com", "sciencedirect.com",
	"springer.com", "arxiv.org", "ieee.org", "acm.org",
	"statista.com", "pewresearch.org", "mckinsey.com", "gartner.com",
}

// Social and user-generated sites never make acceptable citations
var blockedDomains = []string{
	"facebook.com", "twitter.com", "x.com", "instagram.com", "tiktok.com",
	"pinterest.com", "reddit.com", "quora.com", "linkedin.com", "medium.com",
	"youtube.com", "youtu.be", "tumblr.com", "blogspot.com", "wordpress.com",
	"answers.com", "scribd.com", "slideshare.net",
}

// AuthorityScorer maps a URL to a deterministic authority score
type AuthorityScorer struct {
	overrides map[string]int
}

// NewAuthorityScorer creates a scorer; overrides pin the score for a domain
// and its subdomains
func NewAuthorityScorer(overrides map[string]int) *AuthorityScorer {
	normalized := make(map[string]int, len(overrides))
	for domain, score := range overrides {
		normalized[normalizeDomain(domain)] = clampScore(score)
	}
	return &AuthorityScorer{overrides: normalized}
}

// Score returns 0-100; unparseable and blocked URLs score 0
func (a *AuthorityScorer) Score(rawURL string) int {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return ScoreBlocked
	}
	host := normalizeDomain(parsed.Hostname())

	// Longest matching override wins so a subdomain can differ from its parent
	best, bestLen := -1, 0
	for domain, score := range a.overrides {
		if matchesDomain(host, domain) && len(domain) > bestLen {
			best, bestLen = score, len(domain)
		}
	}
	if best >= 0 {
		return best
	}

	if IsBlocked(host) {
		return ScoreBlocked
	}

	for _, suffix := range institutionalSuffixes {
		if strings.HasSuffix(host, suffix) {
			return ScoreInstitutional
		}
	}

	switch {
	case matchesAny(host, majorNewsDomains):
		return ScoreMajorNews
	case matchesAny(host, techPressDomains):
		return ScoreTechPress
	case matchesAny(host, referenceDomains):
		return ScoreReference
	case parsed.Scheme == "https":
		return ScoreHTTPS
	default:
		return ScoreHTTP
	}
}

// IsBlocked reports whether host is a social or user-generated content site
func IsBlocked(host string) bool {
	return matchesAny(normalizeDomain(host), blockedDomains)
}

// SourceName derives a display name from a URL host
func SourceName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return normalizeDomain(parsed.Hostname())
}

func matchesAny(host string, domains []string) bool {
	for _, domain := range domains {
		if matchesDomain(host, domain) {
			return true
		}
	}
	return false
}

func matchesDomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func normalizeDomain(host string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(host)), "www.")
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
