package linker

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/ppiankov/seoforge/internal/content"
	"github.com/ppiankov/seoforge/internal/model"
)

// Result is the outcome of one injection pass
type Result struct {
	HTML       string                `json:"html"`
	Placements []model.LinkPlacement `json:"placements"`
	TotalCount int                   `json:"totalCount"`
}

// Injector places internal links into article HTML
type Injector struct {
	cfg    model.LinkConfig
	bounds Bounds
	logger *zap.Logger
}

// Option configures an Injector
type Option func(*Injector)

// WithLogger sets the injector logger
func WithLogger(logger *zap.Logger) Option {
	return func(i *Injector) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewInjector creates an injector. A zero config means the defaults.
func NewInjector(cfg model.LinkConfig, opts ...Option) *Injector {
	if cfg == (model.LinkConfig{}) {
		cfg = model.DefaultLinkConfig()
	}
	defaults := model.DefaultLinkConfig()
	if cfg.CandidatePool <= 0 {
		cfg.CandidatePool = defaults.CandidatePool
	}
	if cfg.TargetsPerParagraph <= 0 {
		cfg.TargetsPerParagraph = defaults.TargetsPerParagraph
	}
	if cfg.MaxPerSection <= 0 {
		cfg.MaxPerSection = defaults.MaxPerSection
	}

	i := &Injector{
		cfg:    cfg,
		bounds: BoundsFrom(cfg),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Candidates drops unusable targets and the page itself, dedupes by URL and
// keeps at most limit entries in input order
func Candidates(targets []model.LinkTarget, currentURL string, limit int) []model.LinkTarget {
	current := normalizeURL(currentURL)
	seen := make(map[string]bool)
	var out []model.LinkTarget
	for _, t := range targets {
		key := normalizeURL(t.URL)
		if key == "" || strings.TrimSpace(t.Title) == "" || seen[key] {
			continue
		}
		if current != "" && key == current {
			continue
		}
		seen[key] = true
		out = append(out, t)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Inject links targets into htmlContent. The input comes back unchanged
// when nothing is placed.
func (i *Injector) Inject(htmlContent string, targets []model.LinkTarget, currentURL string) Result {
	unchanged := Result{HTML: htmlContent, Placements: []model.LinkPlacement{}}

	queue := Candidates(targets, currentURL, i.cfg.CandidatePool)
	if len(queue) == 0 || i.cfg.MaxLinks <= 0 || strings.TrimSpace(htmlContent) == "" {
		return unchanged
	}

	doc, err := parseDocument(htmlContent)
	if err != nil {
		i.logger.Warn("link injection skipped", zap.Error(err))
		return unchanged
	}

	// Pages the article already links to are not linked again
	existing := doc.hrefs()
	queue = slicesFilter(queue, func(t model.LinkTarget) bool { return !existing[normalizeURL(t.URL)] })

	placements := []model.LinkPlacement{}
	perSection := make(map[int]int)
	lastPos := -1

	for _, p := range doc.paragraphs {
		if len(placements) >= i.cfg.MaxLinks || len(queue) == 0 {
			break
		}
		if perSection[p.section] >= i.cfg.MaxPerSection {
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(p.text)) < i.cfg.MinParagraphChars {
			continue
		}
		if lastPos >= 0 && p.startWord+content.CountWords(p.text)-lastPos < i.cfg.MinWordDistance {
			continue
		}

		tries := min(i.cfg.TargetsPerParagraph, len(queue))
		placed := false
		for k := 0; k < tries; k++ {
			placement, ok := i.place(p, queue[k], lastPos)
			if !ok {
				continue
			}
			placements = append(placements, placement)
			perSection[p.section]++
			lastPos = placement.Position
			queue = append(queue[:k:k], queue[k+1:]...)
			placed = true
			break
		}
		if !placed {
			// Rotate the tried targets behind the untried ones
			rotated := make([]model.LinkTarget, 0, len(queue))
			rotated = append(rotated, queue[tries:]...)
			queue = append(rotated, queue[:tries]...)
		}
	}

	if len(placements) == 0 {
		return unchanged
	}

	out, err := doc.render()
	if err != nil {
		i.logger.Warn("link injection skipped", zap.Error(err))
		return unchanged
	}

	i.logger.Debug("links injected", zap.Int("count", len(placements)), zap.Int("candidates", len(queue)+len(placements)))
	return Result{HTML: out, Placements: placements, TotalCount: len(placements)}
}

// place links target at the first usable anchor far enough from the previous
// link. An anchor that sits too close is skipped and the rest of its text
// node searched again.
func (i *Injector) place(p *paragraph, target model.LinkTarget, lastPos int) (model.LinkPlacement, bool) {
	for _, seg := range p.segments() {
		data := seg.node.Data
		for offset := 0; offset < len(data); {
			a, ok := FindAnchor(data[offset:], target, i.bounds)
			if !ok {
				break
			}
			a.Start += offset
			pos := seg.startWord + content.CountWords(data[:a.Start])
			if lastPos >= 0 && pos-lastPos < i.cfg.MinWordDistance {
				offset = a.Start + len(a.Text)
				continue
			}
			seg.link(a, target.URL)
			return model.LinkPlacement{
				URL:       target.URL,
				Anchor:    a.Text,
				Position:  pos,
				Relevance: a.Weight,
				Strategy:  a.Strategy,
			}, true
		}
	}
	return model.LinkPlacement{}, false
}

func slicesFilter(in []model.LinkTarget, keep func(model.LinkTarget) bool) []model.LinkTarget {
	out := in[:0:0]
	for _, t := range in {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
