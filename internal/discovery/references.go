package discovery

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/seoforge/internal/model"
)

var yearPattern = regexp.MustCompile(`\b(19[89]\d|20\d\d)\b`)

// ReferenceFinder searches for authoritative citations on a topic
type ReferenceFinder struct {
	searcher    Searcher
	scorer      *AuthorityScorer
	targetCount int
	minScore    int
	opts        options
	cfg         model.DiscoveryConfig
}

// NewReferenceFinder creates a finder from the discovery config
func NewReferenceFinder(searcher Searcher, cfg model.DiscoveryConfig, opts ...Option) *ReferenceFinder {
	targetCount := cfg.TargetReferences
	if targetCount <= 0 {
		targetCount = 8
	}
	return &ReferenceFinder{
		searcher:    searcher,
		scorer:      NewAuthorityScorer(cfg.DomainScores),
		targetCount: targetCount,
		minScore:    cfg.MinAuthorityScore,
		opts:        buildOptions(opts),
		cfg:         cfg,
	}
}

// Queries returns the search queries issued for topic
func (f *ReferenceFinder) Queries(topic string) []string {
	topic = strings.TrimSpace(topic)
	year := f.opts.now().Year()
	return []string{
		topic + " research statistics",
		topic + " site:edu OR site:gov",
		fmt.Sprintf("%s study data %d", topic, year),
		topic + " expert analysis",
	}
}

// Discover runs the queries in sequence and returns at most targetCount
// references, best first. Failed queries are logged and skipped; the error
// is non-nil only when ctx ends first.
func (f *ReferenceFinder) Discover(ctx context.Context, topic, apiKey string) ([]model.DiscoveredReference, error) {
	logger := f.opts.logger.With(zap.String("task", "references"))

	var candidates []model.DiscoveredReference
	for i, query := range f.Queries(topic) {
		if i > 0 {
			if err := f.opts.sleep(ctx, f.cfg.QueryDelay); err != nil {
				return f.finish(ctx, candidates), err
			}
		}

		results, err := f.searcher.Organic(ctx, apiKey, query)
		if err != nil {
			if ctx.Err() != nil {
				return f.finish(ctx, candidates), ctx.Err()
			}
			logger.Warn("reference query failed", zap.String("query", query), zap.Error(err))
			continue
		}

		for _, result := range results {
			if ref, ok := f.candidate(result.Title, result.Link, result.Snippet, result.Date); ok {
				candidates = append(candidates, ref)
			}
		}
		logger.Debug("reference query done",
			zap.String("query", query),
			zap.Int("results", len(results)),
			zap.Int("candidates", len(candidates)))
	}

	return f.finish(ctx, candidates), nil
}

// finish ranks candidates and, when a prober is set, drops dead links
func (f *ReferenceFinder) finish(ctx context.Context, candidates []model.DiscoveredReference) []model.DiscoveredReference {
	ranked := RankReferences(candidates, f.minScore, 0)
	if f.opts.prober != nil && ctx.Err() == nil {
		ranked = f.opts.prober.Filter(ctx, ranked)
	}
	if len(ranked) > f.targetCount {
		ranked = ranked[:f.targetCount]
	}
	return ranked
}

func (f *ReferenceFinder) candidate(title, link, snippet, date string) (model.DiscoveredReference, bool) {
	link = strings.TrimSpace(link)
	if link == "" || !strings.HasPrefix(link, "http") {
		return model.DiscoveredReference{}, false
	}
	if IsBlocked(SourceName(link)) {
		return model.DiscoveredReference{}, false
	}

	score := f.scorer.Score(link)
	if score < f.minScore || score == ScoreBlocked {
		return model.DiscoveredReference{}, false
	}

	return model.DiscoveredReference{
		URL:            link,
		Title:          strings.TrimSpace(title),
		Source:         SourceName(link),
		AuthorityScore: score,
		Snippet:        strings.TrimSpace(snippet),
		Year:           extractYear(title+" "+snippet+" "+date, f.opts.now().Year()),
	}, true
}

// RankReferences drops references under minScore, keeps the first of each
// URL, and sorts by authority descending. limit <= 0 keeps everything.
func RankReferences(refs []model.DiscoveredReference, minScore, limit int) []model.DiscoveredReference {
	seen := make(map[string]bool, len(refs))
	out := make([]model.DiscoveredReference, 0, len(refs))
	for _, ref := range refs {
		key := urlKey(ref.URL)
		if key == "" || seen[key] || ref.AuthorityScore < minScore {
			continue
		}
		seen[key] = true
		out = append(out, ref)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AuthorityScore > out[j].AuthorityScore
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// urlKey folds trivial URL variants (trailing slash, fragment, case of host)
func urlKey(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "#"); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimSuffix(raw, "/")
	if scheme := strings.Index(raw, "://"); scheme >= 0 {
		rest := raw[scheme+3:]
		host, path, _ := strings.Cut(rest, "/")
		raw = raw[:scheme+3] + strings.ToLower(host)
		if path != "" {
			raw += "/" + path
		}
	}
	return raw
}

// extractYear returns the most recent plausible year mentioned in text
func extractYear(text string, currentYear int) int {
	best := 0
	for _, match := range yearPattern.FindAllString(text, -1) {
		year, err := strconv.Atoi(match)
		if err != nil || year > currentYear {
			continue
		}
		if year > best {
			best = year
		}
	}
	return best
}
