package discovery

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/seoforge/internal/content"
	"github.com/ppiankov/seoforge/internal/model"
)

var videoIDPattern = regexp.MustCompile(`(?:v=|youtu\.be/|embed/|shorts/|live/)([A-Za-z0-9_-]{11})`)

const (
	baseRelevance     = 50
	maxKeywordBonus   = 30
	earlyStopMinCount = 3
)

// VideoFinder picks one relevant, popular video for a topic
type VideoFinder struct {
	searcher      Searcher
	minViews      int64
	goodRelevance int
	opts          options
}

// NewVideoFinder creates a finder from the discovery config
func NewVideoFinder(searcher Searcher, cfg model.DiscoveryConfig, opts ...Option) *VideoFinder {
	good := cfg.GoodRelevance
	if good <= 0 {
		good = 60
	}
	return &VideoFinder{
		searcher:      searcher,
		minViews:      cfg.MinVideoViews,
		goodRelevance: good,
		opts:          buildOptions(opts),
	}
}

// Queries returns the search queries issued for topic
func (f *VideoFinder) Queries(topic string) []string {
	topic = strings.TrimSpace(topic)
	return []string{
		topic + " tutorial guide",
		fmt.Sprintf("%s explained %d", topic, f.opts.now().Year()),
		"how to " + topic,
	}
}

// Discover returns the best candidate, or nil when nothing qualifies.
// The error is non-nil only when ctx ends first.
func (f *VideoFinder) Discover(ctx context.Context, topic, apiKey string) (*model.DiscoveredVideo, error) {
	logger := f.opts.logger.With(zap.String("task", "video"))
	keywords := content.Keywords(topic, 3)

	seen := make(map[string]bool)
	var candidates []model.DiscoveredVideo
	good := 0

	for _, query := range f.Queries(topic) {
		results, err := f.searcher.Videos(ctx, apiKey, query)
		if err != nil {
			if ctx.Err() != nil {
				return best(candidates), ctx.Err()
			}
			logger.Warn("video query failed", zap.String("query", query), zap.Error(err))
			continue
		}

		for _, result := range results {
			if !IsVideoPlatform(result.Link) {
				continue
			}
			id := ExtractVideoID(result.Link)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true

			views := ParseViewCount(string(result.Views))
			if views < f.minViews {
				continue
			}

			score := RelevanceScore(keywords, result.Title, views)
			candidates = append(candidates, model.DiscoveredVideo{
				VideoID:        id,
				URL:            "https://www.youtube.com/watch?v=" + id,
				Title:          strings.TrimSpace(result.Title),
				Channel:        result.Channel,
				Views:          views,
				Duration:       result.Duration,
				Thumbnail:      result.ImageURL,
				RelevanceScore: score,
			})
			if score >= f.goodRelevance {
				good++
			}
		}

		if good >= earlyStopMinCount {
			logger.Debug("video search stopped early", zap.String("query", query), zap.Int("good", good))
			break
		}
	}

	return best(candidates), nil
}

func best(candidates []model.DiscoveredVideo) *model.DiscoveredVideo {
	if len(candidates) == 0 {
		return nil
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].RelevanceScore != candidates[j].RelevanceScore {
			return candidates[i].RelevanceScore > candidates[j].RelevanceScore
		}
		return candidates[i].Views > candidates[j].Views
	})
	top := candidates[0]
	return &top
}

// RelevanceScore is 50, plus up to 30 for the share of topic keywords found
// in the title, plus a view-count tier bonus, capped at 100
func RelevanceScore(topicKeywords []string, title string, views int64) int {
	score := baseRelevance

	if len(topicKeywords) > 0 {
		titleWords := make(map[string]bool)
		for _, w := range content.Tokenize(title) {
			titleWords[w] = true
		}
		matched := 0
		for _, kw := range topicKeywords {
			if titleWords[kw] {
				matched++
			}
		}
		score += int(math.Round(float64(maxKeywordBonus) * float64(matched) / float64(len(topicKeywords))))
	}

	switch {
	case views >= 1_000_000:
		score += 20
	case views >= 100_000:
		score += 15
	case views >= 10_000:
		score += 10
	case views >= 1_000:
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}

// IsVideoPlatform reports whether link points at YouTube
func IsVideoPlatform(link string) bool {
	parsed, err := url.Parse(link)
	if err != nil {
		return false
	}
	host := normalizeDomain(parsed.Hostname())
	return matchesDomain(host, "youtube.com") || host == "youtu.be" || matchesDomain(host, "youtube-nocookie.com")
}

// ExtractVideoID returns the 11-character video identifier, or ""
func ExtractVideoID(link string) string {
	m := videoIDPattern.FindStringSubmatch(link)
	if m == nil {
		return ""
	}
	return m[1]
}

// ParseViewCount reads "1.2M views", "45,000", "3K" or "987" into a count.
// Unreadable input yields 0; counts past int64 saturate at math.MaxInt64.
func ParseViewCount(s string) int64 {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "views")
	s = strings.TrimSuffix(s, "view")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0
	}

	multiplier := 1.0
	switch s[len(s)-1] {
	case 'k':
		multiplier = 1e3
	case 'm':
		multiplier = 1e6
	case 'b':
		multiplier = 1e9
	}
	if multiplier != 1.0 {
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseFloat(s, 64)
	if err != nil || n < 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	v := math.Round(n * multiplier)
	if v >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(v)
}
