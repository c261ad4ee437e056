package discovery

import (
	"context"
	"math"
	"testing"

	"github.com/ppiankov/seoforge/internal/model"
	"github.com/ppiankov/seoforge/internal/search"
)

func TestParseViewCount(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1.2M views", 1_200_000},
		{"45,000 views", 45_000},
		{"3K", 3_000},
		{"12.5k views", 12_500},
		{"987", 987},
		{"2.5B", 2_500_000_000},
		{"1 view", 1},
		{"", 0},
		{"No views", 0},
		{"abc", 0},
		{"m", 0},
		{"99999999999b", math.MaxInt64},
		{"9223372036854775807", math.MaxInt64},
	}
	for _, tt := range tests {
		if got := ParseViewCount(tt.in); got != tt.want {
			t.Errorf("ParseViewCount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		link string
		want string
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=1", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"https://www.youtube.com/channel/UCabc", ""},
		{"https://www.youtube.com/watch?v=short", ""},
	}
	for _, tt := range tests {
		if got := ExtractVideoID(tt.link); got != tt.want {
			t.Errorf("ExtractVideoID(%q) = %q, want %q", tt.link, got, tt.want)
		}
	}
}

func TestIsVideoPlatform(t *testing.T) {
	if !IsVideoPlatform("https://m.youtube.com/watch?v=dQw4w9WgXcQ") || !IsVideoPlatform("https://youtu.be/dQw4w9WgXcQ") {
		t.Error("expected YouTube hosts to be recognized")
	}
	if IsVideoPlatform("https://vimeo.com/12345") || IsVideoPlatform("https://notyoutube.com/watch?v=dQw4w9WgXcQ") {
		t.Error("expected other hosts to be rejected")
	}
}

func TestRelevanceScore(t *testing.T) {
	kw := []string{"widget", "management"}

	tests := []struct {
		name     string
		keywords []string
		title    string
		views    int64
		want     int
	}{
		{"full overlap no views", kw, "Widget Management", 0, 80},
		{"half overlap", kw, "Widget basics", 10_000, 75},
		{"no overlap big views", kw, "Cooking", 1_000_000, 70},
		{"capped", kw, "widget management", 5_000_000, 100},
		{"no keywords", nil, "anything", 150_000, 65},
		{"tier 1k", kw, "", 1_000, 55},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RelevanceScore(tt.keywords, tt.title, tt.views); got != tt.want {
				t.Errorf("RelevanceScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestVideoFinder_Discover(t *testing.T) {
	searcher := &fakeSearcher{
		videos: map[string][]search.VideoResult{
			"widget management tutorial guide": {
				{Title: "Widget Management Tutorial", Link: "https://www.youtube.com/watch?v=AAAAAAAAAAA", Channel: "Widgets Inc", Views: "1.2M views", Duration: "12:01", ImageURL: "https://i.ytimg.com/a.jpg"},
				{Title: "Widget Management on Vimeo", Link: "https://vimeo.com/123", Views: "5M views"},
				{Title: "Same video", Link: "https://youtu.be/AAAAAAAAAAA", Views: "9M views"},
				{Title: "Cooking pasta", Link: "https://www.youtube.com/watch?v=BBBBBBBBBBB", Views: "500"},
				{Title: "Widget basics", Link: "https://www.youtube.com/watch?v=CCCCCCCCCCC", Views: "12K"},
			},
			"widget management explained 2025": {
				{Title: "Management of widgets explained", Link: "https://www.youtube.com/watch?v=DDDDDDDDDDD", Views: "2,500"},
			},
			"how to widget management": {
				{Title: "Never reached", Link: "https://www.youtube.com/watch?v=EEEEEEEEEEE", Views: "9B"},
			},
		},
	}

	f := NewVideoFinder(searcher, model.DefaultConfig().Discovery, WithClock(fixedClock))
	video, err := f.Discover(context.Background(), "widget management", "key")
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if video == nil {
		t.Fatal("expected a video")
	}
	if video.VideoID != "AAAAAAAAAAA" || video.RelevanceScore != 100 || video.Views != 1_200_000 {
		t.Errorf("unexpected pick: %+v", video)
	}
	if video.Channel != "Widgets Inc" || video.Thumbnail != "https://i.ytimg.com/a.jpg" {
		t.Errorf("metadata not carried: %+v", video)
	}
	if len(searcher.calls) != 2 {
		t.Errorf("expected early stop after 3 good candidates, got calls %v", searcher.calls)
	}
}

func TestVideoFinder_TieBreaksOnViews(t *testing.T) {
	searcher := &fakeSearcher{
		videos: map[string][]search.VideoResult{
			"gizmos tutorial guide": {
				{Title: "Gizmos", Link: "https://youtu.be/AAAAAAAAAAA", Views: "200K"},
				{Title: "Gizmos", Link: "https://youtu.be/BBBBBBBBBBB", Views: "900K"},
			},
		},
	}

	f := NewVideoFinder(searcher, model.DefaultConfig().Discovery, WithClock(fixedClock))
	video, _ := f.Discover(context.Background(), "gizmos", "key")
	if video == nil || video.VideoID != "BBBBBBBBBBB" {
		t.Errorf("expected higher view count to win the tie, got %+v", video)
	}
}

func TestVideoFinder_NoneQualify(t *testing.T) {
	searcher := &fakeSearcher{
		videos: map[string][]search.VideoResult{
			"gizmos tutorial guide": {
				{Title: "Gizmos", Link: "https://youtu.be/AAAAAAAAAAA", Views: "12"},
			},
		},
		fail: map[string]bool{"how to gizmos": true},
	}

	f := NewVideoFinder(searcher, model.DefaultConfig().Discovery, WithClock(fixedClock))
	video, err := f.Discover(context.Background(), "gizmos", "key")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if video != nil {
		t.Errorf("expected no video, got %+v", video)
	}
	if len(searcher.calls) != 3 {
		t.Errorf("expected all queries to run, got %v", searcher.calls)
	}
}
