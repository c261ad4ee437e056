package content

import "testing"

func TestWordCount(t *testing.T) {
	tests := []struct {
		html     string
		expected int
		desc     string
	}{
		{"<p>one two three</p>", 3, "single paragraph"},
		{"<h2>Title</h2><p>one two</p>", 3, "heading glued to paragraph"},
		{"<p>one</p><p>two</p>", 2, "adjacent blocks do not merge words"},
		{"<p>a <strong>b</strong> c</p><script>var x = 1;</script>", 3, "script ignored"},
		{"<ul><li>alpha</li><li>beta</li></ul>", 2, "list items"},
		{"<p>word — dash</p>", 2, "punctuation-only tokens ignored"},
		{"", 0, "empty"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := WordCount(tt.html); got != tt.expected {
				t.Errorf("WordCount(%q) = %d, want %d", tt.html, got, tt.expected)
			}
		})
	}
}

func TestPlainText(t *testing.T) {
	got := PlainText("<h2>Intro</h2><p>Hello <a href=\"/x\">world</a>.</p>")
	if got != "Intro Hello world ." && got != "Intro Hello world." {
		t.Errorf("unexpected plain text: %q", got)
	}
}

func TestHasMarkup(t *testing.T) {
	if !HasMarkup("<p>x</p>") {
		t.Error("expected markup detected")
	}
	if HasMarkup("# Heading\n\nSome *markdown* 3 < 4") {
		t.Error("markdown should not be detected as markup")
	}
}

func TestExcerpt(t *testing.T) {
	if got := Excerpt("short text", 160); got != "short text" {
		t.Errorf("unexpected excerpt: %q", got)
	}

	long := "alpha beta gamma delta epsilon zeta eta theta iota kappa"
	got := Excerpt(long, 20)
	if len([]rune(got)) > 23 {
		t.Errorf("excerpt too long: %q", got)
	}
	if got != "alpha beta gamma..." {
		t.Errorf("unexpected excerpt: %q", got)
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Widget Management Basics":     "widget-management-basics",
		"  What's New in 2025?  ":      "what-s-new-in-2025",
		"Crème brûlée -- a guide":      "cr-me-br-l-e-a-guide",
		"":                             "",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}
