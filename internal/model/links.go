package model

// LinkTarget is an externally supplied page that may receive an internal link
type LinkTarget struct {
	URL      string `json:"url" yaml:"url"`
	Title    string `json:"title" yaml:"title"`
	Slug     string `json:"slug,omitempty" yaml:"slug,omitempty"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	Excerpt  string `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
}

// LinkPlacement records one applied link
type LinkPlacement struct {
	URL       string  `json:"url"`
	Anchor    string  `json:"anchor"`
	Position  int     `json:"position"`  // Word offset of the anchor in the document
	Relevance float64 `json:"relevance"` // Fixed weight of the strategy that produced the anchor
	Strategy  string  `json:"strategy,omitempty"`
}
