package model

// DiscoveredReference is one authoritative citation found by reference discovery
type DiscoveredReference struct {
	URL            string `json:"url"`
	Title          string `json:"title"`
	Source         string `json:"source"`          // Human-readable source name (usually the host)
	AuthorityScore int    `json:"authority_score"` // 0-100, deterministic function of the domain
	Snippet        string `json:"snippet,omitempty"`
	Year           int    `json:"year,omitempty"` // Publication year if one was found in title/snippet
}

// DiscoveredVideo is the single video selected for embedding
type DiscoveredVideo struct {
	VideoID        string `json:"video_id"`
	URL            string `json:"url"`
	Title          string `json:"title"`
	Channel        string `json:"channel,omitempty"`
	Views          int64  `json:"views"`
	Duration       string `json:"duration,omitempty"`
	Thumbnail      string `json:"thumbnail,omitempty"`
	RelevanceScore int    `json:"relevance_score"`
}

// EmbedURL returns the privacy-neutral embed URL for the video
func (v DiscoveredVideo) EmbedURL() string {
	return "https://www.youtube.com/embed/" + v.VideoID
}
