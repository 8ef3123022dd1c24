package insight

import (
	"net/http"
	"time"
)

// Page is the raw result of fetching a single URL.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// Profile is the canonical record for a scraped social profile. All counters
// are resolved to non-negative integers at construction time; count strings
// never survive past the normalizer.
type Profile struct {
	Username   string `json:"username"`
	Name       string `json:"name"`
	Verified   bool   `json:"verified"`
	Followers  int    `json:"followers"`
	Following  int    `json:"following"`
	TotalPosts int    `json:"total_posts"`
	Biography  string `json:"biography"`
	PictureURL string `json:"picture_url"`
}

// Post is a single normalized profile item, identified by its shortcode.
// Created once per acquisition and immutable afterward.
type Post struct {
	Shortcode string   `json:"shortcode"`
	URL       string   `json:"url"`
	Likes     int      `json:"likes"`
	Comments  int      `json:"comments"`
	Caption   string   `json:"caption"`
	Timestamp string   `json:"timestamp"`
	Type      PostType `json:"type"`
	IsVideo   bool     `json:"is_video"`
	Hashtags  []string `json:"hashtags"`
	MediaURLs []string `json:"media_urls"`
}

// PostType distinguishes the media shape of a post.
type PostType string

// Post types as reported by the profile backends.
const (
	PostImage   PostType = "image"
	PostVideo   PostType = "video"
	PostSidecar PostType = "carousel"
)

// ProfileSnapshot is the immutable per-request view shared read-only by all
// analysis tasks.
type ProfileSnapshot struct {
	Profile Profile `json:"profile"`
	Posts   []Post  `json:"posts"`
}

// ChannelSnapshot is the normalized result of a headless channel scrape.
type ChannelSnapshot struct {
	Name        string   `json:"name"`
	Handle      string   `json:"handle"`
	Subscribers string   `json:"subscribers"`
	SubCount    int      `json:"subscriber_count"`
	VideoText   string   `json:"videos"`
	VideoCount  int      `json:"video_count"`
	Description string   `json:"description"`
	VideoLinks  []string `json:"video_links"`
}
