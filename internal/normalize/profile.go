package normalize

import (
	"strings"

	"github.com/brandlens/insight-api/internal/insight"
)

// Profile parses a Crawlbase instagram-profile body into the canonical
// record.
//
// Crawlbase quirk, observed against live accounts and pinned by test: the
// followersCount field carries the FOLLOWING count and followingCount carries
// the FOLLOWERS count. The remap below is specific to this backend and must
// not be generalized to other sources.
func Profile(body map[string]any) insight.Profile {
	swappedFollowing := ParseCount(body["followersCount"])
	swappedFollowers := ParseCount(body["followingCount"])

	return insight.Profile{
		Username:   str(body["username"]),
		Name:       str(body["name"]),
		Verified:   boolean(body["verified"]),
		Followers:  swappedFollowers,
		Following:  swappedFollowing,
		TotalPosts: ParseCount(body["postsCount"]),
		Biography:  bioText(body["bio"]),
		PictureURL: str(body["picture"]),
	}
}

// ProfilePostLinks pulls the post permalinks out of a profile body, in the
// order the backend listed them.
func ProfilePostLinks(body map[string]any) []string {
	items, ok := body["posts"].([]any)
	if !ok {
		return nil
	}
	links := make([]string, 0, len(items))
	for _, item := range items {
		post, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if link := str(post["link"]); link != "" {
			links = append(links, link)
		}
	}
	return links
}

func bioText(v any) string {
	if m, ok := v.(map[string]any); ok {
		return str(m["text"])
	}
	return str(v)
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func boolean(v any) bool {
	b, _ := v.(bool)
	return b
}

// ShortcodeFromURL extracts the /p/ shortcode from a post permalink.
func ShortcodeFromURL(url string) string {
	_, after, found := strings.Cut(url, "/p/")
	if !found {
		return ""
	}
	shortcode, _, _ := strings.Cut(after, "/")
	return shortcode
}
