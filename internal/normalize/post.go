package normalize

import (
	"regexp"
	"strings"

	"github.com/brandlens/insight-api/internal/insight"
)

var hashtagPattern = regexp.MustCompile(`#(\w+)`)

// Post parses a Crawlbase instagram-post body. Comment counts arrive under
// repliesCount on this backend; caption text and structured hashtag tags
// arrive nested under caption.
func Post(url string, body map[string]any) insight.Post {
	caption, hashtags := captionAndTags(body["caption"])
	if len(hashtags) == 0 {
		hashtags = HashtagsFromText(caption)
	}

	mediaURLs, postType, isVideo := media(body["media"])

	shortcode := ShortcodeFromURL(url)
	if shortcode == "" {
		shortcode = ShortcodeFromURL(str(body["url"]))
	}
	timestamp := str(body["dateTime"])
	if shortcode == "" {
		shortcode = "post_" + compactTimestamp(timestamp)
	}

	return insight.Post{
		Shortcode: shortcode,
		URL:       url,
		Likes:     ParseCount(body["likesCount"]),
		Comments:  ParseCount(body["repliesCount"]),
		Caption:   caption,
		Timestamp: timestamp,
		Type:      postType,
		IsVideo:   isVideo,
		Hashtags:  hashtags,
		MediaURLs: mediaURLs,
	}
}

func captionAndTags(v any) (string, []string) {
	m, ok := v.(map[string]any)
	if !ok {
		return str(v), nil
	}
	caption := str(m["text"])
	rawTags, _ := m["tags"].([]any)
	var hashtags []string
	for _, rawTag := range rawTags {
		tag, ok := rawTag.(map[string]any)
		if !ok {
			continue
		}
		if h := str(tag["hashtag"]); h != "" {
			hashtags = append(hashtags, strings.ToLower(strings.TrimPrefix(h, "#")))
		}
	}
	return caption, hashtags
}

func media(v any) ([]string, insight.PostType, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, insight.PostImage, false
	}
	videos := stringSlice(m["videos"])
	images := stringSlice(m["images"])

	urls := make([]string, 0, len(videos)+len(images))
	urls = append(urls, videos...)
	urls = append(urls, images...)

	switch {
	case len(videos) > 0:
		return urls, insight.PostVideo, true
	case len(images) > 1:
		return urls, insight.PostSidecar, false
	default:
		return urls, insight.PostImage, false
	}
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// HashtagsFromText extracts lowercased hashtags from free text.
func HashtagsFromText(text string) []string {
	if text == "" {
		return nil
	}
	matches := hashtagPattern.FindAllStringSubmatch(text, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, strings.ToLower(m[1]))
	}
	return tags
}

func compactTimestamp(ts string) string {
	replacer := strings.NewReplacer(":", "", "-", "", "T", "", "Z", "")
	return replacer.Replace(ts)
}
