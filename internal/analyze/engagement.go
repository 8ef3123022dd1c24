package analyze

import (
	"math"
	"sort"

	"github.com/brandlens/insight-api/internal/insight"
)

// ContentPerformance aggregates engagement stats per post type.
type ContentPerformance struct {
	TotalAnalyzed int            `json:"total_analyzed"`
	AvgLikes      float64        `json:"avg_likes"`
	AvgComments   float64        `json:"avg_comments"`
	BestPosts     []insight.Post `json:"best_posts"`
	Video         TypeStats      `json:"video"`
	Carousel      TypeStats      `json:"carousel"`
	Image         TypeStats      `json:"image"`
}

// TypeStats holds per-post-type counts and averages.
type TypeStats struct {
	Count    int     `json:"count"`
	AvgLikes float64 `json:"avg_likes"`
}

// EngagementRate returns average interactions per post as a percentage of
// the follower base, rounded to four decimals.
func EngagementRate(posts []insight.Post, followers int) float64 {
	if len(posts) == 0 || followers == 0 {
		return 0
	}
	total := 0
	for _, p := range posts {
		total += p.Likes + p.Comments
	}
	avg := float64(total) / float64(len(posts))
	return math.Round(avg/float64(followers)*100*10000) / 10000
}

// Performance computes per-type engagement aggregates and the top three
// posts by total interactions.
func Performance(posts []insight.Post) ContentPerformance {
	if len(posts) == 0 {
		return ContentPerformance{BestPosts: []insight.Post{}}
	}

	var totalLikes, totalComments int
	byType := map[insight.PostType][]insight.Post{}
	for _, p := range posts {
		totalLikes += p.Likes
		totalComments += p.Comments
		byType[p.Type] = append(byType[p.Type], p)
	}

	ranked := make([]insight.Post, len(posts))
	copy(ranked, posts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Likes+ranked[i].Comments > ranked[j].Likes+ranked[j].Comments
	})
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}

	n := float64(len(posts))
	return ContentPerformance{
		TotalAnalyzed: len(posts),
		AvgLikes:      float64(totalLikes) / n,
		AvgComments:   float64(totalComments) / n,
		BestPosts:     ranked,
		Video:         typeStats(byType[insight.PostVideo]),
		Carousel:      typeStats(byType[insight.PostSidecar]),
		Image:         typeStats(byType[insight.PostImage]),
	}
}

func typeStats(posts []insight.Post) TypeStats {
	if len(posts) == 0 {
		return TypeStats{}
	}
	likes := 0
	for _, p := range posts {
		likes += p.Likes
	}
	return TypeStats{
		Count:    len(posts),
		AvgLikes: float64(likes) / float64(len(posts)),
	}
}

// PostingFrequency buckets raw post volume into a coarse cadence label.
func PostingFrequency(postCount int) string {
	switch {
	case postCount >= 30:
		return "daily"
	case postCount >= 15:
		return "weekly"
	case postCount >= 5:
		return "monthly"
	case postCount > 0:
		return "sporadic"
	default:
		return "never"
	}
}

// HashtagStats summarizes hashtag usage across posts.
type HashtagStats struct {
	AvgPerPost  float64  `json:"avg_per_post"`
	UniqueCount int      `json:"unique_count"`
	Top         []string `json:"top"`
}

// Hashtags tallies usage across posts; Top is ordered by frequency, ties
// broken lexicographically for determinism.
func Hashtags(posts []insight.Post) HashtagStats {
	if len(posts) == 0 {
		return HashtagStats{Top: []string{}}
	}
	counts := map[string]int{}
	total := 0
	for _, p := range posts {
		total += len(p.Hashtags)
		for _, tag := range p.Hashtags {
			counts[tag]++
		}
	}
	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if counts[tags[i]] != counts[tags[j]] {
			return counts[tags[i]] > counts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	if len(tags) > 10 {
		tags = tags[:10]
	}
	return HashtagStats{
		AvgPerPost:  float64(total) / float64(len(posts)),
		UniqueCount: len(counts),
		Top:         tags,
	}
}
