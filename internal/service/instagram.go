package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/brandlens/insight-api/internal/analyze"
	"github.com/brandlens/insight-api/internal/insight"
	"github.com/brandlens/insight-api/internal/metrics"
)

// ProfileAcquirer acquires a complete profile snapshot. Implementations retry
// internally.
type ProfileAcquirer interface {
	CompleteProfile(ctx context.Context, username string) (insight.ProfileSnapshot, error)
}

// ProfilePresence is the identity card of the profile.
type ProfilePresence struct {
	Username   string `json:"username"`
	Name       string `json:"name"`
	Verified   bool   `json:"verified"`
	Followers  int    `json:"followers"`
	Following  int    `json:"following"`
	TotalPosts int    `json:"total_posts"`
	Biography  string `json:"biography"`
}

// FrequencyActivity describes posting cadence.
type FrequencyActivity struct {
	PostingFrequency string `json:"posting_frequency"`
	RecentPosts      int    `json:"recent_posts"`
}

// KPIPerformance holds the engagement KPIs.
type KPIPerformance struct {
	EngagementRate  float64 `json:"engagement_rate"`
	AvgLikes        float64 `json:"avg_likes"`
	AvgComments     float64 `json:"avg_comments"`
	AvgInteractions float64 `json:"avg_interactions"`
}

// ContentFormat describes what the profile publishes and how it looks.
type ContentFormat struct {
	Performance   analyze.ContentPerformance `json:"performance"`
	CreativeStyle string                     `json:"creative_style"`
}

// ProfileTone is the classified register of bio and captions.
type ProfileTone struct {
	Perceived string `json:"perceived"`
}

// TrendsHashtags aggregates hashtag usage and partnership signals.
type TrendsHashtags struct {
	Hashtags        analyze.HashtagStats   `json:"hashtags"`
	Collaborations  analyze.Collaborations `json:"collaborations"`
	BrandAmbassador bool                   `json:"brand_ambassador"`
}

// ProfileFunnel names the inferred profile objective.
type ProfileFunnel struct {
	PrimaryObjective string `json:"primary_objective"`
}

// InstagramResult is the assembled profile analysis. When Error is set only
// the identifying fields are meaningful.
type InstagramResult struct {
	Username   string             `json:"username"`
	AnalyzedAt time.Time          `json:"analyzed_at"`
	Error      string             `json:"error,omitempty"`
	Presence   *ProfilePresence   `json:"profile_presence,omitempty"`
	Frequency  *FrequencyActivity `json:"frequency_activity,omitempty"`
	KPI        *KPIPerformance    `json:"kpi_performance,omitempty"`
	Content    *ContentFormat     `json:"content_format,omitempty"`
	Tone       *ProfileTone       `json:"tone_of_voice,omitempty"`
	Trends     *TrendsHashtags    `json:"trends_hashtags,omitempty"`
	Funnel     *ProfileFunnel     `json:"funnel_objectives,omitempty"`
}

// InstagramAnalyzer orchestrates a profile analysis.
type InstagramAnalyzer struct {
	acquirer ProfileAcquirer
	logger   *zap.Logger
	timeout  time.Duration
}

// NewInstagramAnalyzer wires the analyzer.
func NewInstagramAnalyzer(acquirer ProfileAcquirer, timeout time.Duration, logger *zap.Logger) *InstagramAnalyzer {
	return &InstagramAnalyzer{acquirer: acquirer, logger: logger, timeout: timeout}
}

// Analyze acquires the snapshot once and fans the section tasks out over it.
// Never returns an error.
func (a *InstagramAnalyzer) Analyze(ctx context.Context, username string) InstagramResult {
	result := InstagramResult{Username: username, AnalyzedAt: time.Now().UTC()}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	snap, err := a.acquirer.CompleteProfile(ctx, username)
	if err != nil {
		a.logger.Error("profile acquisition failed",
			zap.String("username", username),
			zap.Error(err),
		)
		metrics.ObserveScrape("instagram", "failure")
		result.Error = err.Error()
		return result
	}
	metrics.ObserveScrape("instagram", "success")

	captions := make([]string, 0, len(snap.Posts))
	for _, p := range snap.Posts {
		captions = append(captions, p.Caption)
	}

	var (
		presence  ProfilePresence
		frequency FrequencyActivity
		kpi       KPIPerformance
		content   ContentFormat
		tone      ProfileTone
		trends    TrendsHashtags
		funnel    ProfileFunnel
		wg        sync.WaitGroup
	)

	runSection(&wg, a.logger, "instagram", "profile_presence", &presence, ProfilePresence{Username: username}, func() (ProfilePresence, error) {
		return ProfilePresence{
			Username:   snap.Profile.Username,
			Name:       snap.Profile.Name,
			Verified:   snap.Profile.Verified,
			Followers:  snap.Profile.Followers,
			Following:  snap.Profile.Following,
			TotalPosts: snap.Profile.TotalPosts,
			Biography:  snap.Profile.Biography,
		}, nil
	})
	runSection(&wg, a.logger, "instagram", "frequency_activity", &frequency, FrequencyActivity{PostingFrequency: "never"}, func() (FrequencyActivity, error) {
		return FrequencyActivity{
			PostingFrequency: analyze.PostingFrequency(snap.Profile.TotalPosts),
			RecentPosts:      len(snap.Posts),
		}, nil
	})
	runSection(&wg, a.logger, "instagram", "kpi_performance", &kpi, KPIPerformance{}, func() (KPIPerformance, error) {
		perf := analyze.Performance(snap.Posts)
		return KPIPerformance{
			EngagementRate:  analyze.EngagementRate(snap.Posts, snap.Profile.Followers),
			AvgLikes:        perf.AvgLikes,
			AvgComments:     perf.AvgComments,
			AvgInteractions: perf.AvgLikes + perf.AvgComments,
		}, nil
	})
	runSection(&wg, a.logger, "instagram", "content_format", &content, defaultContentFormat(), func() (ContentFormat, error) {
		return ContentFormat{
			Performance:   analyze.Performance(snap.Posts),
			CreativeStyle: analyze.CreativeStyle(captions, snap.Profile.Biography),
		}, nil
	})
	runSection(&wg, a.logger, "instagram", "tone_of_voice", &tone, ProfileTone{Perceived: analyze.DefaultTone}, func() (ProfileTone, error) {
		return ProfileTone{Perceived: analyze.ToneOfVoice(append([]string{snap.Profile.Biography}, captions...))}, nil
	})
	runSection(&wg, a.logger, "instagram", "trends_hashtags", &trends, defaultTrendsHashtags(), func() (TrendsHashtags, error) {
		return TrendsHashtags{
			Hashtags:        analyze.Hashtags(snap.Posts),
			Collaborations:  analyze.DetectCollaborations(captions),
			BrandAmbassador: analyze.DetectBrandAmbassadors(snap.Profile.Biography, captions),
		}, nil
	})
	runSection(&wg, a.logger, "instagram", "funnel_objectives", &funnel, ProfileFunnel{PrimaryObjective: analyze.DefaultObjective}, func() (ProfileFunnel, error) {
		return ProfileFunnel{PrimaryObjective: analyze.ProfileObjective(snap.Profile.Biography, captions)}, nil
	})

	wg.Wait()

	result.Presence = &presence
	result.Frequency = &frequency
	result.KPI = &kpi
	result.Content = &content
	result.Tone = &tone
	result.Trends = &trends
	result.Funnel = &funnel
	return result
}

func defaultContentFormat() ContentFormat {
	return ContentFormat{
		Performance:   analyze.ContentPerformance{BestPosts: []insight.Post{}},
		CreativeStyle: analyze.DefaultCreativeStyle,
	}
}

func defaultTrendsHashtags() TrendsHashtags {
	return TrendsHashtags{Hashtags: analyze.HashtagStats{Top: []string{}}}
}
