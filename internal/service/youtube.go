package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/brandlens/insight-api/internal/insight"
	"github.com/brandlens/insight-api/internal/metrics"
)

// ChannelScraper acquires a channel snapshot with a real browser.
// Implementations retry internally.
type ChannelScraper interface {
	Channel(ctx context.Context, channelURL string) (insight.ChannelSnapshot, error)
}

// YouTubeResult is the assembled channel analysis. When Error is set only the
// identifying fields are meaningful.
type YouTubeResult struct {
	ChannelURL string                   `json:"channel_url"`
	AnalyzedAt time.Time                `json:"analyzed_at"`
	Error      string                   `json:"error,omitempty"`
	Channel    *insight.ChannelSnapshot `json:"channel,omitempty"`
}

// YouTubeAnalyzer orchestrates a channel scrape.
type YouTubeAnalyzer struct {
	scraper ChannelScraper
	logger  *zap.Logger
	timeout time.Duration
}

// NewYouTubeAnalyzer wires the analyzer.
func NewYouTubeAnalyzer(scraper ChannelScraper, timeout time.Duration, logger *zap.Logger) *YouTubeAnalyzer {
	return &YouTubeAnalyzer{scraper: scraper, logger: logger, timeout: timeout}
}

// Analyze resolves the channel reference to a URL and scrapes it once under
// the overall deadline. Never returns an error.
func (a *YouTubeAnalyzer) Analyze(ctx context.Context, channel string) YouTubeResult {
	channelURL := ResolveChannelURL(channel)
	result := YouTubeResult{ChannelURL: channelURL, AnalyzedAt: time.Now().UTC()}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	snap, err := a.scraper.Channel(ctx, channelURL)
	if err != nil {
		a.logger.Error("channel acquisition failed",
			zap.String("channel_url", channelURL),
			zap.Error(err),
		)
		metrics.ObserveScrape("youtube", "failure")
		result.Error = err.Error()
		return result
	}
	metrics.ObserveScrape("youtube", "success")

	result.Channel = &snap
	return result
}

// ResolveChannelURL turns a handle, @handle, or full URL into a channel page
// URL.
func ResolveChannelURL(channel string) string {
	channel = strings.TrimSpace(channel)
	if strings.HasPrefix(channel, "http://") || strings.HasPrefix(channel, "https://") {
		return channel
	}
	if !strings.HasPrefix(channel, "@") {
		channel = "@" + channel
	}
	return "https://www.youtube.com/" + channel
}
