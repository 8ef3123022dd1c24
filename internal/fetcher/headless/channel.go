// Package headless scrapes JavaScript-rendered channel pages with a real
// browser via chromedp.
package headless

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/brandlens/insight-api/internal/insight"
	"github.com/brandlens/insight-api/internal/metrics"
	"github.com/brandlens/insight-api/internal/normalize"
	"github.com/brandlens/insight-api/internal/retry"
)

const backendName = "headless"

// Config controls browser navigation and extraction limits.
type Config struct {
	NavigationTimeout time.Duration
	ElementWait       time.Duration
	MaxVideoLinks     int
	UserAgent         string
}

// Scraper drives headless Chrome channel scrapes. One exec allocator is
// shared by all scrapes; each call gets its own tab context.
type Scraper struct {
	cfg         Config
	policy      retry.Policy
	logger      *zap.Logger
	allocator   context.Context
	allocCancel context.CancelFunc
}

// NewScraper builds a Scraper and its browser allocator. Callers must Close
// it to release the browser.
func NewScraper(cfg Config, policy retry.Policy, logger *zap.Logger) *Scraper {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}
	if cfg.ElementWait <= 0 {
		cfg.ElementWait = 10 * time.Second
	}
	if cfg.MaxVideoLinks <= 0 {
		cfg.MaxVideoLinks = 10
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Scraper{
		cfg:         cfg,
		policy:      policy,
		logger:      logger,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}
}

// Close shuts down the browser allocator.
func (s *Scraper) Close() {
	s.allocCancel()
}

// Channel navigates to a channel page and returns the normalized snapshot.
// Element-wait timeouts count as transient: a slow render is retried with the
// full navigation, never resumed mid-page.
func (s *Scraper) Channel(ctx context.Context, channelURL string) (insight.ChannelSnapshot, error) {
	var snap insight.ChannelSnapshot
	attempt := 0
	err := retry.Do(ctx, s.logger, "channel scrape "+channelURL, s.policy, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			metrics.ObserveRetry(backendName)
		}
		var opErr error
		snap, opErr = s.scrapeOnce(ctx, channelURL)
		return opErr
	})
	if err != nil {
		return insight.ChannelSnapshot{}, err
	}
	return snap, nil
}

// PageExtract is the raw material pulled out of the rendered DOM in one
// evaluate round trip.
type PageExtract struct {
	Name        string   `json:"name"`
	Handle      string   `json:"handle"`
	Subscribers string   `json:"subscribers"`
	Videos      string   `json:"videos"`
	Description string   `json:"description"`
	Links       []string `json:"links"`
}

func (s *Scraper) scrapeOnce(ctx context.Context, channelURL string) (insight.ChannelSnapshot, error) {
	tabCtx, tabCancel := chromedp.NewContext(s.allocator)
	defer tabCancel()

	tabCtx, cancel := context.WithTimeout(tabCtx, s.cfg.NavigationTimeout)
	defer cancel()

	// The caller deadline still wins over the per-navigation timeout.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(tabCtx,
		s.networkSetupAction(),
		chromedp.Navigate(channelURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return insight.ChannelSnapshot{}, s.classifyNavError(ctx, channelURL, err)
	}

	s.dismissConsent(tabCtx, channelURL)

	if err := s.waitForHeader(tabCtx); err != nil {
		return insight.ChannelSnapshot{}, s.classifyNavError(ctx, channelURL, err)
	}

	var extract PageExtract
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(extractScript, &extract)); err != nil {
		return insight.ChannelSnapshot{}, s.classifyNavError(ctx, channelURL, err)
	}

	return BuildSnapshot(extract, s.cfg.MaxVideoLinks), nil
}

// networkSetupAction enables the network domain and overrides the browser
// identity before navigation.
func (s *Scraper) networkSetupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if err := network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": "en-US,en;q=0.9",
		}).Do(ctx); err != nil {
			return fmt.Errorf("set extra headers: %w", err)
		}
		if s.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(s.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

// waitForHeader blocks until the channel header renders, bounded by the
// element wait.
func (s *Scraper) waitForHeader(tabCtx context.Context) error {
	waitCtx, cancel := context.WithTimeout(tabCtx, s.cfg.ElementWait)
	defer cancel()
	return chromedp.Run(waitCtx, chromedp.WaitVisible(headerSelector, chromedp.ByQuery))
}

// dismissConsent clicks through the cookie dialog when present. Absence is
// the common case and never an error.
func (s *Scraper) dismissConsent(tabCtx context.Context, channelURL string) {
	clickCtx, cancel := context.WithTimeout(tabCtx, 3*time.Second)
	defer cancel()
	err := chromedp.Run(clickCtx,
		chromedp.WaitVisible(consentSelector, chromedp.ByQuery),
		chromedp.Click(consentSelector, chromedp.ByQuery),
	)
	if err != nil {
		s.logger.Debug("no consent dialog dismissed",
			zap.String("url", channelURL),
			zap.Error(err),
		)
		return
	}
	s.logger.Info("consent dialog dismissed", zap.String("url", channelURL))
}

func (s *Scraper) classifyNavError(ctx context.Context, channelURL string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("channel scrape %s: %w", channelURL, ctx.Err())
	}
	// Element waits and navigation timing out under a live caller mean the
	// page rendered too slowly; so do tab crashes. All worth a fresh attempt.
	return insight.Transient(backendName, fmt.Errorf("channel scrape %s: %w", channelURL, err))
}

// BuildSnapshot normalizes a raw extract into the canonical snapshot. Video
// links are deduplicated in first-seen order and capped at maxLinks.
func BuildSnapshot(extract PageExtract, maxLinks int) insight.ChannelSnapshot {
	return insight.ChannelSnapshot{
		Name:        strings.TrimSpace(extract.Name),
		Handle:      strings.TrimSpace(extract.Handle),
		Subscribers: strings.TrimSpace(extract.Subscribers),
		SubCount:    normalize.ParseCount(extract.Subscribers),
		VideoText:   strings.TrimSpace(extract.Videos),
		VideoCount:  normalize.ParseCount(extract.Videos),
		Description: strings.TrimSpace(extract.Description),
		VideoLinks:  CollectWatchLinks(extract.Links, maxLinks),
	}
}

// CollectWatchLinks filters hrefs down to watch URLs, resolving them against
// the site origin, deduplicating in first-seen order, and capping the result.
func CollectWatchLinks(hrefs []string, limit int) []string {
	seen := make(map[string]struct{}, len(hrefs))
	links := make([]string, 0, limit)
	for _, href := range hrefs {
		if !strings.Contains(href, "watch?v=") {
			continue
		}
		if strings.HasPrefix(href, "/") {
			href = "https://www.youtube.com" + href
		}
		if _, dup := seen[href]; dup {
			continue
		}
		seen[href] = struct{}{}
		links = append(links, href)
		if len(links) == limit {
			break
		}
	}
	return links
}

const headerSelector = `#page-header, #channel-header`

const consentSelector = `button[aria-label*="Accept"], button[aria-label*="Accetta"]`

// extractScript pulls the channel header fields and every anchor href in one
// round trip. Selector pairs cover both the current and the previous channel
// page layout.
const extractScript = `(() => {
	const text = (sel) => {
		const el = document.querySelector(sel);
		return el ? el.textContent.trim() : "";
	};
	const rows = Array.from(
		document.querySelectorAll("#page-header .yt-content-metadata-view-model-wiz__metadata-text, #channel-header #subscriber-count, #channel-header #videos-count")
	).map(el => el.textContent.trim());
	const handle = rows.find(t => t.startsWith("@")) || text("#channel-handle");
	const subscribers = rows.find(t => /subscriber|iscritt/i.test(t)) || "";
	const videos = rows.find(t => /video/i.test(t)) || "";
	return {
		name: text("#page-header h1") || text("#channel-name #text") || text("#text.ytd-channel-name"),
		handle: handle,
		subscribers: subscribers,
		videos: videos,
		description: text("#description-container") || text("yt-description-preview-view-model") || text("meta[name=description]") || (document.querySelector('meta[name="description"]')?.content ?? ""),
		links: Array.from(document.querySelectorAll("a[href]")).map(a => a.getAttribute("href")),
	};
})()`
