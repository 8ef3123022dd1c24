// Package crawlbase talks to the Crawlbase scraping API for profile and post
// acquisition. Every response arrives inside a wrapper envelope; the payload
// is unwrapped and normalized before it leaves this package.
package crawlbase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/brandlens/insight-api/internal/insight"
	"github.com/brandlens/insight-api/internal/metrics"
	"github.com/brandlens/insight-api/internal/normalize"
	"github.com/brandlens/insight-api/internal/retry"
)

const backendName = "crawlbase"

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.crawlbase.com"

// Scraper names understood by the API.
const (
	scraperProfile = "instagram-profile"
	scraperPost    = "instagram-post"
)

// detailWorkers bounds concurrent post-detail scrapes so one profile request
// cannot flood the upstream API.
const detailWorkers = 4

// Config holds the API credentials and acquisition limits.
type Config struct {
	Token    string
	BaseURL  string
	MaxPosts int
	Timeout  time.Duration
}

// Client is a retried Crawlbase API client.
type Client struct {
	cfg    Config
	http   *http.Client
	policy retry.Policy
	logger *zap.Logger
}

// New builds a Client. Timeout defaults to 60s; Crawlbase renders pages
// server-side and regularly takes tens of seconds.
func New(cfg Config, policy retry.Policy, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.MaxPosts <= 0 {
		cfg.MaxPosts = 8
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		policy: policy,
		logger: logger,
	}
}

// Profile scrapes a profile page and returns the normalized record together
// with the post permalinks the backend listed.
func (c *Client) Profile(ctx context.Context, username string) (insight.Profile, []string, error) {
	target := "https://www.instagram.com/" + url.PathEscape(username) + "/"
	body, err := c.scrape(ctx, scraperProfile, target)
	if err != nil {
		return insight.Profile{}, nil, err
	}
	profile := normalize.Profile(body)
	if profile.Username == "" {
		profile.Username = username
	}
	return profile, normalize.ProfilePostLinks(body), nil
}

// PostDetail scrapes a single post permalink.
func (c *Client) PostDetail(ctx context.Context, link string) (insight.Post, error) {
	body, err := c.scrape(ctx, scraperPost, link)
	if err != nil {
		return insight.Post{}, err
	}
	return normalize.Post(link, body), nil
}

// CompleteProfile acquires the profile and up to MaxPosts post details. Post
// detail failures are logged and skipped; only the profile scrape itself can
// fail the whole acquisition.
func (c *Client) CompleteProfile(ctx context.Context, username string) (insight.ProfileSnapshot, error) {
	profile, links, err := c.Profile(ctx, username)
	if err != nil {
		return insight.ProfileSnapshot{}, err
	}
	if len(links) > c.cfg.MaxPosts {
		links = links[:c.cfg.MaxPosts]
	}

	posts := make([]insight.Post, len(links))
	ok := make([]bool, len(links))

	var wg sync.WaitGroup
	sem := make(chan struct{}, detailWorkers)
	for i, link := range links {
		wg.Add(1)
		go func(i int, link string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			post, err := c.PostDetail(ctx, link)
			if err != nil {
				c.logger.Warn("post detail scrape failed, skipping",
					zap.String("username", username),
					zap.String("link", link),
					zap.Error(err),
				)
				return
			}
			posts[i] = post
			ok[i] = true
		}(i, link)
	}
	wg.Wait()

	// Preserve backend listing order, dropping the failures.
	kept := make([]insight.Post, 0, len(posts))
	for i, p := range posts {
		if ok[i] {
			kept = append(kept, p)
		}
	}

	c.logger.Info("profile acquisition complete",
		zap.String("username", username),
		zap.Int("posts_requested", len(links)),
		zap.Int("posts_acquired", len(kept)),
	)
	return insight.ProfileSnapshot{Profile: profile, Posts: kept}, nil
}

// scrape runs one scraper call under the retry policy and unwraps the
// response envelope.
func (c *Client) scrape(ctx context.Context, scraper, target string) (map[string]any, error) {
	var body map[string]any
	attempt := 0
	err := retry.Do(ctx, c.logger, scraper+" "+target, c.policy, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			metrics.ObserveRetry(backendName)
		}
		var opErr error
		body, opErr = c.scrapeOnce(ctx, scraper, target)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) scrapeOnce(ctx context.Context, scraper, target string) (map[string]any, error) {
	q := url.Values{}
	q.Set("token", c.cfg.Token)
	q.Set("scraper", scraper)
	q.Set("url", target)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return nil, insight.Validation(backendName, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, insight.Transient(backendName, fmt.Errorf("%s request: %w", scraper, err))
	}
	defer resp.Body.Close()

	if kindErr := classifyStatus(scraper, resp.StatusCode); kindErr != nil {
		io.Copy(io.Discard, resp.Body)
		return nil, kindErr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, insight.Transient(backendName, fmt.Errorf("%s read body: %w", scraper, err))
	}

	var wrapper map[string]any
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, insight.MalformedUpstream(backendName, fmt.Errorf("%s: invalid JSON envelope: %w", scraper, err))
	}
	return normalize.Body(backendName, wrapper)
}

func classifyStatus(scraper string, status int) error {
	err := fmt.Errorf("%s: upstream status %d", scraper, status)
	switch {
	case status >= 200 && status < 300:
		return nil
	case status >= 500, status == http.StatusTooManyRequests, status == http.StatusRequestTimeout:
		return insight.Transient(backendName, err)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return insight.Authorization(backendName, err)
	case status == http.StatusNotFound:
		return insight.NotFound(backendName, err)
	default:
		return insight.Validation(backendName, err)
	}
}
