// Package page implements a single-URL HTTP fetcher on top of Colly, with
// uniform retry classification per response status.
package page

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/brandlens/insight-api/internal/insight"
	"github.com/brandlens/insight-api/internal/metrics"
	"github.com/brandlens/insight-api/internal/retry"
)

const backendName = "http"

// Config controls fetcher behavior. The outbound proxy, when needed, comes
// from the standard proxy environment variables.
type Config struct {
	UserAgent string
	Timeout   time.Duration
}

// Fetcher performs retried HTTP GETs and returns raw page payloads.
type Fetcher struct {
	cfg       Config
	policy    retry.Policy
	logger    *zap.Logger
	transport http.RoundTripper
	base      *colly.Collector
}

// New builds a Fetcher. The base collector is cloned per request so no
// per-request state leaks across calls; only the pooled transport is shared.
func New(cfg Config, policy retry.Policy, logger *zap.Logger) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	transport := newTransport()
	c.WithTransport(transport)

	return &Fetcher{
		cfg:       cfg,
		policy:    policy,
		logger:    logger,
		transport: transport,
		base:      c,
	}
}

// Fetch GETs url under the retry policy and returns the decoded body plus
// status metadata.
func (f *Fetcher) Fetch(ctx context.Context, url string) (insight.Page, error) {
	var page insight.Page
	attempt := 0
	err := retry.Do(ctx, f.logger, "http fetch "+url, f.policy, func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			metrics.ObserveRetry(backendName)
		}
		var opErr error
		page, opErr = f.fetchOnce(ctx, url)
		return opErr
	})
	if err != nil {
		return insight.Page{}, err
	}
	return page, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (insight.Page, error) {
	collector := f.base.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(f.cfg.Timeout)

	start := time.Now()
	var (
		page     insight.Page
		fetchErr error
	)

	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
	})
	collector.OnResponse(func(r *colly.Response) {
		page = insight.Page{
			URL:        url,
			FinalURL:   r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Headers:    r.Headers.Clone(),
			Body:       append([]byte(nil), r.Body...),
			Duration:   time.Since(start),
		}
	})
	collector.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = classify(url, status, err)
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return insight.Page{}, insight.Transient(backendName, fmt.Errorf("fetch canceled: %w", ctx.Err()))
	case err := <-done:
		if fetchErr != nil {
			return insight.Page{}, fetchErr
		}
		if err != nil {
			return insight.Page{}, classify(url, 0, err)
		}
		return page, nil
	}
}

// classify maps a transport error or non-2xx status into the service error
// taxonomy: 5xx/429/408 transient, 404 not-found, 401/403 authorization,
// remaining 4xx fatal.
func classify(url string, status int, err error) error {
	wrapped := fmt.Errorf("GET %s: status %d: %w", url, status, err)
	switch {
	case status >= 500, status == http.StatusTooManyRequests, status == http.StatusRequestTimeout:
		return insight.Transient(backendName, wrapped)
	case status == http.StatusNotFound:
		return insight.NotFound(backendName, wrapped)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return insight.Authorization(backendName, wrapped)
	case status >= 400:
		return insight.Validation(backendName, wrapped)
	default:
		// Connection-level failures arrive without a status code.
		return insight.Transient(backendName, wrapped)
	}
}

func newTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
