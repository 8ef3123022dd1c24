package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brandlens/insight-api/internal/insight"
)

const sampleSiteHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Acme Store</title>
  <meta name="description" content="Everything you need">
  <meta name="viewport" content="width=device-width">
  <script src="/js/jquery-3.6.0.min.js"></script>
</head>
<body>
  <nav>
    <a href="/">Home</a>
    <a href="/products">Products</a>
    <a href="/about">About</a>
    <a href="/contact">Contact</a>
  </nav>
  <h1>Welcome to Acme</h1>
  <p>Shop our premium quality collection. Buy now and discover the brand.</p>
  <a href="/shop">Shop now</a>
  <a href="https://twitter.com/acme">Twitter</a>
  <img src="/hero.png">
</body>
</html>`

type fakeFetcher struct {
	page  insight.Page
	err   error
	calls atomic.Int32
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (insight.Page, error) {
	f.calls.Add(1)
	if f.err != nil {
		return insight.Page{}, f.err
	}
	return f.page, nil
}

func TestWebsiteAnalyze_PopulatesAllSections(t *testing.T) {
	fetcher := &fakeFetcher{page: insight.Page{
		URL:        "https://acme.example",
		StatusCode: 200,
		Body:       []byte(sampleSiteHTML),
	}}
	a := NewWebsiteAnalyzer(fetcher, time.Minute, zap.NewNop())

	result := a.Analyze(context.Background(), "https://acme.example")

	assert.Empty(t, result.Error)
	assert.False(t, result.AnalyzedAt.IsZero())

	require.NotNil(t, result.Structure)
	assert.Equal(t, []string{"Home", "Products", "About", "Contact"}, result.Structure.NavSections)
	assert.Equal(t, []string{"no issues detected"}, result.Structure.SEOErrors)

	require.NotNil(t, result.Navigation)
	assert.True(t, result.Navigation.HasExternalLinks)
	assert.NotZero(t, result.Navigation.CTACount)

	require.NotNil(t, result.Funnel)
	assert.NotEmpty(t, result.Funnel.PrimaryObjective)

	require.NotNil(t, result.Tone)
	assert.NotEmpty(t, result.Tone.Perceived)

	require.NotNil(t, result.Experience)
	assert.True(t, result.Experience.MobileFriendly)
	assert.Equal(t, 1, result.Experience.ImageCount)
	assert.Equal(t, "good", result.Experience.NavigationFluidity)

	require.NotNil(t, result.Technologies)
	assert.Contains(t, result.Technologies.Detected, "jQuery")
}

func TestWebsiteAnalyze_AcquisitionFailure(t *testing.T) {
	fetcher := &fakeFetcher{err: insight.NotFound("http", assert.AnError)}
	a := NewWebsiteAnalyzer(fetcher, time.Minute, zap.NewNop())

	result := a.Analyze(context.Background(), "https://gone.example")

	assert.Equal(t, int32(1), fetcher.calls.Load())
	assert.NotEmpty(t, result.Error)
	assert.Equal(t, "https://gone.example", result.URL)
	assert.False(t, result.AnalyzedAt.IsZero())
	assert.Nil(t, result.Structure)
	assert.Nil(t, result.Navigation)
	assert.Nil(t, result.Funnel)
	assert.Nil(t, result.Tone)
	assert.Nil(t, result.Experience)
	assert.Nil(t, result.Technologies)
}

func TestWebsiteAnalyze_UnparseableBodyStillFailsClosed(t *testing.T) {
	// goquery accepts almost anything, so an empty body must still produce a
	// schema-valid result rather than panic.
	fetcher := &fakeFetcher{page: insight.Page{Body: []byte("")}}
	a := NewWebsiteAnalyzer(fetcher, time.Minute, zap.NewNop())

	result := a.Analyze(context.Background(), "https://blank.example")
	assert.Empty(t, result.Error)
	require.NotNil(t, result.Structure)
	assert.Equal(t, []string{}, result.Structure.NavSections)
	assert.Contains(t, result.Structure.SEOErrors, "missing title")
}
