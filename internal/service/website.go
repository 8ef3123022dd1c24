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

// PageFetcher acquires one rendered page. Implementations retry internally.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (insight.Page, error)
}

// SiteStructure describes the page skeleton.
type SiteStructure struct {
	NavSections     []string `json:"nav_sections"`
	NavigationDepth int      `json:"navigation_depth"`
	InternalLinks   []string `json:"internal_links"`
	SEOErrors       []string `json:"seo_errors"`
}

// NavigationLanding describes how visitors are steered from the page.
type NavigationLanding struct {
	CTACount         int      `json:"cta_count"`
	CTAs             []string `json:"ctas"`
	HasExternalLinks bool     `json:"has_external_links"`
	TopPages         []string `json:"top_pages"`
}

// FunnelObjectives names the inferred marketing objective.
type FunnelObjectives struct {
	PrimaryObjective string `json:"primary_objective"`
	CTACount         int    `json:"cta_count"`
}

// WebsiteTone is the perceived register of the page copy.
type WebsiteTone struct {
	Perceived string `json:"perceived"`
}

// UserExperience carries coarse UX signals readable from static HTML.
type UserExperience struct {
	MobileFriendly     bool   `json:"mobile_friendly"`
	NavigationFluidity string `json:"navigation_fluidity"`
	PerceivedDesign    string `json:"perceived_design"`
	ImageCount         int    `json:"image_count"`
}

// Technologies lists the fingerprinted stack.
type Technologies struct {
	Detected []string `json:"detected"`
}

// WebsiteResult is the assembled website analysis. When Error is set only the
// identifying fields are meaningful.
type WebsiteResult struct {
	URL          string             `json:"url"`
	AnalyzedAt   time.Time          `json:"analyzed_at"`
	Error        string             `json:"error,omitempty"`
	Structure    *SiteStructure     `json:"site_structure,omitempty"`
	Navigation   *NavigationLanding `json:"navigation_landing,omitempty"`
	Funnel       *FunnelObjectives  `json:"funnel_objectives,omitempty"`
	Tone         *WebsiteTone       `json:"tone_of_voice,omitempty"`
	Experience   *UserExperience    `json:"user_experience,omitempty"`
	Technologies *Technologies      `json:"technologies,omitempty"`
}

// WebsiteAnalyzer orchestrates a single-page website analysis.
type WebsiteAnalyzer struct {
	fetcher PageFetcher
	logger  *zap.Logger
	timeout time.Duration
}

// NewWebsiteAnalyzer wires the analyzer. timeout bounds the whole request,
// acquisition retries included.
func NewWebsiteAnalyzer(fetcher PageFetcher, timeout time.Duration, logger *zap.Logger) *WebsiteAnalyzer {
	return &WebsiteAnalyzer{fetcher: fetcher, logger: logger, timeout: timeout}
}

// Analyze fetches the page once and runs every section over the parsed view.
// Never returns an error: acquisition failure produces an error-tagged result
// and zero section tasks run.
func (a *WebsiteAnalyzer) Analyze(ctx context.Context, url string) WebsiteResult {
	result := WebsiteResult{URL: url, AnalyzedAt: time.Now().UTC()}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	page, err := a.fetcher.Fetch(ctx, url)
	if err != nil {
		a.logger.Error("website acquisition failed",
			zap.String("url", url),
			zap.Error(err),
		)
		metrics.ObserveScrape("website", "failure")
		result.Error = err.Error()
		return result
	}

	insp, err := analyze.InspectPage(page.Body, url)
	if err != nil {
		a.logger.Error("page parse failed",
			zap.String("url", url),
			zap.Error(err),
		)
		metrics.ObserveScrape("website", "failure")
		result.Error = err.Error()
		return result
	}
	metrics.ObserveScrape("website", "success")

	html := string(page.Body)

	var (
		structure  SiteStructure
		navigation NavigationLanding
		funnel     FunnelObjectives
		tone       WebsiteTone
		experience UserExperience
		techs      Technologies
		wg         sync.WaitGroup
	)

	runSection(&wg, a.logger, "website", "site_structure", &structure, defaultSiteStructure(), func() (SiteStructure, error) {
		return SiteStructure{
			NavSections:     orEmpty(insp.NavSections),
			NavigationDepth: insp.NavigationDepth(),
			InternalLinks:   orEmpty(insp.InternalLinks(10)),
			SEOErrors:       insp.SEOErrors(),
		}, nil
	})
	runSection(&wg, a.logger, "website", "navigation_landing", &navigation, defaultNavigationLanding(), func() (NavigationLanding, error) {
		return NavigationLanding{
			CTACount:         len(insp.CTATexts),
			CTAs:             orEmpty(insp.CTATexts),
			HasExternalLinks: insp.HasExternalLinks(),
			TopPages:         orEmpty(insp.InternalLinks(5)),
		}, nil
	})
	runSection(&wg, a.logger, "website", "funnel_objectives", &funnel, defaultFunnelObjectives(), func() (FunnelObjectives, error) {
		return FunnelObjectives{
			PrimaryObjective: analyze.ProfileObjective(insp.BodyText, insp.CTATexts),
			CTACount:         len(insp.CTATexts),
		}, nil
	})
	runSection(&wg, a.logger, "website", "tone_of_voice", &tone, WebsiteTone{Perceived: analyze.DefaultTone}, func() (WebsiteTone, error) {
		return WebsiteTone{Perceived: analyze.ToneOfVoice([]string{insp.Title, insp.MetaDescription, insp.BodyText})}, nil
	})
	runSection(&wg, a.logger, "website", "user_experience", &experience, defaultUserExperience(), func() (UserExperience, error) {
		return UserExperience{
			MobileFriendly:     insp.HasViewport,
			NavigationFluidity: navigationFluidity(len(insp.NavSections)),
			PerceivedDesign:    analyze.CreativeStyle([]string{insp.BodyText}, insp.Title),
			ImageCount:         insp.ImageCount,
		}, nil
	})
	runSection(&wg, a.logger, "website", "technologies", &techs, Technologies{Detected: []string{}}, func() (Technologies, error) {
		return Technologies{Detected: orEmpty(analyze.DetectTechnologies(html))}, nil
	})

	wg.Wait()

	result.Structure = &structure
	result.Navigation = &navigation
	result.Funnel = &funnel
	result.Tone = &tone
	result.Experience = &experience
	result.Technologies = &techs
	return result
}

// Section defaults. Each one is schema-valid and explicitly neutral.
func defaultSiteStructure() SiteStructure {
	return SiteStructure{
		NavSections:     []string{},
		NavigationDepth: 1,
		InternalLinks:   []string{},
		SEOErrors:       []string{"analysis unavailable"},
	}
}

func defaultNavigationLanding() NavigationLanding {
	return NavigationLanding{CTAs: []string{}, TopPages: []string{}}
}

func defaultFunnelObjectives() FunnelObjectives {
	return FunnelObjectives{PrimaryObjective: analyze.DefaultObjective}
}

func defaultUserExperience() UserExperience {
	return UserExperience{NavigationFluidity: "unknown", PerceivedDesign: analyze.DefaultCreativeStyle}
}

func navigationFluidity(navSections int) string {
	switch {
	case navSections >= 4 && navSections <= 8:
		return "good"
	case navSections > 0:
		return "fair"
	default:
		return "poor"
	}
}

// orEmpty keeps JSON arrays present instead of null.
func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
