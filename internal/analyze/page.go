package analyze

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageInspection is the parsed view of one HTML page that the website
// section tasks read. Built once per request; immutable afterward.
type PageInspection struct {
	BaseURL         string
	Title           string
	MetaDescription string
	HasViewport     bool
	H1Count         int
	Headings        map[string][]string
	Links           []PageLink
	NavSections     []string
	CTATexts        []string
	ImageCount      int
	BodyText        string
}

// PageLink is one anchor found on the page.
type PageLink struct {
	URL      string
	Text     string
	Internal bool
}

var ctaKeywords = []string{
	"buy", "purchase", "shop", "add to cart", "checkout",
	"subscribe", "sign up", "register", "download", "get started",
	"contact", "learn more", "try", "demo",
}

// InspectPage parses raw HTML once so every section task can reuse the same
// read-only view.
func InspectPage(body []byte, baseURL string) (*PageInspection, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, _ := url.Parse(baseURL)

	insp := &PageInspection{
		BaseURL:  baseURL,
		Headings: map[string][]string{},
	}
	insp.Title = strings.TrimSpace(doc.Find("title").First().Text())
	insp.MetaDescription, _ = doc.Find(`meta[name="description"]`).First().Attr("content")
	insp.MetaDescription = strings.TrimSpace(insp.MetaDescription)
	insp.HasViewport = doc.Find(`meta[name="viewport"]`).Length() > 0
	insp.ImageCount = doc.Find("img").Length()

	for level := 1; level <= 6; level++ {
		tag := fmt.Sprintf("h%d", level)
		doc.Find(tag).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if text != "" {
				insp.Headings[tag] = append(insp.Headings[tag], text)
			}
		})
	}
	insp.H1Count = len(insp.Headings["h1"])

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		link := resolveLink(base, href)
		if link == "" {
			return
		}
		insp.Links = append(insp.Links, PageLink{
			URL:      link,
			Text:     strings.TrimSpace(s.Text()),
			Internal: isInternal(base, link),
		})
	})

	seen := map[string]bool{}
	doc.Find("nav a[href], #menu a[href], .menu a[href], #navigation a[href], .navigation a[href]").
		Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if text != "" && !seen[text] {
				seen[text] = true
				insp.NavSections = append(insp.NavSections, text)
			}
		})

	ctaSeen := map[string]bool{}
	doc.Find("button, a").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" || ctaSeen[text] {
			return
		}
		if containsAny(strings.ToLower(text), ctaKeywords) {
			ctaSeen[text] = true
			insp.CTATexts = append(insp.CTATexts, text)
		}
	})

	doc.Find("script, style").Remove()
	insp.BodyText = strings.Join(strings.Fields(doc.Find("body").Text()), " ")

	return insp, nil
}

// SEOErrors lists heading/title/meta problems, or a single all-clear entry.
func (p *PageInspection) SEOErrors() []string {
	var errs []string
	switch {
	case p.Title == "":
		errs = append(errs, "missing title")
	case len(p.Title) > 60:
		errs = append(errs, "title too long")
	}
	if p.MetaDescription == "" {
		errs = append(errs, "missing meta description")
	}
	switch {
	case p.H1Count == 0:
		errs = append(errs, "missing h1")
	case p.H1Count > 1:
		errs = append(errs, "multiple h1")
	}
	if len(errs) == 0 {
		return []string{"no issues detected"}
	}
	return errs
}

// InternalLinks returns up to limit internal link paths relative to the base.
func (p *PageInspection) InternalLinks(limit int) []string {
	var out []string
	for _, l := range p.Links {
		if !l.Internal {
			continue
		}
		out = append(out, strings.TrimPrefix(l.URL, strings.TrimSuffix(p.BaseURL, "/")))
		if len(out) == limit {
			break
		}
	}
	return out
}

// NavigationDepth estimates site depth from internal link path segments,
// capped at 5.
func (p *PageInspection) NavigationDepth() int {
	depth := 1
	checked := 0
	for _, l := range p.Links {
		if !l.Internal || checked >= 20 {
			continue
		}
		checked++
		u, err := url.Parse(l.URL)
		if err != nil {
			continue
		}
		segs := len(strings.Split(strings.Trim(u.Path, "/"), "/"))
		if segs > depth {
			depth = segs
		}
	}
	if depth > 5 {
		return 5
	}
	return depth
}

// HasExternalLinks reports whether the page links off-domain.
func (p *PageInspection) HasExternalLinks() bool {
	for _, l := range p.Links {
		if !l.Internal {
			return true
		}
	}
	return false
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		return base.ResolveReference(ref).String()
	}
	return ref.String()
}

func isInternal(base *url.URL, link string) bool {
	if base == nil {
		return true
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return u.Host == "" || strings.EqualFold(u.Host, base.Host)
}
