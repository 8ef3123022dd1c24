// Package analyze holds the pure analysis heuristics run by the
// orchestrators: keyword classifiers over captions and bios, engagement
// aggregation over normalized posts, and HTML page inspection. Everything in
// this package is side-effect free and safe to run concurrently over the
// same snapshot.
package analyze

import (
	"regexp"
	"strings"
)

// keywordCategory pairs a label with its trigger words. Categories are kept
// in slices, not maps: on a score tie the first-declared category wins, and
// that ordering is part of the contract.
type keywordCategory struct {
	label    string
	keywords []string
}

var toneCategories = []keywordCategory{
	{"ironic", []string{"lol", "ahah", "haha", "ironico", "scherzo", "funny", "divertente", "😂", "😄", "🤣"}},
	{"institutional", []string{"azienda", "company", "official", "ufficiale", "servizio", "business"}},
	{"educational", []string{"impara", "scopri", "tutorial", "learn", "education", "corso", "lezione", "tips", "consiglio"}},
	{"motivational", []string{"motiva", "ispira", "dreams", "sogni", "success", "successo", "achieve", "goal", "obiettivo"}},
	{"casual", []string{"ciao", "hey", "relax", "chill", "easy", "simple", "facile"}},
	{"professional", []string{"expertise", "competenza", "qualità", "quality", "professional", "esperienza", "leader"}},
}

var objectiveCategories = []keywordCategory{
	{"awareness", []string{"brand", "know", "discover", "scopri", "conosci", "awareness", "visibility"}},
	{"conversion", []string{"buy", "shop", "acquista", "compra", "sale", "offer", "offerta", "sconto", "deal"}},
	{"loyalty", []string{"community", "famiglia", "together", "insieme", "loyalty", "fedeltà", "family"}},
}

var creativeStyleCategories = []keywordCategory{
	{"dynamic", []string{"action", "movimento", "dynamic", "veloce", "fast", "energy", "energia"}},
	{"minimal", []string{"minimal", "clean", "simple", "semplice", "essenziale", "pure"}},
	{"premium", []string{"luxury", "premium", "exclusive", "esclusivo", "elegante", "refined"}},
	{"colorful", []string{"color", "bright", "vivace", "rainbow", "colorful", "brillante"}},
	{"monochrome", []string{"black", "white", "mono", "bw", "grayscale"}},
}

// Matched as whole words: short markers like "ad" or "promo" would otherwise
// fire inside "made", "brand" or "promozione".
var collaborationKeywords = []string{
	"collaboration", "collab", "partnership", "partner", "sponsored", "sponsor",
	"ad", "advertising", "promo", "promotion", "ambassador",
}

var collaborationPattern = wordPattern(collaborationKeywords)

func wordPattern(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

var ambassadorKeywords = []string{
	"ambassador", "ambasciatore", "rappresentante", "face of",
	"testimonial", "spokesperson", "influencer", "creator",
}

// Default labels returned when no keyword scores at all.
const (
	DefaultTone          = "professional"
	DefaultObjective     = "awareness"
	DefaultCreativeStyle = "minimal"
)

// ToneOfVoice classifies the dominant tone across the given texts.
func ToneOfVoice(texts []string) string {
	return classify(texts, toneCategories, DefaultTone)
}

// ProfileObjective classifies what the profile is trying to achieve.
func ProfileObjective(bio string, captions []string) string {
	return classify(append([]string{bio}, captions...), objectiveCategories, DefaultObjective)
}

// CreativeStyle classifies the visual/creative register of the content.
func CreativeStyle(captions []string, bio string) string {
	return classify(append([]string{bio}, captions...), creativeStyleCategories, DefaultCreativeStyle)
}

func classify(texts []string, categories []keywordCategory, fallback string) string {
	combined := strings.ToLower(strings.Join(texts, " "))
	if strings.TrimSpace(combined) == "" {
		return fallback
	}
	best := fallback
	bestScore := 0
	for _, cat := range categories {
		score := 0
		for _, kw := range cat.keywords {
			score += strings.Count(combined, kw)
		}
		if score > bestScore {
			best = cat.label
			bestScore = score
		}
	}
	return best
}

// Collaborations counts captions that look sponsored or co-produced.
type Collaborations struct {
	Detected   bool    `json:"detected"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// DetectCollaborations scans captions for sponsorship markers and tagged
// co-authors.
func DetectCollaborations(captions []string) Collaborations {
	if len(captions) == 0 {
		return Collaborations{}
	}
	count := 0
	for _, caption := range captions {
		if caption == "" {
			continue
		}
		lower := strings.ToLower(caption)
		if collaborationPattern.MatchString(lower) {
			count++
		} else if strings.Contains(caption, "@") && containsAny(lower, []string{"with", "con", "insieme"}) {
			count++
		}
	}
	pct := float64(count) / float64(len(captions)) * 100
	return Collaborations{
		Detected:   count > 0,
		Count:      count,
		Percentage: round1(pct),
	}
}

// DetectBrandAmbassadors reports whether the bio or recent captions mention
// an ambassador-style relationship.
func DetectBrandAmbassadors(bio string, captions []string) bool {
	if len(captions) > 10 {
		captions = captions[:10]
	}
	all := strings.ToLower(bio + " " + strings.Join(captions, " "))
	return containsAny(all, ambassadorKeywords)
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

func round1(f float64) float64 {
	return float64(int(f*10+0.5)) / 10
}
