// Package normalize converts backend-specific payloads into the canonical
// schema: count strings become integers, wrapper bodies become concrete maps,
// and known backend field anomalies are corrected in one documented place.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	numberRun = regexp.MustCompile(`[\d,.\s]+`)
	digitRun  = regexp.MustCompile(`[\d,]+`)
	unitWords = regexp.MustCompile(`\s*(followers?|following|posts?|subscribers?|videos?|iscritti|video)\s*$`)
)

// Suffix multipliers, including the locale variants seen in real payloads.
var thousandMarkers = []string{"k", "тыс", "thousand"}
var millionMarkers = []string{"m", "млн", "million"}

// ParseCount converts a count-like value into a non-negative integer.
// Accepts plain ints/floats, digit strings with separators, strings with
// metric suffixes ("34.2M followers"), and {"value": ..., "text": ...} maps.
// Best effort by contract: malformed input yields 0, never an error.
func ParseCount(v any) int {
	switch val := v.(type) {
	case nil:
		return 0
	case int:
		return clampNonNegative(val)
	case int64:
		return clampNonNegative(int(val))
	case float64:
		return clampNonNegative(int(val))
	case map[string]any:
		inner, ok := val["value"]
		if !ok {
			inner = val["text"]
		}
		if _, again := inner.(map[string]any); again {
			return 0
		}
		return ParseCount(inner)
	case string:
		return parseCountString(val)
	default:
		return 0
	}
}

func parseCountString(s string) int {
	clean := strings.ToLower(strings.TrimSpace(s))
	clean = unitWords.ReplaceAllString(clean, "")

	if mult, ok := suffixMultiplier(clean); ok {
		m := numberRun.FindString(clean)
		if m != "" {
			// With a metric suffix, "," is a decimal point ("34,2 млн").
			num := strings.ReplaceAll(m, ",", ".")
			num = strings.ReplaceAll(num, " ", "")
			if f, err := strconv.ParseFloat(strings.TrimSpace(num), 64); err == nil {
				return clampNonNegative(int(f * float64(mult)))
			}
		}
		return fallbackDigits(s)
	}

	// No suffix: "," is a thousands separator ("1,263 posts").
	var b strings.Builder
	for _, r := range clean {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return fallbackDigits(s)
	}
	n, err := strconv.Atoi(b.String())
	if err != nil {
		return fallbackDigits(s)
	}
	return n
}

func suffixMultiplier(s string) (int, bool) {
	for _, marker := range millionMarkers {
		if strings.Contains(s, marker) {
			return 1_000_000, true
		}
	}
	for _, marker := range thousandMarkers {
		if strings.Contains(s, marker) {
			return 1_000, true
		}
	}
	return 1, false
}

func fallbackDigits(s string) int {
	m := digitRun.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return 0
	}
	return n
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// FormatCount renders n in the service's abbreviated convention: one decimal
// place with a K suffix above 1000 and an M suffix above 1000000. Re-parsing
// the output with ParseCount round-trips within the suffix's precision.
func FormatCount(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	default:
		return strconv.Itoa(clampNonNegative(n))
	}
}
