package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Compensation shows up three ways in placement mail: annual packages in
// LPA ("8 LPA", "24.5 LPA", "8-12 LPA"), rupee figures per annum
// ("₹8,00,000 per annum"), and internship stipends per month
// ("₹50,000 per month"). Everything canonicalizes to lakhs per annum.
var (
	lpaRe       = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(?:-\s*\d+(?:\.\d+)?\s*)?(?:lpa|lakhs?\s*(?:per\s*annum|p\.?a\.?)?|lacs?)\b`)
	rupeeYearRe = regexp.MustCompile(`(?i)(?:₹|rs\.?|inr)\s*([\d,]+)(?:\.\d+)?\s*(?:per\s*annum|p\.?a\.?|\/\s*(?:year|annum))`)
	monthlyRe   = regexp.MustCompile(`(?i)(?:₹|rs\.?|inr)?\s*([\d,]+)(?:\.\d+)?\s*(?:per\s*month|\/\s*month|p\.?m\.?\b|monthly)`)
)

// ParseCompensation canonicalizes a compensation mention to lakhs per
// annum. Ranges resolve to their lower bound. Monthly stipends are
// annualized. Returns false when no figure is recognizable.
func ParseCompensation(text string) (float64, bool) {
	if m := lpaRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
			return v, true
		}
	}
	if m := rupeeYearRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(stripCommas(m[1]), 64); err == nil && v > 0 {
			return v / 100000, true
		}
	}
	if m := monthlyRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(stripCommas(m[1]), 64); err == nil && v > 0 {
			return v * 12 / 100000, true
		}
	}
	return 0, false
}

// FormatLPA renders a canonical lakhs-per-annum value without trailing
// zero noise ("8", "24.5", "6.6").
func FormatLPA(lpa float64) string {
	return strconv.FormatFloat(lpa, 'f', -1, 64)
}

func stripCommas(s string) string {
	return strings.ReplaceAll(s, ",", "")
}
