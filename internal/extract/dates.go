package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Date patterns the corpus of placement mail actually uses: numeric
// DD/MM/YYYY, "11th December 2025", "December 11, 2025" and ISO.
var (
	isoDateRe     = regexp.MustCompile(`\b(20\d{2})-(\d{2})-(\d{2})\b`)
	numericDateRe = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](20\d{2})\b`)
	dayMonthRe    = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\s+(20\d{2})\b`)
	monthDayRe    = regexp.MustCompile(`(?i)\b(Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)\s+(\d{1,2}),?\s+(20\d{2})\b`)
)

var monthNums = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

// dateMatch is one date found in text, as a canonical ISO string plus the
// offset where the match began (used to pair dates with nearby keywords).
type dateMatch struct {
	iso   string
	start int
}

// findDates locates every recognizable date in text, in canonical
// YYYY-MM-DD form, ordered by position.
func findDates(text string) []dateMatch {
	var out []dateMatch

	for _, loc := range isoDateRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, dateMatch{iso: text[loc[0]:loc[1]], start: loc[0]})
	}
	for _, loc := range numericDateRe.FindAllStringSubmatchIndex(text, -1) {
		day := text[loc[2]:loc[3]]
		month := text[loc[4]:loc[5]]
		year := text[loc[6]:loc[7]]
		if iso, ok := buildISO(year, month, day); ok {
			out = append(out, dateMatch{iso: iso, start: loc[0]})
		}
	}
	for _, loc := range dayMonthRe.FindAllStringSubmatchIndex(text, -1) {
		day := text[loc[2]:loc[3]]
		month := text[loc[4]:loc[5]]
		year := text[loc[6]:loc[7]]
		if iso, ok := buildISONamed(year, month, day); ok {
			out = append(out, dateMatch{iso: iso, start: loc[0]})
		}
	}
	for _, loc := range monthDayRe.FindAllStringSubmatchIndex(text, -1) {
		month := text[loc[2]:loc[3]]
		day := text[loc[4]:loc[5]]
		year := text[loc[6]:loc[7]]
		if iso, ok := buildISONamed(year, month, day); ok {
			out = append(out, dateMatch{iso: iso, start: loc[0]})
		}
	}

	sortDateMatches(out)
	return out
}

func sortDateMatches(matches []dateMatch) {
	for i := 1; i < len(matches); i++ {
		for j := i; j > 0 && matches[j].start < matches[j-1].start; j-- {
			matches[j], matches[j-1] = matches[j-1], matches[j]
		}
	}
}

func buildISO(year, month, day string) (string, bool) {
	y, _ := strconv.Atoi(year)
	m, _ := strconv.Atoi(month)
	d, _ := strconv.Atoi(day)
	iso := fmt.Sprintf("%04d-%02d-%02d", y, m, d)
	if _, err := time.Parse("2006-01-02", iso); err != nil {
		return "", false
	}
	return iso, true
}

func buildISONamed(year, monthName, day string) (string, bool) {
	m, ok := monthNums[strings.ToLower(monthName)[:3]]
	if !ok {
		return "", false
	}
	return buildISO(year, strconv.Itoa(m), day)
}

// ParseLooseDate coerces a single free-form date string to a time. Used by
// the resolver to canonicalize candidate values.
func ParseLooseDate(s string) (time.Time, bool) {
	matches := findDates(s)
	if len(matches) == 0 {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", matches[0].iso)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// keywordDate finds the date closest after any of the given keyword
// patterns; window bounds how far past the keyword a date may sit.
func keywordDate(text string, keywords *regexp.Regexp) (string, bool) {
	const window = 120
	dates := findDates(text)
	if len(dates) == 0 {
		return "", false
	}
	for _, loc := range keywords.FindAllStringIndex(text, -1) {
		for _, d := range dates {
			if d.start >= loc[0] && d.start-loc[1] < window {
				return d.iso, true
			}
		}
	}
	return "", false
}
