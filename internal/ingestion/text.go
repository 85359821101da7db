package ingestion

import (
	"regexp"
	"strings"

	"github.com/jonathan/placement-tracker/internal/types"
)

// MaxChars is the normalized-text size ceiling, chosen to stay under the
// probabilistic enhancer's input limit (~3000 tokens at 4 chars/token).
const MaxChars = 12000

// preserveKeywords marks lines kept preferentially when trimming.
var preserveKeywords = []string{
	"apply", "deadline", "role", "position", "ctc", "stipend",
	"eligibility", "batch", "branch", "location", "link",
	"cgpa", "salary", "lpa", "package", "register", "date",
}

// Normalize runs the full text normalization: markup → plain text, noise
// removal, size ceiling. Pure function over its input.
func Normalize(rawBody string) types.NormalizedText {
	plain := HTMLToText(rawBody)
	clean, removed := RemoveNoise(plain)
	trimmed, truncated := trimToLimit(clean, MaxChars)
	return types.NormalizedText{
		Text:         trimmed,
		RemovedSpans: removed,
		Truncated:    truncated,
	}
}

// trimToLimit cuts text to maxChars, keeping lines that mention placement
// keywords ahead of everything else.
func trimToLimit(text string, maxChars int) (string, bool) {
	if len(text) <= maxChars {
		return text, false
	}

	var important, other []string
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		keep := false
		for _, kw := range preserveKeywords {
			if strings.Contains(lower, kw) {
				keep = true
				break
			}
		}
		if keep {
			important = append(important, line)
		} else {
			other = append(other, line)
		}
	}

	importantText := strings.Join(important, "\n")
	if len(importantText) >= maxChars {
		return strings.TrimSpace(importantText[:maxChars]), true
	}

	// The separator needs two of the remaining characters; when the
	// important lines already fill the budget there is no room left.
	remaining := maxChars - len(importantText) - 2
	if remaining <= 0 {
		return strings.TrimSpace(importantText), true
	}
	otherText := strings.Join(other, "\n")
	if len(otherText) > remaining {
		otherText = otherText[:remaining]
	}
	return strings.TrimSpace(importantText + "\n\n" + otherText), true
}

var (
	excerptURLRe   = regexp.MustCompile(`(?i)https?://[^\s<>"']+|www\.[^\s<>"']+`)
	excerptDateRes = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
		regexp.MustCompile(`(?i)\b\d{1,2}(?:st|nd|rd|th)?\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4}\b`),
		regexp.MustCompile(`(?i)\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},?\s+\d{4}\b`),
	}
	excerptMoneyRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:lpa|lakhs?|lac)\b`),
		regexp.MustCompile(`(?i)₹\s*\d+(?:,\d+)*(?:\.\d+)?(?:\s*(?:lpa|lakh|k|per\s*month))?`),
	}
	excerptCGPARe = regexp.MustCompile(`(?i)\b(?:cgpa|cg|gpa)\s*[:=]?\s*\d+(?:\.\d+)?(?:\s*(?:and\s*above|above|\+))?\b`)
)

// Excerpts pulls the high-signal lines (URLs, dates, money, CGPA) out of
// normalized text. Prepended to the enhancer prompt so key facts survive
// even when the surrounding prose confuses the model.
func Excerpts(text string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(prefix, v string) {
		e := prefix + ": " + strings.TrimSpace(v)
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}

	for _, url := range excerptURLRe.FindAllString(text, 3) {
		add("URL", url)
	}
	for _, re := range excerptDateRes {
		for _, d := range re.FindAllString(text, 2) {
			add("DATE", d)
		}
	}
	for _, re := range excerptMoneyRes {
		for _, m := range re.FindAllString(text, 2) {
			add("COMPENSATION", m)
		}
	}
	for _, c := range excerptCGPARe.FindAllString(text, 1) {
		add("CGPA", c)
	}
	return out
}
