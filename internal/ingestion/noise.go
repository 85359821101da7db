package ingestion

import (
	"regexp"
	"strings"

	"github.com/jonathan/placement-tracker/internal/types"
)

// noiseMarker pairs a pattern with the label recorded in RemovedSpans.
type noiseMarker struct {
	label   string
	pattern *regexp.Regexp
}

// Signature markers end processing: everything below a sign-off is trailer.
var signatureMarkers = []noiseMarker{
	{"signature", regexp.MustCompile(`(?i)^thanks\s*(&|and)?\s*regards\b`)},
	{"signature", regexp.MustCompile(`(?i)^(best|warm|kind)\s*regards\b`)},
	{"signature", regexp.MustCompile(`(?i)^regards,?\s*$`)},
	{"signature", regexp.MustCompile(`(?i)^thanking\s*you\b`)},
	{"signature", regexp.MustCompile(`(?i)^sincerely\b`)},
	{"signature", regexp.MustCompile(`(?i)^cheers\b`)},
}

// Reply markers open a quoted section that is dropped until prose resumes.
var replyMarkers = []noiseMarker{
	{"quoted_reply", regexp.MustCompile(`(?i)^on\s+.+wrote:`)},
	{"quoted_reply", regexp.MustCompile(`(?i)^(from|sent|to|cc|subject):\s+\S`)},
	{"quoted_reply", regexp.MustCompile(`^-{3,}.*original\s*message.*-{3,}$`)},
}

// Line markers are dropped individually wherever they occur.
var lineMarkers = []noiseMarker{
	{"disclaimer", regexp.MustCompile(`(?i)this\s*(e-?mail|message|communication)\s*(is\s*)?(intended|confidential)`)},
	{"disclaimer", regexp.MustCompile(`(?i)^disclaimer\b`)},
	{"disclaimer", regexp.MustCompile(`(?i)if\s*you\s*are\s*not\s*the\s*intended\s*recipient`)},
	{"disclaimer", regexp.MustCompile(`(?i)privileged\s*and\s*confidential`)},
	{"attachment_ref", regexp.MustCompile(`(?i)\[(image|cid):[^\]]*\]`)},
	{"mobile_footer", regexp.MustCompile(`(?i)sent\s*from\s*(my\s*)?(iphone|android|mobile)`)},
	{"mobile_footer", regexp.MustCompile(`(?i)get\s*outlook\s*for`)},
}

// RemoveNoise strips signatures, quoted reply history, legal disclaimers and
// client footers from plain text. Removal is best-effort: absent markers are
// simply not removed. Returns the cleaned text plus provenance for every
// dropped span.
func RemoveNoise(text string) (string, []types.RemovedSpan) {
	if text == "" {
		return "", nil
	}

	var kept []string
	var removed []types.RemovedSpan
	inQuoted := false

lines:
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)

		if inQuoted {
			if trimmed == "" || strings.HasPrefix(trimmed, ">") {
				continue
			}
			// A long unquoted line means prose resumed below the quote header.
			if len(trimmed) > 50 {
				inQuoted = false
			} else {
				continue
			}
		}

		if strings.HasPrefix(trimmed, ">") {
			removed = append(removed, span("quoted_reply", trimmed))
			continue
		}
		for _, m := range replyMarkers {
			if m.pattern.MatchString(trimmed) {
				inQuoted = true
				removed = append(removed, span(m.label, trimmed))
				continue lines
			}
		}
		for _, m := range signatureMarkers {
			if m.pattern.MatchString(trimmed) {
				removed = append(removed, span(m.label, trimmed))
				break lines
			}
		}
		for _, m := range lineMarkers {
			if m.pattern.MatchString(trimmed) {
				removed = append(removed, span(m.label, trimmed))
				continue lines
			}
		}

		kept = append(kept, line)
	}

	result := strings.Join(kept, "\n")
	result = blankLinesRe.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result), removed
}

func span(label, line string) types.RemovedSpan {
	const max = 80
	if len(line) > max {
		line = line[:max]
	}
	return types.RemovedSpan{Marker: label, Excerpt: line}
}
