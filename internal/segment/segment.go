// Package segment heuristically locates semantically meaningful spans inside
// normalized text to narrow the search space for extraction.
package segment

import (
	"strings"

	"github.com/jonathan/placement-tracker/internal/types"
)

// Label names a recognized section of a placement email.
type Label string

// Section labels. Text under no recognized header falls into General.
const (
	Eligibility Label = "eligibility"
	Process     Label = "process"
	Dates       Label = "dates"
	General     Label = "general"
)

// Sections maps labels to the text gathered under them.
type Sections map[Label]string

// Get returns the section text for a label, falling back to General so rule
// lookups never miss entirely.
func (s Sections) Get(label Label) string {
	if text, ok := s[label]; ok && text != "" {
		return text
	}
	return s[General]
}

// headerAnchors are case-insensitive keywords that mark a section header
// line. A header line is short; long prose lines mentioning "date" are not
// headers.
var headerAnchors = map[Label][]string{
	Eligibility: {"eligibility", "eligible", "who can apply", "criteria"},
	Process:     {"selection process", "hiring process", "interview process", "rounds", "procedure"},
	Dates:       {"important dates", "timeline", "schedule", "key dates"},
}

const maxHeaderLen = 60

// Segment splits normalized text into labeled sections by scanning for
// header anchors. Absence of any recognized header is not an error: the
// whole body becomes General. The full text is always available under
// General as well, since field mentions routinely stray across sections.
func Segment(nt types.NormalizedText) Sections {
	sections := Sections{General: nt.Text}

	current := General
	buckets := map[Label][]string{}
	for _, line := range strings.Split(nt.Text, "\n") {
		if label, ok := matchHeader(line); ok {
			current = label
			buckets[current] = append(buckets[current], line)
			continue
		}
		if current != General {
			buckets[current] = append(buckets[current], line)
		}
	}

	for label, lines := range buckets {
		sections[label] = strings.TrimSpace(strings.Join(lines, "\n"))
	}
	return sections
}

func matchHeader(line string) (Label, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || len(trimmed) > maxHeaderLen {
		return "", false
	}
	lower := strings.ToLower(trimmed)
	for _, label := range []Label{Eligibility, Process, Dates} {
		for _, anchor := range headerAnchors[label] {
			if strings.Contains(lower, anchor) {
				return label, true
			}
		}
	}
	return "", false
}
