// Package extract runs the deterministic rule layer over normalized text.
// Rules are regex-driven, run independently, and emit weighted candidate
// fields; nothing here touches the network.
package extract

import (
	"github.com/jonathan/placement-tracker/internal/segment"
	"github.com/jonathan/placement-tracker/internal/types"
)

const maxEligibilityExcerpt = 500

// Extract applies every registered rule to the message and returns all
// candidates that fired. A rule that misses, or panics on pathological
// input, never suppresses the others.
func Extract(subject string, nt types.NormalizedText, sections segment.Sections) []types.CandidateField {
	combined := subject + "\n" + nt.Text

	var candidates []types.CandidateField
	for _, rule := range Registry() {
		value, ok := applyRule(rule, subject, combined, sections)
		if !ok {
			continue
		}
		candidates = append(candidates, types.CandidateField{
			Field:  rule.Field,
			Value:  value,
			Rule:   rule.ID,
			Origin: types.OriginDeterministic,
			Weight: rule.Weight,
		})
	}

	// Compensation is unit-normalized at extraction time so the resolver
	// and duplicate matching work on comparable numbers.
	for _, c := range candidates {
		if c.Field != types.FieldCTC {
			continue
		}
		if lpa, ok := ParseCompensation(c.Value); ok {
			candidates = append(candidates, types.CandidateField{
				Field:  types.FieldCTCAmount,
				Value:  FormatLPA(lpa),
				Rule:   c.Rule + "-lpa",
				Origin: types.OriginDeterministic,
				Weight: c.Weight,
			})
			break
		}
	}

	if elig, ok := sections[segment.Eligibility]; ok && elig != "" {
		if len(elig) > maxEligibilityExcerpt {
			elig = elig[:maxEligibilityExcerpt]
		}
		candidates = append(candidates, types.CandidateField{
			Field:  types.FieldEligibilityText,
			Value:  elig,
			Rule:   "eligibility-section",
			Origin: types.OriginDeterministic,
			Weight: 0.5,
		})
	}

	return candidates
}

func applyRule(rule Rule, subject, combined string, sections segment.Sections) (value string, ok bool) {
	defer func() {
		if recover() != nil {
			value, ok = "", false
		}
	}()

	switch rule.Scope {
	case ScopeSubject:
		return rule.Apply(subject)
	case ScopeCombined:
		return rule.Apply(combined)
	default:
		if value, ok = rule.Apply(sections.Get(rule.Section)); ok {
			return value, true
		}
		// A rule preferring a narrow section may still hit in the full
		// body when the section scan mislabeled the text.
		if rule.Section != segment.General {
			if _, present := sections[rule.Section]; present {
				return rule.Apply(sections[segment.General])
			}
		}
		return "", false
	}
}
