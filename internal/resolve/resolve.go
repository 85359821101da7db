// Package resolve merges candidate fields from both extraction layers into
// a single validated Drive. Coercion failures null the field and record an
// issue; they never fail the message.
package resolve

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jonathan/placement-tracker/internal/extract"
	"github.com/jonathan/placement-tracker/internal/types"
)

// fieldOrder fixes the coercion sequence so issue lists and confidence
// sums come out identical across runs.
var fieldOrder = []types.FieldName{
	types.FieldCompany,
	types.FieldRole,
	types.FieldDriveType,
	types.FieldBatch,
	types.FieldDriveDate,
	types.FieldDeadline,
	types.FieldBranches,
	types.FieldMinCGPA,
	types.FieldCTC,
	types.FieldCTCAmount,
	types.FieldLocation,
	types.FieldLink,
	types.FieldEligibilityText,
}

// requiredFields drive the completeness half of the confidence score.
var requiredFields = []types.FieldName{
	types.FieldCompany,
	types.FieldRole,
	types.FieldDriveType,
	types.FieldBatch,
	types.FieldDeadline,
	types.FieldBranches,
	types.FieldCTC,
	types.FieldLink,
}

const (
	completenessShare = 0.7
	weightShare       = 0.3
	truncationPenalty = 0.9
)

var titleCaser = cases.Title(language.English)

// Resolve picks a winner per field, coerces values into their typed form
// and scores the result. Deterministic candidates always outrank
// probabilistic ones; among candidates of the same origin the higher
// weight wins, ties going to the earlier candidate.
func Resolve(candidates []types.CandidateField, nt types.NormalizedText, sourceMessageID string) types.Drive {
	winners := pickWinners(candidates)

	drive := types.Drive{
		Status:          types.StatusUpcoming,
		SourceMessageID: sourceMessageID,
	}
	populated := map[types.FieldName]bool{}
	note := func(format string, args ...any) {
		drive.Issues = append(drive.Issues, fmt.Sprintf(format, args...))
	}

	for _, field := range fieldOrder {
		w, ok := winners[field]
		if !ok {
			continue
		}
		value := strings.TrimSpace(w.Value)
		switch field {
		case types.FieldCompany:
			drive.CompanyName = titleCaser.String(value)
		case types.FieldRole:
			drive.Role = value
		case types.FieldDriveType:
			dt, ok := types.ParseDriveType(value)
			if !ok {
				note("unrecognized drive_type %q", value)
				continue
			}
			drive.DriveType = dt
		case types.FieldBatch:
			if len(value) != 4 || value[0] != '2' {
				note("implausible batch %q", value)
				continue
			}
			drive.Batch = value
		case types.FieldDriveDate:
			t, ok := extract.ParseLooseDate(value)
			if !ok {
				note("unparseable drive_date %q", value)
				continue
			}
			drive.DriveDate = &t
		case types.FieldDeadline:
			t, ok := extract.ParseLooseDate(value)
			if !ok {
				note("unparseable registration_deadline %q", value)
				continue
			}
			drive.RegistrationDeadline = &t
		case types.FieldBranches:
			drive.EligibleBranches = normalizeBranches(value)
		case types.FieldMinCGPA:
			cgpa, err := strconv.ParseFloat(value, 64)
			if err != nil || cgpa < 0 || cgpa > 10 {
				note("invalid min_cgpa %q", value)
				continue
			}
			drive.MinCGPA = &cgpa
		case types.FieldCTC:
			drive.CTCText = value
		case types.FieldCTCAmount:
			lpa, err := strconv.ParseFloat(value, 64)
			if err != nil || lpa <= 0 {
				note("invalid ctc amount %q", value)
				continue
			}
			drive.CTCAmount = &lpa
		case types.FieldLocation:
			drive.JobLocation = value
		case types.FieldLink:
			if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") {
				note("invalid registration_link %q", value)
				continue
			}
			drive.RegistrationLink = value
		case types.FieldEligibilityText:
			drive.EligibilityText = value
		}
		populated[field] = true
	}

	// A probabilistic compensation value may arrive without a canonical
	// amount; derive one so duplicate merging can compare numbers.
	if drive.CTCAmount == nil && drive.CTCText != "" {
		if lpa, ok := extract.ParseCompensation(drive.CTCText); ok {
			drive.CTCAmount = &lpa
		}
	}

	if drive.CompanyName == "" {
		note("missing company_name")
	}

	drive.Confidence = score(winners, populated, nt.Truncated)
	return drive
}

func pickWinners(candidates []types.CandidateField) map[types.FieldName]types.CandidateField {
	winners := map[types.FieldName]types.CandidateField{}
	for _, c := range candidates {
		if strings.TrimSpace(c.Value) == "" {
			continue
		}
		cur, ok := winners[c.Field]
		if !ok || beats(c, cur) {
			winners[c.Field] = c
		}
	}
	return winners
}

func beats(a, b types.CandidateField) bool {
	if a.Origin != b.Origin {
		return a.Origin == types.OriginDeterministic
	}
	return a.Weight > b.Weight
}

// score blends completeness of the required fields with the mean weight of
// the winners that survived coercion. Truncated input caps what the text
// could have told us, so the whole score is discounted.
func score(winners map[types.FieldName]types.CandidateField, populated map[types.FieldName]bool, truncated bool) float64 {
	var present int
	for _, f := range requiredFields {
		if populated[f] {
			present++
		}
	}
	completeness := float64(present) / float64(len(requiredFields))

	var weightSum float64
	var n int
	for _, field := range fieldOrder {
		if w, ok := winners[field]; ok && populated[field] {
			weightSum += w.Weight
			n++
		}
	}
	var avgWeight float64
	if n > 0 {
		avgWeight = weightSum / float64(n)
	}

	confidence := completenessShare*completeness + weightShare*avgWeight
	if truncated {
		confidence *= truncationPenalty
	}
	return confidence
}

var branchAliases = strings.NewReplacer(
	"COMPUTER SCIENCE", "CSE",
	"INFORMATION TECHNOLOGY", "IT",
	"ELECTRONICS AND COMMUNICATION", "ECE",
	"ELECTRONICS", "ECE",
)

func normalizeBranches(value string) []string {
	upper := branchAliases.Replace(strings.ToUpper(value))
	upper = strings.ReplaceAll(upper, " AND ", ",")
	upper = strings.ReplaceAll(upper, "&", ",")

	var out []string
	seen := map[string]bool{}
	for _, part := range strings.Split(upper, ",") {
		b := strings.TrimSpace(part)
		if b == "" || seen[b] {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	return out
}
