package extract

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/placement-tracker/internal/segment"
	"github.com/jonathan/placement-tracker/internal/types"
)

func TestParseCompensation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{name: "Plain LPA", input: "8 LPA", want: 8.0, ok: true},
		{name: "Decimal LPA", input: "CTC of 24.5 LPA", want: 24.5, ok: true},
		{name: "Range takes lower bound", input: "8-12 LPA", want: 8.0, ok: true},
		{name: "Lakhs per annum", input: "6 lakhs per annum", want: 6.0, ok: true},
		{name: "Rupees per annum", input: "₹8,00,000 per annum", want: 8.0, ok: true},
		{name: "Monthly stipend annualized", input: "₹50,000 per month", want: 6.0, ok: true},
		{name: "Monthly without symbol", input: "stipend of 25,000 per month", want: 3.0, ok: true},
		{name: "Not a figure", input: "TBD", ok: false},
		{name: "Empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCompensation(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 0.001)
			}
		})
	}
}

func TestParseLooseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{name: "Numeric slash", input: "11/12/2025", want: "2025-12-11", ok: true},
		{name: "Numeric dash", input: "5-1-2026", want: "2026-01-05", ok: true},
		{name: "Ordinal day month year", input: "11th December 2025", want: "2025-12-11", ok: true},
		{name: "Month day year", input: "December 11, 2025", want: "2025-12-11", ok: true},
		{name: "ISO passes through", input: "2025-12-11", want: "2025-12-11", ok: true},
		{name: "Invalid calendar date", input: "32/13/2025", ok: false},
		{name: "No date", input: "sometime soon", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseLooseDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Format(time.DateOnly))
			}
		})
	}
}

func TestExtractCompanyFromSubject(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		want    string
		rule    string
	}{
		{name: "Pipe delimiters win", subject: "|| Flipkart || Campus Drive 2026", want: "Flipkart", rule: "company-subject-pipes"},
		{name: "Leading name before dash", subject: "Google - SDE Hiring for 2026 Batch", want: "Google", rule: "company-subject-lead"},
		{name: "Drive by form", subject: "Placement drive by Zoho for 2026 batch", want: "Zoho", rule: "company-subject-drive-by"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates := Extract(tt.subject, types.NormalizedText{Text: ""}, segment.Sections{segment.General: ""})

			var best *types.CandidateField
			for i, c := range candidates {
				if c.Field == types.FieldCompany && (best == nil || c.Weight > best.Weight) {
					best = &candidates[i]
				}
			}
			require.NotNil(t, best)
			assert.Equal(t, tt.want, best.Value)
			assert.Equal(t, tt.rule, best.Rule)
		})
	}
}

func TestExtractFullMessage(t *testing.T) {
	subject := "|| Flipkart || Campus Drive for 2026 Batch"
	body := strings.Join([]string{
		"Flipkart is hiring for the role of Software Development Engineer.",
		"Role: SDE-1",
		"CTC: 24.5 LPA plus benefits. Job Location: Bangalore.",
		"",
		"Eligibility Criteria:",
		"CSE, IT and ECE branches. Minimum 7.0 CGPA required.",
		"",
		"Important Dates:",
		"Registration deadline: 11th December 2025.",
		"Drive date: 20/12/2025.",
		"",
		"Register here: https://forms.gle/abc123",
	}, "\n")

	nt := types.NormalizedText{Text: body}
	sections := segment.Segment(nt)
	candidates := Extract(subject, nt, sections)

	byField := map[types.FieldName][]types.CandidateField{}
	for _, c := range candidates {
		byField[c.Field] = append(byField[c.Field], c)
	}

	require.NotEmpty(t, byField[types.FieldCompany])
	assert.Equal(t, "Flipkart", byField[types.FieldCompany][0].Value)

	require.NotEmpty(t, byField[types.FieldRole])
	assert.Equal(t, "SDE-1", byField[types.FieldRole][0].Value)

	require.NotEmpty(t, byField[types.FieldBatch])
	assert.Equal(t, "2026", byField[types.FieldBatch][0].Value)

	require.NotEmpty(t, byField[types.FieldDriveType])
	assert.Equal(t, "fte", byField[types.FieldDriveType][0].Value)

	require.NotEmpty(t, byField[types.FieldDeadline])
	assert.Equal(t, "2025-12-11", byField[types.FieldDeadline][0].Value)

	require.NotEmpty(t, byField[types.FieldDriveDate])
	assert.Equal(t, "2025-12-20", byField[types.FieldDriveDate][0].Value)

	require.NotEmpty(t, byField[types.FieldMinCGPA])
	assert.Equal(t, "7.0", byField[types.FieldMinCGPA][0].Value)

	require.NotEmpty(t, byField[types.FieldCTC])
	assert.Contains(t, byField[types.FieldCTC][0].Value, "24.5")

	require.NotEmpty(t, byField[types.FieldCTCAmount])
	assert.Equal(t, "24.5", byField[types.FieldCTCAmount][0].Value)

	require.NotEmpty(t, byField[types.FieldBranches])
	assert.Equal(t, "CSE, IT, ECE", byField[types.FieldBranches][0].Value)

	require.NotEmpty(t, byField[types.FieldLocation])
	assert.Contains(t, byField[types.FieldLocation][0].Value, "Bangalore")

	require.NotEmpty(t, byField[types.FieldLink])
	assert.Equal(t, "https://forms.gle/abc123", byField[types.FieldLink][0].Value)

	require.NotEmpty(t, byField[types.FieldEligibilityText])
	assert.Contains(t, byField[types.FieldEligibilityText][0].Value, "Minimum 7.0 CGPA")

	for _, c := range candidates {
		assert.Equal(t, types.OriginDeterministic, c.Origin)
		assert.Greater(t, c.Weight, 0.0)
	}
}

func TestExtractMissingFieldsStaySilent(t *testing.T) {
	nt := types.NormalizedText{Text: "Please attend the orientation session tomorrow."}
	candidates := Extract("Orientation session", nt, segment.Segment(nt))

	for _, c := range candidates {
		assert.NotEqual(t, types.FieldCTC, c.Field)
		assert.NotEqual(t, types.FieldMinCGPA, c.Field)
		assert.NotEqual(t, types.FieldLink, c.Field)
	}
}

func TestDetectDriveType(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{name: "Internship only", text: "6 month internship with stipend", want: "internship", ok: true},
		{name: "Full time only", text: "full-time position with CTC 8 LPA", want: "fte", ok: true},
		{name: "Both", text: "internship followed by PPO conversion", want: "both", ok: true},
		{name: "No signal", text: "join the webinar", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := detectDriveType(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRegistrationLinkSkipsSocial(t *testing.T) {
	text := strings.Join([]string{
		"Follow us https://twitter.com/college",
		"Apply here: https://forms.gle/xyz",
		"Unsubscribe: https://list.example.com/unsubscribe?u=1",
	}, "\n")

	link, ok := registrationLink(text)
	require.True(t, ok)
	assert.Equal(t, "https://forms.gle/xyz", link)
}
