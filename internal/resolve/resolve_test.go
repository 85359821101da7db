package resolve

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/placement-tracker/internal/types"
)

func det(field types.FieldName, value string, weight float64) types.CandidateField {
	return types.CandidateField{Field: field, Value: value, Rule: "r", Origin: types.OriginDeterministic, Weight: weight}
}

func prob(field types.FieldName, value string) types.CandidateField {
	return types.CandidateField{Field: field, Value: value, Rule: "llm", Origin: types.OriginProbabilistic, Weight: 0.5}
}

func TestResolveDeterministicOutranksProbabilistic(t *testing.T) {
	candidates := []types.CandidateField{
		prob(types.FieldCompany, "Flipkart Internet"),
		det(types.FieldCompany, "flipkart", 0.6),
	}

	drive := Resolve(candidates, types.NormalizedText{}, "msg-1")
	assert.Equal(t, "Flipkart", drive.CompanyName, "deterministic wins and is title-cased")
}

func TestResolveWeightBreaksTies(t *testing.T) {
	candidates := []types.CandidateField{
		det(types.FieldRole, "Engineer", 0.6),
		det(types.FieldRole, "SDE-1", 0.8),
	}

	drive := Resolve(candidates, types.NormalizedText{}, "msg-1")
	assert.Equal(t, "SDE-1", drive.Role)
}

func TestResolveCoercion(t *testing.T) {
	candidates := []types.CandidateField{
		det(types.FieldCompany, "zoho corporation", 0.9),
		det(types.FieldDriveType, "Internship + PPO", 0.7),
		det(types.FieldBatch, "2026", 0.8),
		det(types.FieldDeadline, "2025-12-11", 0.85),
		det(types.FieldBranches, "Computer Science, IT and ECE", 0.75),
		det(types.FieldMinCGPA, "7.5", 0.8),
		det(types.FieldCTC, "8 LPA", 0.8),
		det(types.FieldCTCAmount, "8", 0.8),
		det(types.FieldLink, "https://forms.gle/abc", 0.8),
	}

	drive := Resolve(candidates, types.NormalizedText{}, "msg-1")

	assert.Equal(t, "Zoho Corporation", drive.CompanyName)
	assert.Equal(t, types.DriveTypeInternship, drive.DriveType)
	assert.Equal(t, "2026", drive.Batch)
	require.NotNil(t, drive.RegistrationDeadline)
	assert.Equal(t, "2025-12-11", drive.RegistrationDeadline.Format(time.DateOnly))
	assert.Equal(t, []string{"CSE", "IT", "ECE"}, drive.EligibleBranches)
	require.NotNil(t, drive.MinCGPA)
	assert.Equal(t, 7.5, *drive.MinCGPA)
	require.NotNil(t, drive.CTCAmount)
	assert.Equal(t, 8.0, *drive.CTCAmount)
	assert.Equal(t, "8 LPA", drive.CTCText)
	assert.Empty(t, drive.Issues)
}

func TestResolveInvalidValuesNullWithIssue(t *testing.T) {
	tests := []struct {
		name      string
		candidate types.CandidateField
		check     func(t *testing.T, d types.Drive)
	}{
		{
			name:      "CGPA out of range",
			candidate: det(types.FieldMinCGPA, "75", 0.8),
			check:     func(t *testing.T, d types.Drive) { assert.Nil(t, d.MinCGPA) },
		},
		{
			name:      "Unknown drive type",
			candidate: det(types.FieldDriveType, "apprenticeship", 0.7),
			check:     func(t *testing.T, d types.Drive) { assert.Empty(t, d.DriveType) },
		},
		{
			name:      "Non-http link",
			candidate: det(types.FieldLink, "forms.gle/abc", 0.8),
			check:     func(t *testing.T, d types.Drive) { assert.Empty(t, d.RegistrationLink) },
		},
		{
			name:      "Unparseable deadline",
			candidate: det(types.FieldDeadline, "soon", 0.85),
			check:     func(t *testing.T, d types.Drive) { assert.Nil(t, d.RegistrationDeadline) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			drive := Resolve([]types.CandidateField{tt.candidate}, types.NormalizedText{}, "msg-1")
			tt.check(t, drive)
			assert.NotEmpty(t, drive.Issues)
		})
	}
}

func TestResolveDerivesCTCAmountFromProbabilisticText(t *testing.T) {
	candidates := []types.CandidateField{
		prob(types.FieldCTC, "50,000/month"),
	}

	drive := Resolve(candidates, types.NormalizedText{}, "msg-1")
	require.NotNil(t, drive.CTCAmount)
	assert.InDelta(t, 6.0, *drive.CTCAmount, 0.001)
}

func TestResolveConfidence(t *testing.T) {
	full := []types.CandidateField{
		det(types.FieldCompany, "Zoho", 0.9),
		det(types.FieldRole, "SDE", 0.8),
		det(types.FieldDriveType, "fte", 0.7),
		det(types.FieldBatch, "2026", 0.8),
		det(types.FieldDeadline, "2025-12-11", 0.85),
		det(types.FieldBranches, "CSE", 0.75),
		det(types.FieldCTC, "8 LPA", 0.8),
		det(types.FieldLink, "https://forms.gle/abc", 0.8),
	}

	drive := Resolve(full, types.NormalizedText{}, "msg-1")
	assert.Greater(t, drive.Confidence, 0.9, "all required fields populated")

	sparse := Resolve(full[:1], types.NormalizedText{}, "msg-1")
	assert.Less(t, sparse.Confidence, drive.Confidence)
	assert.Greater(t, sparse.Confidence, 0.0)

	truncated := Resolve(full, types.NormalizedText{Truncated: true}, "msg-1")
	assert.InDelta(t, drive.Confidence*0.9, truncated.Confidence, 0.0001)

	empty := Resolve(nil, types.NormalizedText{}, "msg-1")
	assert.Zero(t, empty.Confidence)
	assert.Contains(t, empty.Issues, "missing company_name")
}

func TestResolveReproducible(t *testing.T) {
	candidates := []types.CandidateField{
		det(types.FieldCompany, "Zoho", 0.9),
		det(types.FieldBatch, "20", 0.8),
		det(types.FieldMinCGPA, "eleven", 0.8),
		det(types.FieldLink, "forms.gle/abc", 0.8),
		det(types.FieldRole, "SDE", 0.8),
	}

	first := Resolve(candidates, types.NormalizedText{}, "msg-1")
	assert.Equal(t, []string{
		`implausible batch "20"`,
		`invalid min_cgpa "eleven"`,
		`invalid registration_link "forms.gle/abc"`,
	}, first.Issues, "issues come out in field order")

	for i := 0; i < 25; i++ {
		again := Resolve(candidates, types.NormalizedText{}, "msg-1")
		require.Equal(t, first.Issues, again.Issues)
		require.Equal(t, first.Confidence, again.Confidence)
	}
}

func TestResolveMissingCompanyFlagged(t *testing.T) {
	drive := Resolve([]types.CandidateField{det(types.FieldRole, "SDE", 0.8)}, types.NormalizedText{}, "msg-1")
	assert.Empty(t, drive.CompanyName)
	assert.Contains(t, drive.Issues, "missing company_name")
}
