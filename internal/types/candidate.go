package types

// FieldName identifies a single extractable field of a placement drive.
type FieldName string

// Extractable fields. FieldCTCAmount carries the unit-normalized numeric
// value (LPA) produced at extraction time; FieldCTC keeps the original text.
const (
	FieldCompany         FieldName = "company_name"
	FieldRole            FieldName = "role"
	FieldDriveType       FieldName = "drive_type"
	FieldBatch           FieldName = "batch"
	FieldDriveDate       FieldName = "drive_date"
	FieldDeadline        FieldName = "registration_deadline"
	FieldBranches        FieldName = "eligible_branches"
	FieldMinCGPA         FieldName = "min_cgpa"
	FieldCTC             FieldName = "ctc_or_stipend"
	FieldCTCAmount       FieldName = "ctc_amount_lpa"
	FieldLocation        FieldName = "job_location"
	FieldLink            FieldName = "registration_link"
	FieldEligibilityText FieldName = "eligibility_text"
)

// Origin describes which extraction layer produced a candidate.
type Origin string

// Candidate origins. Deterministic candidates outrank probabilistic ones
// during resolution regardless of weight.
const (
	OriginDeterministic Origin = "deterministic"
	OriginProbabilistic Origin = "probabilistic"
)

// CandidateField is a single extracted value before resolution. Multiple
// candidates may exist per field; the resolver picks or merges.
type CandidateField struct {
	Field  FieldName `json:"field"`
	Value  string    `json:"value"`
	Rule   string    `json:"rule"` // source rule id, "llm" for enhancer output
	Origin Origin    `json:"origin"`
	Weight float64   `json:"weight"` // rule confidence in (0,1]
}
