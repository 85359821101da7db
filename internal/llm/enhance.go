package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/placement-tracker/internal/types"
)

// ErrUnavailable is returned for every enhancement failure: missing client,
// timeout, transport error, malformed or schema-invalid output. Callers
// treat it as a signal to degrade, never to abort.
var ErrUnavailable = errors.New("enhancer unavailable")

// promptBodyLimit caps how much body text goes into the prompt.
const promptBodyLimit = 8000

// probabilisticWeight is the fixed weight for model-produced candidates.
// Deterministic candidates outrank them at resolution regardless, so the
// weight only matters among probabilistic values.
const probabilisticWeight = 0.5

const extractionPrompt = `You are an expert at extracting structured placement drive information from emails.

Extract ONLY explicit information from the email. Use null for any missing fields. Return valid JSON only.

Subject: %s

Key facts already located in the email:
%s

Values found by pattern matching (correct them only if the email clearly disagrees):
%s

Email:
%s

Extraction Rules:
1. company_name: Extract the company name from subject or body. Clean up suffixes like "Pvt Ltd", "Inc", etc.
2. role: Job roles/positions (e.g., "SDE Intern", "Software Engineer"). Use comma-separated if multiple.
3. drive_type: "internship", "fte", or "both" based on what's mentioned.
4. batch: Target graduation year (e.g., "2025", "2026", "2027").
5. drive_date: When the drive/interview happens (YYYY-MM-DD format).
6. registration_deadline: Last date to apply/register (YYYY-MM-DD format).
7. eligible_branches: Branch codes like "CSE, IT, ECE" or "All Branches".
8. min_cgpa: Minimum CGPA requirement as a number (e.g., 7.0, 8.5).
9. ctc_or_stipend: Compensation in format like "12 LPA" or "40,000/month".
10. job_location: City name or "Remote" or "Hybrid".
11. registration_link: Full URL to application/registration form.

Return a single JSON object with exactly these fields. Use null for missing values.`

// Enhancer wraps a Client with a per-call timeout and converts validated
// model output into candidate fields.
type Enhancer struct {
	client  Client
	timeout time.Duration
}

// NewEnhancer creates an Enhancer. A nil client yields an Enhancer whose
// Enhance always reports ErrUnavailable, which lets the pipeline run
// deterministically when no API key is configured.
func NewEnhancer(client Client, timeout time.Duration) *Enhancer {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Enhancer{client: client, timeout: timeout}
}

// Enhance asks the model for a structured read of the message and returns
// probabilistic candidates. Excerpts and deterministic hints are embedded
// in the prompt so high-signal facts survive long prose. Every failure
// path returns an error wrapping ErrUnavailable.
func (e *Enhancer) Enhance(ctx context.Context, subject string, nt types.NormalizedText, excerpts []string, hints []types.CandidateField) ([]types.CandidateField, error) {
	if e.client == nil {
		return nil, fmt.Errorf("%w: no client configured", ErrUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.client.GenerateJSON(ctx, buildPrompt(subject, nt.Text, excerpts, hints))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := ValidateResponse(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var resp response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}

	return resp.candidates(), nil
}

func buildPrompt(subject, body string, excerpts []string, hints []types.CandidateField) string {
	if len(body) > promptBodyLimit {
		body = body[:promptBodyLimit]
	}

	excerptBlock := "(none)"
	if len(excerpts) > 0 {
		excerptBlock = strings.Join(excerpts, "\n")
	}

	hintBlock := "(none)"
	if len(hints) > 0 {
		var lines []string
		for _, h := range hints {
			lines = append(lines, fmt.Sprintf("%s: %s", h.Field, h.Value))
		}
		hintBlock = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(extractionPrompt, subject, excerptBlock, hintBlock, body)
}

// response mirrors the schema in schema.go. MinCGPA tolerates both a JSON
// number and a quoted number, which the model alternates between.
type response struct {
	CompanyName      *string `json:"company_name"`
	Role             *string `json:"role"`
	DriveType        *string `json:"drive_type"`
	Batch            *string `json:"batch"`
	DriveDate        *string `json:"drive_date"`
	Deadline         *string `json:"registration_deadline"`
	EligibleBranches *string `json:"eligible_branches"`
	MinCGPA          any     `json:"min_cgpa"`
	CTCOrStipend     *string `json:"ctc_or_stipend"`
	JobLocation      *string `json:"job_location"`
	RegistrationLink *string `json:"registration_link"`
}

func (r response) candidates() []types.CandidateField {
	var out []types.CandidateField
	add := func(field types.FieldName, value string) {
		value = strings.TrimSpace(value)
		if value == "" || strings.EqualFold(value, "null") {
			return
		}
		out = append(out, types.CandidateField{
			Field:  field,
			Value:  value,
			Rule:   "llm",
			Origin: types.OriginProbabilistic,
			Weight: probabilisticWeight,
		})
	}

	addPtr := func(field types.FieldName, v *string) {
		if v != nil {
			add(field, *v)
		}
	}

	addPtr(types.FieldCompany, r.CompanyName)
	addPtr(types.FieldRole, r.Role)
	addPtr(types.FieldDriveType, r.DriveType)
	addPtr(types.FieldBatch, r.Batch)
	addPtr(types.FieldDriveDate, r.DriveDate)
	addPtr(types.FieldDeadline, r.Deadline)
	addPtr(types.FieldBranches, r.EligibleBranches)
	addPtr(types.FieldCTC, r.CTCOrStipend)
	addPtr(types.FieldLocation, r.JobLocation)
	addPtr(types.FieldLink, r.RegistrationLink)

	switch v := r.MinCGPA.(type) {
	case float64:
		add(types.FieldMinCGPA, strconv.FormatFloat(v, 'f', -1, 64))
	case string:
		add(types.FieldMinCGPA, v)
	}

	return out
}
