package llm

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// responseSchema constrains what the model may hand back. Every field is
// nullable; unexpected fields are rejected so a hallucinated shape fails
// validation instead of leaking into candidates.
const responseSchema = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "company_name":          {"type": ["string", "null"]},
    "role":                  {"type": ["string", "null"]},
    "drive_type":            {"type": ["string", "null"]},
    "batch":                 {"type": ["string", "null"]},
    "drive_date":            {"type": ["string", "null"]},
    "registration_deadline": {"type": ["string", "null"]},
    "eligible_branches":     {"type": ["string", "null"]},
    "min_cgpa":              {"type": ["number", "string", "null"]},
    "ctc_or_stipend":        {"type": ["string", "null"]},
    "job_location":          {"type": ["string", "null"]},
    "registration_link":     {"type": ["string", "null"]}
  }
}`

// ValidateResponse checks raw model output against the response schema.
func ValidateResponse(jsonContent string) error {
	schemaLoader := gojsonschema.NewStringLoader(responseSchema)
	documentLoader := gojsonschema.NewStringLoader(jsonContent)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("failed to validate response: %w", err)
	}

	if !result.Valid() {
		var issues []string
		for _, desc := range result.Errors() {
			issues = append(issues, desc.String())
		}
		return fmt.Errorf("response does not match schema: %s", strings.Join(issues, "; "))
	}

	return nil
}
