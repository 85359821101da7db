package types

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DriveType is the closed enumeration of placement opportunity kinds.
type DriveType string

// Drive types. An empty DriveType means the kind could not be determined.
const (
	DriveTypeInternship DriveType = "internship"
	DriveTypeFTE        DriveType = "fte"
	DriveTypeBoth       DriveType = "both"
)

// ParseDriveType coerces free text into a DriveType. Returns false when the
// input maps to no known type.
func ParseDriveType(s string) (DriveType, bool) {
	switch DriveType(strings.ToLower(strings.TrimSpace(s))) {
	case DriveTypeInternship, DriveTypeFTE, DriveTypeBoth:
		return DriveType(strings.ToLower(strings.TrimSpace(s))), true
	}
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "intern"):
		return DriveTypeInternship, true
	case strings.Contains(lower, "full") || strings.Contains(lower, "fte"):
		return DriveTypeFTE, true
	}
	return "", false
}

// DriveStatus is the lifecycle state of a drive as shown on the dashboard.
type DriveStatus string

// Drive statuses.
const (
	StatusUpcoming  DriveStatus = "upcoming"
	StatusOpen      DriveStatus = "open"
	StatusClosed    DriveStatus = "closed"
	StatusCancelled DriveStatus = "cancelled"
)

// Drive is the resolved structured record for one placement opportunity.
// Every non-nil typed field has passed canonicalization; sparse records are
// valid and carry a confidence reflecting completeness.
type Drive struct {
	ID                   uuid.UUID   `json:"id"`
	CompanyName          string      `json:"company_name"`
	Role                 string      `json:"role,omitempty"`
	DriveType            DriveType   `json:"drive_type,omitempty"`
	Batch                string      `json:"batch,omitempty"`
	DriveDate            *time.Time  `json:"drive_date,omitempty"`
	RegistrationDeadline *time.Time  `json:"registration_deadline,omitempty"`
	EligibleBranches     []string    `json:"eligible_branches,omitempty"`
	MinCGPA              *float64    `json:"min_cgpa,omitempty"`
	EligibilityText      string      `json:"eligibility_text,omitempty"`
	CTCAmount            *float64    `json:"ctc_amount_lpa,omitempty"` // canonical LPA
	CTCText              string      `json:"ctc_or_stipend,omitempty"` // original wording
	JobLocation          string      `json:"job_location,omitempty"`
	RegistrationLink     string      `json:"registration_link,omitempty"`
	Status               DriveStatus `json:"status"`
	Confidence           float64     `json:"confidence_score"`
	Issues               []string    `json:"validation_issues,omitempty"`
	SourceMessageID      string      `json:"source_message_id,omitempty"`
	CreatedAt            time.Time   `json:"created_at,omitempty"`
	UpdatedAt            time.Time   `json:"last_updated,omitempty"`
}

// IdentityKey is the uniqueness axis for deduplication: two drives with an
// equal key denote the same underlying opportunity.
type IdentityKey struct {
	Company string `json:"company"`
	Batch   string `json:"batch"`
	Role    string `json:"role"`
}

var (
	companySuffixRe = regexp.MustCompile(`(?i)\s*(pvt\.?\s*ltd\.?|private\s*limited|limited|ltd\.?|inc\.?|llc|llp|technologies|technology|solutions?)\s*$`)
	nonAlnumRe      = regexp.MustCompile(`[^a-z0-9 ]+`)
	spaceRe         = regexp.MustCompile(`\s+`)
)

// CanonicalCompany lowercases a company name and strips punctuation and
// corporate suffixes so that spelling variants map to the same key.
func CanonicalCompany(name string) string {
	s := strings.TrimSpace(name)
	for {
		stripped := companySuffixRe.ReplaceAllString(s, "")
		if stripped == s {
			break
		}
		s = stripped
	}
	s = strings.ToLower(s)
	s = nonAlnumRe.ReplaceAllString(s, " ")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Identity derives the drive's IdentityKey deterministically.
func (d *Drive) Identity() IdentityKey {
	return IdentityKey{
		Company: CanonicalCompany(d.CompanyName),
		Batch:   strings.TrimSpace(d.Batch),
		Role:    strings.ToLower(strings.TrimSpace(d.Role)),
	}
}

// DerivedStatus computes the dashboard status from the registration deadline
// relative to now. A cancelled drive stays cancelled; a drive with no
// deadline keeps its stored status.
func (d *Drive) DerivedStatus(now time.Time) DriveStatus {
	if d.Status == StatusCancelled {
		return StatusCancelled
	}
	if d.RegistrationDeadline == nil {
		if d.Status == "" {
			return StatusUpcoming
		}
		return d.Status
	}
	// Deadline dates are inclusive: the drive closes at the end of that day.
	if now.After(d.RegistrationDeadline.AddDate(0, 0, 1)) {
		return StatusClosed
	}
	return StatusOpen
}
