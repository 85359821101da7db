// Package dedup decides whether a freshly resolved drive is new, a repeat
// of a stored drive, or too weak to keep. Repeats are common: placement
// cells forward, remind and correct the same opportunity several times.
package dedup

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/jonathan/placement-tracker/internal/types"
)

// Action is the disposition for an incoming drive.
type Action string

// Dispositions. Merge carries the identity of the stored drive to fold
// into.
const (
	ActionCreate  Action = "create"
	ActionMerge   Action = "merge"
	ActionDiscard Action = "discard"
)

// Decision pairs an action with the stored identity it applies to.
type Decision struct {
	Action Action
	Match  types.IdentityKey
}

// Default tuning. Company names within 0.85 similarity with the batch and
// role matching exactly denote the same drive; drives below the floor that
// match nothing are noise.
const (
	DefaultSimilarityThreshold = 0.85
	DefaultConfidenceFloor     = 0.25
)

// Matcher holds the dedup thresholds.
type Matcher struct {
	threshold float64
	floor     float64
}

// NewMatcher creates a Matcher; non-positive arguments fall back to the
// defaults.
func NewMatcher(threshold, floor float64) *Matcher {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	if floor <= 0 {
		floor = DefaultConfidenceFloor
	}
	return &Matcher{threshold: threshold, floor: floor}
}

// Decide matches the drive against every stored identity. Exact identity
// equality wins immediately; otherwise a fuzzy pass tolerates company
// spelling variants while requiring batch and role to agree exactly. With
// no match at all, a drive below the confidence floor is discarded.
func (m *Matcher) Decide(drive types.Drive, existing []types.IdentityKey) Decision {
	key := drive.Identity()

	for _, e := range existing {
		if e == key {
			return Decision{Action: ActionMerge, Match: e}
		}
	}

	if key.Company != "" {
		var best types.IdentityKey
		bestSim := 0.0
		for _, e := range existing {
			if e.Batch != key.Batch || e.Role != key.Role {
				continue
			}
			if sim := Similarity(key.Company, e.Company); sim > bestSim {
				bestSim, best = sim, e
			}
		}
		if bestSim >= m.threshold {
			return Decision{Action: ActionMerge, Match: best}
		}
	}

	if drive.Confidence < m.floor {
		return Decision{Action: ActionDiscard}
	}
	return Decision{Action: ActionCreate}
}

// Similarity is normalized Levenshtein similarity in [0,1] over canonical
// company strings.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// Merge folds src into dst, the later message winning: every non-null
// field of src overwrites the stored value, and stored values survive only
// where src has nothing. Confidence may only rise, and issues are replaced
// when the source record is cleaner. Corrections and reminders usually
// carry the freshest dates and links, so recency beats tenure.
func Merge(dst *types.Drive, src types.Drive) {
	if src.Role != "" {
		dst.Role = src.Role
	}
	if src.DriveType != "" {
		dst.DriveType = src.DriveType
	}
	if src.Batch != "" {
		dst.Batch = src.Batch
	}
	if src.DriveDate != nil {
		dst.DriveDate = src.DriveDate
	}
	if src.RegistrationDeadline != nil {
		dst.RegistrationDeadline = src.RegistrationDeadline
	}
	if len(src.EligibleBranches) > 0 {
		dst.EligibleBranches = src.EligibleBranches
	}
	if src.MinCGPA != nil {
		dst.MinCGPA = src.MinCGPA
	}
	if src.EligibilityText != "" {
		dst.EligibilityText = src.EligibilityText
	}
	if src.CTCAmount != nil {
		dst.CTCAmount = src.CTCAmount
	}
	if src.CTCText != "" {
		dst.CTCText = src.CTCText
	}
	if src.JobLocation != "" {
		dst.JobLocation = src.JobLocation
	}
	if src.RegistrationLink != "" {
		dst.RegistrationLink = src.RegistrationLink
	}
	if src.Confidence > dst.Confidence {
		dst.Confidence = src.Confidence
	}
	if len(src.Issues) < len(dst.Issues) {
		dst.Issues = src.Issues
	}
	if src.SourceMessageID != "" && !strings.Contains(dst.SourceMessageID, src.SourceMessageID) {
		if dst.SourceMessageID == "" {
			dst.SourceMessageID = src.SourceMessageID
		} else {
			dst.SourceMessageID += "," + src.SourceMessageID
		}
	}
}
