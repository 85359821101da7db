package observability

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/placement-tracker/internal/pipeline"
	"github.com/jonathan/placement-tracker/internal/types"
)

func TestPrintBatchSummary(t *testing.T) {
	var sb strings.Builder
	p := NewPrinter(&sb)

	p.PrintBatchSummary(types.BatchSummary{Fetched: 5, Created: 2, Merged: 1, Skipped: 2, Degraded: 1})

	out := sb.String()
	assert.Contains(t, out, "Fetched 5 message(s)")
	assert.Contains(t, out, "2 created")
	assert.Contains(t, out, "1 message(s) processed without the enhancer")
}

func TestPrintOutcome(t *testing.T) {
	var sb strings.Builder
	p := NewPrinter(&sb)

	drive := types.Drive{CompanyName: "Flipkart"}
	p.PrintOutcome(pipeline.Outcome{
		Message: types.RawMessage{ExternalID: "m-1"},
		Status:  pipeline.StatusCreated,
		Drive:   &drive,
	})

	assert.Equal(t, "[created] m-1 -> Flipkart\n", sb.String())
}

func TestPrintDrive(t *testing.T) {
	var sb strings.Builder
	p := NewPrinter(&sb)

	deadline := time.Date(2025, 12, 11, 0, 0, 0, 0, time.UTC)
	cgpa := 7.0
	p.PrintDrive(types.Drive{
		CompanyName:          "Flipkart",
		Role:                 "SDE",
		Batch:                "2026",
		DriveType:            types.DriveTypeFTE,
		RegistrationDeadline: &deadline,
		EligibleBranches:     []string{"CSE", "IT"},
		MinCGPA:              &cgpa,
		CTCText:              "24.5 LPA",
		Confidence:           0.94,
	})

	out := sb.String()
	assert.Contains(t, out, "Flipkart - SDE (batch 2026)")
	assert.Contains(t, out, "deadline:   2025-12-11")
	assert.Contains(t, out, "branches:   CSE, IT")
	assert.Contains(t, out, "confidence: 0.94")
}
