package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/placement-tracker/internal/pipeline"
	"github.com/jonathan/placement-tracker/internal/types"
)

// Printer renders pipeline results for terminal consumption.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintBatchSummary renders one sync cycle's tallies.
func (p *Printer) PrintBatchSummary(s types.BatchSummary) {
	fmt.Fprintf(p.w, "Fetched %d message(s): %d created, %d merged, %d skipped, %d discarded, %d failed\n",
		s.Fetched, s.Created, s.Merged, s.Skipped, s.Discarded, s.Failed)
	if s.Degraded > 0 {
		fmt.Fprintf(p.w, "  %d message(s) processed without the enhancer\n", s.Degraded)
	}
}

// PrintOutcome renders one message's disposition.
func (p *Printer) PrintOutcome(o pipeline.Outcome) {
	line := fmt.Sprintf("[%s] %s", o.Status, o.Message.ExternalID)
	if o.Reason != "" {
		line += " (" + o.Reason + ")"
	}
	if o.Drive != nil {
		line += " -> " + o.Drive.CompanyName
	}
	if o.Err != nil {
		line += ": " + o.Err.Error()
	}
	fmt.Fprintln(p.w, line)
}

// PrintDrive renders a full drive record.
func (p *Printer) PrintDrive(d types.Drive) {
	fmt.Fprintf(p.w, "%s", d.CompanyName)
	if d.Role != "" {
		fmt.Fprintf(p.w, " - %s", d.Role)
	}
	if d.Batch != "" {
		fmt.Fprintf(p.w, " (batch %s)", d.Batch)
	}
	fmt.Fprintln(p.w)

	if d.DriveType != "" {
		fmt.Fprintf(p.w, "  type:       %s\n", d.DriveType)
	}
	if d.RegistrationDeadline != nil {
		fmt.Fprintf(p.w, "  deadline:   %s\n", d.RegistrationDeadline.Format(time.DateOnly))
	}
	if d.DriveDate != nil {
		fmt.Fprintf(p.w, "  drive date: %s\n", d.DriveDate.Format(time.DateOnly))
	}
	if len(d.EligibleBranches) > 0 {
		fmt.Fprintf(p.w, "  branches:   %s\n", strings.Join(d.EligibleBranches, ", "))
	}
	if d.MinCGPA != nil {
		fmt.Fprintf(p.w, "  min CGPA:   %.1f\n", *d.MinCGPA)
	}
	if d.CTCText != "" {
		fmt.Fprintf(p.w, "  package:    %s\n", d.CTCText)
	}
	if d.JobLocation != "" {
		fmt.Fprintf(p.w, "  location:   %s\n", d.JobLocation)
	}
	if d.RegistrationLink != "" {
		fmt.Fprintf(p.w, "  register:   %s\n", d.RegistrationLink)
	}
	fmt.Fprintf(p.w, "  confidence: %.2f\n", d.Confidence)
	if len(d.Issues) > 0 {
		fmt.Fprintf(p.w, "  issues:     %s\n", strings.Join(d.Issues, "; "))
	}
}
