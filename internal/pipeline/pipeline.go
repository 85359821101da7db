// Package pipeline orchestrates the per-message flow: gate, normalize,
// segment, extract, enhance, resolve, dedup, persist. Stages are pure where
// possible; this package owns the side effects.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/jonathan/placement-tracker/internal/db"
	"github.com/jonathan/placement-tracker/internal/dedup"
	"github.com/jonathan/placement-tracker/internal/extract"
	"github.com/jonathan/placement-tracker/internal/gate"
	"github.com/jonathan/placement-tracker/internal/ingestion"
	"github.com/jonathan/placement-tracker/internal/resolve"
	"github.com/jonathan/placement-tracker/internal/segment"
	"github.com/jonathan/placement-tracker/internal/types"
)

// Status is the terminal disposition of one message.
type Status string

// Message dispositions.
const (
	StatusSkipped   Status = "skipped"
	StatusCreated   Status = "created"
	StatusMerged    Status = "merged"
	StatusDiscarded Status = "discarded"
	StatusFailed    Status = "failed"
)

// degradedPenalty discounts confidence when the probabilistic layer was
// unavailable: the deterministic read alone saw less of the message.
const degradedPenalty = 0.9

// DefaultConcurrency bounds parallel message processing in a batch.
const DefaultConcurrency = 4

// Outcome is the result of processing one message.
type Outcome struct {
	Message  types.RawMessage
	Status   Status
	Reason   string
	Degraded bool
	Drive    *types.Drive
	Err      error
}

// Store is the persistence surface the pipeline needs.
type Store interface {
	// SaveMessage upserts the audit record for a message; idempotent on
	// the external id.
	SaveMessage(ctx context.Context, msg types.RawMessage, status, reason string) error
	ListIdentityKeys(ctx context.Context) ([]types.IdentityKey, error)
	GetDriveByIdentity(ctx context.Context, key types.IdentityKey) (*types.Drive, error)
	// CreateDrive inserts a new drive; returns db.ErrIdentityConflict when
	// a drive with the same identity already exists.
	CreateDrive(ctx context.Context, drive *types.Drive) error
	UpdateDrive(ctx context.Context, drive *types.Drive) error
}

// Enhancer is the probabilistic extraction layer. Implementations must
// wrap every failure in llm.ErrUnavailable semantics: an error here only
// ever degrades, it never aborts.
type Enhancer interface {
	Enhance(ctx context.Context, subject string, nt types.NormalizedText, excerpts []string, hints []types.CandidateField) ([]types.CandidateField, error)
}

// Pipeline wires the stages together.
type Pipeline struct {
	store       Store
	gate        *gate.Gate
	enhancer    Enhancer
	matcher     *dedup.Matcher
	logger      *slog.Logger
	concurrency int64
}

// New creates a Pipeline. The enhancer may be nil, which runs every message
// deterministically without counting as degraded.
func New(store Store, g *gate.Gate, enhancer Enhancer, matcher *dedup.Matcher, logger *slog.Logger, concurrency int) *Pipeline {
	if g == nil {
		g = gate.New(nil, nil)
	}
	if matcher == nil {
		matcher = dedup.NewMatcher(0, 0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Pipeline{
		store:       store,
		gate:        g,
		enhancer:    enhancer,
		matcher:     matcher,
		logger:      logger,
		concurrency: int64(concurrency),
	}
}

// ProcessMessage runs one message through the full flow. Reprocessing the
// same message is safe: the audit record upserts and an unchanged drive
// merges into itself.
func (p *Pipeline) ProcessMessage(ctx context.Context, msg types.RawMessage) Outcome {
	if decision := p.gate.Evaluate(msg); decision != gate.Admit {
		p.record(ctx, msg, StatusSkipped, string(decision))
		return Outcome{Message: msg, Status: StatusSkipped, Reason: string(decision)}
	}

	nt := ingestion.Normalize(msg.RawBody)
	sections := segment.Segment(nt)
	candidates := extract.Extract(msg.Subject, nt, sections)

	var degraded bool
	if p.enhancer != nil {
		extra, err := p.enhancer.Enhance(ctx, msg.Subject, nt, ingestion.Excerpts(nt.Text), candidates)
		if err != nil {
			degraded = true
			p.logger.Warn("enhancer unavailable, continuing with deterministic candidates",
				"message_id", msg.ExternalID, "error", err)
		} else {
			candidates = append(candidates, extra...)
		}
	}

	drive := resolve.Resolve(candidates, nt, msg.ExternalID)
	if degraded {
		drive.Confidence *= degradedPenalty
	}

	outcome, err := p.persist(ctx, msg, drive)
	if err != nil {
		p.logger.Error("message processing failed", "message_id", msg.ExternalID, "error", err)
		p.record(ctx, msg, StatusFailed, err.Error())
		return Outcome{Message: msg, Status: StatusFailed, Degraded: degraded, Err: err}
	}
	outcome.Message = msg
	outcome.Degraded = degraded
	p.record(ctx, msg, outcome.Status, outcome.Reason)
	return outcome
}

func (p *Pipeline) persist(ctx context.Context, msg types.RawMessage, drive types.Drive) (Outcome, error) {
	keys, err := p.store.ListIdentityKeys(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("listing identities: %w", err)
	}

	decision := p.matcher.Decide(drive, keys)
	switch decision.Action {
	case dedup.ActionDiscard:
		return Outcome{Status: StatusDiscarded, Reason: "below confidence floor"}, nil
	case dedup.ActionMerge:
		return p.merge(ctx, drive, decision.Match)
	default:
		if drive.ID == uuid.Nil {
			drive.ID = uuid.New()
		}
		if err := p.store.CreateDrive(ctx, &drive); err != nil {
			// A concurrent writer may land the same identity between the
			// listing and the insert; fold into the stored drive instead.
			if errors.Is(err, db.ErrIdentityConflict) {
				return p.merge(ctx, drive, drive.Identity())
			}
			return Outcome{}, fmt.Errorf("creating drive: %w", err)
		}
		return Outcome{Status: StatusCreated, Drive: &drive}, nil
	}
}

func (p *Pipeline) merge(ctx context.Context, drive types.Drive, key types.IdentityKey) (Outcome, error) {
	stored, err := p.store.GetDriveByIdentity(ctx, key)
	if err != nil {
		return Outcome{}, fmt.Errorf("loading drive for merge: %w", err)
	}
	if stored == nil {
		if drive.ID == uuid.Nil {
			drive.ID = uuid.New()
		}
		if err := p.store.CreateDrive(ctx, &drive); err != nil {
			return Outcome{}, fmt.Errorf("creating drive after vanished match: %w", err)
		}
		return Outcome{Status: StatusCreated, Drive: &drive}, nil
	}

	dedup.Merge(stored, drive)
	if err := p.store.UpdateDrive(ctx, stored); err != nil {
		return Outcome{}, fmt.Errorf("updating merged drive: %w", err)
	}
	return Outcome{Status: StatusMerged, Drive: stored}, nil
}

func (p *Pipeline) record(ctx context.Context, msg types.RawMessage, status Status, reason string) {
	if err := p.store.SaveMessage(ctx, msg, string(status), reason); err != nil {
		p.logger.Error("saving message audit record", "message_id", msg.ExternalID, "error", err)
	}
}

// ProcessBatch processes messages concurrently and tallies a summary. A
// failed message never stops its siblings; the returned error is non-nil
// only when every fetched message failed.
func (p *Pipeline) ProcessBatch(ctx context.Context, msgs []types.RawMessage) ([]Outcome, types.BatchSummary, error) {
	outcomes := make([]Outcome, len(msgs))
	sem := semaphore.NewWeighted(p.concurrency)

	g, gctx := errgroup.WithContext(ctx)
	for i, msg := range msgs {
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				outcomes[i] = Outcome{Message: msg, Status: StatusFailed, Err: err}
				return nil
			}
			defer sem.Release(1)
			outcomes[i] = p.ProcessMessage(gctx, msg)
			return nil
		})
	}
	_ = g.Wait()

	summary := types.BatchSummary{Fetched: len(msgs)}
	for _, o := range outcomes {
		if o.Degraded {
			summary.Degraded++
		}
		switch o.Status {
		case StatusSkipped:
			summary.Skipped++
		case StatusCreated:
			summary.Created++
		case StatusMerged:
			summary.Merged++
		case StatusDiscarded:
			summary.Discarded++
		case StatusFailed:
			summary.Failed++
		}
	}

	if !summary.Successful() {
		return outcomes, summary, &BatchError{Fetched: summary.Fetched, Failed: summary.Failed}
	}
	return outcomes, summary, nil
}
