// Package sync drives incremental mailbox synchronization: lease, cursor,
// fetch, process, advance. The cursor only ever moves forward, and it moves
// only after the fetched window has been processed.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonathan/placement-tracker/internal/mail"
	"github.com/jonathan/placement-tracker/internal/pipeline"
	"github.com/jonathan/placement-tracker/internal/types"
)

// DefaultCursorKey names the mailbox cursor in the sync_state table.
const DefaultCursorKey = "gmail_history_id"

// DefaultBackfillLimit bounds the first fetch of a fresh deployment.
const DefaultBackfillLimit = 100

// ErrLeaseHeld reports that another instance is running the cycle.
var ErrLeaseHeld = errors.New("sync lease held by another instance")

// CursorStore persists the monotonic sync cursor.
type CursorStore interface {
	GetCursor(ctx context.Context, key string) (string, error)
	// AdvanceCursor moves the cursor forward; it must refuse regressions.
	AdvanceCursor(ctx context.Context, key, value string) (bool, error)
}

// Processor runs a fetched batch through the pipeline.
type Processor interface {
	ProcessBatch(ctx context.Context, msgs []types.RawMessage) ([]pipeline.Outcome, types.BatchSummary, error)
}

// Syncer owns one mailbox's sync loop.
type Syncer struct {
	source        mail.Source
	store         CursorStore
	lease         Lease
	processor     Processor
	logger        *slog.Logger
	cursorKey     string
	backfillLimit int64
}

// NewSyncer creates a Syncer. A nil lease runs unguarded, which is fine for
// single-instance deployments.
func NewSyncer(source mail.Source, store CursorStore, lease Lease, processor Processor, logger *slog.Logger) *Syncer {
	if lease == nil {
		lease = NopLease{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		source:        source,
		store:         store,
		lease:         lease,
		processor:     processor,
		logger:        logger,
		cursorKey:     DefaultCursorKey,
		backfillLimit: DefaultBackfillLimit,
	}
}

// SetBackfillLimit overrides the first-fetch window size.
func (s *Syncer) SetBackfillLimit(n int64) {
	if n > 0 {
		s.backfillLimit = n
	}
}

// RunCycle executes one sync cycle. Crash safety comes from ordering: the
// cursor advances only after the batch is processed, so a crash anywhere
// in the cycle means the same window is refetched and reprocessed, which
// the pipeline's idempotence absorbs.
func (s *Syncer) RunCycle(ctx context.Context) (types.BatchSummary, error) {
	ok, err := s.lease.Acquire(ctx)
	if err != nil {
		return types.BatchSummary{}, err
	}
	if !ok {
		return types.BatchSummary{}, ErrLeaseHeld
	}
	defer func() {
		if err := s.lease.Release(ctx); err != nil {
			s.logger.Warn("releasing sync lease", "error", err)
		}
	}()

	cursor, err := s.store.GetCursor(ctx, s.cursorKey)
	if err != nil {
		return types.BatchSummary{}, err
	}

	delta, err := s.fetch(ctx, cursor)
	if err != nil {
		return types.BatchSummary{}, err
	}
	s.logger.Info("sync window fetched", "cursor", cursor, "messages", len(delta.Messages), "position", delta.Position)

	_, summary, err := s.processor.ProcessBatch(ctx, delta.Messages)
	if err != nil {
		// The whole window failed; leave the cursor so the next cycle
		// retries the same messages.
		return summary, fmt.Errorf("processing sync window: %w", err)
	}

	if delta.Position != "" && delta.Position != cursor {
		advanced, err := s.store.AdvanceCursor(ctx, s.cursorKey, delta.Position)
		if err != nil {
			return summary, err
		}
		if !advanced {
			s.logger.Warn("cursor not advanced, stored position is newer", "position", delta.Position)
		}
	}

	return summary, nil
}

// fetch picks incremental or backfill mode. An expired or otherwise
// unusable cursor degrades to a fresh backfill rather than failing the
// cycle.
func (s *Syncer) fetch(ctx context.Context, cursor string) (mail.Delta, error) {
	if cursor == "" {
		return s.source.Backfill(ctx, s.backfillLimit)
	}

	delta, err := s.source.Since(ctx, cursor)
	if err != nil {
		s.logger.Warn("incremental fetch failed, falling back to backfill", "cursor", cursor, "error", err)
		return s.source.Backfill(ctx, s.backfillLimit)
	}
	return delta, nil
}
