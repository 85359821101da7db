// Package mail abstracts the inbound message provider. The pipeline only
// ever sees RawMessage values and an opaque numeric cursor.
package mail

import (
	"context"

	"github.com/jonathan/placement-tracker/internal/types"
)

// Delta is one fetch from the provider: the messages plus the cursor
// position that applying them brings the consumer to.
type Delta struct {
	Messages []types.RawMessage
	Position string
}

// Source produces message deltas. Backfill fetches recent history when no
// cursor exists yet; Since fetches changes after a known cursor.
type Source interface {
	Backfill(ctx context.Context, limit int64) (Delta, error)
	Since(ctx context.Context, cursor string) (Delta, error)
}
