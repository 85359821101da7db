package sync

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/placement-tracker/internal/mail"
	"github.com/jonathan/placement-tracker/internal/pipeline"
	"github.com/jonathan/placement-tracker/internal/types"
)

type fakeSource struct {
	backfill      mail.Delta
	since         mail.Delta
	sinceErr      error
	backfillCalls int
	sinceCalls    int
	lastCursor    string
}

func (f *fakeSource) Backfill(context.Context, int64) (mail.Delta, error) {
	f.backfillCalls++
	return f.backfill, nil
}

func (f *fakeSource) Since(_ context.Context, cursor string) (mail.Delta, error) {
	f.sinceCalls++
	f.lastCursor = cursor
	return f.since, f.sinceErr
}

type fakeCursorStore struct {
	cursors map[string]string
}

func newFakeCursorStore() *fakeCursorStore {
	return &fakeCursorStore{cursors: map[string]string{}}
}

func (s *fakeCursorStore) GetCursor(_ context.Context, key string) (string, error) {
	return s.cursors[key], nil
}

func (s *fakeCursorStore) AdvanceCursor(_ context.Context, key, value string) (bool, error) {
	cur, ok := s.cursors[key]
	if ok {
		curN, _ := strconv.ParseUint(cur, 10, 64)
		newN, _ := strconv.ParseUint(value, 10, 64)
		if newN <= curN {
			return false, nil
		}
	}
	s.cursors[key] = value
	return true, nil
}

type fakeProcessor struct {
	failAll bool
	batches [][]types.RawMessage
}

func (p *fakeProcessor) ProcessBatch(_ context.Context, msgs []types.RawMessage) ([]pipeline.Outcome, types.BatchSummary, error) {
	p.batches = append(p.batches, msgs)
	summary := types.BatchSummary{Fetched: len(msgs)}
	if p.failAll {
		summary.Failed = len(msgs)
		return nil, summary, &pipeline.BatchError{Fetched: len(msgs), Failed: len(msgs)}
	}
	summary.Created = len(msgs)
	return nil, summary, nil
}

type deniedLease struct{}

func (deniedLease) Acquire(context.Context) (bool, error) { return false, nil }
func (deniedLease) Release(context.Context) error         { return nil }

func msgs(ids ...string) []types.RawMessage {
	var out []types.RawMessage
	for _, id := range ids {
		out = append(out, types.RawMessage{ExternalID: id})
	}
	return out
}

func TestRunCycleBackfillsWithoutCursor(t *testing.T) {
	source := &fakeSource{backfill: mail.Delta{Messages: msgs("a", "b"), Position: "100"}}
	store := newFakeCursorStore()
	proc := &fakeProcessor{}

	s := NewSyncer(source, store, nil, proc, nil)
	summary, err := s.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, source.backfillCalls)
	assert.Zero(t, source.sinceCalls)
	assert.Equal(t, 2, summary.Fetched)
	assert.Equal(t, "100", store.cursors[DefaultCursorKey])
}

func TestRunCycleIncremental(t *testing.T) {
	source := &fakeSource{since: mail.Delta{Messages: msgs("c"), Position: "150"}}
	store := newFakeCursorStore()
	store.cursors[DefaultCursorKey] = "100"
	proc := &fakeProcessor{}

	s := NewSyncer(source, store, nil, proc, nil)
	_, err := s.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "100", source.lastCursor)
	assert.Zero(t, source.backfillCalls)
	assert.Equal(t, "150", store.cursors[DefaultCursorKey])
}

func TestRunCycleFailedBatchLeavesCursor(t *testing.T) {
	source := &fakeSource{since: mail.Delta{Messages: msgs("c"), Position: "150"}}
	store := newFakeCursorStore()
	store.cursors[DefaultCursorKey] = "100"
	proc := &fakeProcessor{failAll: true}

	s := NewSyncer(source, store, nil, proc, nil)
	_, err := s.RunCycle(context.Background())
	require.Error(t, err)

	var batchErr *pipeline.BatchError
	assert.ErrorAs(t, err, &batchErr)
	assert.Equal(t, "100", store.cursors[DefaultCursorKey], "cursor stays so the window is retried")
}

func TestRunCycleNeverRegressesCursor(t *testing.T) {
	source := &fakeSource{since: mail.Delta{Messages: msgs("c"), Position: "90"}}
	store := newFakeCursorStore()
	store.cursors[DefaultCursorKey] = "100"
	proc := &fakeProcessor{}

	s := NewSyncer(source, store, nil, proc, nil)
	_, err := s.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "100", store.cursors[DefaultCursorKey], "a lower position never moves the cursor back")
}

func TestRunCycleExpiredCursorFallsBackToBackfill(t *testing.T) {
	source := &fakeSource{
		sinceErr: errors.New("history expired"),
		backfill: mail.Delta{Messages: msgs("d"), Position: "200"},
	}
	store := newFakeCursorStore()
	store.cursors[DefaultCursorKey] = "100"
	proc := &fakeProcessor{}

	s := NewSyncer(source, store, nil, proc, nil)
	_, err := s.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, source.sinceCalls)
	assert.Equal(t, 1, source.backfillCalls)
	assert.Equal(t, "200", store.cursors[DefaultCursorKey])
}

func TestRunCycleLeaseHeld(t *testing.T) {
	source := &fakeSource{}
	proc := &fakeProcessor{}

	s := NewSyncer(source, newFakeCursorStore(), deniedLease{}, proc, nil)
	_, err := s.RunCycle(context.Background())

	assert.ErrorIs(t, err, ErrLeaseHeld)
	assert.Empty(t, proc.batches, "no work happens without the lease")
}

func TestRunCycleEmptyDeltaStillAdvances(t *testing.T) {
	source := &fakeSource{since: mail.Delta{Position: "160"}}
	store := newFakeCursorStore()
	store.cursors[DefaultCursorKey] = "100"
	proc := &fakeProcessor{}

	s := NewSyncer(source, store, nil, proc, nil)
	summary, err := s.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Zero(t, summary.Fetched)
	assert.Equal(t, "160", store.cursors[DefaultCursorKey])
}
