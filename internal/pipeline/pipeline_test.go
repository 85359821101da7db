package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/placement-tracker/internal/db"
	"github.com/jonathan/placement-tracker/internal/llm"
	"github.com/jonathan/placement-tracker/internal/types"
)

type fakeStore struct {
	mu       sync.Mutex
	messages map[string]string
	drives   map[types.IdentityKey]*types.Drive
	hideKeys bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		messages: map[string]string{},
		drives:   map[types.IdentityKey]*types.Drive{},
	}
}

func (s *fakeStore) SaveMessage(_ context.Context, msg types.RawMessage, status, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[msg.ExternalID] = status
	return nil
}

func (s *fakeStore) ListIdentityKeys(context.Context) ([]types.IdentityKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hideKeys {
		return nil, nil
	}
	var keys []types.IdentityKey
	for k := range s.drives {
		keys = append(keys, k)
	}
	return keys, nil
}

func (s *fakeStore) GetDriveByIdentity(_ context.Context, key types.IdentityKey) (*types.Drive, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.drives[key]; ok {
		copied := *d
		return &copied, nil
	}
	return nil, nil
}

func (s *fakeStore) CreateDrive(_ context.Context, drive *types.Drive) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := drive.Identity()
	if _, ok := s.drives[key]; ok {
		return db.ErrIdentityConflict
	}
	copied := *drive
	s.drives[key] = &copied
	return nil
}

func (s *fakeStore) UpdateDrive(_ context.Context, drive *types.Drive) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *drive
	s.drives[drive.Identity()] = &copied
	return nil
}

type stubEnhancer struct {
	candidates []types.CandidateField
	err        error
}

func (e *stubEnhancer) Enhance(context.Context, string, types.NormalizedText, []string, []types.CandidateField) ([]types.CandidateField, error) {
	return e.candidates, e.err
}

func placementMessage(id string) types.RawMessage {
	return types.RawMessage{
		ExternalID: id,
		Sender:     "placements@college.edu",
		Subject:    "|| Flipkart || Campus Drive for 2026 Batch",
		RawBody: "Flipkart is hiring.\nRole: SDE\nCTC: 24.5 LPA\n" +
			"Eligibility: CSE, IT. Minimum 7.0 CGPA.\n" +
			"Registration deadline: 11th December 2025.\n" +
			"Register: https://forms.gle/abc",
	}
}

func TestProcessMessageCreatesDrive(t *testing.T) {
	store := newFakeStore()
	p := New(store, nil, nil, nil, nil, 0)

	outcome := p.ProcessMessage(context.Background(), placementMessage("msg-1"))

	require.Equal(t, StatusCreated, outcome.Status)
	require.NotNil(t, outcome.Drive)
	assert.Equal(t, "Flipkart", outcome.Drive.CompanyName)
	assert.Equal(t, "2026", outcome.Drive.Batch)
	assert.Equal(t, "created", store.messages["msg-1"])
}

func TestProcessMessageIdempotent(t *testing.T) {
	store := newFakeStore()
	p := New(store, nil, nil, nil, nil, 0)

	first := p.ProcessMessage(context.Background(), placementMessage("msg-1"))
	second := p.ProcessMessage(context.Background(), placementMessage("msg-1"))

	assert.Equal(t, StatusCreated, first.Status)
	assert.Equal(t, StatusMerged, second.Status, "reprocessing folds into the stored drive")
	assert.Len(t, store.drives, 1)
}

func TestProcessMessageSkipsNonPlacementMail(t *testing.T) {
	store := newFakeStore()
	p := New(store, nil, nil, nil, nil, 0)

	msg := types.RawMessage{
		ExternalID: "msg-2",
		Sender:     "newsletter@example.com",
		Subject:    "Weekly digest",
		RawBody:    "Top stories this week.",
	}
	outcome := p.ProcessMessage(context.Background(), msg)

	assert.Equal(t, StatusSkipped, outcome.Status)
	assert.NotEmpty(t, outcome.Reason)
	assert.Empty(t, store.drives)
	assert.Equal(t, "skipped", store.messages["msg-2"])
}

func TestProcessMessageDegradesWhenEnhancerFails(t *testing.T) {
	healthy := New(newFakeStore(), nil, &stubEnhancer{}, nil, nil, 0)
	degraded := New(newFakeStore(), nil, &stubEnhancer{err: llm.ErrUnavailable}, nil, nil, 0)

	msg := placementMessage("msg-3")
	ok := healthy.ProcessMessage(context.Background(), msg)
	deg := degraded.ProcessMessage(context.Background(), msg)

	require.Equal(t, StatusCreated, ok.Status)
	require.Equal(t, StatusCreated, deg.Status, "enhancer failure degrades, never aborts")
	assert.False(t, ok.Degraded)
	assert.True(t, deg.Degraded)
	assert.Less(t, deg.Drive.Confidence, ok.Drive.Confidence)
}

func TestProcessMessageEnhancerFillsGaps(t *testing.T) {
	store := newFakeStore()
	enhancer := &stubEnhancer{candidates: []types.CandidateField{
		{Field: types.FieldLocation, Value: "Bangalore", Rule: "llm", Origin: types.OriginProbabilistic, Weight: 0.5},
	}}
	p := New(store, nil, enhancer, nil, nil, 0)

	outcome := p.ProcessMessage(context.Background(), placementMessage("msg-4"))
	require.NotNil(t, outcome.Drive)
	assert.Equal(t, "Bangalore", outcome.Drive.JobLocation)
}

func TestProcessMessageConflictRetriesAsMerge(t *testing.T) {
	store := newFakeStore()
	p := New(store, nil, nil, nil, nil, 0)

	// Simulate a concurrent writer landing the same identity between the
	// dedup listing and the insert: the listing sees no keys, but the
	// insert collides.
	seeded := p.ProcessMessage(context.Background(), placementMessage("seed"))
	require.Equal(t, StatusCreated, seeded.Status)
	store.hideKeys = true

	outcome := p.ProcessMessage(context.Background(), placementMessage("msg-5"))
	store.hideKeys = false
	assert.NotEqual(t, StatusFailed, outcome.Status)
	assert.Equal(t, StatusMerged, outcome.Status)
}

func TestProcessMessageDiscardsWeakExtraction(t *testing.T) {
	store := newFakeStore()
	p := New(store, nil, nil, nil, nil, 0)

	msg := types.RawMessage{
		ExternalID: "msg-6",
		Sender:     "someone@example.com",
		Subject:    "about the placement talk",
		RawBody:    "nothing concrete here, just placement chatter",
	}
	outcome := p.ProcessMessage(context.Background(), msg)

	assert.Equal(t, StatusDiscarded, outcome.Status)
	assert.Empty(t, store.drives)
}

func TestProcessBatch(t *testing.T) {
	store := newFakeStore()
	p := New(store, nil, nil, nil, nil, 2)

	msgs := []types.RawMessage{
		placementMessage("b-1"),
		placementMessage("b-2"), // duplicate of b-1 by identity
		{ExternalID: "b-3", Sender: "news@example.com", Subject: "digest", RawBody: "stories"},
	}

	outcomes, summary, err := p.ProcessBatch(context.Background(), msgs)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.Equal(t, 3, summary.Fetched)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, summary.Created+summary.Merged, 2, "duplicates merge rather than duplicate")
	assert.True(t, summary.Successful())
	assert.Len(t, store.drives, 1)
}

func TestProcessBatchEmpty(t *testing.T) {
	p := New(newFakeStore(), nil, nil, nil, nil, 0)
	outcomes, summary, err := p.ProcessBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, outcomes)
	assert.Zero(t, summary.Fetched)
	assert.True(t, summary.Successful())
}

func TestBatchError(t *testing.T) {
	err := &BatchError{Fetched: 3, Failed: 3}
	assert.Contains(t, err.Error(), "3 of 3")
	assert.True(t, errors.As(error(err), new(*BatchError)))
}
