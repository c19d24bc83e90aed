package processor_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/spotgrid/internal/domain"
	"github.com/jonesrussell/spotgrid/internal/processor"
)

type fakeSource struct {
	spots       map[int64]*domain.Spot
	unassigned  []int64
	listCalls   int
	assignedSet map[int64]bool
}

func newFakeSource(ids ...int64) *fakeSource {
	s := &fakeSource{
		spots:       make(map[int64]*domain.Spot),
		unassigned:  ids,
		assignedSet: make(map[int64]bool),
	}
	for _, id := range ids {
		s.spots[id] = &domain.Spot{
			ID:         id,
			MarketCode: "VAN",
			AirDate:    time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			DayOfWeek:  "Sunday",
			TimeIn:     "10:00:00",
			TimeOut:    "10:30:00",
		}
	}
	return s
}

func (s *fakeSource) GetByID(_ context.Context, spotID int64) (*domain.Spot, error) {
	spot, ok := s.spots[spotID]
	if !ok {
		return nil, errors.New("spot not found")
	}
	return spot, nil
}

func (s *fakeSource) ListUnassigned(_ context.Context, _, limit int) ([]*domain.Spot, error) {
	s.listCalls++
	var out []*domain.Spot
	for _, id := range s.unassigned {
		if s.assignedSet[id] {
			continue
		}
		out = append(out, s.spots[id])
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *fakeSource) CountByYear(_ context.Context, _ int) (int, error) {
	return len(s.unassigned), nil
}

type fakeStore struct {
	rows        map[int64]*domain.Assignment
	order       []int64
	failUpsert  bool
	refuseIDs   map[int64]bool
	deleted     int
	source      *fakeSource
	cancelAfter int
	cancel      context.CancelFunc
}

func (f *fakeStore) Upsert(_ context.Context, a *domain.Assignment) error {
	if f.failUpsert {
		return errors.New("write failed")
	}
	if f.refuseIDs[a.SpotID] {
		return fmt.Errorf("refuse to persist assignment for spot %d: %w", a.SpotID, domain.ErrInvalidAssignment)
	}
	if f.rows == nil {
		f.rows = make(map[int64]*domain.Assignment)
	}
	f.rows[a.SpotID] = a
	f.order = append(f.order, a.SpotID)
	if f.source != nil {
		f.source.assignedSet[a.SpotID] = true
	}
	if f.cancel != nil && len(f.order) >= f.cancelAfter {
		f.cancel()
	}
	return nil
}

func (f *fakeStore) DeleteByYear(_ context.Context, _ int) (int64, error) {
	f.deleted++
	n := int64(len(f.rows))
	f.rows = nil
	if f.source != nil {
		f.source.assignedSet = make(map[int64]bool)
	}
	return n, nil
}

// fakeEngine classifies everything as ros. gridDownIDs simulates the
// grid store being unreachable from the given spot onward, the only
// condition under which Classify errors.
type fakeEngine struct {
	gridDownIDs map[int64]bool
	flagIDs     map[int64]bool
	calls       int
}

func (e *fakeEngine) Classify(_ context.Context, spot *domain.Spot) (*domain.Classification, error) {
	e.calls++
	if e.gridDownIDs[spot.ID] {
		return nil, fmt.Errorf("overlap lookup for spot %d: connection refused", spot.ID)
	}
	c := &domain.Classification{
		SpotID:         spot.ID,
		CampaignType:   domain.CampaignROS,
		CustomerIntent: domain.IntentIndifferent,
		Method:         domain.MethodPrecedenceRule,
		AppliedRule:    "ros_duration",
		Confidence:     1,
	}
	if e.flagIDs[spot.ID] {
		c.RequiresAttention = true
		c.AlertReason = "no language blocks overlap air time"
		c.Method = domain.MethodOverlapAnalysis
		c.AppliedRule = ""
		c.CampaignType = domain.CampaignOther
		c.Confidence = 0.2
	}
	return c, nil
}

func newRunner(source *fakeSource, store *fakeStore, engine *fakeEngine) *processor.Runner {
	return processor.NewRunner(source, store, engine, processor.Config{
		BatchSize:           3,
		CommitRatePerSecond: 100000,
		FlaggedSampleSize:   2,
	}, nil, nil)
}

func TestProcessBatch_AscendingOrder(t *testing.T) {
	source := newFakeSource(3, 7, 12, 20)
	store := &fakeStore{source: source}
	runner := newRunner(source, store, &fakeEngine{})

	summary, err := runner.ProcessBatch(context.Background(), 2025, 3)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 3, summary.Assigned)
	assert.Equal(t, []int64{3, 7, 12}, store.order)
}

func TestProcessBatch_RefusedAssignmentSkipsSpot(t *testing.T) {
	source := newFakeSource(1, 2, 3)
	store := &fakeStore{source: source, refuseIDs: map[int64]bool{2: true}}
	runner := newRunner(source, store, &fakeEngine{})

	summary, err := runner.ProcessBatch(context.Background(), 2025, 10)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.Assigned)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []int64{1, 3}, store.order)
}

func TestProcessBatch_StoreFailureAborts(t *testing.T) {
	source := newFakeSource(1, 2, 3)
	store := &fakeStore{source: source, failUpsert: true}
	runner := newRunner(source, store, &fakeEngine{})

	summary, err := runner.ProcessBatch(context.Background(), 2025, 10)
	require.Error(t, err)
	assert.Equal(t, 0, summary.Assigned)
	assert.Equal(t, 1, summary.Total)
}

func TestProcessBatch_GridStoreDownHaltsRun(t *testing.T) {
	source := newFakeSource(1, 2, 3)
	store := &fakeStore{source: source}
	engine := &fakeEngine{gridDownIDs: map[int64]bool{1: true, 2: true, 3: true}}
	runner := newRunner(source, store, engine)

	summary, err := runner.ProcessBatch(context.Background(), 2025, 10)
	require.Error(t, err)

	// The run halts on the first unreachable lookup instead of retrying
	// the dead store once per remaining spot.
	assert.Equal(t, 1, engine.calls)
	assert.Equal(t, 0, summary.Assigned)
	assert.Equal(t, 0, summary.Failed)
	assert.Empty(t, store.order)
}

func TestProcessBatch_GridStoreDownMidRunHaltsAtLastCommit(t *testing.T) {
	source := newFakeSource(1, 2, 3)
	store := &fakeStore{source: source}
	engine := &fakeEngine{gridDownIDs: map[int64]bool{2: true, 3: true}}
	runner := newRunner(source, store, engine)

	summary, err := runner.ProcessBatch(context.Background(), 2025, 10)
	require.Error(t, err)

	assert.Equal(t, 1, summary.Assigned)
	assert.Equal(t, []int64{1}, store.order)
	assert.Equal(t, 2, engine.calls)
}

func TestProcessBatch_FlaggedSampleIsCapped(t *testing.T) {
	source := newFakeSource(1, 2, 3, 4)
	store := &fakeStore{source: source}
	runner := newRunner(source, store, &fakeEngine{
		flagIDs: map[int64]bool{1: true, 2: true, 3: true},
	})

	summary, err := runner.ProcessBatch(context.Background(), 2025, 10)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Flagged)
	assert.Equal(t, []int64{1, 2}, summary.FlaggedSample)
}

func TestProcessBatch_CancellationStopsAfterCommittedSpot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	source := newFakeSource(1, 2, 3)
	store := &fakeStore{source: source, cancelAfter: 1, cancel: cancel}
	runner := newRunner(source, store, &fakeEngine{})

	summary, err := runner.ProcessBatch(ctx, 2025, 10)
	require.ErrorIs(t, err, context.Canceled)

	// The first spot committed; nothing half-written after it.
	assert.Equal(t, 1, summary.Assigned)
	assert.Equal(t, []int64{1}, store.order)
}

func TestProcessYear_DrainsInBatches(t *testing.T) {
	source := newFakeSource(1, 2, 3, 4, 5, 6, 7)
	store := &fakeStore{source: source}
	runner := newRunner(source, store, &fakeEngine{})

	summary, err := runner.ProcessYear(context.Background(), 2025, false)
	require.NoError(t, err)

	assert.Equal(t, 7, summary.Assigned)
	assert.Len(t, store.rows, 7)
	// Batch size 3: three full/partial batches plus the final empty
	// listing.
	assert.GreaterOrEqual(t, source.listCalls, 3)
}

func TestProcessYear_ForceClearsFirst(t *testing.T) {
	source := newFakeSource(1, 2)
	store := &fakeStore{source: source}
	runner := newRunner(source, store, &fakeEngine{})

	_, err := runner.ProcessYear(context.Background(), 2025, false)
	require.NoError(t, err)
	require.Len(t, store.rows, 2)

	summary, err := runner.ProcessYear(context.Background(), 2025, true)
	require.NoError(t, err)

	assert.Equal(t, 1, store.deleted)
	assert.Equal(t, 2, summary.Assigned)
	assert.Len(t, store.rows, 2)
}

func TestProcessSpot_ReassignReplacesRow(t *testing.T) {
	source := newFakeSource(5)
	store := &fakeStore{source: source}
	runner := newRunner(source, store, &fakeEngine{})

	first, err := runner.ProcessSpot(context.Background(), 5)
	require.NoError(t, err)
	second, err := runner.ProcessSpot(context.Background(), 5)
	require.NoError(t, err)

	assert.Len(t, store.rows, 1)
	assert.Equal(t, first.SpotID, second.SpotID)
	assert.Equal(t, first.CampaignType, second.CampaignType)
}

func TestProcessYear_AllRefusalsDoesNotLoopForever(t *testing.T) {
	source := newFakeSource(1, 2)
	store := &fakeStore{source: source, refuseIDs: map[int64]bool{1: true, 2: true}}
	runner := newRunner(source, store, &fakeEngine{})

	summary, err := runner.ProcessYear(context.Background(), 2025, false)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Assigned)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 2, summary.Total)
	assert.LessOrEqual(t, source.listCalls, 2)
}

func TestProcessYear_RefusedSpotCountedOnce(t *testing.T) {
	source := newFakeSource(1, 2, 3, 4, 5)
	store := &fakeStore{source: source, refuseIDs: map[int64]bool{2: true}}
	runner := newRunner(source, store, &fakeEngine{})

	summary, err := runner.ProcessYear(context.Background(), 2025, false)
	require.NoError(t, err)

	// Spot 2 stays unassigned and is re-listed every batch, but the run
	// works past it and the summary counts spots, not attempts.
	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 4, summary.Assigned)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []int64{1, 3, 4, 5}, store.order)
}
