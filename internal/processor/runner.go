// Package processor drives spot classification runs: single spots,
// bounded batches, and full broadcast years. Spots are always worked
// in ascending spot id order so interrupted runs resume cleanly.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/jonesrussell/spotgrid/internal/domain"
	"github.com/jonesrussell/spotgrid/internal/logger"
	"github.com/jonesrussell/spotgrid/internal/telemetry"
)

const (
	defaultBatchSize       = 250
	defaultCommitPerSecond = 200
	defaultFlaggedSample   = 10
)

// SpotSource supplies spots that still need an assignment.
type SpotSource interface {
	GetByID(ctx context.Context, spotID int64) (*domain.Spot, error)
	ListUnassigned(ctx context.Context, year, limit int) ([]*domain.Spot, error)
	CountByYear(ctx context.Context, year int) (int, error)
}

// AssignmentStore persists classification results.
type AssignmentStore interface {
	Upsert(ctx context.Context, a *domain.Assignment) error
	DeleteByYear(ctx context.Context, year int) (int64, error)
}

// Engine classifies a single spot.
type Engine interface {
	Classify(ctx context.Context, spot *domain.Spot) (*domain.Classification, error)
}

// Config holds runner tuning knobs.
type Config struct {
	BatchSize           int
	CommitRatePerSecond int
	CommitBurst         int
	FlaggedSampleSize   int
}

// Runner orchestrates classification runs.
type Runner struct {
	spots       SpotSource
	assignments AssignmentStore
	engine      Engine
	limiter     *rate.Limiter
	batchSize   int
	sampleSize  int
	logger      logger.Logger
	telemetry   *telemetry.Provider
}

// Summary reports the outcome of a run.
type Summary struct {
	RunID         string        `json:"run_id"`
	Total         int           `json:"total"`
	Assigned      int           `json:"assigned"`
	Flagged       int           `json:"flagged"`
	Failed        int           `json:"failed"`
	FlaggedSample []int64       `json:"flagged_sample,omitempty"`
	Duration      time.Duration `json:"duration"`

	// failedIDs lets a year run exclude refused spots from re-listing.
	failedIDs []int64
}

// NewRunner creates a runner. Zero config values fall back to defaults.
func NewRunner(
	spots SpotSource,
	assignments AssignmentStore,
	engine Engine,
	cfg Config,
	log logger.Logger,
	tp *telemetry.Provider,
) *Runner {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	if cfg.CommitRatePerSecond <= 0 {
		cfg.CommitRatePerSecond = defaultCommitPerSecond
	}
	if cfg.CommitBurst <= 0 {
		cfg.CommitBurst = cfg.CommitRatePerSecond
	}
	if cfg.FlaggedSampleSize <= 0 {
		cfg.FlaggedSampleSize = defaultFlaggedSample
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &Runner{
		spots:       spots,
		assignments: assignments,
		engine:      engine,
		limiter:     rate.NewLimiter(rate.Limit(cfg.CommitRatePerSecond), cfg.CommitBurst),
		batchSize:   cfg.BatchSize,
		sampleSize:  cfg.FlaggedSampleSize,
		logger:      log,
		telemetry:   tp,
	}
}

// ProcessSpot classifies and persists a single spot.
func (r *Runner) ProcessSpot(ctx context.Context, spotID int64) (*domain.Assignment, error) {
	spot, err := r.spots.GetByID(ctx, spotID)
	if err != nil {
		return nil, fmt.Errorf("failed to load spot %d: %w", spotID, err)
	}

	assignment, err := r.commitSpot(ctx, spot)
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

// ProcessBatch classifies up to limit unassigned spots for a year.
// Every spot gets exactly one committed assignment before the next spot
// starts, so cancellation mid-run never leaves a half-written row.
func (r *Runner) ProcessBatch(ctx context.Context, year, limit int) (*Summary, error) {
	if limit <= 0 {
		limit = r.batchSize
	}

	spots, err := r.spots.ListUnassigned(ctx, year, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list unassigned spots: %w", err)
	}

	return r.run(ctx, year, spots)
}

// ProcessYear classifies every unassigned spot in a broadcast year,
// batch by batch. With force set, existing assignments for the year are
// deleted first and everything is reclassified from scratch.
func (r *Runner) ProcessYear(ctx context.Context, year int, force bool) (*Summary, error) {
	if force {
		deleted, err := r.assignments.DeleteByYear(ctx, year)
		if err != nil {
			return nil, fmt.Errorf("failed to clear assignments for %d: %w", year, err)
		}
		r.logger.Info("cleared existing assignments for reclassification",
			logger.Int("year", year),
			logger.Int64("deleted", deleted))
	}

	total := &Summary{RunID: uuid.New().String()}
	start := time.Now()

	// Spots whose assignment was refused stay unassigned, so they
	// re-appear in every listing. Track them and work past them; each
	// failed spot is counted once in the year summary.
	failed := make(map[int64]struct{})

	for {
		spots, err := r.spots.ListUnassigned(ctx, year, r.batchSize+len(failed))
		if err != nil {
			return nil, fmt.Errorf("failed to list unassigned spots: %w", err)
		}
		fresh := spots[:0]
		for _, spot := range spots {
			if _, seen := failed[spot.ID]; !seen {
				fresh = append(fresh, spot)
			}
		}
		if len(fresh) == 0 {
			break
		}
		if len(fresh) > r.batchSize {
			fresh = fresh[:r.batchSize]
		}

		batch, err := r.run(ctx, year, fresh)
		total.Total += batch.Total
		total.Assigned += batch.Assigned
		total.Flagged += batch.Flagged
		total.Failed += batch.Failed
		for _, id := range batch.failedIDs {
			failed[id] = struct{}{}
		}
		for _, id := range batch.FlaggedSample {
			if len(total.FlaggedSample) < r.sampleSize {
				total.FlaggedSample = append(total.FlaggedSample, id)
			}
		}
		if err != nil {
			total.Duration = time.Since(start)
			return total, err
		}
	}

	total.Duration = time.Since(start)
	r.logger.Info("year run complete",
		logger.String("run_id", total.RunID),
		logger.Int("year", year),
		logger.Int("total", total.Total),
		logger.Int("assigned", total.Assigned),
		logger.Int("flagged", total.Flagged),
		logger.Int("failed", total.Failed),
		logger.Duration("duration", total.Duration))

	return total, nil
}

// run works through one slice of spots in order. Store errors abort
// the run at the last committed spot; a spot whose assignment is
// refused is logged, counted, and skipped. Cancellation stops after
// the current spot commits.
func (r *Runner) run(ctx context.Context, year int, spots []*domain.Spot) (*Summary, error) {
	summary := &Summary{RunID: uuid.New().String()}
	start := time.Now()

	r.logger.Info("starting run",
		logger.String("run_id", summary.RunID),
		logger.Int("year", year),
		logger.Int("spots", len(spots)))

	for _, spot := range spots {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			r.logger.Warn("run cancelled",
				logger.String("run_id", summary.RunID),
				logger.Int("assigned", summary.Assigned))
			return summary, err
		}

		summary.Total++

		assignment, err := r.commitSpot(ctx, spot)
		if err != nil {
			if isStoreError(err) {
				summary.Duration = time.Since(start)
				return summary, err
			}
			summary.Failed++
			summary.failedIDs = append(summary.failedIDs, spot.ID)
			r.telemetry.RecordFailure()
			r.logger.Error("failed to classify spot",
				logger.String("run_id", summary.RunID),
				logger.Int64("spot_id", spot.ID),
				logger.Error(err))
			continue
		}

		summary.Assigned++
		if assignment.RequiresAttention {
			summary.Flagged++
			if len(summary.FlaggedSample) < r.sampleSize {
				summary.FlaggedSample = append(summary.FlaggedSample, spot.ID)
			}
		}
	}

	summary.Duration = time.Since(start)
	r.telemetry.RecordBatch(summary.Total, summary.Duration)
	r.logger.Info("run complete",
		logger.String("run_id", summary.RunID),
		logger.Int("total", summary.Total),
		logger.Int("assigned", summary.Assigned),
		logger.Int("flagged", summary.Flagged),
		logger.Int("failed", summary.Failed),
		logger.Duration("duration", summary.Duration))

	return summary, nil
}

func (r *Runner) commitSpot(ctx context.Context, spot *domain.Spot) (*domain.Assignment, error) {
	classification, err := r.engine.Classify(ctx, spot)
	if err != nil {
		// The engine recovers malformed input and schedule misses
		// locally; a Classify error means the grid store is down.
		return nil, storeError{fmt.Errorf("failed to classify spot %d: %w", spot.ID, err)}
	}

	assignment := domain.NewAssignment(classification, time.Now().UTC())

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, storeError{err}
	}
	if err := r.assignments.Upsert(ctx, assignment); err != nil {
		if errors.Is(err, domain.ErrInvalidAssignment) {
			// Refused row: this spot's problem alone.
			return nil, err
		}
		return nil, storeError{fmt.Errorf("failed to save assignment for spot %d: %w", spot.ID, err)}
	}
	return assignment, nil
}

// storeError marks failures that should abort a run rather than skip a
// spot: the grid store failing a Classify, or the assignment store
// failing a save. An invalid-assignment refusal is not one.
type storeError struct {
	err error
}

func (e storeError) Error() string { return e.err.Error() }
func (e storeError) Unwrap() error { return e.err }

func isStoreError(err error) bool {
	var se storeError
	return errors.As(err, &se)
}
