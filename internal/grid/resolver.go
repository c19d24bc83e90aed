// Package grid resolves the programming grid: which schedule version is
// active for a market and date, and which language blocks overlap a
// spot's air time.
package grid

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jonesrussell/spotgrid/internal/airtime"
	"github.com/jonesrussell/spotgrid/internal/domain"
	"github.com/jonesrussell/spotgrid/internal/logger"
)

// ErrScheduleNotFound indicates no schedule version covers the market
// and air date. Not fatal: it yields zero overlapping blocks.
var ErrScheduleNotFound = errors.New("no active schedule for market and date")

// ScheduleReader provides read-only access to the grid tables, which
// are owned by an external grid-management process.
type ScheduleReader interface {
	// ActiveSchedule returns the most recently effective schedule
	// version whose validity range contains the date, or
	// ErrScheduleNotFound.
	ActiveSchedule(ctx context.Context, marketCode string, airDate time.Time) (*domain.ScheduleVersion, error)

	// BlocksForSchedule returns all language blocks of a schedule
	// version, ordered by start time then block id.
	BlocksForSchedule(ctx context.Context, scheduleID int64) ([]*domain.LanguageBlock, error)
}

// Resolver answers overlap queries against the programming grid.
type Resolver struct {
	store  ScheduleReader
	logger logger.Logger
}

// NewResolver creates a grid resolver.
func NewResolver(store ScheduleReader, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.NewNop()
	}
	return &Resolver{store: store, logger: log}
}

// OverlappingBlocks returns the ordered set of language blocks that
// overlap the given air time on the given day of week. A schedule
// lookup miss returns an empty set, scheduleFound false, and no error;
// any other store error is surfaced as fatal for the run.
func (r *Resolver) OverlappingBlocks(
	ctx context.Context,
	marketCode string,
	airDate time.Time,
	dayOfWeek, timeIn, timeOut string,
) (blocks []*domain.LanguageBlock, scheduleFound bool, err error) {
	schedule, err := r.store.ActiveSchedule(ctx, marketCode, airDate)
	if err != nil {
		if errors.Is(err, ErrScheduleNotFound) {
			r.logger.Debug("no active schedule",
				logger.String("market", marketCode),
				logger.Time("air_date", airDate))
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("resolve schedule for market %s: %w", marketCode, err)
	}

	all, err := r.store.BlocksForSchedule(ctx, schedule.ID)
	if err != nil {
		return nil, true, fmt.Errorf("load blocks for schedule %d: %w", schedule.ID, err)
	}

	spotSegments, err := airtime.SpanSegments(timeIn, timeOut)
	if err != nil {
		// Malformed spot times are the caller's problem to flag; the
		// grid simply has nothing to offer.
		return nil, true, nil
	}

	overlapping := make([]*domain.LanguageBlock, 0, len(all))
	for _, b := range all {
		if !dayMatches(b, dayOfWeek) {
			continue
		}
		blockSegments, segErr := airtime.SpanSegments(b.TimeStart, b.TimeEnd)
		if segErr != nil {
			r.logger.Warn("skipping block with unparseable times",
				logger.Int64("block_id", b.ID),
				logger.Error(segErr))
			continue
		}
		if airtime.Overlaps(spotSegments, blockSegments) {
			overlapping = append(overlapping, b)
		}
	}

	// Deterministic order regardless of store ordering.
	sort.Slice(overlapping, func(i, j int) bool {
		if overlapping[i].TimeStart != overlapping[j].TimeStart {
			return overlapping[i].TimeStart < overlapping[j].TimeStart
		}
		return overlapping[i].ID < overlapping[j].ID
	})

	return overlapping, true, nil
}

func dayMatches(b *domain.LanguageBlock, dayOfWeek string) bool {
	if b.AllDays {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(b.DayOfWeek), strings.TrimSpace(dayOfWeek))
}
