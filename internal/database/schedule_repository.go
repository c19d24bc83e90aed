package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/spotgrid/internal/domain"
	"github.com/jonesrussell/spotgrid/internal/grid"
)

// ScheduleRepository provides read-only access to the programming grid
// tables (schedule versions and language blocks). The grid is owned by
// an external grid-management process and is never written here.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ActiveSchedule returns the most recently effective schedule version
// whose validity range contains the air date.
func (r *ScheduleRepository) ActiveSchedule(ctx context.Context, marketCode string, airDate time.Time) (*domain.ScheduleVersion, error) {
	var schedule domain.ScheduleVersion
	query := `
		SELECT schedule_id, market_code, schedule_name, effective_start, effective_end, created_at
		FROM schedule_versions
		WHERE market_code = $1
		  AND effective_start <= $2
		  AND (effective_end IS NULL OR effective_end >= $2)
		ORDER BY effective_start DESC, schedule_id DESC
		LIMIT 1
	`

	if err := r.db.GetContext(ctx, &schedule, query, marketCode, airDate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: market %s date %s", grid.ErrScheduleNotFound, marketCode, airDate.Format("2006-01-02"))
		}
		return nil, fmt.Errorf("failed to resolve schedule for market %s: %w", marketCode, err)
	}
	return &schedule, nil
}

// BlocksForSchedule returns all language blocks of a schedule version,
// ordered by start time then block id.
func (r *ScheduleRepository) BlocksForSchedule(ctx context.Context, scheduleID int64) ([]*domain.LanguageBlock, error) {
	var blocks []*domain.LanguageBlock
	query := `
		SELECT block_id, schedule_id, day_of_week, all_days, time_start, time_end,
		       language_code, block_name, block_type, display_order
		FROM language_blocks
		WHERE schedule_id = $1
		ORDER BY time_start, block_id
	`

	if err := r.db.SelectContext(ctx, &blocks, query, scheduleID); err != nil {
		return nil, fmt.Errorf("failed to load blocks for schedule %d: %w", scheduleID, err)
	}
	return blocks, nil
}
