package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/spotgrid/internal/domain"
)

// ErrSpotNotFound indicates the spot id does not exist.
var ErrSpotNotFound = errors.New("spot not found")

const spotColumns = `
	spot_id, market_code, air_date, day_of_week, time_in, time_out,
	spot_type, revenue_type, language_hint, gross_rate, station_net,
	agency_name, bill_code
`

// SpotRepository provides read-only access to ingested spots. Spots are
// owned by the ingestion pipeline; this service only reads them.
type SpotRepository struct {
	db *sqlx.DB
}

// NewSpotRepository creates a new spot repository.
func NewSpotRepository(db *sqlx.DB) *SpotRepository {
	return &SpotRepository{db: db}
}

// GetByID retrieves a single spot.
func (r *SpotRepository) GetByID(ctx context.Context, spotID int64) (*domain.Spot, error) {
	var spot domain.Spot
	query := `SELECT ` + spotColumns + ` FROM spots WHERE spot_id = $1`

	if err := r.db.GetContext(ctx, &spot, query, spotID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %d", ErrSpotNotFound, spotID)
		}
		return nil, fmt.Errorf("failed to get spot %d: %w", spotID, err)
	}
	return &spot, nil
}

// ListUnassigned returns spots in the broadcast year that have no
// assignment yet, in ascending spot id order so batch runs are
// deterministic and resumable.
func (r *SpotRepository) ListUnassigned(ctx context.Context, year, limit int) ([]*domain.Spot, error) {
	var spots []*domain.Spot
	query := `
		SELECT ` + spotColumns + `
		FROM spots s
		WHERE EXTRACT(YEAR FROM s.air_date) = $1
		  AND NOT EXISTS (SELECT 1 FROM assignments a WHERE a.spot_id = s.spot_id)
		ORDER BY s.spot_id
		LIMIT $2
	`

	if err := r.db.SelectContext(ctx, &spots, query, year, limit); err != nil {
		return nil, fmt.Errorf("failed to list unassigned spots for %d: %w", year, err)
	}
	return spots, nil
}

// CountByYear returns the total spots aired in the broadcast year.
func (r *SpotRepository) CountByYear(ctx context.Context, year int) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM spots WHERE EXTRACT(YEAR FROM air_date) = $1`

	if err := r.db.GetContext(ctx, &count, query, year); err != nil {
		return 0, fmt.Errorf("failed to count spots for %d: %w", year, err)
	}
	return count, nil
}
