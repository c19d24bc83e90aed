package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jonesrussell/spotgrid/internal/domain"
)

// ErrAssignmentNotFound indicates no assignment exists for the spot.
var ErrAssignmentNotFound = errors.New("assignment not found")

// AssignmentRepository is the persistence half of the Assignment
// Recorder. The assignments table is exclusively owned by this service.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository creates a new assignment repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Upsert saves an assignment, replacing any prior row for the spot
// entirely. Idempotent by spot id: re-saving yields one row with the
// latest classification, never two.
func (r *AssignmentRepository) Upsert(ctx context.Context, a *domain.Assignment) error {
	if err := a.Validate(); err != nil {
		return fmt.Errorf("refuse to persist assignment for spot %d: %w", a.SpotID, err)
	}

	query := `
		INSERT INTO assignments (
			spot_id, block_id, customer_intent, campaign_type, confidence,
			assignment_method, applied_rule, spans_multiple_blocks,
			spanned_block_ids, requires_attention, alert_reason,
			assigned_date, auto_resolved_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (spot_id) DO UPDATE SET
			block_id              = EXCLUDED.block_id,
			customer_intent       = EXCLUDED.customer_intent,
			campaign_type         = EXCLUDED.campaign_type,
			confidence            = EXCLUDED.confidence,
			assignment_method     = EXCLUDED.assignment_method,
			applied_rule          = EXCLUDED.applied_rule,
			spans_multiple_blocks = EXCLUDED.spans_multiple_blocks,
			spanned_block_ids     = EXCLUDED.spanned_block_ids,
			requires_attention    = EXCLUDED.requires_attention,
			alert_reason          = EXCLUDED.alert_reason,
			assigned_date         = EXCLUDED.assigned_date,
			auto_resolved_date    = EXCLUDED.auto_resolved_date
	`

	_, err := r.db.ExecContext(ctx, query,
		a.SpotID,
		a.BlockID,
		nullString(string(a.CustomerIntent)),
		a.CampaignType,
		a.Confidence,
		a.AssignmentMethod,
		nullString(a.AppliedRule),
		a.SpansMultipleBlocks,
		pq.Array(a.SpannedBlockIDs),
		a.RequiresAttention,
		nullString(a.AlertReason),
		a.AssignedDate,
		a.AutoResolvedDate,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert assignment for spot %d: %w", a.SpotID, err)
	}
	return nil
}

// GetBySpotID retrieves the assignment for a spot.
func (r *AssignmentRepository) GetBySpotID(ctx context.Context, spotID int64) (*domain.Assignment, error) {
	query := `
		SELECT spot_id, block_id, customer_intent, campaign_type, confidence,
		       assignment_method, applied_rule, spans_multiple_blocks,
		       spanned_block_ids, requires_attention, alert_reason,
		       assigned_date, auto_resolved_date
		FROM assignments
		WHERE spot_id = $1
	`

	a, err := scanAssignment(r.db.QueryRowContext(ctx, query, spotID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: spot %d", ErrAssignmentNotFound, spotID)
		}
		return nil, fmt.Errorf("failed to get assignment for spot %d: %w", spotID, err)
	}
	return a, nil
}

// Filter narrows assignment listings. Zero values are ignored.
type Filter struct {
	CampaignType string
	AppliedRule  string
	From         time.Time
	To           time.Time
	FlaggedOnly  bool
	Limit        int
}

// List returns assignments matching the filter, newest first.
func (r *AssignmentRepository) List(ctx context.Context, f Filter) ([]*domain.Assignment, error) {
	query := `
		SELECT a.spot_id, a.block_id, a.customer_intent, a.campaign_type, a.confidence,
		       a.assignment_method, a.applied_rule, a.spans_multiple_blocks,
		       a.spanned_block_ids, a.requires_attention, a.alert_reason,
		       a.assigned_date, a.auto_resolved_date
		FROM assignments a
		JOIN spots s ON s.spot_id = a.spot_id
		WHERE 1=1
	`
	args := make([]any, 0, 6)

	if f.CampaignType != "" {
		args = append(args, f.CampaignType)
		query += " AND a.campaign_type = $" + strconv.Itoa(len(args))
	}
	if f.AppliedRule != "" {
		args = append(args, f.AppliedRule)
		query += " AND a.applied_rule = $" + strconv.Itoa(len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		query += " AND s.air_date >= $" + strconv.Itoa(len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		query += " AND s.air_date <= $" + strconv.Itoa(len(args))
	}
	if f.FlaggedOnly {
		query += " AND a.requires_attention"
	}

	query += " ORDER BY a.assigned_date DESC, a.spot_id DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var result []*domain.Assignment
	for rows.Next() {
		a, scanErr := scanAssignment(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", scanErr)
		}
		result = append(result, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}
	return result, nil
}

// CoverageStats summarizes assignment coverage for a broadcast year.
type CoverageStats struct {
	Year          int            `json:"year"`
	TotalSpots    int            `json:"total_spots"`
	Assigned      int            `json:"assigned"`
	Flagged       int            `json:"flagged"`
	AutoResolved  int            `json:"auto_resolved"`
	CampaignTypes map[string]int `json:"campaign_types"`
}

// CoverageByYear reports how much of a broadcast year is assigned and
// the campaign type distribution.
func (r *AssignmentRepository) CoverageByYear(ctx context.Context, year int) (*CoverageStats, error) {
	stats := &CoverageStats{Year: year, CampaignTypes: make(map[string]int)}

	query := `
		SELECT
			COUNT(s.spot_id)                                          AS total_spots,
			COUNT(a.spot_id)                                          AS assigned,
			COUNT(a.spot_id) FILTER (WHERE a.requires_attention)      AS flagged,
			COUNT(a.spot_id) FILTER (WHERE a.auto_resolved_date IS NOT NULL) AS auto_resolved
		FROM spots s
		LEFT JOIN assignments a ON a.spot_id = s.spot_id
		WHERE EXTRACT(YEAR FROM s.air_date) = $1
	`
	err := r.db.QueryRowContext(ctx, query, year).Scan(
		&stats.TotalSpots, &stats.Assigned, &stats.Flagged, &stats.AutoResolved,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get coverage for %d: %w", year, err)
	}

	typeQuery := `
		SELECT a.campaign_type, COUNT(*) AS count
		FROM assignments a
		JOIN spots s ON s.spot_id = a.spot_id
		WHERE EXTRACT(YEAR FROM s.air_date) = $1
		GROUP BY a.campaign_type
	`
	rows, err := r.db.QueryContext(ctx, typeQuery, year)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign type distribution: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var campaignType string
		var count int
		if scanErr := rows.Scan(&campaignType, &count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan campaign type: %w", scanErr)
		}
		stats.CampaignTypes[campaignType] = count
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating campaign types: %w", err)
	}

	return stats, nil
}

// DeleteByYear removes all assignments for a broadcast year. Used by
// forced full reassignment.
func (r *AssignmentRepository) DeleteByYear(ctx context.Context, year int) (int64, error) {
	query := `
		DELETE FROM assignments a
		USING spots s
		WHERE s.spot_id = a.spot_id
		  AND EXTRACT(YEAR FROM s.air_date) = $1
	`
	res, err := r.db.ExecContext(ctx, query, year)
	if err != nil {
		return 0, fmt.Errorf("failed to delete assignments for %d: %w", year, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted assignments: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (*domain.Assignment, error) {
	var a domain.Assignment
	var intent, rule, reason sql.NullString
	var blockIDs []int64

	err := row.Scan(
		&a.SpotID,
		&a.BlockID,
		&intent,
		&a.CampaignType,
		&a.Confidence,
		&a.AssignmentMethod,
		&rule,
		&a.SpansMultipleBlocks,
		pq.Array(&blockIDs),
		&a.RequiresAttention,
		&reason,
		&a.AssignedDate,
		&a.AutoResolvedDate,
	)
	if err != nil {
		return nil, err
	}

	a.CustomerIntent = domain.CustomerIntent(intent.String)
	a.AppliedRule = rule.String
	a.AlertReason = reason.String
	a.SpannedBlockIDs = blockIDs
	return &a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
