package api

import (
	"time"

	"github.com/jonesrussell/spotgrid/internal/domain"
	"github.com/jonesrussell/spotgrid/internal/processor"
)

// AssignmentResponse represents a single assignment for API clients.
type AssignmentResponse struct {
	SpotID              int64      `json:"spot_id"`
	BlockID             *int64     `json:"block_id"`
	CustomerIntent      string     `json:"customer_intent,omitempty"`
	CampaignType        string     `json:"campaign_type"`
	Confidence          float64    `json:"confidence"`
	AssignmentMethod    string     `json:"assignment_method"`
	AppliedRule         string     `json:"applied_rule,omitempty"`
	SpansMultipleBlocks bool       `json:"spans_multiple_blocks"`
	SpannedBlockIDs     []int64    `json:"spanned_block_ids,omitempty"`
	RequiresAttention   bool       `json:"requires_attention"`
	AlertReason         string     `json:"alert_reason,omitempty"`
	AssignedDate        time.Time  `json:"assigned_date"`
	AutoResolvedDate    *time.Time `json:"auto_resolved_date,omitempty"`
}

// AssignmentsListResponse represents a list of assignments with metadata.
type AssignmentsListResponse struct {
	Assignments []AssignmentResponse `json:"assignments"`
	Total       int                  `json:"total"`
}

// AssignSpotRequest triggers classification of a single spot.
type AssignSpotRequest struct {
	SpotID int64 `json:"spot_id" binding:"required,gt=0"`
}

// AssignBatchRequest triggers classification of a batch of unassigned spots.
type AssignBatchRequest struct {
	Year  int `json:"year" binding:"required,gte=2000,lte=2100"`
	Limit int `json:"limit" binding:"omitempty,gt=0,lte=10000"`
}

// AssignYearRequest triggers classification of a full broadcast year.
type AssignYearRequest struct {
	Year  int  `json:"year" binding:"required,gte=2000,lte=2100"`
	Force bool `json:"force"`
}

// RunResponse reports the outcome of a classification run.
type RunResponse struct {
	RunID         string  `json:"run_id"`
	Total         int     `json:"total"`
	Assigned      int     `json:"assigned"`
	Flagged       int     `json:"flagged"`
	Failed        int     `json:"failed"`
	FlaggedSample []int64 `json:"flagged_sample,omitempty"`
	DurationMS    int64   `json:"duration_ms"`
}

// toAssignmentResponse converts a domain assignment to an API response.
func toAssignmentResponse(a *domain.Assignment) AssignmentResponse {
	return AssignmentResponse{
		SpotID:              a.SpotID,
		BlockID:             a.BlockID,
		CustomerIntent:      string(a.CustomerIntent),
		CampaignType:        string(a.CampaignType),
		Confidence:          a.Confidence,
		AssignmentMethod:    string(a.AssignmentMethod),
		AppliedRule:         a.AppliedRule,
		SpansMultipleBlocks: a.SpansMultipleBlocks,
		SpannedBlockIDs:     a.SpannedBlockIDs,
		RequiresAttention:   a.RequiresAttention,
		AlertReason:         a.AlertReason,
		AssignedDate:        a.AssignedDate,
		AutoResolvedDate:    a.AutoResolvedDate,
	}
}

// toRunResponse converts a run summary to an API response.
func toRunResponse(s *processor.Summary) RunResponse {
	return RunResponse{
		RunID:         s.RunID,
		Total:         s.Total,
		Assigned:      s.Assigned,
		Flagged:       s.Flagged,
		Failed:        s.Failed,
		FlaggedSample: s.FlaggedSample,
		DurationMS:    s.Duration.Milliseconds(),
	}
}
