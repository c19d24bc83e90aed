package domain

import (
	"errors"
	"fmt"
	"time"
)

// CustomerIntent is the inferred advertiser targeting strategy.
type CustomerIntent string

// CustomerIntent values. IntentTimeSpecific is reserved for future
// rules and is not currently produced.
const (
	IntentLanguageSpecific CustomerIntent = "language_specific"
	IntentIndifferent      CustomerIntent = "indifferent"
	IntentTimeSpecific     CustomerIntent = "time_specific"
)

// CampaignType is the final mutually-exclusive revenue category for a spot.
type CampaignType string

// CampaignType values. The set is closed: every processed spot carries
// exactly one of these, so revenue reconciles to the dollar.
const (
	CampaignLanguageSpecific CampaignType = "language_specific"
	CampaignROS              CampaignType = "ros"
	CampaignMultiLanguage    CampaignType = "multi_language"
	CampaignDirectResponse   CampaignType = "direct_response"
	CampaignPaidProgramming  CampaignType = "paid_programming"
	CampaignPackage          CampaignType = "package"
	CampaignOther            CampaignType = "other"
)

// AssignmentMethod identifies which stage produced the classification.
type AssignmentMethod string

// AssignmentMethod values.
const (
	MethodPrecedenceRule  AssignmentMethod = "precedence_rule"
	MethodOverlapAnalysis AssignmentMethod = "overlap_analysis"
)

// ValidCampaignType reports whether t is a member of the closed campaign
// type set.
func ValidCampaignType(t CampaignType) bool {
	switch t {
	case CampaignLanguageSpecific, CampaignROS, CampaignMultiLanguage,
		CampaignDirectResponse, CampaignPaidProgramming, CampaignPackage,
		CampaignOther:
		return true
	}
	return false
}

// ValidCustomerIntent reports whether i is a member of the closed intent
// set. The empty intent is allowed: structural rules such as direct
// response leave intent unset.
func ValidCustomerIntent(i CustomerIntent) bool {
	switch i {
	case IntentLanguageSpecific, IntentIndifferent, IntentTimeSpecific, "":
		return true
	}
	return false
}

// Classification is the engine's verdict for a single spot, prior to
// persistence.
type Classification struct {
	SpotID              int64            `json:"spot_id"`
	CampaignType        CampaignType     `json:"campaign_type"`
	CustomerIntent      CustomerIntent   `json:"customer_intent,omitempty"`
	Method              AssignmentMethod `json:"assignment_method"`
	AppliedRule         string           `json:"applied_rule,omitempty"`
	BlockID             *int64           `json:"block_id,omitempty"`
	SpannedBlockIDs     []int64          `json:"spanned_block_ids,omitempty"`
	SpansMultipleBlocks bool             `json:"spans_multiple_blocks"`
	Confidence          float64          `json:"confidence"`
	RequiresAttention   bool             `json:"requires_attention"`
	AlertReason         string           `json:"alert_reason,omitempty"`
	DurationMinutes     int              `json:"duration_minutes"`
}

// Assignment is the persisted classification outcome for one spot,
// unique by spot id. It is the sole entity this service owns.
type Assignment struct {
	SpotID              int64            `db:"spot_id"               json:"spot_id"`
	BlockID             *int64           `db:"block_id"              json:"block_id,omitempty"`
	CustomerIntent      CustomerIntent   `db:"customer_intent"       json:"customer_intent,omitempty"`
	CampaignType        CampaignType     `db:"campaign_type"         json:"campaign_type"`
	Confidence          float64          `db:"confidence"            json:"confidence"`
	AssignmentMethod    AssignmentMethod `db:"assignment_method"     json:"assignment_method"`
	AppliedRule         string           `db:"applied_rule"          json:"applied_rule,omitempty"`
	SpansMultipleBlocks bool             `db:"spans_multiple_blocks" json:"spans_multiple_blocks"`
	SpannedBlockIDs     []int64          `db:"spanned_block_ids"     json:"spanned_block_ids,omitempty"`
	RequiresAttention   bool             `db:"requires_attention"    json:"requires_attention"`
	AlertReason         string           `db:"alert_reason"          json:"alert_reason,omitempty"`
	AssignedDate        time.Time        `db:"assigned_date"         json:"assigned_date"`
	AutoResolvedDate    *time.Time       `db:"auto_resolved_date"    json:"auto_resolved_date,omitempty"`
}

// NewAssignment builds an Assignment from a Classification.
// AutoResolvedDate is set only when a precedence or pattern rule
// produced the result; overlap analysis leaves it nil.
func NewAssignment(c *Classification, now time.Time) *Assignment {
	a := &Assignment{
		SpotID:              c.SpotID,
		BlockID:             c.BlockID,
		CustomerIntent:      c.CustomerIntent,
		CampaignType:        c.CampaignType,
		Confidence:          c.Confidence,
		AssignmentMethod:    c.Method,
		AppliedRule:         c.AppliedRule,
		SpansMultipleBlocks: c.SpansMultipleBlocks,
		SpannedBlockIDs:     c.SpannedBlockIDs,
		RequiresAttention:   c.RequiresAttention,
		AlertReason:         c.AlertReason,
		AssignedDate:        now,
	}
	if c.Method == MethodPrecedenceRule {
		t := now
		a.AutoResolvedDate = &t
	}
	return a
}

// ErrInvalidAssignment marks an assignment that breaks an invariant.
// Such a row is refused by the store for its spot only; the condition
// is never a store availability problem.
var ErrInvalidAssignment = errors.New("invalid assignment")

// Validate enforces the Assignment invariants before persistence.
// Every violation wraps ErrInvalidAssignment.
func (a *Assignment) Validate() error {
	if a.SpotID == 0 {
		return fmt.Errorf("%w: missing spot id", ErrInvalidAssignment)
	}
	if !ValidCampaignType(a.CampaignType) {
		return fmt.Errorf("%w: campaign type %q", ErrInvalidAssignment, a.CampaignType)
	}
	if !ValidCustomerIntent(a.CustomerIntent) {
		return fmt.Errorf("%w: customer intent %q", ErrInvalidAssignment, a.CustomerIntent)
	}
	if a.AssignmentMethod != MethodPrecedenceRule && a.AssignmentMethod != MethodOverlapAnalysis {
		return fmt.Errorf("%w: assignment method %q", ErrInvalidAssignment, a.AssignmentMethod)
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("%w: confidence %.3f out of range", ErrInvalidAssignment, a.Confidence)
	}
	if a.RequiresAttention && a.AlertReason == "" {
		return fmt.Errorf("%w: requires_attention set without alert reason", ErrInvalidAssignment)
	}
	return nil
}
