package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/spotgrid/internal/domain"
)

func validClassification() *domain.Classification {
	return &domain.Classification{
		SpotID:         42,
		CampaignType:   domain.CampaignROS,
		CustomerIntent: domain.IntentIndifferent,
		Method:         domain.MethodPrecedenceRule,
		AppliedRule:    "ros_duration",
		Confidence:     1,
	}
}

func TestNewAssignment_RuleResultIsAutoResolved(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	a := domain.NewAssignment(validClassification(), now)

	assert.Equal(t, now, a.AssignedDate)
	require.NotNil(t, a.AutoResolvedDate)
	assert.Equal(t, now, *a.AutoResolvedDate)
}

func TestNewAssignment_OverlapResultIsNotAutoResolved(t *testing.T) {
	c := validClassification()
	c.Method = domain.MethodOverlapAnalysis
	c.AppliedRule = ""

	a := domain.NewAssignment(c, time.Now())

	assert.Nil(t, a.AutoResolvedDate)
}

func TestAssignmentValidate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		mutate  func(*domain.Assignment)
		wantErr string
	}{
		{"valid", nil, ""},
		{"missing spot id", func(a *domain.Assignment) { a.SpotID = 0 }, "missing spot id"},
		{"unknown campaign type", func(a *domain.Assignment) { a.CampaignType = "banner" }, "campaign type"},
		{"unknown intent", func(a *domain.Assignment) { a.CustomerIntent = "maybe" }, "customer intent"},
		{"empty intent allowed", func(a *domain.Assignment) { a.CustomerIntent = "" }, ""},
		{"unknown method", func(a *domain.Assignment) { a.AssignmentMethod = "guess" }, "assignment method"},
		{"confidence above one", func(a *domain.Assignment) { a.Confidence = 1.2 }, "out of range"},
		{"confidence below zero", func(a *domain.Assignment) { a.Confidence = -0.1 }, "out of range"},
		{
			"flagged without reason",
			func(a *domain.Assignment) { a.RequiresAttention = true; a.AlertReason = "" },
			"without alert reason",
		},
		{
			"flagged with reason",
			func(a *domain.Assignment) { a.RequiresAttention = true; a.AlertReason = "no overlap" },
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := domain.NewAssignment(validClassification(), now)
			if tt.mutate != nil {
				tt.mutate(a)
			}
			err := a.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidAssignment)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
