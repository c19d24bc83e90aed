package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/spotgrid/internal/database"
	"github.com/jonesrussell/spotgrid/internal/domain"
	"github.com/jonesrussell/spotgrid/internal/logger"
	"github.com/jonesrussell/spotgrid/internal/processor"
)

type mockAssignments struct {
	byID     map[int64]*domain.Assignment
	listed   []*domain.Assignment
	coverage *database.CoverageStats
	err      error
}

func (m *mockAssignments) GetBySpotID(_ context.Context, spotID int64) (*domain.Assignment, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.byID[spotID]
	if !ok {
		return nil, fmt.Errorf("%w: spot %d", database.ErrAssignmentNotFound, spotID)
	}
	return a, nil
}

func (m *mockAssignments) List(_ context.Context, f database.Filter) ([]*domain.Assignment, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*domain.Assignment
	for _, a := range m.listed {
		if f.CampaignType != "" && string(a.CampaignType) != f.CampaignType {
			continue
		}
		if f.FlaggedOnly && !a.RequiresAttention {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *mockAssignments) CoverageByYear(_ context.Context, _ int) (*database.CoverageStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.coverage, nil
}

type mockRunner struct {
	assignment *domain.Assignment
	summary    *processor.Summary
	err        error
	lastForce  bool
}

func (m *mockRunner) ProcessSpot(_ context.Context, _ int64) (*domain.Assignment, error) {
	return m.assignment, m.err
}

func (m *mockRunner) ProcessBatch(_ context.Context, _, _ int) (*processor.Summary, error) {
	return m.summary, m.err
}

func (m *mockRunner) ProcessYear(_ context.Context, _ int, force bool) (*processor.Summary, error) {
	m.lastForce = force
	return m.summary, m.err
}

type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(_ context.Context) error { return m.err }

func testAssignment(spotID int64) *domain.Assignment {
	blockID := int64(7)
	return &domain.Assignment{
		SpotID:           spotID,
		BlockID:          &blockID,
		CustomerIntent:   domain.IntentLanguageSpecific,
		CampaignType:     domain.CampaignLanguageSpecific,
		Confidence:       0.95,
		AssignmentMethod: domain.MethodOverlapAnalysis,
		SpannedBlockIDs:  []int64{7},
		AssignedDate:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func setupRouter(assignments AssignmentReader, runner AssignRunner, db Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewHandler(assignments, runner, db, http.NotFoundHandler(), logger.NewNop())
	router := gin.New()
	SetupRoutes(router, handler)
	return router
}

func TestHealthCheck(t *testing.T) {
	router := setupRouter(&mockAssignments{}, &mockRunner{}, &mockPinger{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadyCheck_DatabaseDown(t *testing.T) {
	router := setupRouter(&mockAssignments{}, &mockRunner{}, &mockPinger{err: errors.New("connection refused")})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/ready", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestGetAssignment(t *testing.T) {
	assignments := &mockAssignments{
		byID: map[int64]*domain.Assignment{42: testAssignment(42)},
	}
	router := setupRouter(assignments, &mockRunner{}, &mockPinger{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/assignments/42", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp AssignmentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.SpotID)
	assert.Equal(t, "language_specific", resp.CampaignType)
	require.NotNil(t, resp.BlockID)
	assert.Equal(t, int64(7), *resp.BlockID)
}

func TestGetAssignment_NotFound(t *testing.T) {
	router := setupRouter(&mockAssignments{byID: map[int64]*domain.Assignment{}}, &mockRunner{}, &mockPinger{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/assignments/999", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetAssignment_BadID(t *testing.T) {
	router := setupRouter(&mockAssignments{}, &mockRunner{}, &mockPinger{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/assignments/abc", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAssignments_FilterByCampaignType(t *testing.T) {
	ros := testAssignment(2)
	ros.CampaignType = domain.CampaignROS
	ros.CustomerIntent = domain.IntentIndifferent
	ros.BlockID = nil
	ros.SpannedBlockIDs = nil

	assignments := &mockAssignments{listed: []*domain.Assignment{testAssignment(1), ros}}
	router := setupRouter(assignments, &mockRunner{}, &mockPinger{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/assignments?campaign_type=ros", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp AssignmentsListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, int64(2), resp.Assignments[0].SpotID)
}

func TestListAssignments_RejectsUnknownCampaignType(t *testing.T) {
	router := setupRouter(&mockAssignments{}, &mockRunner{}, &mockPinger{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/assignments?campaign_type=banner", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAssignments_RejectsBadDate(t *testing.T) {
	router := setupRouter(&mockAssignments{}, &mockRunner{}, &mockPinger{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/assignments?from=03-01-2025", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCoverage(t *testing.T) {
	assignments := &mockAssignments{
		coverage: &database.CoverageStats{
			Year:       2025,
			TotalSpots: 1000,
			Assigned:   950,
			Flagged:    12,
			CampaignTypes: map[string]int{
				"language_specific": 700,
				"ros":               250,
			},
		},
	}
	router := setupRouter(assignments, &mockRunner{}, &mockPinger{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/stats/coverage?year=2025", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var stats database.CoverageStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 950, stats.Assigned)
	assert.Equal(t, 700, stats.CampaignTypes["language_specific"])
}

func TestCoverage_MissingYear(t *testing.T) {
	router := setupRouter(&mockAssignments{}, &mockRunner{}, &mockPinger{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/stats/coverage", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAssignSpot(t *testing.T) {
	runner := &mockRunner{assignment: testAssignment(42)}
	router := setupRouter(&mockAssignments{}, runner, &mockPinger{})

	body, _ := json.Marshal(AssignSpotRequest{SpotID: 42})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/assign", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp AssignmentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(42), resp.SpotID)
}

func TestAssignSpot_UnknownSpot(t *testing.T) {
	runner := &mockRunner{err: fmt.Errorf("load: %w", database.ErrSpotNotFound)}
	router := setupRouter(&mockAssignments{}, runner, &mockPinger{})

	body, _ := json.Marshal(AssignSpotRequest{SpotID: 999})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/assign", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAssignYear_PassesForce(t *testing.T) {
	runner := &mockRunner{summary: &processor.Summary{RunID: "run-1", Total: 10, Assigned: 10}}
	router := setupRouter(&mockAssignments{}, runner, &mockPinger{})

	body, _ := json.Marshal(AssignYearRequest{Year: 2025, Force: true})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/assign/year", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, runner.lastForce)

	var resp RunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 10, resp.Assigned)
}

func TestAssignBatch_RejectsMissingYear(t *testing.T) {
	router := setupRouter(&mockAssignments{}, &mockRunner{}, &mockPinger{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/assign/batch", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
