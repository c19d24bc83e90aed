package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/spotgrid/internal/database"
	"github.com/jonesrussell/spotgrid/internal/domain"
	"github.com/jonesrussell/spotgrid/internal/logger"
	"github.com/jonesrussell/spotgrid/internal/processor"
)

const dateLayout = "2006-01-02"

// AssignmentReader reads persisted assignments.
type AssignmentReader interface {
	GetBySpotID(ctx context.Context, spotID int64) (*domain.Assignment, error)
	List(ctx context.Context, f database.Filter) ([]*domain.Assignment, error)
	CoverageByYear(ctx context.Context, year int) (*database.CoverageStats, error)
}

// AssignRunner triggers classification runs.
type AssignRunner interface {
	ProcessSpot(ctx context.Context, spotID int64) (*domain.Assignment, error)
	ProcessBatch(ctx context.Context, year, limit int) (*processor.Summary, error)
	ProcessYear(ctx context.Context, year int, force bool) (*processor.Summary, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler handles HTTP requests for the assignment API.
type Handler struct {
	assignments AssignmentReader
	runner      AssignRunner
	db          Pinger
	metrics     http.Handler
	logger      logger.Logger
}

// NewHandler creates a new API handler.
func NewHandler(
	assignments AssignmentReader,
	runner AssignRunner,
	db Pinger,
	metrics http.Handler,
	log logger.Logger,
) *Handler {
	return &Handler{
		assignments: assignments,
		runner:      runner,
		db:          db,
		metrics:     metrics,
		logger:      log,
	}
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ReadyCheck handles GET /ready. Ready means the database answers.
func (h *Handler) ReadyCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Warn("readiness check failed", logger.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// Metrics handles GET /metrics.
func (h *Handler) Metrics(c *gin.Context) {
	h.metrics.ServeHTTP(c.Writer, c.Request)
}

// GetAssignment handles GET /api/v1/assignments/:spot_id.
func (h *Handler) GetAssignment(c *gin.Context) {
	spotID, err := strconv.ParseInt(c.Param("spot_id"), 10, 64)
	if err != nil || spotID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "spot_id must be a positive integer"})
		return
	}

	assignment, err := h.assignments.GetBySpotID(c.Request.Context(), spotID)
	if err != nil {
		if errors.Is(err, database.ErrAssignmentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no assignment for spot"})
			return
		}
		h.logger.Error("failed to get assignment",
			logger.Int64("spot_id", spotID),
			logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get assignment"})
		return
	}

	c.JSON(http.StatusOK, toAssignmentResponse(assignment))
}

// ListAssignments handles GET /api/v1/assignments.
// Supported query parameters: campaign_type, applied_rule, from, to,
// flagged, limit.
func (h *Handler) ListAssignments(c *gin.Context) {
	filter := database.Filter{
		CampaignType: c.Query("campaign_type"),
		AppliedRule:  c.Query("applied_rule"),
		FlaggedOnly:  c.Query("flagged") == "true",
		Limit:        100,
	}

	if filter.CampaignType != "" && !domain.ValidCampaignType(domain.CampaignType(filter.CampaignType)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown campaign_type"})
		return
	}

	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be YYYY-MM-DD"})
			return
		}
		filter.From = t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "to must be YYYY-MM-DD"})
			return
		}
		filter.To = t
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 1000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
			return
		}
		filter.Limit = n
	}

	assignments, err := h.assignments.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list assignments", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list assignments"})
		return
	}

	resp := AssignmentsListResponse{
		Assignments: make([]AssignmentResponse, 0, len(assignments)),
		Total:       len(assignments),
	}
	for _, a := range assignments {
		resp.Assignments = append(resp.Assignments, toAssignmentResponse(a))
	}

	c.JSON(http.StatusOK, resp)
}

// Coverage handles GET /api/v1/stats/coverage.
func (h *Handler) Coverage(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 2000 || year > 2100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "year is required"})
		return
	}

	stats, err := h.assignments.CoverageByYear(c.Request.Context(), year)
	if err != nil {
		h.logger.Error("failed to get coverage", logger.Int("year", year), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get coverage"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// AssignSpot handles POST /api/v1/assign.
func (h *Handler) AssignSpot(c *gin.Context) {
	var req AssignSpotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	assignment, err := h.runner.ProcessSpot(c.Request.Context(), req.SpotID)
	if err != nil {
		if errors.Is(err, database.ErrSpotNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "spot not found"})
			return
		}
		h.logger.Error("failed to assign spot",
			logger.Int64("spot_id", req.SpotID),
			logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to assign spot"})
		return
	}

	c.JSON(http.StatusOK, toAssignmentResponse(assignment))
}

// AssignBatch handles POST /api/v1/assign/batch.
func (h *Handler) AssignBatch(c *gin.Context) {
	var req AssignBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.runner.ProcessBatch(c.Request.Context(), req.Year, req.Limit)
	if err != nil {
		h.logger.Error("batch run failed", logger.Int("year", req.Year), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "batch run failed"})
		return
	}

	c.JSON(http.StatusOK, toRunResponse(summary))
}

// AssignYear handles POST /api/v1/assign/year.
func (h *Handler) AssignYear(c *gin.Context) {
	var req AssignYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.logger.Info("year run requested",
		logger.Int("year", req.Year),
		logger.Bool("force", req.Force))

	summary, err := h.runner.ProcessYear(c.Request.Context(), req.Year, req.Force)
	if err != nil {
		h.logger.Error("year run failed", logger.Int("year", req.Year), logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "year run failed"})
		return
	}

	c.JSON(http.StatusOK, toRunResponse(summary))
}
