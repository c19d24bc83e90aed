package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes.
func SetupRoutes(router *gin.Engine, handler *Handler) {
	router.GET("/health", handler.HealthCheck)
	router.GET("/ready", handler.ReadyCheck)
	router.GET("/metrics", handler.Metrics)

	v1 := router.Group("/api/v1")

	// Assignment lookup endpoints
	assignments := v1.Group("/assignments")
	assignments.GET("", handler.ListAssignments)        // GET /api/v1/assignments
	assignments.GET("/:spot_id", handler.GetAssignment) // GET /api/v1/assignments/:spot_id

	// Statistics endpoints
	stats := v1.Group("/stats")
	stats.GET("/coverage", handler.Coverage) // GET /api/v1/stats/coverage

	// Classification trigger endpoints
	assign := v1.Group("/assign")
	assign.POST("", handler.AssignSpot)        // POST /api/v1/assign
	assign.POST("/batch", handler.AssignBatch) // POST /api/v1/assign/batch
	assign.POST("/year", handler.AssignYear)   // POST /api/v1/assign/year
}
