package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mkettner/comscore-go/internal/db"
)

// HealthResponse represents the response from the health check endpoint
type HealthResponse struct {
	Status       string                 `json:"status"`
	Database     string                 `json:"database"`
	OpenSessions int64                  `json:"open_sessions"`
	Time         string                 `json:"time"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// HealthHandler handles health check requests
type HealthHandler struct {
	db       *db.DB
	sessions *db.SessionRepository
}

// NewHealthHandler creates a new health check handler
func NewHealthHandler(database *db.DB, sessions *db.SessionRepository) *HealthHandler {
	return &HealthHandler{db: database, sessions: sessions}
}

// Check handles the health check endpoint. Besides database connectivity it
// reports the number of playback sessions still awaiting their notifyEnd,
// which is the collector's main liveness signal: a count that only grows
// means plugins are opening sessions that never close.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:  "ok",
		Time:    time.Now().UTC().Format(time.RFC3339),
		Details: make(map[string]interface{}),
	}

	// Check database connectivity
	if err := h.db.Health(ctx); err != nil {
		response.Status = "degraded"
		response.Database = "unhealthy"
		response.Details["database_error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	response.Database = "healthy"

	open, err := h.sessions.CountOpen(ctx)
	if err != nil {
		response.Status = "degraded"
		response.Details["session_count_error"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}
	response.OpenSessions = open

	c.JSON(http.StatusOK, response)
}

// SetupHealthRoutes registers health check routes
func SetupHealthRoutes(apiGroup *gin.RouterGroup, database *db.DB, sessions *db.SessionRepository) {
	handler := NewHealthHandler(database, sessions)
	apiGroup.GET("/health", handler.Check)
}
