package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkettner/comscore-go/internal/ingest"
	"github.com/mkettner/comscore-go/internal/logger"
	"github.com/mkettner/comscore-go/internal/metrics"
	"github.com/mkettner/comscore-go/internal/models"
)

// ErrorResponse represents an error returned by the API
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// IngestResponse acknowledges a recorded notification
type IngestResponse struct {
	SessionID string `json:"session_id"`
	EventID   string `json:"event_id"`
	Method    string `json:"method"`
}

// EventHandler handles event ingestion requests
type EventHandler struct {
	service *ingest.Service
}

// NewEventHandler creates a new event handler instance
func NewEventHandler(service *ingest.Service) *EventHandler {
	return &EventHandler{service: service}
}

// IngestEvent handles POST /api/events
func (h *EventHandler) IngestEvent(c *gin.Context) {
	var env ingest.EventEnvelope
	if err := c.ShouldBindJSON(&env); err != nil {
		metrics.EventRejected("invalid_body")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	start := time.Now()
	session, event, err := h.service.RecordEvent(ctx, &env)
	if err != nil {
		if errors.Is(err, ingest.ErrUnknownMethod) || errors.Is(err, ingest.ErrMissingMethod) {
			metrics.EventRejected("unknown_method")
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "unknown_method",
				Message: err.Error(),
			})
			return
		}

		logger.Log.Error().
			Err(err).
			Int64("instance_id", env.InstanceID).
			Str("method", env.Method).
			Msg("Failed to record event")

		metrics.EventRejected("storage_error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "ingest_failed",
			Message: "Failed to record event",
		})
		return
	}

	metrics.EventIngested(env.Method)
	metrics.ObserveIngestDuration(time.Since(start).Seconds())
	if env.Method == models.MethodCreatePlaybackSession {
		metrics.SessionOpened()
	}

	c.JSON(http.StatusAccepted, IngestResponse{
		SessionID: session.ID.String(),
		EventID:   event.ID.String(),
		Method:    event.Method,
	})
}

// SetupEventRoutes registers event ingestion routes
func SetupEventRoutes(apiGroup *gin.RouterGroup, service *ingest.Service) {
	handler := NewEventHandler(service)
	apiGroup.POST("/events", handler.IngestEvent)
}
