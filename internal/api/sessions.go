package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mkettner/comscore-go/internal/ingest"
	"github.com/mkettner/comscore-go/internal/logger"
	"github.com/mkettner/comscore-go/internal/models"
)

const defaultSessionListLimit = 50

// SessionResponse represents a session in API responses
type SessionResponse struct {
	ID              string     `json:"id"`
	InstanceID      int64      `json:"instance_id"`
	PublisherID     string     `json:"publisher_id"`
	ApplicationName string     `json:"application_name"`
	AssetID         *string    `json:"asset_id,omitempty"`
	ContentType     *string    `json:"content_type,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	Ended           bool       `json:"ended"`
}

// SessionListResponse represents a list of sessions
type SessionListResponse struct {
	Sessions []*SessionResponse `json:"sessions"`
}

// SessionEventsResponse represents the events recorded for a session
type SessionEventsResponse struct {
	SessionID string          `json:"session_id"`
	Events    []*models.Event `json:"events"`
}

// SessionSummaryResponse aggregates per-method event counts for a session
type SessionSummaryResponse struct {
	Session *SessionResponse `json:"session"`
	Counts  map[string]int64 `json:"counts"`
}

// SessionHandler handles session query requests
type SessionHandler struct {
	service *ingest.Service
}

// NewSessionHandler creates a new session handler instance
func NewSessionHandler(service *ingest.Service) *SessionHandler {
	return &SessionHandler{service: service}
}

// toSessionResponse converts a session model to API response format
func toSessionResponse(s *models.Session) *SessionResponse {
	return &SessionResponse{
		ID:              s.ID.String(),
		InstanceID:      s.InstanceID,
		PublisherID:     s.PublisherID,
		ApplicationName: s.ApplicationName,
		AssetID:         s.AssetID,
		ContentType:     s.ContentType,
		StartedAt:       s.StartedAt,
		EndedAt:         s.EndedAt,
		Ended:           s.Ended(),
	}
}

// ListSessions handles GET /api/sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	var instanceID *int64
	if raw := c.Query("instance_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_instance_id",
				Message: "instance_id must be an integer",
			})
			return
		}
		instanceID = &parsed
	}

	limit := defaultSessionListLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_limit",
				Message: "limit must be a positive integer",
			})
			return
		}
		limit = parsed
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	sessions, err := h.service.ListSessions(ctx, instanceID, limit)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Msg("Failed to list sessions")

		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "query_failed",
			Message: "Failed to retrieve session list",
		})
		return
	}

	responses := make([]*SessionResponse, len(sessions))
	for i, s := range sessions {
		responses[i] = toSessionResponse(s)
	}

	c.JSON(http.StatusOK, SessionListResponse{
		Sessions: responses,
	})
}

// GetSession handles GET /api/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	session, err := h.service.GetSession(ctx, c.Param("id"))
	if err != nil {
		h.respondSessionError(c, err, "Failed to retrieve session")
		return
	}

	c.JSON(http.StatusOK, toSessionResponse(session))
}

// GetSessionEvents handles GET /api/sessions/:id/events
func (h *SessionHandler) GetSessionEvents(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	events, err := h.service.SessionEvents(ctx, c.Param("id"))
	if err != nil {
		h.respondSessionError(c, err, "Failed to retrieve session events")
		return
	}

	c.JSON(http.StatusOK, SessionEventsResponse{
		SessionID: c.Param("id"),
		Events:    events,
	})
}

// GetSessionSummary handles GET /api/sessions/:id/summary
func (h *SessionHandler) GetSessionSummary(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	session, counts, err := h.service.SessionSummary(ctx, c.Param("id"))
	if err != nil {
		h.respondSessionError(c, err, "Failed to summarize session")
		return
	}

	c.JSON(http.StatusOK, SessionSummaryResponse{
		Session: toSessionResponse(session),
		Counts:  counts,
	})
}

// respondSessionError maps service errors to API responses
func (h *SessionHandler) respondSessionError(c *gin.Context, err error, message string) {
	if errors.Is(err, ingest.ErrInvalidSessionID) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid session ID format",
		})
		return
	}
	if errors.Is(err, ingest.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "Session not found",
		})
		return
	}

	logger.Log.Error().
		Err(err).
		Str("session_id", c.Param("id")).
		Msg(message)

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "query_failed",
		Message: message,
	})
}

// SetupSessionRoutes registers session query routes
func SetupSessionRoutes(apiGroup *gin.RouterGroup, service *ingest.Service) {
	handler := NewSessionHandler(service)
	apiGroup.GET("/sessions", handler.ListSessions)
	apiGroup.GET("/sessions/:id", handler.GetSession)
	apiGroup.GET("/sessions/:id/events", handler.GetSessionEvents)
	apiGroup.GET("/sessions/:id/summary", handler.GetSessionSummary)
}
