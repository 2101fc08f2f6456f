// Package ingest contains the business logic for recording playback
// notifications reported by plugin connectors into the database.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkettner/comscore-go/internal/comscore"
	"github.com/mkettner/comscore-go/internal/db"
	"github.com/mkettner/comscore-go/internal/logger"
	"github.com/mkettner/comscore-go/internal/models"
)

// Service errors
var (
	ErrUnknownMethod    = errors.New("unknown notification method")
	ErrMissingMethod    = errors.New("notification method is required")
	ErrInvalidSessionID = errors.New("invalid session id")
	ErrSessionNotFound  = errors.New("session not found")
)

// knownMethods is the set of connector notification names the collector
// accepts. Anything else is rejected at ingest time.
var knownMethods = map[string]bool{
	models.MethodCreatePlaybackSession:    true,
	models.MethodSetMetadata:              true,
	models.MethodUpdate:                   true,
	models.MethodNotifyPlay:               true,
	models.MethodNotifyPause:              true,
	models.MethodNotifyEnd:                true,
	models.MethodNotifyBufferStart:        true,
	models.MethodNotifyBufferStop:         true,
	models.MethodNotifySeekStart:          true,
	models.MethodStartFromPosition:        true,
	models.MethodStartFromDvrWindowOffset: true,
	models.MethodSetDvrWindowLength:       true,
	models.MethodNotifyChangePlaybackRate: true,
	models.MethodSetPersistentLabels:      true,
	models.MethodDestroy:                  true,
}

// EventEnvelope is the wire format for a single connector notification.
// Metadata carries the serialized content metadata for setMetadata/update
// notifications and is stored verbatim.
type EventEnvelope struct {
	InstanceID      int64             `json:"instance_id"`
	PublisherID     string            `json:"publisher_id"`
	ApplicationName string            `json:"application_name"`
	Method          string            `json:"method" binding:"required"`
	Value           *int64            `json:"value,omitempty"`
	Rate            *float64          `json:"rate,omitempty"`
	Labels          map[string]string `json:"labels,omitempty"`
	Metadata        json.RawMessage   `json:"metadata,omitempty"`
	ReportedAt      time.Time         `json:"reported_at"`
}

// Service handles business logic for event ingestion and session queries
type Service struct {
	database *db.DB
	repos    *db.Repositories
}

// NewService creates a new ingest service instance
func NewService(database *db.DB, repos *db.Repositories) *Service {
	return &Service{
		database: database,
		repos:    repos,
	}
}

// RecordEvent persists one connector notification. A createPlaybackSession
// notification closes any open session for the instance and opens a new
// one; every other notification is appended to the instance's open
// session, opening one implicitly if the collector never saw the session
// start.
func (s *Service) RecordEvent(ctx context.Context, env *EventEnvelope) (*models.Session, *models.Event, error) {
	if env.Method == "" {
		return nil, nil, ErrMissingMethod
	}
	if !knownMethods[env.Method] {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownMethod, env.Method)
	}

	reportedAt := env.ReportedAt
	if reportedAt.IsZero() {
		reportedAt = time.Now().UTC()
	}

	if env.Method == models.MethodCreatePlaybackSession {
		return s.openSession(ctx, env, reportedAt)
	}

	session, err := s.repos.Sessions.GetOpenByInstance(ctx, env.InstanceID)
	if err != nil {
		if !db.IsNotFound(err) {
			return nil, nil, fmt.Errorf("failed to resolve session: %w", err)
		}

		// The plugin may have started reporting before the collector came
		// up. Open a session implicitly so the event is not lost.
		logger.Log.Warn().
			Int64("instance_id", env.InstanceID).
			Str("method", env.Method).
			Msg("No open session for instance, opening implicitly")

		session = models.NewSession(env.InstanceID, env.PublisherID, env.ApplicationName)
		session.StartedAt = reportedAt.UTC()
		if err := s.repos.Sessions.Create(ctx, session); err != nil {
			return nil, nil, err
		}
	}

	event, err := s.appendEvent(ctx, session, env, reportedAt)
	if err != nil {
		return nil, nil, err
	}

	switch env.Method {
	case models.MethodSetMetadata, models.MethodUpdate:
		s.recordAsset(ctx, session, env.Metadata)
	case models.MethodNotifyEnd, models.MethodDestroy:
		if err := s.repos.Sessions.End(ctx, session.ID, reportedAt); err != nil && !db.IsNotFound(err) {
			logger.Log.Error().
				Err(err).
				Str("session_id", session.ID.String()).
				Msg("Failed to mark session as ended")
		}
	}

	return session, event, nil
}

// openSession closes the instance's open session (if any) and starts a
// new one, recording the createPlaybackSession event against the new row.
// The close and open happen in one transaction.
func (s *Service) openSession(ctx context.Context, env *EventEnvelope, reportedAt time.Time) (*models.Session, *models.Event, error) {
	session := models.NewSession(env.InstanceID, env.PublisherID, env.ApplicationName)
	session.StartedAt = reportedAt.UTC()
	event := models.NewEvent(session.ID, env.InstanceID, env.Method, reportedAt)

	err := s.database.WithTransaction(ctx, func(tx *gorm.DB) error {
		var open models.Session
		result := tx.Where("instance_id = ? AND ended_at IS NULL", env.InstanceID).
			Order("started_at DESC").
			First(&open)
		if result.Error == nil {
			updates := map[string]interface{}{
				"ended_at":   reportedAt.UTC(),
				"updated_at": time.Now().UTC(),
			}
			if err := tx.Model(&models.Session{}).Where("id = ?", open.ID.String()).Updates(updates).Error; err != nil {
				return db.MapGormError(err)
			}
		} else if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return db.MapGormError(result.Error)
		}

		if err := tx.Create(session).Error; err != nil {
			return db.MapGormError(err)
		}
		return s.repos.Events.CreateTx(tx, event)
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session: %w", err)
	}

	logger.Log.Info().
		Str("session_id", session.ID.String()).
		Int64("instance_id", env.InstanceID).
		Msg("Playback session opened")

	return session, event, nil
}

// appendEvent builds and stores the event row for an already resolved session
func (s *Service) appendEvent(ctx context.Context, session *models.Session, env *EventEnvelope, reportedAt time.Time) (*models.Event, error) {
	event := models.NewEvent(session.ID, env.InstanceID, env.Method, reportedAt)
	event.Value = env.Value
	event.Rate = env.Rate

	if len(env.Labels) > 0 {
		raw, err := json.Marshal(env.Labels)
		if err != nil {
			return nil, fmt.Errorf("failed to encode labels: %w", err)
		}
		labels := string(raw)
		event.Labels = &labels
	}
	if len(env.Metadata) > 0 {
		metadata := string(env.Metadata)
		event.Metadata = &metadata
	}

	if err := s.repos.Events.Create(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

// recordAsset extracts the asset identity from a metadata payload and
// stamps it onto the session. Payloads that do not decode are ignored,
// the raw JSON is already stored on the event.
func (s *Service) recordAsset(ctx context.Context, session *models.Session, raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}

	var metadata comscore.ContentMetadata
	if err := json.Unmarshal(raw, &metadata); err != nil {
		logger.Log.Warn().
			Err(err).
			Str("session_id", session.ID.String()).
			Msg("Unparseable metadata payload, skipping asset extraction")
		return
	}

	var assetID, contentType *string
	if metadata.UniqueID != "" {
		assetID = &metadata.UniqueID
	}
	kind := "vod"
	if metadata.LengthMs == 0 || math.IsNaN(metadata.LengthMs) {
		kind = "live"
	}
	contentType = &kind

	if err := s.repos.Sessions.UpdateAsset(ctx, session.ID, assetID, contentType); err != nil {
		logger.Log.Error().
			Err(err).
			Str("session_id", session.ID.String()).
			Msg("Failed to update session asset")
	}
}

// parseSessionID validates and parses a session UUID from its string form
func parseSessionID(id string) (uuid.UUID, error) {
	sessionID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrInvalidSessionID, id)
	}
	return sessionID, nil
}

// GetSession retrieves a single session by ID
func (s *Service) GetSession(ctx context.Context, id string) (*models.Session, error) {
	sessionID, err := parseSessionID(id)
	if err != nil {
		return nil, err
	}

	session, err := s.repos.Sessions.GetByID(ctx, sessionID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// ListSessions retrieves recent sessions, optionally filtered by instance
func (s *Service) ListSessions(ctx context.Context, instanceID *int64, limit int) ([]*models.Session, error) {
	return s.repos.Sessions.List(ctx, instanceID, limit)
}

// SessionEvents retrieves all events recorded for a session in report order
func (s *Service) SessionEvents(ctx context.Context, id string) ([]*models.Event, error) {
	sessionID, err := parseSessionID(id)
	if err != nil {
		return nil, err
	}

	if _, err := s.repos.Sessions.GetByID(ctx, sessionID); err != nil {
		if db.IsNotFound(err) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return s.repos.Events.ListBySession(ctx, sessionID)
}

// SessionSummary aggregates per-method event counts for a session
func (s *Service) SessionSummary(ctx context.Context, id string) (*models.Session, map[string]int64, error) {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	counts, err := s.repos.Events.CountBySessionMethod(ctx, session.ID)
	if err != nil {
		return nil, nil, err
	}
	return session, counts, nil
}
