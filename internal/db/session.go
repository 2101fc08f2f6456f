package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mkettner/comscore-go/internal/models"
)

// SessionRepository handles database operations for playback sessions
type SessionRepository struct {
	db *DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session into the database
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	result := r.db.WithContext(ctx).Create(session)
	if result.Error != nil {
		return fmt.Errorf("failed to create session: %w", MapGormError(result.Error))
	}
	return nil
}

// GetByID retrieves a session by its UUID
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	var session models.Session
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&session)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &session, nil
}

// GetOpenByInstance retrieves the most recent session for a plugin instance
// that has not yet received its notifyEnd
func (r *SessionRepository) GetOpenByInstance(ctx context.Context, instanceID int64) (*models.Session, error) {
	var session models.Session
	result := r.db.WithContext(ctx).
		Where("instance_id = ? AND ended_at IS NULL", instanceID).
		Order("started_at DESC").
		First(&session)
	if result.Error != nil {
		return nil, MapGormError(result.Error)
	}
	return &session, nil
}

// List retrieves sessions ordered by start time (newest first).
// instanceID filters by plugin instance when non-nil.
func (r *SessionRepository) List(ctx context.Context, instanceID *int64, limit int) ([]*models.Session, error) {
	query := r.db.WithContext(ctx).Order("started_at DESC")
	if instanceID != nil {
		query = query.Where("instance_id = ?", *instanceID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var sessions []*models.Session
	result := query.Find(&sessions)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", MapGormError(result.Error))
	}
	return sessions, nil
}

// CountOpen returns the number of sessions that have not yet received their
// notifyEnd.
func (r *SessionRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	result := r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("ended_at IS NULL").
		Count(&count)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to count open sessions: %w", MapGormError(result.Error))
	}
	return count, nil
}

// End marks a session as ended at the given time
func (r *SessionRepository) End(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	endedAt = endedAt.UTC()
	result := r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ? AND ended_at IS NULL", id.String()).
		Updates(map[string]interface{}{
			"ended_at":   endedAt,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to end session: %w", MapGormError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAsset records the asset identifier and content type for a session
func (r *SessionRepository) UpdateAsset(ctx context.Context, id uuid.UUID, assetID, contentType *string) error {
	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}
	if assetID != nil {
		updates["asset_id"] = *assetID
	}
	if contentType != nil {
		updates["content_type"] = *contentType
	}

	result := r.db.WithContext(ctx).
		Model(&models.Session{}).
		Where("id = ?", id.String()).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update session asset: %w", MapGormError(result.Error))
	}
	return nil
}
