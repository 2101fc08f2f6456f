package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkettner/comscore-go/internal/models"
)

// EventRepository handles database operations for session events
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event into the database
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	result := r.db.WithContext(ctx).Create(event)
	if result.Error != nil {
		return fmt.Errorf("failed to create event: %w", MapGormError(result.Error))
	}
	return nil
}

// CreateTx inserts a new event within an existing transaction
func (r *EventRepository) CreateTx(tx *gorm.DB, event *models.Event) error {
	if err := tx.Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", MapGormError(err))
	}
	return nil
}

// ListBySession retrieves all events for a session in report order
func (r *EventRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.Event, error) {
	var events []*models.Event
	result := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID.String()).
		Order("reported_at ASC, created_at ASC").
		Find(&events)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list events: %w", MapGormError(result.Error))
	}
	return events, nil
}

// CountBySessionMethod returns per-method event counts for a session
func (r *EventRepository) CountBySessionMethod(ctx context.Context, sessionID uuid.UUID) (map[string]int64, error) {
	type row struct {
		Method string
		Total  int64
	}
	var rows []row
	result := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Select("method, COUNT(*) as total").
		Where("session_id = ?", sessionID.String()).
		Group("method").
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to count events: %w", MapGormError(result.Error))
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Method] = row.Total
	}
	return counts, nil
}
