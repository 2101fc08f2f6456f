package models

import (
	"time"

	"github.com/google/uuid"
)

// Session represents one tracked playback session reported by a plugin
// instance. A new row is opened for every createPlaybackSession call and
// closed by the matching notifyEnd.
type Session struct {
	ID              uuid.UUID  `json:"id" gorm:"type:text;primaryKey;column:id"`
	InstanceID      int64      `json:"instance_id" gorm:"type:integer;not null;index;column:instance_id"`
	PublisherID     string     `json:"publisher_id" gorm:"type:text;not null;column:publisher_id"`
	ApplicationName string     `json:"application_name" gorm:"type:text;not null;column:application_name"`
	AssetID         *string    `json:"asset_id,omitempty" gorm:"type:text;column:asset_id"`
	ContentType     *string    `json:"content_type,omitempty" gorm:"type:text;column:content_type"`
	StartedAt       time.Time  `json:"started_at" gorm:"type:datetime;not null;column:started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty" gorm:"type:datetime;column:ended_at"`
	CreatedAt       time.Time  `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
	UpdatedAt       time.Time  `json:"updated_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:updated_at"`
}

// NewSession creates a new Session with generated UUID and timestamps
func NewSession(instanceID int64, publisherID, applicationName string) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:              uuid.New(),
		InstanceID:      instanceID,
		PublisherID:     publisherID,
		ApplicationName: applicationName,
		StartedAt:       now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Ended reports whether the session has received its notifyEnd event
func (s *Session) Ended() bool {
	return s.EndedAt != nil
}
