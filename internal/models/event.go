package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification method names as reported by plugin connectors.
const (
	MethodCreatePlaybackSession    = "createPlaybackSession"
	MethodSetMetadata              = "setMetadata"
	MethodUpdate                   = "update"
	MethodNotifyPlay               = "notifyPlay"
	MethodNotifyPause              = "notifyPause"
	MethodNotifyEnd                = "notifyEnd"
	MethodNotifyBufferStart        = "notifyBufferStart"
	MethodNotifyBufferStop         = "notifyBufferStop"
	MethodNotifySeekStart          = "notifySeekStart"
	MethodStartFromPosition        = "startFromPosition"
	MethodStartFromDvrWindowOffset = "startFromDvrWindowOffset"
	MethodSetDvrWindowLength       = "setDvrWindowLength"
	MethodNotifyChangePlaybackRate = "notifyChangePlaybackRate"
	MethodSetPersistentLabels      = "setPersistentLabels"
	MethodDestroy                  = "destroy"
)

// Event represents a single connector notification persisted for a session.
// Labels and Metadata hold the raw JSON payloads from the reporting plugin.
type Event struct {
	ID         uuid.UUID `json:"id" gorm:"type:text;primaryKey;column:id"`
	SessionID  uuid.UUID `json:"session_id" gorm:"type:text;not null;index;column:session_id"`
	InstanceID int64     `json:"instance_id" gorm:"type:integer;not null;column:instance_id"`
	Method     string    `json:"method" gorm:"type:text;not null;index;column:method"`
	Value      *int64    `json:"value,omitempty" gorm:"type:integer;column:value"`
	Rate       *float64  `json:"rate,omitempty" gorm:"type:real;column:rate"`
	Labels     *string   `json:"labels,omitempty" gorm:"type:text;column:labels"`
	Metadata   *string   `json:"metadata,omitempty" gorm:"type:text;column:metadata"`
	ReportedAt time.Time `json:"reported_at" gorm:"type:datetime;not null;column:reported_at"`
	CreatedAt  time.Time `json:"created_at" gorm:"type:datetime;default:CURRENT_TIMESTAMP;column:created_at"`
}

// NewEvent creates a new Event with generated UUID and timestamps
func NewEvent(sessionID uuid.UUID, instanceID int64, method string, reportedAt time.Time) *Event {
	return &Event{
		ID:         uuid.New(),
		SessionID:  sessionID,
		InstanceID: instanceID,
		Method:     method,
		ReportedAt: reportedAt.UTC(),
		CreatedAt:  time.Now().UTC(),
	}
}
