package entities

import (
	"time"

	"github.com/google/uuid"
)

// EventChangeType is the kind of change an ingestion run made
type EventChangeType string

const (
	EventChangeCreated    EventChangeType = "created"
	EventChangeUpdated    EventChangeType = "updated"
	EventChangeCancelled  EventChangeType = "cancelled"
	EventChangeBulkImport EventChangeType = "bulk_import"
)

// EventChange announces that stored events changed
type EventChange struct {
	ID        string          `json:"id"`
	EventID   string          `json:"event_id,omitempty"`
	Type      EventChangeType `json:"type"`
	Source    string          `json:"source"`
	Count     int             `json:"count,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEventChange stamps a change with a fresh id
func NewEventChange(eventID string, changeType EventChangeType, source string) *EventChange {
	return &EventChange{
		ID:        uuid.New().String(),
		EventID:   eventID,
		Type:      changeType,
		Source:    source,
		Timestamp: time.Now().UTC(),
	}
}
