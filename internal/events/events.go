package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/paperlords/admin-service/internal/models"
)

const (
	EventSource  = "paper-admin-service"
	EventVersion = "1.0"

	DefaultTopic = "papers.events"
)

// Paper event types
const (
	PaperCreated = "paper.created"
	PaperUpdated = "paper.updated"
	PaperDeleted = "paper.deleted"
)

// Event is the envelope published for every catalog mutation
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// PaperEventData is the payload of paper.* events
type PaperEventData struct {
	PaperID string        `json:"paperId"`
	AdminID string        `json:"adminId"`
	Paper   *models.Paper `json:"paper,omitempty"`
}

// NewPaperEvent builds a paper.* envelope
func NewPaperEvent(eventType string, paper *models.Paper, adminID string) *Event {
	data := PaperEventData{AdminID: adminID, Paper: paper}
	if paper != nil {
		data.PaperID = paper.ID
	}
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}
