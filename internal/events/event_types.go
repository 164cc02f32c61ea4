package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/response-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketSent          EventType = "ticket_sent"
	EventTicketsArchived     EventType = "tickets_archived"
	EventNoteAdded           EventType = "note_added"
	EventUserRoleChanged     EventType = "user_role_changed"
	EventTwoFactorChanged    EventType = "two_factor_changed"
)

// Actor identifies who triggered an event. UserID is empty for the
// intake webhook.
type Actor struct {
	UserID string `json:"user_id,omitempty"`
	Source string `json:"source"`
}

// Sources of an Actor.
const (
	SourceOperator = "operator"
	SourceWebhook  = "webhook"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// New builds an event with a fresh id and the current time.
func New(eventType EventType, subjectID string, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		SubjectID: subjectID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Category    domain.TicketCategory `json:"category"`
	Status      domain.TicketStatus   `json:"status"`
	Attachments int                   `json:"attachments"`
	ExecutionID string                `json:"execution_id,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketSentPayload payload. The body itself is not carried.
type TicketSentPayload struct {
	Subject        string `json:"subject"`
	IdempotencyKey string `json:"idempotency_key"`
}

// TicketsArchivedPayload payload.
type TicketsArchivedPayload struct {
	Requested int `json:"requested"`
	Updated   int `json:"updated"`
}

// NoteAddedPayload payload.
type NoteAddedPayload struct {
	NoteID   string `json:"note_id"`
	TicketID string `json:"ticket_id"`
	Length   int    `json:"length"`
}

// UserRoleChangedPayload payload.
type UserRoleChangedPayload struct {
	OldRole domain.Role `json:"old_role"`
	NewRole domain.Role `json:"new_role"`
}

// TwoFactorChangedPayload payload.
type TwoFactorChangedPayload struct {
	Enabled bool `json:"enabled"`
}
