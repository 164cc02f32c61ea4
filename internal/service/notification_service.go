package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/response-desk/internal/events"
)

// NotificationService turns domain events into structured audit log lines.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketSent, n.handleTicketSent)
	n.dispatcher.Subscribe(events.EventTicketsArchived, n.handleTicketsArchived)
	n.dispatcher.Subscribe(events.EventNoteAdded, n.handleNoteAdded)
	n.dispatcher.Subscribe(events.EventUserRoleChanged, n.handleUserRoleChanged)
	n.dispatcher.Subscribe(events.EventTwoFactorChanged, n.handleTwoFactorChanged)
}

func (n *NotificationService) handleTicketCreated(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.TicketCreatedPayload)
	n.logger.Info("TicketCreated", append(n.base(event),
		zap.String("category", string(payload.Category)),
		zap.String("status", string(payload.Status)),
		zap.Int("attachments", payload.Attachments),
		zap.String("execution_id", payload.ExecutionID))...)
	return nil
}

func (n *NotificationService) handleTicketStatusChanged(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.TicketStatusChangedPayload)
	n.logger.Info("TicketStatusChanged", append(n.base(event),
		zap.String("old_status", string(payload.OldStatus)),
		zap.String("new_status", string(payload.NewStatus)))...)
	return nil
}

func (n *NotificationService) handleTicketSent(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.TicketSentPayload)
	n.logger.Info("TicketSent", append(n.base(event),
		zap.String("idempotency_key", payload.IdempotencyKey))...)
	return nil
}

func (n *NotificationService) handleTicketsArchived(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.TicketsArchivedPayload)
	n.logger.Info("TicketsArchived", append(n.base(event),
		zap.Int("requested", payload.Requested),
		zap.Int("updated", payload.Updated))...)
	return nil
}

func (n *NotificationService) handleNoteAdded(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.NoteAddedPayload)
	n.logger.Info("NoteAdded", append(n.base(event),
		zap.String("note_id", payload.NoteID),
		zap.Int("length", payload.Length))...)
	return nil
}

func (n *NotificationService) handleUserRoleChanged(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.UserRoleChangedPayload)
	n.logger.Info("UserRoleChanged", append(n.base(event),
		zap.String("old_role", string(payload.OldRole)),
		zap.String("new_role", string(payload.NewRole)))...)
	return nil
}

func (n *NotificationService) handleTwoFactorChanged(_ context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.TwoFactorChangedPayload)
	n.logger.Info("TwoFactorChanged", append(n.base(event),
		zap.Bool("enabled", payload.Enabled))...)
	return nil
}

func (n *NotificationService) base(event events.Event) []zap.Field {
	return []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("subject_id", event.SubjectID),
		zap.String("actor_id", event.Actor.UserID),
		zap.String("actor_source", event.Actor.Source),
	}
}
