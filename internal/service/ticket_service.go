package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/response-desk/internal/auth"
	"github.com/spec-kit/response-desk/internal/dispatch"
	"github.com/spec-kit/response-desk/internal/domain"
	"github.com/spec-kit/response-desk/internal/events"
	"github.com/spec-kit/response-desk/internal/repository"
	apperrors "github.com/spec-kit/response-desk/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	// BulkActionArchive is the only supported bulk action.
	BulkActionArchive = "archive"
)

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets     repository.TicketRepository
	attachments repository.AttachmentRepository
	notes       repository.NoteRepository
	sender      dispatch.Sender
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	now         func() time.Time
}

// TicketDependencies bundles collaborators for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	AttachmentRepo repository.AttachmentRepository
	NoteRepo       repository.NoteRepository
	Sender         dispatch.Sender
	Dispatcher     events.Dispatcher
	Logger         *zap.Logger
}

// IntakeInput is a submission delivered by the intake webhook.
type IntakeInput struct {
	Category        string
	FirstName       string
	LastName        string
	Email           string
	Location        string
	Subject         string
	Message         string
	PhoneNumber     string
	PropertyName    string
	PropertyAddress string
	Country         string
	LinkedinURL     string
	Position        string
	AIDraftSubject  string
	AIDraftResponse string
	ExecutionID     string
	Attachments     []AttachmentInput
}

// AttachmentInput describes one file reference in an intake payload.
type AttachmentInput struct {
	FileName string
	FileType string
	FileURL  string
	FileSize *int64
}

// TicketQuery filters listings and exports. Status and Category are raw
// query values; empty means no filter.
type TicketQuery struct {
	Status   string
	Category string
	Search   string
	Page     int
	Limit    int
}

// TicketPage is one page of a listing.
type TicketPage struct {
	Items      []domain.Ticket
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// TicketUpdateInput edits final fields and optionally moves status. Nil
// fields are left untouched.
type TicketUpdateInput struct {
	FinalSubject  *string
	FinalResponse *string
	Status        *string
}

// TicketStats counts tickets per status.
type TicketStats struct {
	Total    int
	ByStatus map[domain.TicketStatus]int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		attachments: deps.AttachmentRepo,
		notes:       deps.NoteRepo,
		sender:      deps.Sender,
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		now:         time.Now,
	}
}

// Intake stores a webhook submission with its attachments. Tickets that
// arrive with an AI draft start in pending_review.
func (s *TicketService) Intake(ctx context.Context, input IntakeInput) (*domain.Ticket, error) {
	category := domain.CategoryContactUs
	if input.Category != "" {
		parsed, ok := domain.ParseTicketCategory(input.Category)
		if !ok {
			return nil, apperrors.NewFieldErrors(map[string]string{"category": "Invalid category"})
		}
		category = parsed
	}

	ticket := &domain.Ticket{
		Category:        category,
		FirstName:       strings.TrimSpace(input.FirstName),
		LastName:        strings.TrimSpace(input.LastName),
		Email:           strings.TrimSpace(input.Email),
		Location:        input.Location,
		PhoneNumber:     input.PhoneNumber,
		PropertyName:    input.PropertyName,
		PropertyAddress: input.PropertyAddress,
		Country:         input.Country,
		LinkedinURL:     input.LinkedinURL,
		Position:        input.Position,
		Subject:         input.Subject,
		Message:         input.Message,
		AIDraftSubject:  input.AIDraftSubject,
		AIDraftResponse: input.AIDraftResponse,
		Status:          domain.InitialStatus(input.AIDraftSubject, input.AIDraftResponse),
		ExecutionID:     input.ExecutionID,
	}
	for _, att := range input.Attachments {
		ticket.Attachments = append(ticket.Attachments, domain.Attachment{
			FileName: att.FileName,
			FileType: att.FileType,
			FileURL:  att.FileURL,
			FileSize: att.FileSize,
		})
	}

	if err := s.tickets.CreateWithAttachments(ctx, ticket); err != nil {
		return nil, err
	}
	s.publish(ctx, events.New(events.EventTicketCreated, ticket.ID,
		events.Actor{Source: events.SourceWebhook},
		events.TicketCreatedPayload{
			Category:    ticket.Category,
			Status:      ticket.Status,
			Attachments: len(ticket.Attachments),
			ExecutionID: ticket.ExecutionID,
		}))
	return ticket, nil
}

// List returns one page of tickets, newest first. Limits above the
// maximum are clamped.
func (s *TicketService) List(ctx context.Context, query TicketQuery) (*TicketPage, error) {
	filter, err := buildFilter(query)
	if err != nil {
		return nil, err
	}

	page, limit := query.Page, query.Limit
	fields := map[string]string{}
	if page == 0 {
		page = 1
	} else if page < 0 {
		fields["page"] = "Page must be a positive integer"
	}
	if limit == 0 {
		limit = defaultPageSize
	} else if limit < 0 {
		fields["limit"] = "Limit must be a positive integer"
	}
	if len(fields) > 0 {
		return nil, apperrors.NewFieldErrors(fields)
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if page-1 > math.MaxInt/limit {
		return nil, apperrors.NewFieldErrors(map[string]string{"page": "Page is too large"})
	}

	filter.Limit = limit
	filter.Offset = (page - 1) * limit
	items, total, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &TicketPage{
		Items:      items,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// Get returns a ticket with its attachments.
func (s *TicketService) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err, "ticket")
	}
	attachments, err := s.attachments.ListByTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	ticket.Attachments = attachments
	return ticket, nil
}

// Update edits final fields and applies a status change. The transition
// is checked against the status read under the row lock.
func (s *TicketService) Update(ctx context.Context, actor auth.Session, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	var next *domain.TicketStatus
	if input.Status != nil {
		parsed, ok := domain.ParseTicketStatus(*input.Status)
		if !ok {
			return nil, apperrors.NewFieldErrors(map[string]string{"status": "Invalid status"})
		}
		next = &parsed
	}

	var previous domain.TicketStatus
	updated, err := s.tickets.Mutate(ctx, id, func(t *domain.Ticket) error {
		previous = t.Status
		if next != nil {
			if !domain.CanTransition(t.Status, *next) {
				return transitionError(t.Status, *next)
			}
			t.Status = *next
			if domain.MarksResponded(*next) && t.RespondedAt == nil {
				now := s.now().UTC()
				t.RespondedAt = &now
			}
		}
		if input.FinalSubject != nil {
			v := *input.FinalSubject
			t.FinalSubject = &v
		}
		if input.FinalResponse != nil {
			v := *input.FinalResponse
			t.FinalResponse = &v
		}
		return nil
	})
	if err != nil {
		return nil, mapRepoErr(err, "ticket")
	}

	if next != nil {
		s.publish(ctx, events.New(events.EventTicketStatusChanged, id,
			events.Actor{UserID: actor.UserID, Source: events.SourceOperator},
			events.TicketStatusChangedPayload{OldStatus: previous, NewStatus: updated.Status}))
	}
	return updated, nil
}

// ApproveAndSend delivers the effective response through the dispatch
// webhook and, only after it accepts, marks the ticket sent. The row
// stays locked across the call so a ticket is dispatched at most once
// per approval.
func (s *TicketService) ApproveAndSend(ctx context.Context, actor auth.Session, id string) (*domain.Ticket, error) {
	var (
		dispatched bool
		key        string
		subject    string
	)
	updated, err := s.tickets.Mutate(ctx, id, func(t *domain.Ticket) error {
		if t.Status != domain.TicketStatusPendingReview {
			return apperrors.NewUnprocessable("INVALID_TRANSITION",
				fmt.Sprintf("Cannot approve ticket with status %q. Must be %q.", t.Status, domain.TicketStatusPendingReview),
				map[string]any{"from": t.Status, "to": domain.TicketStatusSent})
		}
		subject = t.EffectiveSubject()
		body := t.EffectiveResponse()
		if body == "" {
			return apperrors.NewUnprocessable("EMPTY_RESPONSE", "No response to send. Edit the response first.", nil)
		}

		key = t.ID + ":" + strconv.FormatInt(t.UpdatedAt.UnixNano(), 10)
		msg := dispatch.Message{
			TicketID:  t.ID,
			To:        t.Email,
			FirstName: t.FirstName,
			LastName:  t.LastName,
			Subject:   subject,
			Body:      body,
		}
		if err := s.send(ctx, msg, key); err != nil {
			return err
		}
		dispatched = true

		t.Status = domain.TicketStatusSent
		t.FinalSubject = &subject
		t.FinalResponse = &body
		if t.RespondedAt == nil {
			now := s.now().UTC()
			t.RespondedAt = &now
		}
		return nil
	})
	if err != nil {
		if dispatched {
			s.logger.Error("response dispatched but ticket not updated",
				zap.String("ticket_id", id),
				zap.String("idempotency_key", key),
				zap.Error(err))
			return nil, apperrors.NewInternalError(err)
		}
		return nil, mapRepoErr(err, "ticket")
	}

	s.publish(ctx, events.New(events.EventTicketSent, id,
		events.Actor{UserID: actor.UserID, Source: events.SourceOperator},
		events.TicketSentPayload{Subject: subject, IdempotencyKey: key}))
	return updated, nil
}

func (s *TicketService) send(ctx context.Context, msg dispatch.Message, key string) error {
	if s.sender == nil {
		return dispatchNotConfigured()
	}
	err := s.sender.Send(ctx, msg, key)
	if err == nil {
		return nil
	}
	if errors.Is(err, dispatch.ErrNotConfigured) {
		return dispatchNotConfigured()
	}
	var dispatchErr *dispatch.Error
	if errors.As(err, &dispatchErr) && dispatchErr.StatusCode != 0 {
		return &apperrors.DomainError{
			Code:       "UPSTREAM_FAILED",
			Message:    "Failed to send via dispatch webhook",
			HTTPStatus: http.StatusBadGateway,
			Details:    map[string]any{"upstreamStatus": dispatchErr.StatusCode},
			Err:        err,
		}
	}
	return apperrors.NewBadGateway("Failed to reach dispatch webhook", err)
}

func dispatchNotConfigured() error {
	return apperrors.NewDomainError("DISPATCH_NOT_CONFIGURED", "Dispatch webhook is not configured", http.StatusServiceUnavailable, nil)
}

// BulkUpdate archives the listed tickets that are new or sent and
// reports how many changed. Other tickets are skipped silently.
func (s *TicketService) BulkUpdate(ctx context.Context, actor auth.Session, ids []string, action string) (int, error) {
	if action != BulkActionArchive {
		return 0, apperrors.NewFieldErrors(map[string]string{"action": "Unknown action"})
	}
	if len(ids) == 0 {
		return 0, apperrors.NewFieldErrors(map[string]string{"ids": "At least one ticket ID is required"})
	}

	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	updated, err := s.tickets.BulkTransition(ctx, valid, domain.BulkArchivable, domain.TicketStatusArchived)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, events.New(events.EventTicketsArchived, "",
		events.Actor{UserID: actor.UserID, Source: events.SourceOperator},
		events.TicketsArchivedPayload{Requested: len(ids), Updated: updated}))
	return updated, nil
}

// Stats counts tickets per status, optionally within one category.
// Every status is present in the result.
func (s *TicketService) Stats(ctx context.Context, category string) (*TicketStats, error) {
	var cat *domain.TicketCategory
	if category != "" {
		parsed, ok := parseCategory(category)
		if !ok {
			return nil, apperrors.NewFieldErrors(map[string]string{"category": "Invalid category"})
		}
		cat = &parsed
	}
	counts, err := s.tickets.CountByStatus(ctx, cat)
	if err != nil {
		return nil, err
	}
	stats := &TicketStats{ByStatus: make(map[domain.TicketStatus]int, len(domain.TicketStatuses))}
	for _, status := range domain.TicketStatuses {
		stats.ByStatus[status] = counts[status]
		stats.Total += counts[status]
	}
	return stats, nil
}

// ListNotes returns a ticket's notes, newest first.
func (s *TicketService) ListNotes(ctx context.Context, ticketID string) ([]domain.Note, error) {
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, mapRepoErr(err, "ticket")
	}
	return s.notes.ListByTicket(ctx, ticketID)
}

// AddNote records an internal note with the author's current name.
func (s *TicketService) AddNote(ctx context.Context, actor auth.Session, ticketID, content string) (*domain.Note, error) {
	content = strings.TrimSpace(content)
	switch {
	case content == "":
		return nil, apperrors.NewFieldErrors(map[string]string{"content": "Note content is required"})
	case utf8.RuneCountInString(content) > domain.NoteMaxLength:
		return nil, apperrors.NewFieldErrors(map[string]string{"content": "Note must be at most 2000 characters"})
	}
	if _, err := s.tickets.GetByID(ctx, ticketID); err != nil {
		return nil, mapRepoErr(err, "ticket")
	}

	note := &domain.Note{
		TicketID:   ticketID,
		AuthorID:   actor.UserID,
		AuthorName: actor.DisplayName(),
		Content:    content,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, mapRepoErr(err, "ticket")
	}
	s.publish(ctx, events.New(events.EventNoteAdded, ticketID,
		events.Actor{UserID: actor.UserID, Source: events.SourceOperator},
		events.NoteAddedPayload{NoteID: note.ID, TicketID: ticketID, Length: utf8.RuneCountInString(content)}))
	return note, nil
}

func transitionError(from, to domain.TicketStatus) error {
	return apperrors.NewUnprocessable("INVALID_TRANSITION",
		fmt.Sprintf("Cannot transition from %q to %q", from, to),
		map[string]any{"from": from, "to": to, "allowed": domain.AllowedTransitions(from)})
}

// parseCategory accepts either the stored value or the URL slug.
func parseCategory(v string) (domain.TicketCategory, bool) {
	if c, ok := domain.ParseTicketCategory(v); ok {
		return c, true
	}
	return domain.CategoryBySlug(v)
}

func buildFilter(query TicketQuery) (repository.TicketFilter, error) {
	var filter repository.TicketFilter
	fields := map[string]string{}
	if query.Status != "" {
		status, ok := domain.ParseTicketStatus(query.Status)
		if ok {
			filter.Status = &status
		} else {
			fields["status"] = "Invalid status"
		}
	}
	if query.Category != "" {
		category, ok := parseCategory(query.Category)
		if ok {
			filter.Category = &category
		} else {
			fields["category"] = "Invalid category"
		}
	}
	if len(fields) > 0 {
		return filter, apperrors.NewFieldErrors(fields)
	}
	filter.Search = strings.TrimSpace(query.Search)
	return filter, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Publish(ctx, event)
}
