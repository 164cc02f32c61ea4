package memory

import (
	"context"
	"sort"
	"time"

	"github.com/spec-kit/response-desk/internal/domain"
	"github.com/spec-kit/response-desk/internal/repository"
)

type ticketRepo struct{ s *Store }

func (r *ticketRepo) CreateWithAttachments(_ context.Context, ticket *domain.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.stamp()
	ticket.ID = newID()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now

	attachments := make([]domain.Attachment, len(ticket.Attachments))
	for i := range ticket.Attachments {
		att := &ticket.Attachments[i]
		att.ID = newID()
		att.TicketID = ticket.ID
		att.CreatedAt = now
		attachments[i] = *att
	}
	r.s.tickets[ticket.ID] = cloneTicket(ticket)
	r.s.attachments[ticket.ID] = attachments
	return nil
}

func (r *ticketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ticket, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneTicket(ticket), nil
}

func (r *ticketRepo) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	all := r.s.sortedTickets(filter)
	total := len(all)

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	items := make([]domain.Ticket, 0, end-offset)
	for _, t := range all[offset:end] {
		items = append(items, *t)
	}
	return items, total, nil
}

func (r *ticketRepo) Stream(ctx context.Context, filter repository.TicketFilter, fn func(*domain.Ticket) error) error {
	r.s.mu.Lock()
	all := r.s.sortedTickets(filter)
	r.s.mu.Unlock()

	for _, t := range all {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
	}
	return nil
}

func (r *ticketRepo) Mutate(_ context.Context, id string, fn repository.MutateFunc) (*domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	working := cloneTicket(stored)
	if err := fn(working); err != nil {
		return nil, err
	}

	stored.Status = working.Status
	stored.FinalSubject = cloneString(working.FinalSubject)
	stored.FinalResponse = cloneString(working.FinalResponse)
	stored.RespondedAt = cloneTime(working.RespondedAt)
	stored.UpdatedAt = r.s.stamp()
	return cloneTicket(stored), nil
}

func (r *ticketRepo) BulkTransition(_ context.Context, ids []string, from []domain.TicketStatus, to domain.TicketStatus) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	allowed := make(map[domain.TicketStatus]bool, len(from))
	for _, s := range from {
		allowed[s] = true
	}

	now := r.s.stamp()
	seen := make(map[string]bool, len(ids))
	changed := 0
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		ticket, ok := r.s.tickets[id]
		if !ok || !allowed[ticket.Status] {
			continue
		}
		ticket.Status = to
		ticket.UpdatedAt = now
		changed++
	}
	return changed, nil
}

func (r *ticketRepo) CountByStatus(_ context.Context, category *domain.TicketCategory) (map[domain.TicketStatus]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	counts := make(map[domain.TicketStatus]int)
	for _, t := range r.s.tickets {
		if category != nil && t.Category != *category {
			continue
		}
		counts[t.Status]++
	}
	return counts, nil
}

func (r *ticketRepo) CreatedSince(_ context.Context, since time.Time) ([]repository.TicketTiming, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var out []repository.TicketTiming
	for _, t := range r.s.tickets {
		if t.CreatedAt.Before(since) {
			continue
		}
		out = append(out, repository.TicketTiming{CreatedAt: t.CreatedAt, RespondedAt: cloneTime(t.RespondedAt)})
	}
	return out, nil
}

func (r *ticketRepo) Recent(_ context.Context, limit int) ([]domain.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if limit <= 0 {
		limit = 10
	}
	all := make([]*domain.Ticket, 0, len(r.s.tickets))
	for _, t := range r.s.tickets {
		all = append(all, cloneTicket(t))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UpdatedAt.After(all[j].UpdatedAt) })
	if len(all) > limit {
		all = all[:limit]
	}
	out := make([]domain.Ticket, len(all))
	for i, t := range all {
		out[i] = *t
	}
	return out, nil
}

type attachmentRepo struct{ s *Store }

func (r *attachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return append([]domain.Attachment(nil), r.s.attachments[ticketID]...), nil
}

type noteRepo struct{ s *Store }

func (r *noteRepo) Create(_ context.Context, note *domain.Note) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tickets[note.TicketID]; !ok {
		return repository.ErrNotFound
	}
	note.ID = newID()
	note.CreatedAt = r.s.stamp()
	r.s.notes[note.TicketID] = append(r.s.notes[note.TicketID], *note)
	return nil
}

func (r *noteRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Note, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	src := r.s.notes[ticketID]
	out := make([]domain.Note, len(src))
	for i := range src {
		out[len(src)-1-i] = src[i]
	}
	return out, nil
}
