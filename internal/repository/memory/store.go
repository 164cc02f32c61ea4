// Package memory is an in-process implementation of the repository
// interfaces. The API falls back to it when no Postgres DSN is configured,
// and service and handler tests run against it.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/response-desk/internal/domain"
	"github.com/spec-kit/response-desk/internal/repository"
)

// Store holds every entity behind one mutex.
type Store struct {
	mu  sync.Mutex
	now func() time.Time

	users       map[string]*domain.User
	tokens      map[string]*domain.TwoFactorToken
	tickets     map[string]*domain.Ticket
	attachments map[string][]domain.Attachment
	notes       map[string][]domain.Note
}

// New returns an empty store using the wall clock.
func New() *Store {
	return &Store{
		now:         time.Now,
		users:       make(map[string]*domain.User),
		tokens:      make(map[string]*domain.TwoFactorToken),
		tickets:     make(map[string]*domain.Ticket),
		attachments: make(map[string][]domain.Attachment),
		notes:       make(map[string][]domain.Note),
	}
}

// SetClock replaces the timestamp source.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Users returns the user repository view.
func (s *Store) Users() repository.UserRepository { return &userRepo{s} }

// TwoFactorTokens returns the token repository view.
func (s *Store) TwoFactorTokens() repository.TwoFactorTokenRepository { return &tokenRepo{s} }

// Tickets returns the ticket repository view.
func (s *Store) Tickets() repository.TicketRepository { return &ticketRepo{s} }

// Attachments returns the attachment repository view.
func (s *Store) Attachments() repository.AttachmentRepository { return &attachmentRepo{s} }

// Notes returns the note repository view.
func (s *Store) Notes() repository.NoteRepository { return &noteRepo{s} }

func (s *Store) stamp() time.Time {
	return s.now().UTC()
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTicket(t *domain.Ticket) *domain.Ticket {
	c := *t
	c.FinalSubject = cloneString(t.FinalSubject)
	c.FinalResponse = cloneString(t.FinalResponse)
	c.RespondedAt = cloneTime(t.RespondedAt)
	c.Attachments = nil
	return &c
}

func matches(t *domain.Ticket, filter repository.TicketFilter) bool {
	if filter.Status != nil && t.Status != *filter.Status {
		return false
	}
	if filter.Category != nil && t.Category != *filter.Category {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(filter.Search))
	if term == "" {
		return true
	}
	for _, field := range []string{t.FirstName, t.LastName, t.Email, t.Subject} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// sortedTickets returns copies of the tickets matching filter, newest first.
func (s *Store) sortedTickets(filter repository.TicketFilter) []*domain.Ticket {
	var out []*domain.Ticket
	for _, t := range s.tickets {
		if matches(t, filter) {
			out = append(out, cloneTicket(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func newID() string {
	return uuid.NewString()
}
