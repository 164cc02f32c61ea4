package memory

import (
	"context"
	"time"

	"github.com/spec-kit/response-desk/internal/domain"
	"github.com/spec-kit/response-desk/internal/repository"
)

type tokenRepo struct{ s *Store }

func (r *tokenRepo) Replace(_ context.Context, token *domain.TwoFactorToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[token.UserID]; !ok {
		return repository.ErrNotFound
	}
	for _, existing := range r.s.tokens {
		if existing.UserID == token.UserID {
			existing.Used = true
		}
	}
	token.ID = newID()
	token.Used = false
	token.CreatedAt = r.s.stamp()
	stored := *token
	r.s.tokens[token.ID] = &stored
	return nil
}

func (r *tokenRepo) FindActive(_ context.Context, userID string, now time.Time) (*domain.TwoFactorToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var newest *domain.TwoFactorToken
	for _, token := range r.s.tokens {
		if token.UserID != userID || !token.Usable(now) {
			continue
		}
		if newest == nil || token.CreatedAt.After(newest.CreatedAt) {
			newest = token
		}
	}
	if newest == nil {
		return nil, repository.ErrNotFound
	}
	out := *newest
	return &out, nil
}

func (r *tokenRepo) Consume(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	token, ok := r.s.tokens[id]
	if !ok || token.Used {
		return false, nil
	}
	token.Used = true
	return true, nil
}
