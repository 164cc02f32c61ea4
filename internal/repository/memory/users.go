package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/spec-kit/response-desk/internal/domain"
	"github.com/spec-kit/response-desk/internal/repository"
)

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	now := r.s.stamp()
	user.ID = newID()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	r.s.users[user.ID] = &stored
	return nil
}

func (r *userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *user
	return &out, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, user := range r.s.users {
		if strings.EqualFold(user.Email, email) {
			out := *user
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) List(_ context.Context) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	out := make([]domain.User, 0, len(r.s.users))
	for _, user := range r.s.users {
		out = append(out, *user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *userRepo) UpdateProfile(_ context.Context, id, name string, passwordHash *string) (*domain.User, error) {
	return r.update(id, func(u *domain.User) {
		u.Name = name
		if passwordHash != nil {
			u.PasswordHash = *passwordHash
		}
	})
}

func (r *userRepo) UpdateRole(_ context.Context, id string, role domain.Role) (*domain.User, error) {
	return r.update(id, func(u *domain.User) { u.Role = role })
}

func (r *userRepo) SetTwoFactorEnabled(_ context.Context, id string, enabled bool) (*domain.User, error) {
	return r.update(id, func(u *domain.User) { u.TwoFactorEnabled = enabled })
}

func (r *userRepo) CountByRole(_ context.Context, role domain.Role) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	count := 0
	for _, user := range r.s.users {
		if user.Role == role {
			count++
		}
	}
	return count, nil
}

func (r *userRepo) update(id string, apply func(*domain.User)) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	apply(user)
	user.UpdatedAt = r.s.stamp()
	out := *user
	return &out, nil
}
