package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/spec-kit/response-desk/internal/auth"
	"github.com/spec-kit/response-desk/internal/config"
	"github.com/spec-kit/response-desk/internal/domain"
	"github.com/spec-kit/response-desk/internal/events"
	"github.com/spec-kit/response-desk/internal/repository"
	apperrors "github.com/spec-kit/response-desk/pkg/util/errorutil"
)

const (
	nameMaxLength     = 100
	passwordMinLength = 8
)

// UserService manages operator accounts and profiles.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
	bcryptCost int
}

// UserDependencies bundles collaborators for user service.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
}

// CreateUserInput is an admin request to add an operator.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	Role     string
}

// ProfileInput changes the caller's own name and, optionally, password.
type ProfileInput struct {
	Name            string
	CurrentPassword string
	NewPassword     string
	ConfirmPassword string
}

// NewUserService constructs the service.
func NewUserService(cfg config.Config, deps UserDependencies) *UserService {
	return &UserService{
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// ListUsers returns every account, newest first.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// CreateUser adds an account. An empty role means employee.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("Email and password are required", nil)
	}

	role := domain.RoleEmployee
	if input.Role != "" {
		parsed, ok := domain.ParseRole(input.Role)
		if !ok {
			return nil, apperrors.NewFieldErrors(map[string]string{"role": "Invalid role. Must be 'admin', 'ceo', or 'employee'"})
		}
		role = parsed
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	user := &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("A user with this email already exists", nil)
		}
		return nil, err
	}
	return user, nil
}

// UpdateRole changes another account's role. An admin may not move
// themselves off admin.
func (s *UserService) UpdateRole(ctx context.Context, actor auth.Session, userID, role string) (*domain.User, error) {
	next, ok := domain.ParseRole(role)
	if !ok {
		return nil, apperrors.NewFieldErrors(map[string]string{"role": "Invalid role. Must be 'admin', 'ceo', or 'employee'"})
	}
	if userID == actor.UserID && next != domain.RoleAdmin {
		return nil, apperrors.NewForbidden("You cannot demote yourself")
	}

	current, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err, "user")
	}
	updated, err := s.users.UpdateRole(ctx, userID, next)
	if err != nil {
		return nil, mapRepoErr(err, "user")
	}
	if current.Role != next && s.dispatcher != nil {
		s.dispatcher.Publish(ctx, events.New(events.EventUserRoleChanged, userID,
			events.Actor{UserID: actor.UserID, Source: events.SourceOperator},
			events.UserRoleChangedPayload{OldRole: current.Role, NewRole: next}))
	}
	return updated, nil
}

// GetProfile returns the caller's account.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err, "user")
	}
	return user, nil
}

// UpdateProfile renames the caller and optionally rotates the password,
// which requires the current one.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input ProfileInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	fields := map[string]string{}
	if name == "" {
		fields["name"] = "Name is required"
	} else if utf8.RuneCountInString(name) > nameMaxLength {
		fields["name"] = "Name must be at most 100 characters"
	}
	if input.NewPassword != "" {
		switch {
		case input.CurrentPassword == "":
			fields["currentPassword"] = "Current password is required to set a new password"
		case utf8.RuneCountInString(input.NewPassword) < passwordMinLength:
			fields["newPassword"] = "New password must be at least 8 characters"
		case input.NewPassword != input.ConfirmPassword:
			fields["confirmPassword"] = "Passwords do not match"
		}
	}
	if len(fields) > 0 {
		return nil, apperrors.NewFieldErrors(fields)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err, "user")
	}

	var newHash *string
	if input.NewPassword != "" {
		if err := auth.ComparePassword(user.PasswordHash, input.CurrentPassword); err != nil {
			return nil, apperrors.NewFieldErrors(map[string]string{"currentPassword": "Current password is incorrect"})
		}
		hash, err := auth.HashPassword(input.NewPassword, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		newHash = &hash
	}

	updated, err := s.users.UpdateProfile(ctx, userID, name, newHash)
	if err != nil {
		return nil, mapRepoErr(err, "user")
	}
	return updated, nil
}
