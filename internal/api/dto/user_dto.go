package dto

import (
	"time"

	"github.com/spec-kit/response-desk/internal/domain"
)

// CreateUserRequest is an admin request to add an operator.
type CreateUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"max=100"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=admin ceo employee"`
}

// UpdateRoleRequest payload.
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// ProfileRequest updates the caller's name and optionally password.
type ProfileRequest struct {
	Name            string `json:"name"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID               string      `json:"id"`
	Email            string      `json:"email"`
	Name             string      `json:"name"`
	Role             domain.Role `json:"role"`
	TwoFactorEnabled bool        `json:"twoFactorEnabled"`
	CreatedAt        time.Time   `json:"createdAt"`
}
