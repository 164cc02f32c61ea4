package dto

import (
	"time"

	"github.com/spec-kit/response-desk/internal/domain"
)

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// CodeRequest carries an emailed verification code.
type CodeRequest struct {
	Code string `json:"code"`
}

// DisableTwoFactorRequest either asks for a code or confirms one.
type DisableTwoFactorRequest struct {
	SendCode bool   `json:"sendCode"`
	Code     string `json:"code"`
}

// SessionUser is the session view returned alongside a token.
type SessionUser struct {
	ID                string      `json:"id"`
	Email             string      `json:"email"`
	Name              string      `json:"name"`
	Role              domain.Role `json:"role"`
	TwoFactorEnabled  bool        `json:"twoFactorEnabled"`
	TwoFactorVerified bool        `json:"twoFactorVerified"`
}

// SessionResponse is returned by every endpoint that re-signs the session.
type SessionResponse struct {
	Token             string      `json:"token"`
	ExpiresAt         time.Time   `json:"expiresAt"`
	TwoFactorRequired bool        `json:"twoFactorRequired"`
	User              SessionUser `json:"user"`
}
