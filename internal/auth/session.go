package auth

import (
	"net/http"

	"github.com/spec-kit/response-desk/internal/domain"
	apperrors "github.com/spec-kit/response-desk/pkg/util/errorutil"
)

// Session is the trust state carried in the signed session token. It is
// rebuilt whole on every change; fields are never patched individually.
type Session struct {
	UserID            string      `json:"uid"`
	Email             string      `json:"email"`
	Name              string      `json:"name"`
	Role              domain.Role `json:"role"`
	TwoFactorEnabled  bool        `json:"two_factor_enabled"`
	TwoFactorVerified bool        `json:"two_factor_verified"`
}

// NewSession derives the initial session for a user who just presented
// valid credentials. Accounts without 2FA are verified by convention.
func NewSession(user *domain.User) Session {
	return Session{
		UserID:            user.ID,
		Email:             user.Email,
		Name:              user.Name,
		Role:              user.Role,
		TwoFactorEnabled:  user.TwoFactorEnabled,
		TwoFactorVerified: !user.TwoFactorEnabled,
	}
}

// VerifiedSession is the session for a user who has just passed a
// two-factor check, taken from the current user row.
func VerifiedSession(user *domain.User) Session {
	s := NewSession(user)
	s.TwoFactorVerified = true
	return s
}

// Trusted reports whether the session may reach protected resources.
func (s Session) Trusted() bool {
	return !s.TwoFactorEnabled || s.TwoFactorVerified
}

// DisplayName is the author name snapshot used for notes.
func (s Session) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Email != "" {
		return s.Email
	}
	return "Unknown"
}

// Authorize is the pure access decision for a request. allowPending admits
// sessions still waiting on 2FA (only the verify and resend endpoints pass
// true). An empty roles list admits every role.
func Authorize(s *Session, allowPending bool, roles ...domain.Role) error {
	if s == nil || s.UserID == "" {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !allowPending && !s.Trusted() {
		return apperrors.NewDomainError("TWO_FACTOR_REQUIRED", "two-factor verification required", http.StatusUnauthorized, nil)
	}
	if len(roles) == 0 {
		return nil
	}
	for _, r := range roles {
		if s.Role == r {
			return nil
		}
	}
	return apperrors.NewForbidden("insufficient role")
}
