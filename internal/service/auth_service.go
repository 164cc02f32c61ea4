package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/response-desk/internal/auth"
	"github.com/spec-kit/response-desk/internal/config"
	"github.com/spec-kit/response-desk/internal/domain"
	"github.com/spec-kit/response-desk/internal/events"
	"github.com/spec-kit/response-desk/internal/mailer"
	"github.com/spec-kit/response-desk/internal/ratelimit"
	"github.com/spec-kit/response-desk/internal/repository"
	apperrors "github.com/spec-kit/response-desk/pkg/util/errorutil"
)

const invalidCredentials = "Invalid email or password"

// SessionResult is a freshly signed session token and the claims inside it.
type SessionResult struct {
	Token             string
	ExpiresAt         time.Time
	Session           auth.Session
	TwoFactorRequired bool
}

// AuthService coordinates login, two-factor challenges and session tokens.
type AuthService struct {
	users       repository.UserRepository
	twoFactor   *TwoFactorService
	mailer      mailer.Mailer
	limiter     ratelimit.Limiter
	tokenMgr    *auth.TokenManager
	dispatcher  events.Dispatcher
	logger      *zap.Logger
	sendLimit   int
	verifyLimit int
	now         func() time.Time
}

// AuthDependencies encapsulates collaborators for auth service.
type AuthDependencies struct {
	UserRepo   repository.UserRepository
	TwoFactor  *TwoFactorService
	Mailer     mailer.Mailer
	Limiter    ratelimit.Limiter
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:       deps.UserRepo,
		twoFactor:   deps.TwoFactor,
		mailer:      deps.Mailer,
		limiter:     deps.Limiter,
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTLMinutes),
		dispatcher:  deps.Dispatcher,
		logger:      logger,
		sendLimit:   cfg.TwoFactor.SendLimit,
		verifyLimit: cfg.TwoFactor.VerifyLimit,
		now:         time.Now,
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// Login checks credentials. Accounts with 2FA get a pending session and
// a code by email; others get a trusted session straight away.
func (s *AuthService) Login(ctx context.Context, email, password string) (*SessionResult, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		auth.CompareDummy(password)
		return nil, apperrors.NewUnauthorized(invalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized(invalidCredentials)
	}

	if user.TwoFactorEnabled {
		if err := s.sendCode(ctx, user); err != nil {
			return nil, err
		}
	}
	return s.sign(auth.NewSession(user))
}

// SendLoginCode re-sends the login code for a pending session.
func (s *AuthService) SendLoginCode(ctx context.Context, session auth.Session) error {
	user, err := s.loadUser(ctx, session.UserID)
	if err != nil {
		return err
	}
	if !user.TwoFactorEnabled {
		return apperrors.NewConflict("Two-factor authentication is not enabled", nil)
	}
	return s.sendCode(ctx, user)
}

// VerifyLogin upgrades a pending session. On failure the caller keeps
// the session it already holds.
func (s *AuthService) VerifyLogin(ctx context.Context, session auth.Session, code string) (*SessionResult, error) {
	if err := s.checkCode(ctx, session.UserID, code); err != nil {
		return nil, err
	}
	user, err := s.loadUser(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	return s.sign(auth.VerifiedSession(user))
}

// EnableTwoFactor sends a code that ConfirmEnableTwoFactor must echo back.
func (s *AuthService) EnableTwoFactor(ctx context.Context, session auth.Session) error {
	user, err := s.loadUser(ctx, session.UserID)
	if err != nil {
		return err
	}
	if user.TwoFactorEnabled {
		return apperrors.NewConflict("Two-factor authentication is already enabled", nil)
	}
	return s.sendCode(ctx, user)
}

// ConfirmEnableTwoFactor turns 2FA on once the emailed code is confirmed
// and returns a session reflecting the new state.
func (s *AuthService) ConfirmEnableTwoFactor(ctx context.Context, session auth.Session, code string) (*SessionResult, error) {
	user, err := s.loadUser(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if user.TwoFactorEnabled {
		return nil, apperrors.NewConflict("Two-factor authentication is already enabled", nil)
	}
	if err := s.checkCode(ctx, user.ID, code); err != nil {
		return nil, err
	}
	return s.setTwoFactor(ctx, user.ID, true)
}

// RequestDisableTwoFactor sends the code required to turn 2FA off.
func (s *AuthService) RequestDisableTwoFactor(ctx context.Context, session auth.Session) error {
	user, err := s.loadUser(ctx, session.UserID)
	if err != nil {
		return err
	}
	if !user.TwoFactorEnabled {
		return apperrors.NewConflict("Two-factor authentication is not enabled", nil)
	}
	return s.sendCode(ctx, user)
}

// ConfirmDisableTwoFactor turns 2FA off after a valid code.
func (s *AuthService) ConfirmDisableTwoFactor(ctx context.Context, session auth.Session, code string) (*SessionResult, error) {
	user, err := s.loadUser(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if !user.TwoFactorEnabled {
		return nil, apperrors.NewConflict("Two-factor authentication is not enabled", nil)
	}
	if err := s.checkCode(ctx, user.ID, code); err != nil {
		return nil, err
	}
	return s.setTwoFactor(ctx, user.ID, false)
}

// RefreshSession re-signs a trusted session from the current user row,
// picking up name, role and 2FA changes.
func (s *AuthService) RefreshSession(ctx context.Context, session auth.Session) (*SessionResult, error) {
	user, err := s.loadUser(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	return s.sign(auth.VerifiedSession(user))
}

func (s *AuthService) setTwoFactor(ctx context.Context, userID string, enabled bool) (*SessionResult, error) {
	user, err := s.users.SetTwoFactorEnabled(ctx, userID, enabled)
	if err != nil {
		return nil, mapRepoErr(err, "user")
	}
	s.publish(ctx, events.New(events.EventTwoFactorChanged, user.ID,
		events.Actor{UserID: user.ID, Source: events.SourceOperator},
		events.TwoFactorChangedPayload{Enabled: enabled}))
	// The caller just proved possession of the code.
	return s.sign(auth.VerifiedSession(user))
}

func (s *AuthService) sendCode(ctx context.Context, user *domain.User) error {
	if err := s.allow(ctx, user.ID, ratelimit.ActionSendCode, s.sendLimit); err != nil {
		return err
	}
	code, err := s.twoFactor.Issue(ctx, user.ID)
	if err != nil {
		return mapRepoErr(err, "user")
	}
	if err := s.mailer.SendTwoFactorCode(ctx, user.Email, code); err != nil {
		return apperrors.NewBadGateway("Failed to send verification code", err)
	}
	s.logger.Info("verification code sent", zap.String("user_id", user.ID))
	return nil
}

func (s *AuthService) checkCode(ctx context.Context, userID, code string) error {
	if !domain.IsTwoFactorCode(code) {
		return apperrors.NewFieldErrors(map[string]string{"code": "Code must be 6 digits"})
	}
	if err := s.allow(ctx, userID, ratelimit.ActionVerifyCode, s.verifyLimit); err != nil {
		return err
	}
	ok, err := s.twoFactor.Verify(ctx, userID, code)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.NewDomainError("INVALID_TWO_FACTOR_CODE", "Invalid or expired code", http.StatusBadRequest, nil)
	}
	return nil
}

func (s *AuthService) allow(ctx context.Context, userID string, action ratelimit.Action, limit int) error {
	if s.limiter == nil {
		return nil
	}
	res, err := s.limiter.Allow(ctx, ratelimit.Key(userID, action), limit, s.now())
	if err != nil {
		// Fail open when the limiter backend is down.
		s.logger.Warn("rate limiter unavailable", zap.String("action", string(action)), zap.Error(err))
		return nil
	}
	if !res.Allowed {
		return apperrors.NewTooManyRequests("Too many attempts, try again later")
	}
	return nil
}

func (s *AuthService) loadUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		// The token outlived its account.
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) sign(session auth.Session) (*SessionResult, error) {
	token, exp, err := s.tokenMgr.GenerateToken(session)
	if err != nil {
		return nil, err
	}
	return &SessionResult{
		Token:             token,
		ExpiresAt:         exp,
		Session:           session,
		TwoFactorRequired: !session.Trusted(),
	}, nil
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Publish(ctx, event)
}
