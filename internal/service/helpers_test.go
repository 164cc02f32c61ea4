package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/response-desk/internal/auth"
	"github.com/spec-kit/response-desk/internal/config"
	"github.com/spec-kit/response-desk/internal/dispatch"
	"github.com/spec-kit/response-desk/internal/domain"
	"github.com/spec-kit/response-desk/internal/events"
	"github.com/spec-kit/response-desk/internal/ratelimit"
	"github.com/spec-kit/response-desk/internal/repository/memory"
	apperrors "github.com/spec-kit/response-desk/pkg/util/errorutil"
)

type sentCode struct {
	to   string
	code string
}

type captureMailer struct {
	mu   sync.Mutex
	sent []sentCode
}

func (m *captureMailer) SendTwoFactorCode(_ context.Context, to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentCode{to: to, code: code})
	return nil
}

func (m *captureMailer) last(t *testing.T) sentCode {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatalf("no code was mailed")
	}
	return m.sent[len(m.sent)-1]
}

type fakeSender struct {
	mu       sync.Mutex
	messages []dispatch.Message
	keys     []string
	err      error
}

func (f *fakeSender) Send(_ context.Context, msg dispatch.Message, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	f.keys = append(f.keys, key)
	return f.err
}

type fixture struct {
	store     *memory.Store
	mail      *captureMailer
	sender    *fakeSender
	cfg       config.Config
	twoFactor *TwoFactorService
	auth      *AuthService
	users     *UserService
	tickets   *TicketService
	analytics *AnalyticsService
}

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{JWTSecret: "test-secret", SessionTTLMinutes: 60, BcryptCost: bcrypt.MinCost},
		TwoFactor: config.TwoFactorConfig{
			CodeTTLMinutes: 5,
			HashCost:       bcrypt.MinCost,
			SendLimit:      5,
			VerifyLimit:    10,
			WindowSeconds:  300,
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithConfig(t, testConfig())
}

func newFixtureWithConfig(t *testing.T, cfg config.Config) *fixture {
	t.Helper()
	store := memory.New()
	f := &fixture{store: store, mail: &captureMailer{}, sender: &fakeSender{}, cfg: cfg}
	dispatcher := events.NewInMemoryDispatcher(nil)

	f.twoFactor = NewTwoFactorService(cfg.TwoFactor, TwoFactorDependencies{TokenRepo: store.TwoFactorTokens()})
	f.auth = NewAuthService(cfg, AuthDependencies{
		UserRepo:   store.Users(),
		TwoFactor:  f.twoFactor,
		Mailer:     f.mail,
		Limiter:    ratelimit.NewMemoryLimiter(cfg.TwoFactor.Window()),
		Dispatcher: dispatcher,
	})
	f.users = NewUserService(cfg, UserDependencies{UserRepo: store.Users(), Dispatcher: dispatcher})
	f.tickets = NewTicketService(TicketDependencies{
		TicketRepo:     store.Tickets(),
		AttachmentRepo: store.Attachments(),
		NoteRepo:       store.Notes(),
		Sender:         f.sender,
		Dispatcher:     dispatcher,
	})
	f.analytics = NewAnalyticsService(AnalyticsDependencies{TicketRepo: store.Tickets()})
	return f
}

func (f *fixture) createUser(t *testing.T, email, password string, role domain.Role, twoFactor bool) *domain.User {
	t.Helper()
	hash, err := auth.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user := &domain.User{Email: email, Name: "Operator", PasswordHash: hash, Role: role, TwoFactorEnabled: twoFactor}
	if errCreate := f.store.Users().Create(context.Background(), user); errCreate != nil {
		t.Fatalf("create user: %v", errCreate)
	}
	return user
}

// forceStatus puts a ticket into status without going through the table.
func (f *fixture) forceStatus(t *testing.T, id string, status domain.TicketStatus) {
	t.Helper()
	_, err := f.store.Tickets().Mutate(context.Background(), id, func(tk *domain.Ticket) error {
		tk.Status = status
		return nil
	})
	if err != nil {
		t.Fatalf("force status: %v", err)
	}
}

func (f *fixture) intake(t *testing.T, input IntakeInput) *domain.Ticket {
	t.Helper()
	if input.FirstName == "" {
		input.FirstName = "Ada"
		input.LastName = "Lovelace"
		input.Email = "ada@example.com"
	}
	ticket, err := f.tickets.Intake(context.Background(), input)
	if err != nil {
		t.Fatalf("intake: %v", err)
	}
	return ticket
}

func operator() auth.Session {
	return auth.Session{UserID: "operator-1", Email: "op@example.com", Name: "Op", Role: domain.RoleEmployee, TwoFactorVerified: true}
}

func errorCode(err error) (string, int) {
	if err == nil {
		return "", 0
	}
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		return "", 0
	}
	return domainErr.Code, domainErr.HTTPStatus
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
