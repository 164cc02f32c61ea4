package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/response-desk/internal/config"
	"github.com/spec-kit/response-desk/internal/domain"
	"github.com/spec-kit/response-desk/internal/repository"
)

var codeSpace = big.NewInt(1_000_000)

// TwoFactorService issues and verifies emailed one-time codes. Only the
// bcrypt hash of a code is stored.
type TwoFactorService struct {
	tokens   repository.TwoFactorTokenRepository
	ttl      time.Duration
	hashCost int
	now      func() time.Time
	random   io.Reader
}

// TwoFactorDependencies bundles repositories for the two-factor service.
type TwoFactorDependencies struct {
	TokenRepo repository.TwoFactorTokenRepository
}

// NewTwoFactorService constructs the service.
func NewTwoFactorService(cfg config.TwoFactorConfig, deps TwoFactorDependencies) *TwoFactorService {
	cost := cfg.HashCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &TwoFactorService{
		tokens:   deps.TokenRepo,
		ttl:      cfg.CodeTTL(),
		hashCost: cost,
		now:      time.Now,
		random:   rand.Reader,
	}
}

// Issue creates a fresh code for userID, invalidating any earlier unused
// code, and returns the plaintext for delivery.
func (s *TwoFactorService) Issue(ctx context.Context, userID string) (string, error) {
	n, err := rand.Int(s.random, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	code := fmt.Sprintf("%0*d", domain.TwoFactorCodeLength, n.Int64())

	hashed, err := bcrypt.GenerateFromPassword([]byte(code), s.hashCost)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}

	token := &domain.TwoFactorToken{
		UserID:     userID,
		HashedCode: string(hashed),
		ExpiresAt:  s.now().Add(s.ttl),
	}
	if err := s.tokens.Replace(ctx, token); err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks code against the newest active token. A missing token or
// a mismatch is (false, nil); a mismatch leaves the token usable.
func (s *TwoFactorService) Verify(ctx context.Context, userID, code string) (bool, error) {
	if !domain.IsTwoFactorCode(code) {
		return false, nil
	}
	token, err := s.tokens.FindActive(ctx, userID, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if bcrypt.CompareHashAndPassword([]byte(token.HashedCode), []byte(code)) != nil {
		return false, nil
	}
	return s.tokens.Consume(ctx, token.ID)
}
