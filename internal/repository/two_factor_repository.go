package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/response-desk/internal/domain"
)

// TwoFactorTokenRepository manages emailed one-time codes.
type TwoFactorTokenRepository interface {
	// Replace marks every unused token of the user as used and stores
	// token, as one unit per user.
	Replace(ctx context.Context, token *domain.TwoFactorToken) error
	// FindActive returns the newest unused token that expires after now.
	FindActive(ctx context.Context, userID string, now time.Time) (*domain.TwoFactorToken, error)
	// Consume flips used to true. It reports false when the token was
	// already used, so a code can be spent at most once.
	Consume(ctx context.Context, id string) (bool, error)
}

type twoFactorTokenRepository struct {
	pool *pgxpool.Pool
}

// NewTwoFactorTokenRepository constructs repository.
func NewTwoFactorTokenRepository(pool *pgxpool.Pool) TwoFactorTokenRepository {
	return &twoFactorTokenRepository{pool: pool}
}

func (r *twoFactorTokenRepository) Replace(ctx context.Context, token *domain.TwoFactorToken) error {
	return pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		// The user row lock serializes concurrent issuance for one user.
		var locked string
		if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id=$1 FOR UPDATE`, token.UserID).Scan(&locked); err != nil {
			return translate(err)
		}
		if _, err := tx.Exec(ctx,
			`UPDATE two_factor_tokens SET used=TRUE WHERE user_id=$1 AND used=FALSE`,
			token.UserID,
		); err != nil {
			return err
		}
		const insert = `
            INSERT INTO two_factor_tokens (user_id, hashed_code, expires_at, used)
            VALUES ($1,$2,$3,FALSE)
            RETURNING id, created_at`
		token.Used = false
		return tx.QueryRow(ctx, insert, token.UserID, token.HashedCode, token.ExpiresAt).
			Scan(&token.ID, &token.CreatedAt)
	})
}

func (r *twoFactorTokenRepository) FindActive(ctx context.Context, userID string, now time.Time) (*domain.TwoFactorToken, error) {
	const query = `
        SELECT id, user_id, hashed_code, expires_at, used, created_at
        FROM two_factor_tokens
        WHERE user_id=$1 AND used=FALSE AND expires_at > $2
        ORDER BY created_at DESC
        LIMIT 1`
	var token domain.TwoFactorToken
	if err := r.pool.QueryRow(ctx, query, userID, now).Scan(
		&token.ID,
		&token.UserID,
		&token.HashedCode,
		&token.ExpiresAt,
		&token.Used,
		&token.CreatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &token, nil
}

func (r *twoFactorTokenRepository) Consume(ctx context.Context, id string) (bool, error) {
	cmd, err := r.pool.Exec(ctx, `UPDATE two_factor_tokens SET used=TRUE WHERE id=$1 AND used=FALSE`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}
