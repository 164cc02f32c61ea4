// Command seed creates an operator account, or resets the password, name
// and role of an existing one with the same email.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/spec-kit/response-desk/internal/auth"
	"github.com/spec-kit/response-desk/internal/config"
	"github.com/spec-kit/response-desk/internal/domain"
	"github.com/spec-kit/response-desk/internal/observability"
	"github.com/spec-kit/response-desk/internal/persistence"
	"github.com/spec-kit/response-desk/internal/repository"
)

func main() {
	email := pflag.String("email", "", "account email (required)")
	name := pflag.String("name", "", "display name")
	password := pflag.String("password", os.Getenv("SEED_PASSWORD"), "account password (or SEED_PASSWORD)")
	role := pflag.String("role", string(domain.RoleAdmin), "admin, ceo or employee")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if strings.TrimSpace(*email) == "" || *password == "" {
		logger.Fatal("--email and --password are required")
	}
	parsedRole, ok := domain.ParseRole(*role)
	if !ok {
		logger.Fatal("invalid role", zap.String("role", *role))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	if pg == nil {
		logger.Fatal("POSTGRES_DSN is required to seed")
	}
	defer pg.Close()

	if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	users := repository.NewUserRepository(pg.Pool)
	user, created, err := upsertUser(ctx, users, *email, *name, *password, parsedRole, cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
	logger.Info("user seeded",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email),
		zap.String("role", string(user.Role)),
		zap.Bool("created", created))

	admins, err := users.CountByRole(ctx, domain.RoleAdmin)
	if err != nil {
		logger.Fatal("count admins", zap.Error(err))
	}
	if admins == 0 {
		logger.Warn("no admin account exists; user administration is unreachable")
	}
}

func upsertUser(ctx context.Context, users repository.UserRepository, email, name, password string, role domain.Role, cost int) (*domain.User, bool, error) {
	hash, err := auth.HashPassword(password, cost)
	if err != nil {
		return nil, false, err
	}

	existing, err := users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		user := &domain.User{Email: email, Name: name, PasswordHash: hash, Role: role}
		if err := users.Create(ctx, user); err != nil {
			return nil, false, err
		}
		return user, true, nil
	case err != nil:
		return nil, false, err
	}

	if name == "" {
		name = existing.Name
	}
	if _, err := users.UpdateProfile(ctx, existing.ID, name, &hash); err != nil {
		return nil, false, err
	}
	updated, err := users.UpdateRole(ctx, existing.ID, role)
	if err != nil {
		return nil, false, err
	}
	return updated, false, nil
}
