package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/response-desk/internal/api/http"
	"github.com/spec-kit/response-desk/internal/api/http/handlers"
	"github.com/spec-kit/response-desk/internal/auth"
	"github.com/spec-kit/response-desk/internal/config"
	"github.com/spec-kit/response-desk/internal/dispatch"
	"github.com/spec-kit/response-desk/internal/events"
	"github.com/spec-kit/response-desk/internal/mailer"
	"github.com/spec-kit/response-desk/internal/observability"
	"github.com/spec-kit/response-desk/internal/persistence"
	"github.com/spec-kit/response-desk/internal/ratelimit"
	"github.com/spec-kit/response-desk/internal/repository"
	"github.com/spec-kit/response-desk/internal/repository/memory"
	"github.com/spec-kit/response-desk/internal/service"
)

func main() {
	configPath := pflag.String("config", "", "path to a YAML config file (overrides CONFIG_PATH)")
	migrateOnly := pflag.Bool("migrate-only", false, "apply migrations and exit")
	pflag.Parse()

	if *configPath != "" {
		_ = os.Setenv(config.EnvConfigPath, *configPath)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg != nil && (cfg.Postgres.RunMigrations || *migrateOnly) {
		if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}
	if *migrateOnly {
		return
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	repos := newRepositories(pg)
	dispatcher := events.NewInMemoryDispatcher(logger)
	service.NewNotificationService(dispatcher, logger).RegisterHandlers()

	var limiter ratelimit.Limiter = ratelimit.NewMemoryLimiter(cfg.TwoFactor.Window())
	if redis != nil {
		limiter = ratelimit.NewRedisLimiter(redis.Client, cfg.App.Name, cfg.TwoFactor.Window())
	}

	twoFactor := service.NewTwoFactorService(cfg.TwoFactor, service.TwoFactorDependencies{TokenRepo: repos.tokens})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:   repos.users,
		TwoFactor:  twoFactor,
		Mailer:     mailer.New(cfg.Mail, cfg.TwoFactor.CodeTTL(), logger),
		Limiter:    limiter,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	userService := service.NewUserService(*cfg, service.UserDependencies{
		UserRepo:   repos.users,
		Dispatcher: dispatcher,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     repos.tickets,
		AttachmentRepo: repos.attachments,
		NoteRepo:       repos.notes,
		Sender:         dispatch.NewClient(cfg.Webhook.DispatchURL, cfg.Webhook.Secret, cfg.Webhook.DispatchTimeout(), nil),
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	analyticsService := service.NewAnalyticsService(service.AnalyticsDependencies{TicketRepo: repos.tickets})

	probes := map[string]handlers.Pinger{}
	if pg != nil {
		probes["postgres"] = pg
	}
	if redis != nil {
		probes["redis"] = redis
	}

	metrics := observability.NewMetrics()
	app := httptransport.NewApp(cfg.App.Name, cfg.App.RequestTimeout(), logger, metrics, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, probes),
		Webhook:        handlers.NewWebhookHandler(ticketService, cfg.Webhook.Secret),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, logger),
		Analytics:      handlers.NewAnalyticsHandler(analyticsService),
		Profile:        handlers.NewProfileHandler(userService, authService),
		Admin:          handlers.NewAdminHandler(userService, metrics),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager()),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

type repositories struct {
	users       repository.UserRepository
	tokens      repository.TwoFactorTokenRepository
	tickets     repository.TicketRepository
	attachments repository.AttachmentRepository
	notes       repository.NoteRepository
}

// newRepositories uses Postgres when connected and the in-memory store
// otherwise. Memory data does not survive a restart.
func newRepositories(pg *persistence.Postgres) repositories {
	if pg == nil {
		store := memory.New()
		return repositories{
			users:       store.Users(),
			tokens:      store.TwoFactorTokens(),
			tickets:     store.Tickets(),
			attachments: store.Attachments(),
			notes:       store.Notes(),
		}
	}
	return repositories{
		users:       repository.NewUserRepository(pg.Pool),
		tokens:      repository.NewTwoFactorTokenRepository(pg.Pool),
		tickets:     repository.NewTicketRepository(pg.Pool),
		attachments: repository.NewAttachmentRepository(pg.Pool),
		notes:       repository.NewNoteRepository(pg.Pool),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
