package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/response-desk/internal/api/http/handlers"
	"github.com/spec-kit/response-desk/internal/auth"
	"github.com/spec-kit/response-desk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Webhook        *handlers.WebhookHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Analytics      *handlers.AnalyticsHandler
	Profile        *handlers.ProfileHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")
	api.Post("/webhooks/tickets", cfg.Webhook.IntakeTicket)

	authn := cfg.AuthMiddleware.Handle
	api.Post("/auth/login", cfg.Auth.Login)
	api.Post("/auth/2fa/send", authn, auth.RequirePending(), cfg.Auth.SendCode)
	api.Post("/auth/2fa/verify", authn, auth.RequirePending(), cfg.Auth.VerifyCode)
	api.Post("/auth/refresh", authn, auth.RequireTrusted(), cfg.Auth.Refresh)

	tickets := api.Group("/tickets", authn, auth.RequireTrusted())
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/stats", cfg.Tickets.Stats)
	tickets.Get("/export", cfg.Tickets.Export)
	tickets.Patch("/bulk", cfg.Tickets.BulkUpdate)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Post("/:id/approve", cfg.Tickets.ApproveTicket)
	tickets.Get("/:id/notes", cfg.Tickets.ListNotes)
	tickets.Post("/:id/notes", cfg.Tickets.AddNote)

	api.Get("/analytics", authn, auth.RequireRole(domain.RoleAdmin, domain.RoleCEO), cfg.Analytics.Summary)

	user := api.Group("/user", authn, auth.RequireTrusted())
	user.Get("/profile", cfg.Profile.GetProfile)
	user.Patch("/profile", cfg.Profile.UpdateProfile)
	user.Post("/2fa/enable", cfg.Profile.EnableTwoFactor)
	user.Post("/2fa/enable/confirm", cfg.Profile.ConfirmEnableTwoFactor)
	user.Post("/2fa/disable", cfg.Profile.DisableTwoFactor)

	admin := api.Group("/admin", authn, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Post("/users", cfg.Admin.CreateUser)
	admin.Patch("/users/:id", cfg.Admin.UpdateRole)
	admin.Get("/metrics", cfg.Admin.Metrics)
}
