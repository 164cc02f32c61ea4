package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/response-desk/internal/domain"
)

// RequireTrusted rejects sessions that still owe a two-factor check.
func RequireTrusted() fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, _ := SessionFromContext(c)
		if err := Authorize(session, false); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequirePending admits any authenticated session, verified or not.
// Only the two-factor verify and resend routes use it.
func RequirePending() fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, _ := SessionFromContext(c)
		if err := Authorize(session, true); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireRole ensures a trusted session holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, _ := SessionFromContext(c)
		if err := Authorize(session, false, allowed...); err != nil {
			return err
		}
		return c.Next()
	}
}
