package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/response-desk/internal/api/dto"
	"github.com/spec-kit/response-desk/internal/service"
)

// AuthHandler serves login and the login-time two-factor step.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Login POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	res, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(res)})
}

// SendCode POST /api/auth/2fa/send.
func (h *AuthHandler) SendCode(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	if err := h.auth.SendLoginCode(c.UserContext(), session); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"sent": true}})
}

// VerifyCode POST /api/auth/2fa/verify. A failed attempt leaves the
// caller's token as it was.
func (h *AuthHandler) VerifyCode(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	var req dto.CodeRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	res, err := h.auth.VerifyLogin(c.UserContext(), session, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(res)})
}

// Refresh POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	res, err := h.auth.RefreshSession(c.UserContext(), session)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(res)})
}
