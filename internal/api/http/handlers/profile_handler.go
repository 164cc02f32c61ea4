package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/response-desk/internal/api/dto"
	"github.com/spec-kit/response-desk/internal/service"
)

// ProfileHandler serves the caller's own account and 2FA settings.
type ProfileHandler struct {
	users *service.UserService
	auth  *service.AuthService
}

// NewProfileHandler constructs handler.
func NewProfileHandler(users *service.UserService, authService *service.AuthService) *ProfileHandler {
	return &ProfileHandler{users: users, auth: authService}
}

// GetProfile GET /api/user/profile.
func (h *ProfileHandler) GetProfile(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	user, err := h.users.GetProfile(c.UserContext(), session.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// UpdateProfile PATCH /api/user/profile.
func (h *ProfileHandler) UpdateProfile(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	var req dto.ProfileRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateProfile(c.UserContext(), session.UserID, service.ProfileInput{
		Name:            req.Name,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// EnableTwoFactor POST /api/user/2fa/enable.
func (h *ProfileHandler) EnableTwoFactor(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	if err := h.auth.EnableTwoFactor(c.UserContext(), session); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"sent": true}})
}

// ConfirmEnableTwoFactor POST /api/user/2fa/enable/confirm.
func (h *ProfileHandler) ConfirmEnableTwoFactor(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	var req dto.CodeRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	res, err := h.auth.ConfirmEnableTwoFactor(c.UserContext(), session, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(res)})
}

// DisableTwoFactor POST /api/user/2fa/disable. {"sendCode":true} mails a
// code; {"code":"123456"} confirms it and turns 2FA off.
func (h *ProfileHandler) DisableTwoFactor(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	var req dto.DisableTwoFactorRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if req.SendCode {
		if err := h.auth.RequestDisableTwoFactor(c.UserContext(), session); err != nil {
			return err
		}
		return c.JSON(fiber.Map{"data": fiber.Map{"sent": true}})
	}
	res, err := h.auth.ConfirmDisableTwoFactor(c.UserContext(), session, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sessionResponse(res)})
}
