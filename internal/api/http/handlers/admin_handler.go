package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/response-desk/internal/api/dto"
	"github.com/spec-kit/response-desk/internal/observability"
	"github.com/spec-kit/response-desk/internal/service"
)

// AdminHandler serves account administration and request counters.
type AdminHandler struct {
	users   *service.UserService
	metrics *observability.Metrics
}

// NewAdminHandler constructs handler.
func NewAdminHandler(users *service.UserService, metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{users: users, metrics: metrics}
}

// ListUsers GET /api/admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.users.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateUser POST /api/admin/users.
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	user, err := h.users.CreateUser(c.UserContext(), service.CreateUserInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// UpdateRole PATCH /api/admin/users/:id.
func (h *AdminHandler) UpdateRole(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	var req dto.UpdateRoleRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	user, err := h.users.UpdateRole(c.UserContext(), session, c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Metrics GET /api/admin/metrics.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}
