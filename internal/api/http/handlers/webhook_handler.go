package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/response-desk/internal/api/dto"
	"github.com/spec-kit/response-desk/internal/service"
	apperrors "github.com/spec-kit/response-desk/pkg/util/errorutil"
)

// WebhookSecretHeader carries the shared intake secret.
const WebhookSecretHeader = "x-webhook-secret"

// WebhookHandler accepts submissions from the intake workflow.
type WebhookHandler struct {
	tickets *service.TicketService
	secret  []byte
}

// NewWebhookHandler constructs handler. An empty secret rejects every call.
func NewWebhookHandler(tickets *service.TicketService, secret string) *WebhookHandler {
	return &WebhookHandler{tickets: tickets, secret: []byte(secret)}
}

// IntakeTicket POST /api/webhooks/tickets.
func (h *WebhookHandler) IntakeTicket(c *fiber.Ctx) error {
	given := []byte(c.Get(WebhookSecretHeader))
	if len(h.secret) == 0 || subtle.ConstantTimeCompare(given, h.secret) != 1 {
		return apperrors.NewUnauthorized("Unauthorized")
	}

	var req dto.IntakeRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	input := service.IntakeInput{
		Category:        req.Category,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Location:        req.Location,
		Subject:         req.Subject,
		Message:         req.Message,
		PhoneNumber:     req.PhoneNumber,
		PropertyName:    req.PropertyName,
		PropertyAddress: req.PropertyAddress,
		Country:         req.Country,
		LinkedinURL:     req.LinkedinURL,
		Position:        req.Position,
		AIDraftSubject:  req.AIDraftSubject,
		AIDraftResponse: req.AIDraftResponse,
		ExecutionID:     req.ExecutionID,
	}
	for _, att := range req.Attachments {
		input.Attachments = append(input.Attachments, service.AttachmentInput{
			FileName: att.FileName,
			FileType: att.FileType,
			FileURL:  att.FileURL,
			FileSize: att.FileSize,
		})
	}

	ticket, err := h.tickets.Intake(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.IntakeResponse{ID: ticket.ID, Status: ticket.Status})
}
