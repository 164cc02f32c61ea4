package handlers

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/response-desk/internal/api/dto"
	"github.com/spec-kit/response-desk/internal/service"
	apperrors "github.com/spec-kit/response-desk/pkg/util/errorutil"
)

// TicketsHandler serves the operator ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
	logger  *zap.Logger
	now     func() time.Time
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, logger *zap.Logger) *TicketsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketsHandler{service: ticketService, logger: logger, now: time.Now}
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	query, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	page, err := h.service.List(c.UserContext(), query)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": ticketSummaries(page.Items),
		"pagination": dto.Pagination{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      page.Total,
			TotalPages: page.TotalPages,
		},
	})
}

// Stats GET /api/tickets/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext(), c.Query("category"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StatsResponse{Total: stats.Total, ByStatus: stats.ByStatus}})
}

// Export GET /api/tickets/export.
func (h *TicketsHandler) Export(c *fiber.Ctx) error {
	query, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	export, err := h.service.PrepareExport(query)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", service.ExportFilename(h.now())))

	// The writer runs after the handler returns, once the request timeout
	// has been cancelled.
	ctx := context.WithoutCancel(c.UserContext())
	requestID := c.GetRespHeader(fiber.HeaderXRequestID)
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		err := export.WriteTo(ctx, w)
		if err == nil {
			err = w.Flush()
		}
		if err != nil {
			h.logger.Error("ticket export aborted", zap.Error(err), zap.String("request_id", requestID))
		}
	})
	return nil
}

// BulkUpdate PATCH /api/tickets/bulk.
func (h *TicketsHandler) BulkUpdate(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	var req dto.BulkRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	updated, err := h.service.BulkUpdate(c.UserContext(), session, req.IDs, req.Action)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BulkResponse{Updated: updated}})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// UpdateTicket PATCH /api/tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	var req dto.UpdateTicketRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	ticket, err := h.service.Update(c.UserContext(), session, c.Params("id"), service.TicketUpdateInput{
		FinalSubject:  req.FinalSubject,
		FinalResponse: req.FinalResponse,
		Status:        req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ApproveTicket POST /api/tickets/:id/approve.
func (h *TicketsHandler) ApproveTicket(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	ticket, err := h.service.ApproveAndSend(c.UserContext(), session, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// ListNotes GET /api/tickets/:id/notes.
func (h *TicketsHandler) ListNotes(c *fiber.Ctx) error {
	notes, err := h.service.ListNotes(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.NoteResponse, 0, len(notes))
	for i := range notes {
		items = append(items, noteResponse(&notes[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddNote POST /api/tickets/:id/notes.
func (h *TicketsHandler) AddNote(c *fiber.Ctx) error {
	session, err := currentSession(c)
	if err != nil {
		return err
	}
	var req dto.NoteRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	note, err := h.service.AddNote(c.UserContext(), session, c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": noteResponse(note)})
}

func parseTicketQuery(c *fiber.Ctx) (service.TicketQuery, error) {
	fields := map[string]string{}
	query := service.TicketQuery{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Page:     queryInt(c, "page", fields),
		Limit:    queryInt(c, "limit", fields),
	}
	if len(fields) > 0 {
		return query, apperrors.NewFieldErrors(fields)
	}
	return query, nil
}
