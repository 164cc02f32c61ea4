package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/response-desk/internal/api/dto"
	"github.com/spec-kit/response-desk/internal/service"
)

// AnalyticsHandler serves dashboard aggregates.
type AnalyticsHandler struct {
	service *service.AnalyticsService
}

// NewAnalyticsHandler constructs handler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: analytics}
}

// Summary GET /api/analytics.
func (h *AnalyticsHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.service.Summary(c.UserContext())
	if err != nil {
		return err
	}
	resp := dto.AnalyticsResponse{
		AvgResponseTimeSeconds: summary.AvgResponseTimeSeconds,
		RecentActivity:         ticketSummaries(summary.RecentActivity),
		VolumeByDay:            make([]dto.DayCount, 0, len(summary.VolumeByDay)),
		StatusBreakdown:        make([]dto.StatusCount, 0, len(summary.StatusBreakdown)),
	}
	for _, d := range summary.VolumeByDay {
		resp.VolumeByDay = append(resp.VolumeByDay, dto.DayCount{Date: d.Date, Count: d.Count})
	}
	for _, s := range summary.StatusBreakdown {
		resp.StatusBreakdown = append(resp.StatusBreakdown, dto.StatusCount{Status: s.Status, Count: s.Count})
	}
	return c.JSON(fiber.Map{"data": resp})
}
