package dto

import "github.com/spec-kit/response-desk/internal/domain"

// AnalyticsResponse is the dashboard payload.
type AnalyticsResponse struct {
	VolumeByDay            []DayCount      `json:"volumeByDay"`
	StatusBreakdown        []StatusCount   `json:"statusBreakdown"`
	AvgResponseTimeSeconds float64         `json:"avgResponseTimeSeconds"`
	RecentActivity         []TicketSummary `json:"recentActivity"`
}

// DayCount is ticket volume on one UTC day.
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// StatusCount is the number of tickets in one status.
type StatusCount struct {
	Status domain.TicketStatus `json:"status"`
	Count  int                 `json:"count"`
}
