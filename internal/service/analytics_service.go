package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/response-desk/internal/domain"
	"github.com/spec-kit/response-desk/internal/repository"
)

const (
	analyticsDays  = 30
	recentActivity = 10
)

// DayCount is the number of tickets created on one UTC day.
type DayCount struct {
	Date  string
	Count int
}

// StatusCount is the number of tickets in one status.
type StatusCount struct {
	Status domain.TicketStatus
	Count  int
}

// AnalyticsSummary is the dashboard payload.
type AnalyticsSummary struct {
	VolumeByDay            []DayCount
	StatusBreakdown        []StatusCount
	AvgResponseTimeSeconds float64
	RecentActivity         []domain.Ticket
}

// AnalyticsService aggregates ticket metrics for the dashboard.
type AnalyticsService struct {
	tickets repository.TicketRepository
	now     func() time.Time
}

// AnalyticsDependencies bundles repositories for analytics service.
type AnalyticsDependencies struct {
	TicketRepo repository.TicketRepository
}

// NewAnalyticsService constructs the service.
func NewAnalyticsService(deps AnalyticsDependencies) *AnalyticsService {
	return &AnalyticsService{tickets: deps.TicketRepo, now: time.Now}
}

// Summary computes 30-day volume, the status breakdown, the average
// response time of tickets created in the window and the most recently
// updated tickets. The three reads run concurrently.
func (s *AnalyticsService) Summary(ctx context.Context) (*AnalyticsSummary, error) {
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	since := today.AddDate(0, 0, -(analyticsDays - 1))

	var (
		timings []repository.TicketTiming
		counts  map[domain.TicketStatus]int
		recent  []domain.Ticket
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		timings, err = s.tickets.CreatedSince(gctx, since)
		return err
	})
	g.Go(func() error {
		var err error
		counts, err = s.tickets.CountByStatus(gctx, nil)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.tickets.Recent(gctx, recentActivity)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &AnalyticsSummary{RecentActivity: recent}

	index := make(map[string]int, analyticsDays)
	for i := 0; i < analyticsDays; i++ {
		day := since.AddDate(0, 0, i).Format("2006-01-02")
		index[day] = i
		summary.VolumeByDay = append(summary.VolumeByDay, DayCount{Date: day})
	}

	var (
		responded int
		totalSecs float64
	)
	for _, t := range timings {
		if i, ok := index[t.CreatedAt.UTC().Format("2006-01-02")]; ok {
			summary.VolumeByDay[i].Count++
		}
		if t.RespondedAt != nil {
			responded++
			totalSecs += t.RespondedAt.Sub(t.CreatedAt).Seconds()
		}
	}
	if responded > 0 {
		summary.AvgResponseTimeSeconds = totalSecs / float64(responded)
	}

	for _, status := range domain.TicketStatuses {
		summary.StatusBreakdown = append(summary.StatusBreakdown, StatusCount{Status: status, Count: counts[status]})
	}
	return summary, nil
}
