package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/spec-kit/response-desk/internal/domain"
	"github.com/spec-kit/response-desk/internal/repository"
)

// isoMillis matches the timestamps the dashboard already renders.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

var exportBase = []domain.Column{
	{Key: "id", Header: "ID", Value: func(t *domain.Ticket) string { return t.ID }},
	{Key: "firstName", Header: "First Name", Value: func(t *domain.Ticket) string { return t.FirstName }},
	{Key: "lastName", Header: "Last Name", Value: func(t *domain.Ticket) string { return t.LastName }},
	{Key: "email", Header: "Email", Value: func(t *domain.Ticket) string { return t.Email }},
	{Key: "subject", Header: "Subject", Value: func(t *domain.Ticket) string { return t.Subject }},
	{Key: "status", Header: "Status", Value: func(t *domain.Ticket) string { return string(t.Status) }},
	{Key: "createdAt", Header: "Created At", Value: func(t *domain.Ticket) string { return formatTime(&t.CreatedAt) }},
	{Key: "updatedAt", Header: "Updated At", Value: func(t *domain.Ticket) string { return formatTime(&t.UpdatedAt) }},
	{Key: "respondedAt", Header: "Responded At", Value: func(t *domain.Ticket) string { return formatTime(t.RespondedAt) }},
}

// ExportFilename names the download for the given day.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("tickets-%s.csv", now.UTC().Format("2006-01-02"))
}

// TicketExport is a validated export waiting to be written.
type TicketExport struct {
	tickets repository.TicketRepository
	filter  repository.TicketFilter
	columns []domain.Column
}

// PrepareExport validates query. Handlers call it before committing
// response headers so a bad filter still gets a 400.
func (s *TicketService) PrepareExport(query TicketQuery) (*TicketExport, error) {
	filter, err := buildFilter(query)
	if err != nil {
		return nil, err
	}
	return &TicketExport{
		tickets: s.tickets,
		filter:  filter,
		columns: exportColumns(filter.Category),
	}, nil
}

// WriteTo writes every matching ticket as CSV, newest first. Paging is
// ignored. With a category filter the category's extra columns follow
// the base ones. Rows are written as the repository yields them.
func (e *TicketExport) WriteTo(ctx context.Context, w io.Writer) error {
	cw := csv.NewWriter(w)
	header := make([]string, len(e.columns))
	for i, col := range e.columns {
		header[i] = col.Header
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(e.columns))
	err := e.tickets.Stream(ctx, e.filter, func(t *domain.Ticket) error {
		for i, col := range e.columns {
			row[i] = col.Value(t)
		}
		return cw.Write(row)
	})
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}

// Export validates query and writes the CSV to w.
func (s *TicketService) Export(ctx context.Context, w io.Writer, query TicketQuery) error {
	export, err := s.PrepareExport(query)
	if err != nil {
		return err
	}
	return export.WriteTo(ctx, w)
}

func exportColumns(category *domain.TicketCategory) []domain.Column {
	columns := append([]domain.Column(nil), exportBase...)
	if category == nil {
		return columns
	}
	cfg, ok := category.Config()
	if !ok {
		return columns
	}
	seen := make(map[string]bool, len(columns))
	for _, col := range columns {
		seen[col.Key] = true
	}
	for _, col := range cfg.ExtraColumns {
		if !seen[col.Key] {
			columns = append(columns, col)
		}
	}
	return columns
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(isoMillis)
}
