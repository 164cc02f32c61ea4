package handlers

import (
	"github.com/spec-kit/response-desk/internal/api/dto"
	"github.com/spec-kit/response-desk/internal/domain"
	"github.com/spec-kit/response-desk/internal/service"
)

func sessionResponse(res *service.SessionResult) dto.SessionResponse {
	s := res.Session
	return dto.SessionResponse{
		Token:             res.Token,
		ExpiresAt:         res.ExpiresAt,
		TwoFactorRequired: res.TwoFactorRequired,
		User: dto.SessionUser{
			ID:                s.UserID,
			Email:             s.Email,
			Name:              s.Name,
			Role:              s.Role,
			TwoFactorEnabled:  s.TwoFactorEnabled,
			TwoFactorVerified: s.TwoFactorVerified,
		},
	}
}

func ticketSummary(t *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:        t.ID,
		Category:  t.Category,
		FirstName: t.FirstName,
		LastName:  t.LastName,
		Email:     t.Email,
		Subject:   t.Subject,
		Label:     t.ListLabel(),
		Status:    t.Status,
		CreatedAt: t.CreatedAt,
	}
}

func ticketSummaries(tickets []domain.Ticket) []dto.TicketSummary {
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return items
}

func ticketResponse(t *domain.Ticket) dto.TicketResponse {
	resp := dto.TicketResponse{
		ID:              t.ID,
		Category:        t.Category,
		FirstName:       t.FirstName,
		LastName:        t.LastName,
		Email:           t.Email,
		Location:        t.Location,
		PhoneNumber:     t.PhoneNumber,
		PropertyName:    t.PropertyName,
		PropertyAddress: t.PropertyAddress,
		Country:         t.Country,
		LinkedinURL:     t.LinkedinURL,
		Position:        t.Position,
		Subject:         t.Subject,
		Message:         t.Message,
		AIDraftSubject:  t.AIDraftSubject,
		AIDraftResponse: t.AIDraftResponse,
		FinalSubject:    t.FinalSubject,
		FinalResponse:   t.FinalResponse,
		Status:          t.Status,
		AllowedStatuses: domain.AllowedTransitions(t.Status),
		ExecutionID:     t.ExecutionID,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		RespondedAt:     t.RespondedAt,
	}
	for _, att := range t.Attachments {
		resp.Attachments = append(resp.Attachments, dto.AttachmentResponse{
			ID:       att.ID,
			FileName: att.FileName,
			FileType: att.FileType,
			FileURL:  att.FileURL,
			FileSize: att.FileSize,
		})
	}
	return resp
}

func noteResponse(n *domain.Note) dto.NoteResponse {
	return dto.NoteResponse{
		ID:         n.ID,
		AuthorID:   n.AuthorID,
		AuthorName: n.AuthorName,
		Content:    n.Content,
		CreatedAt:  n.CreatedAt,
	}
}

func userResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		Role:             u.Role,
		TwoFactorEnabled: u.TwoFactorEnabled,
		CreatedAt:        u.CreatedAt,
	}
}
