package dto

import (
	"time"

	"github.com/spec-kit/response-desk/internal/domain"
)

// IntakeRequest is the payload posted by the intake workflow.
type IntakeRequest struct {
	Category        string              `json:"category" validate:"omitempty,oneof=contact_us property_tokenization job_application"`
	FirstName       string              `json:"firstName" validate:"required"`
	LastName        string              `json:"lastName" validate:"required"`
	Email           string              `json:"email" validate:"required,email"`
	Location        string              `json:"location"`
	Subject         string              `json:"subject"`
	Message         string              `json:"message"`
	PhoneNumber     string              `json:"phoneNumber"`
	PropertyName    string              `json:"propertyName"`
	PropertyAddress string              `json:"propertyAddress"`
	Country         string              `json:"country"`
	LinkedinURL     string              `json:"linkedinUrl"`
	Position        string              `json:"position"`
	AIDraftSubject  string              `json:"aiDraftSubject"`
	AIDraftResponse string              `json:"aiDraftResponse"`
	ExecutionID     string              `json:"executionId"`
	Attachments     []AttachmentRequest `json:"attachments" validate:"omitempty,dive"`
}

// AttachmentRequest describes one file reference at intake.
type AttachmentRequest struct {
	FileName string `json:"fileName" validate:"required"`
	FileType string `json:"fileType" validate:"required"`
	FileURL  string `json:"fileUrl" validate:"required,url"`
	FileSize *int64 `json:"fileSize" validate:"omitempty,gt=0"`
}

// IntakeResponse acknowledges a stored submission.
type IntakeResponse struct {
	ID     string              `json:"id"`
	Status domain.TicketStatus `json:"status"`
}

// UpdateTicketRequest edits final fields and optionally moves status.
type UpdateTicketRequest struct {
	FinalSubject  *string `json:"finalSubject"`
	FinalResponse *string `json:"finalResponse"`
	Status        *string `json:"status"`
}

// BulkRequest applies one action to many tickets.
type BulkRequest struct {
	IDs    []string `json:"ids" validate:"required,min=1"`
	Action string   `json:"action" validate:"required,oneof=archive"`
}

// BulkResponse reports how many tickets changed.
type BulkResponse struct {
	Updated int `json:"updated"`
}

// NoteRequest payload.
type NoteRequest struct {
	Content string `json:"content"`
}

// TicketSummary is a listing row.
type TicketSummary struct {
	ID        string                `json:"id"`
	Category  domain.TicketCategory `json:"category"`
	FirstName string                `json:"firstName"`
	LastName  string                `json:"lastName"`
	Email     string                `json:"email"`
	Subject   string                `json:"subject"`
	Label     string                `json:"label"`
	Status    domain.TicketStatus   `json:"status"`
	CreatedAt time.Time             `json:"createdAt"`
}

// Pagination describes the page returned by a listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// TicketResponse is the full ticket view.
type TicketResponse struct {
	ID              string                `json:"id"`
	Category        domain.TicketCategory `json:"category"`
	FirstName       string                `json:"firstName"`
	LastName        string                `json:"lastName"`
	Email           string                `json:"email"`
	Location        string                `json:"location"`
	PhoneNumber     string                `json:"phoneNumber,omitempty"`
	PropertyName    string                `json:"propertyName,omitempty"`
	PropertyAddress string                `json:"propertyAddress,omitempty"`
	Country         string                `json:"country,omitempty"`
	LinkedinURL     string                `json:"linkedinUrl,omitempty"`
	Position        string                `json:"position,omitempty"`
	Subject         string                `json:"subject"`
	Message         string                `json:"message"`
	AIDraftSubject  string                `json:"aiDraftSubject"`
	AIDraftResponse string                `json:"aiDraftResponse"`
	FinalSubject    *string               `json:"finalSubject"`
	FinalResponse   *string               `json:"finalResponse"`
	Status          domain.TicketStatus   `json:"status"`
	AllowedStatuses []domain.TicketStatus `json:"allowedStatuses"`
	ExecutionID     string                `json:"executionId,omitempty"`
	Attachments     []AttachmentResponse  `json:"attachments,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
	RespondedAt     *time.Time            `json:"respondedAt"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileURL  string `json:"fileUrl"`
	FileSize *int64 `json:"fileSize"`
}

// NoteResponse is one internal note.
type NoteResponse struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

// StatsResponse counts tickets per status.
type StatsResponse struct {
	Total    int                         `json:"total"`
	ByStatus map[domain.TicketStatus]int `json:"byStatus"`
}
