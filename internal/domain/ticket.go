package domain

import "time"

// Ticket is one inbound submission awaiting an outbound response.
type Ticket struct {
	ID       string
	Category TicketCategory

	FirstName       string
	LastName        string
	Email           string
	Location        string
	PhoneNumber     string
	PropertyName    string
	PropertyAddress string
	Country         string
	LinkedinURL     string
	Position        string

	Subject string
	Message string

	// AI draft fields are written once at intake and never edited.
	AIDraftSubject  string
	AIDraftResponse string

	FinalSubject  *string
	FinalResponse *string

	Status      TicketStatus
	ExecutionID string

	Attachments []Attachment

	CreatedAt   time.Time
	UpdatedAt   time.Time
	RespondedAt *time.Time
}

// EffectiveSubject is the subject an approval would send.
func (t *Ticket) EffectiveSubject() string {
	if t.FinalSubject != nil && *t.FinalSubject != "" {
		return *t.FinalSubject
	}
	if t.AIDraftSubject != "" {
		return t.AIDraftSubject
	}
	return "Re: " + t.Subject
}

// EffectiveResponse is the body an approval would send.
func (t *Ticket) EffectiveResponse() string {
	if t.FinalResponse != nil && *t.FinalResponse != "" {
		return *t.FinalResponse
	}
	return t.AIDraftResponse
}

// FullName joins first and last name.
func (t *Ticket) FullName() string {
	switch {
	case t.FirstName == "":
		return t.LastName
	case t.LastName == "":
		return t.FirstName
	}
	return t.FirstName + " " + t.LastName
}

// Attachment is a file reference owned by a ticket.
type Attachment struct {
	ID        string
	TicketID  string
	FileName  string
	FileType  string
	FileURL   string
	FileSize  *int64
	CreatedAt time.Time
}

// Note is an internal operator remark on a ticket. AuthorName is a
// snapshot taken when the note was written.
type Note struct {
	ID         string
	TicketID   string
	AuthorID   string
	AuthorName string
	Content    string
	CreatedAt  time.Time
}

// NoteMaxLength bounds note content, in characters.
const NoteMaxLength = 2000
