package domain

// TicketCategory tags the kind of submission.
type TicketCategory string

const (
	CategoryContactUs            TicketCategory = "contact_us"
	CategoryPropertyTokenization TicketCategory = "property_tokenization"
	CategoryJobApplication       TicketCategory = "job_application"
)

// TicketCategories lists the known categories.
var TicketCategories = []TicketCategory{
	CategoryContactUs,
	CategoryPropertyTokenization,
	CategoryJobApplication,
}

// Valid reports whether c is a known category.
func (c TicketCategory) Valid() bool {
	_, ok := categoryConfigs[c]
	return ok
}

// ParseTicketCategory returns the category for v, or false when unknown.
func ParseTicketCategory(v string) (TicketCategory, bool) {
	c := TicketCategory(v)
	return c, c.Valid()
}

// Column is an extra per-category field, used by list views and export.
type Column struct {
	Key    string
	Header string
	Value  func(*Ticket) string
}

// CategoryConfig describes how a category is presented.
type CategoryConfig struct {
	Label        string
	Slug         string
	DetailFields []string
	// ListColumn replaces the subject column in listings when set.
	ListColumn   *Column
	ExtraColumns []Column
}

var (
	colLocation        = Column{Key: "location", Header: "Location", Value: func(t *Ticket) string { return t.Location }}
	colSubject         = Column{Key: "subject", Header: "Subject", Value: func(t *Ticket) string { return t.Subject }}
	colPhone           = Column{Key: "phoneNumber", Header: "Phone", Value: func(t *Ticket) string { return t.PhoneNumber }}
	colPropertyName    = Column{Key: "propertyName", Header: "Property Name", Value: func(t *Ticket) string { return t.PropertyName }}
	colPropertyAddress = Column{Key: "propertyAddress", Header: "Property Address", Value: func(t *Ticket) string { return t.PropertyAddress }}
	colCountry         = Column{Key: "country", Header: "Country", Value: func(t *Ticket) string { return t.Country }}
	colLinkedin        = Column{Key: "linkedinUrl", Header: "LinkedIn", Value: func(t *Ticket) string { return t.LinkedinURL }}
	colPosition        = Column{Key: "position", Header: "Position", Value: func(t *Ticket) string { return t.Position }}
)

var categoryConfigs = map[TicketCategory]CategoryConfig{
	CategoryContactUs: {
		Label:        "Contact Us",
		Slug:         "contact-us",
		DetailFields: []string{"email", "location", "subject", "message"},
		ExtraColumns: []Column{colLocation, colSubject},
	},
	CategoryPropertyTokenization: {
		Label:        "Property Tokenization",
		Slug:         "property-tokenization",
		DetailFields: []string{"email", "phoneNumber", "propertyName", "propertyAddress", "country", "message", "attachments"},
		ListColumn:   &Column{Key: "propertyName", Header: "Property", Value: colPropertyName.Value},
		ExtraColumns: []Column{colPhone, colPropertyName, colPropertyAddress, colCountry},
	},
	CategoryJobApplication: {
		Label:        "Job Applicants",
		Slug:         "job-applicants",
		DetailFields: []string{"email", "phoneNumber", "linkedinUrl", "position", "message", "attachments"},
		ListColumn:   &Column{Key: "position", Header: "Position", Value: colPosition.Value},
		ExtraColumns: []Column{colPhone, colLinkedin, colPosition},
	},
}

// Config returns the presentation config for c.
func (c TicketCategory) Config() (CategoryConfig, bool) {
	cfg, ok := categoryConfigs[c]
	return cfg, ok
}

// CategoryBySlug resolves a URL slug such as "job-applicants".
func CategoryBySlug(slug string) (TicketCategory, bool) {
	for category, cfg := range categoryConfigs {
		if cfg.Slug == slug {
			return category, true
		}
	}
	return "", false
}

// ListLabel is the value shown in the category's list column.
func (t *Ticket) ListLabel() string {
	cfg, ok := categoryConfigs[t.Category]
	if !ok || cfg.ListColumn == nil {
		return t.Subject
	}
	return cfg.ListColumn.Value(t)
}
