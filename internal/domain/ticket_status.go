package domain

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew           TicketStatus = "new"
	TicketStatusPendingReview TicketStatus = "pending_review"
	TicketStatusApproved      TicketStatus = "approved"
	TicketStatusSent          TicketStatus = "sent"
	TicketStatusArchived      TicketStatus = "archived"
)

// TicketStatuses lists every status in workflow order.
var TicketStatuses = []TicketStatus{
	TicketStatusNew,
	TicketStatusPendingReview,
	TicketStatusApproved,
	TicketStatusSent,
	TicketStatusArchived,
}

// Valid reports whether s is a known status.
func (s TicketStatus) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

// ParseTicketStatus returns the status for v, or false when unknown.
func ParseTicketStatus(v string) (TicketStatus, bool) {
	s := TicketStatus(v)
	return s, s.Valid()
}

// No status lists itself: repeating the current status is rejected like
// any other missing edge.
var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusNew:           {TicketStatusPendingReview, TicketStatusArchived},
	TicketStatusPendingReview: {TicketStatusApproved, TicketStatusNew, TicketStatusArchived},
	TicketStatusApproved:      {TicketStatusSent, TicketStatusPendingReview},
	TicketStatusSent:          {TicketStatusArchived},
	TicketStatusArchived:      {TicketStatusNew},
}

// CanTransition reports whether a ticket in current may move to next.
func CanTransition(current, next TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// AllowedTransitions returns a copy of the destinations reachable from s.
func AllowedTransitions(s TicketStatus) []TicketStatus {
	return append([]TicketStatus(nil), allowedTransitions[s]...)
}

// InitialStatus computes the status of a freshly created ticket.
func InitialStatus(aiDraftSubject, aiDraftResponse string) TicketStatus {
	if aiDraftSubject != "" || aiDraftResponse != "" {
		return TicketStatusPendingReview
	}
	return TicketStatusNew
}

// MarksResponded reports whether entering s stamps respondedAt.
func MarksResponded(s TicketStatus) bool {
	return s == TicketStatusApproved || s == TicketStatusSent
}

// BulkArchivable lists the statuses a bulk archive may move. It is
// narrower than the transition table so review work is never swept up.
var BulkArchivable = []TicketStatus{TicketStatusNew, TicketStatusSent}
