package domain

import "testing"

func TestCanTransition_MatchesTable(t *testing.T) {
	legal := map[TicketStatus]map[TicketStatus]bool{
		TicketStatusNew:           {TicketStatusPendingReview: true, TicketStatusArchived: true},
		TicketStatusPendingReview: {TicketStatusApproved: true, TicketStatusNew: true, TicketStatusArchived: true},
		TicketStatusApproved:      {TicketStatusSent: true, TicketStatusPendingReview: true},
		TicketStatusSent:          {TicketStatusArchived: true},
		TicketStatusArchived:      {TicketStatusNew: true},
	}

	for _, from := range TicketStatuses {
		for _, to := range TicketStatuses {
			want := legal[from][to]
			if got := CanTransition(from, to); got != want {
				t.Fatalf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCanTransition_SelfTransitionsRejected(t *testing.T) {
	for _, s := range TicketStatuses {
		if CanTransition(s, s) {
			t.Fatalf("expected %s -> %s to be illegal", s, s)
		}
	}
}

func TestCanTransition_UnknownStatus(t *testing.T) {
	if CanTransition("closed", TicketStatusNew) {
		t.Fatalf("unknown source status must not transition")
	}
	if CanTransition(TicketStatusNew, "closed") {
		t.Fatalf("unknown target status must not be reachable")
	}
}

func TestInitialStatus(t *testing.T) {
	cases := []struct {
		subject, body string
		want          TicketStatus
	}{
		{"", "", TicketStatusNew},
		{"Re: hello", "", TicketStatusPendingReview},
		{"", "Thanks for reaching out", TicketStatusPendingReview},
		{"Re: hello", "Thanks", TicketStatusPendingReview},
	}
	for _, tc := range cases {
		if got := InitialStatus(tc.subject, tc.body); got != tc.want {
			t.Fatalf("InitialStatus(%q, %q) = %s, want %s", tc.subject, tc.body, got, tc.want)
		}
	}
}

func TestAllowedTransitionsReturnsCopy(t *testing.T) {
	got := AllowedTransitions(TicketStatusNew)
	got[0] = TicketStatusSent
	if CanTransition(TicketStatusNew, TicketStatusSent) {
		t.Fatalf("mutating the returned slice changed the table")
	}
}

func TestParseTicketStatus(t *testing.T) {
	if _, ok := ParseTicketStatus("pending_review"); !ok {
		t.Fatalf("expected pending_review to parse")
	}
	if _, ok := ParseTicketStatus("PENDING_REVIEW"); ok {
		t.Fatalf("status parsing is case sensitive")
	}
}
