package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spec-kit/response-desk/internal/dispatch"
	"github.com/spec-kit/response-desk/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestIntake_InitialStatusAndDefaults(t *testing.T) {
	f := newFixture(t)

	plain := f.intake(t, IntakeInput{Subject: "Question"})
	if plain.Status != domain.TicketStatusNew {
		t.Fatalf("expected new, got %s", plain.Status)
	}
	if plain.Category != domain.CategoryContactUs {
		t.Fatalf("expected default category, got %s", plain.Category)
	}

	drafted := f.intake(t, IntakeInput{Subject: "Question", AIDraftResponse: "Hello!"})
	if drafted.Status != domain.TicketStatusPendingReview {
		t.Fatalf("expected pending_review, got %s", drafted.Status)
	}

	_, err := f.tickets.Intake(context.Background(), IntakeInput{FirstName: "A", LastName: "B", Email: "a@b.co", Category: "spam"})
	if _, status := errorCode(err); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown category, got %v", err)
	}
}

func TestIntake_StoresAttachments(t *testing.T) {
	f := newFixture(t)
	size := int64(2048)
	created := f.intake(t, IntakeInput{
		Category: string(domain.CategoryPropertyTokenization),
		Attachments: []AttachmentInput{
			{FileName: "deed.pdf", FileType: "application/pdf", FileURL: "https://files.example.com/deed.pdf", FileSize: &size},
			{FileName: "photo.jpg", FileType: "image/jpeg", FileURL: "https://files.example.com/photo.jpg"},
		},
	})

	got, err := f.tickets.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Attachments) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(got.Attachments))
	}
	if got.Attachments[0].FileSize == nil || *got.Attachments[0].FileSize != 2048 {
		t.Fatalf("size not kept")
	}
	if got.Attachments[1].FileSize != nil {
		t.Fatalf("missing size must stay nil")
	}
}

func TestUpdate_TransitionTable(t *testing.T) {
	allowed := map[domain.TicketStatus][]domain.TicketStatus{
		domain.TicketStatusNew:           {domain.TicketStatusPendingReview, domain.TicketStatusArchived},
		domain.TicketStatusPendingReview: {domain.TicketStatusApproved, domain.TicketStatusNew, domain.TicketStatusArchived},
		domain.TicketStatusApproved:      {domain.TicketStatusSent, domain.TicketStatusPendingReview},
		domain.TicketStatusSent:          {domain.TicketStatusArchived},
		domain.TicketStatusArchived:      {domain.TicketStatusNew},
	}
	contains := func(list []domain.TicketStatus, s domain.TicketStatus) bool {
		for _, v := range list {
			if v == s {
				return true
			}
		}
		return false
	}

	ctx := context.Background()
	f := newFixture(t)
	for _, from := range domain.TicketStatuses {
		for _, to := range domain.TicketStatuses {
			ticket := f.intake(t, IntakeInput{Subject: "x"})
			f.forceStatus(t, ticket.ID, from)

			updated, err := f.tickets.Update(ctx, operator(), ticket.ID, TicketUpdateInput{Status: strPtr(string(to))})
			want := contains(allowed[from], to)
			if want {
				if err != nil || updated.Status != to {
					t.Fatalf("%s -> %s should succeed: %v", from, to, err)
				}
				continue
			}

			code, status := errorCode(err)
			if code != "INVALID_TRANSITION" || status != http.StatusUnprocessableEntity {
				t.Fatalf("%s -> %s should be 422, got %v", from, to, err)
			}
			if !strings.Contains(err.Error(), string(from)) || !strings.Contains(err.Error(), string(to)) {
				t.Fatalf("error should name both states: %v", err)
			}
			stored, _ := f.tickets.Get(ctx, ticket.ID)
			if stored.Status != from {
				t.Fatalf("%s -> %s changed the ticket to %s", from, to, stored.Status)
			}
		}
	}
}

func TestUpdate_RespondedAtSetOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.intake(t, IntakeInput{Subject: "x", AIDraftResponse: "draft"})

	first := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	f.tickets.now = fixedClock(first)
	approved, err := f.tickets.Update(ctx, operator(), ticket.ID, TicketUpdateInput{Status: strPtr("approved")})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.RespondedAt == nil || !approved.RespondedAt.Equal(first) {
		t.Fatalf("expected respondedAt on first approval")
	}

	f.tickets.now = fixedClock(first.Add(time.Hour))
	if _, err := f.tickets.Update(ctx, operator(), ticket.ID, TicketUpdateInput{Status: strPtr("pending_review")}); err != nil {
		t.Fatalf("back to review: %v", err)
	}
	again, err := f.tickets.Update(ctx, operator(), ticket.ID, TicketUpdateInput{Status: strPtr("approved")})
	if err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	if !again.RespondedAt.Equal(first) {
		t.Fatalf("respondedAt moved to %s", again.RespondedAt)
	}
}

func TestUpdate_ConcurrentTransitionsOneWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.intake(t, IntakeInput{Subject: "x", AIDraftResponse: "draft"})

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.tickets.Update(ctx, operator(), ticket.ID, TicketUpdateInput{Status: strPtr("approved")})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
				return
			}
			if _, status := errorCode(err); status == http.StatusUnprocessableEntity {
				rejected++
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 || rejected != workers-1 {
		t.Fatalf("expected one winner and %d rejections, got %d and %d", workers-1, succeeded, rejected)
	}
	got, err := f.store.Tickets().GetByID(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.TicketStatusApproved {
		t.Fatalf("expected approved, got %s", got.Status)
	}
}

func TestApproveAndSend_ConcurrentCallsDispatchOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.intake(t, IntakeInput{Subject: "x", AIDraftResponse: "draft"})

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.tickets.ApproveAndSend(ctx, operator(), ticket.ID)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly one approval, got %d", ok)
	}
	f.sender.mu.Lock()
	defer f.sender.mu.Unlock()
	if len(f.sender.messages) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(f.sender.messages))
	}
}

func TestUpdate_EditsFinalFieldsWithoutStatus(t *testing.T) {
	f := newFixture(t)
	ticket := f.intake(t, IntakeInput{Subject: "x", AIDraftResponse: "draft"})

	updated, err := f.tickets.Update(context.Background(), operator(), ticket.ID, TicketUpdateInput{FinalResponse: strPtr("edited")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != domain.TicketStatusPendingReview || updated.EffectiveResponse() != "edited" {
		t.Fatalf("unexpected ticket %+v", updated)
	}
	if updated.AIDraftResponse != "draft" {
		t.Fatalf("AI draft must not change")
	}
}

func TestUpdate_UnknownTicket(t *testing.T) {
	f := newFixture(t)
	_, err := f.tickets.Update(context.Background(), operator(), "missing", TicketUpdateInput{Status: strPtr("archived")})
	if _, status := errorCode(err); status != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestApproveAndSend_Success(t *testing.T) {
	f := newFixture(t)
	ticket := f.intake(t, IntakeInput{Subject: "Viewing", AIDraftResponse: "We'd love to show you around."})

	sent, err := f.tickets.ApproveAndSend(context.Background(), operator(), ticket.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if sent.Status != domain.TicketStatusSent || sent.RespondedAt == nil {
		t.Fatalf("expected sent with respondedAt, got %+v", sent)
	}
	if *sent.FinalSubject != "Re: Viewing" || *sent.FinalResponse != "We'd love to show you around." {
		t.Fatalf("final fields not recorded: %q %q", *sent.FinalSubject, *sent.FinalResponse)
	}

	if len(f.sender.messages) != 1 {
		t.Fatalf("expected one dispatch, got %d", len(f.sender.messages))
	}
	msg := f.sender.messages[0]
	if msg.To != "ada@example.com" || msg.Subject != "Re: Viewing" || msg.TicketID != ticket.ID {
		t.Fatalf("unexpected message %+v", msg)
	}
	if !strings.HasPrefix(f.sender.keys[0], ticket.ID+":") {
		t.Fatalf("unexpected idempotency key %q", f.sender.keys[0])
	}
}

func TestApproveAndSend_PrefersFinalOverDraft(t *testing.T) {
	f := newFixture(t)
	ticket := f.intake(t, IntakeInput{Subject: "x", AIDraftSubject: "Draft subject", AIDraftResponse: "draft"})
	if _, err := f.tickets.Update(context.Background(), operator(), ticket.ID, TicketUpdateInput{
		FinalSubject:  strPtr("Final subject"),
		FinalResponse: strPtr("final"),
	}); err != nil {
		t.Fatalf("edit: %v", err)
	}

	if _, err := f.tickets.ApproveAndSend(context.Background(), operator(), ticket.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if got := f.sender.messages[0]; got.Subject != "Final subject" || got.Body != "final" {
		t.Fatalf("expected final fields, got %+v", got)
	}
}

func TestApproveAndSend_RequiresPendingReview(t *testing.T) {
	f := newFixture(t)
	ticket := f.intake(t, IntakeInput{Subject: "x"})

	_, err := f.tickets.ApproveAndSend(context.Background(), operator(), ticket.ID)
	if _, status := errorCode(err); status != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %v", err)
	}
	if len(f.sender.messages) != 0 {
		t.Fatalf("nothing should be dispatched")
	}
}

func TestApproveAndSend_EmptyBody(t *testing.T) {
	f := newFixture(t)
	ticket := f.intake(t, IntakeInput{Subject: "x", AIDraftSubject: "subject only"})

	_, err := f.tickets.ApproveAndSend(context.Background(), operator(), ticket.ID)
	code, status := errorCode(err)
	if code != "EMPTY_RESPONSE" || status != http.StatusUnprocessableEntity {
		t.Fatalf("expected empty response error, got %v", err)
	}
	if !strings.Contains(err.Error(), "No response to send. Edit the response first.") {
		t.Fatalf("unexpected message %q", err)
	}
	if len(f.sender.messages) != 0 {
		t.Fatalf("nothing should be dispatched")
	}
}

func TestApproveAndSend_GatewayFailureCommitsNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.intake(t, IntakeInput{Subject: "x", AIDraftResponse: "draft"})
	f.sender.err = &dispatch.Error{StatusCode: http.StatusInternalServerError, Body: "down"}

	_, err := f.tickets.ApproveAndSend(ctx, operator(), ticket.ID)
	if _, status := errorCode(err); status != http.StatusBadGateway {
		t.Fatalf("expected 502, got %v", err)
	}
	var dispatchErr *dispatch.Error
	if !errors.As(err, &dispatchErr) {
		t.Fatalf("expected upstream cause kept")
	}

	stored, _ := f.tickets.Get(ctx, ticket.ID)
	if stored.Status != domain.TicketStatusPendingReview || stored.FinalResponse != nil || stored.RespondedAt != nil {
		t.Fatalf("ticket changed after failed dispatch: %+v", stored)
	}
}

func TestApproveAndSend_Unreachable(t *testing.T) {
	f := newFixture(t)
	ticket := f.intake(t, IntakeInput{Subject: "x", AIDraftResponse: "draft"})
	f.sender.err = &dispatch.Error{Err: errors.New("connection refused")}

	_, err := f.tickets.ApproveAndSend(context.Background(), operator(), ticket.ID)
	if code, status := errorCode(err); code != "UPSTREAM_FAILED" || status != http.StatusBadGateway {
		t.Fatalf("expected 502, got %v", err)
	}
}

func TestApproveAndSend_SecondApprovalRejected(t *testing.T) {
	f := newFixture(t)
	ticket := f.intake(t, IntakeInput{Subject: "x", AIDraftResponse: "draft"})

	if _, err := f.tickets.ApproveAndSend(context.Background(), operator(), ticket.ID); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	if _, err := f.tickets.ApproveAndSend(context.Background(), operator(), ticket.ID); err == nil {
		t.Fatalf("second approve should fail")
	}
	if len(f.sender.messages) != 1 {
		t.Fatalf("expected exactly one dispatch, got %d", len(f.sender.messages))
	}
}

func TestBulkUpdate_ArchivesOnlyNewAndSent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	fresh := f.intake(t, IntakeInput{Subject: "a"})
	review := f.intake(t, IntakeInput{Subject: "b", AIDraftResponse: "draft"})
	sent := f.intake(t, IntakeInput{Subject: "c"})
	f.forceStatus(t, sent.ID, domain.TicketStatusSent)
	approved := f.intake(t, IntakeInput{Subject: "d"})
	f.forceStatus(t, approved.ID, domain.TicketStatusApproved)

	updated, err := f.tickets.BulkUpdate(ctx, operator(), []string{fresh.ID, review.ID, sent.ID, approved.ID, "not-a-uuid"}, BulkActionArchive)
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 archived, got %d", updated)
	}
	for id, want := range map[string]domain.TicketStatus{
		fresh.ID:    domain.TicketStatusArchived,
		review.ID:   domain.TicketStatusPendingReview,
		sent.ID:     domain.TicketStatusArchived,
		approved.ID: domain.TicketStatusApproved,
	} {
		got, _ := f.tickets.Get(ctx, id)
		if got.Status != want {
			t.Fatalf("ticket %s: expected %s, got %s", id, want, got.Status)
		}
	}
}

func TestBulkUpdate_Validation(t *testing.T) {
	f := newFixture(t)
	if _, err := f.tickets.BulkUpdate(context.Background(), operator(), []string{"x"}, "delete"); err == nil {
		t.Fatalf("unknown action should fail")
	}
	if _, err := f.tickets.BulkUpdate(context.Background(), operator(), nil, BulkActionArchive); err == nil {
		t.Fatalf("empty ids should fail")
	}
}

func TestList_PagingAndClamp(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.intake(t, IntakeInput{Subject: "x"})
	}

	page, err := f.tickets.List(ctx, TicketQuery{Limit: 500})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Limit != maxPageSize || page.Total != 3 || page.TotalPages != 1 {
		t.Fatalf("unexpected page %+v", page)
	}

	page, err = f.tickets.List(ctx, TicketQuery{Limit: 2, Page: 2})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(page.Items) != 1 || page.TotalPages != 2 {
		t.Fatalf("unexpected second page %+v", page)
	}

	if _, err := f.tickets.List(ctx, TicketQuery{Page: -1}); err == nil {
		t.Fatalf("negative page should fail")
	}
	if _, err := f.tickets.List(ctx, TicketQuery{Status: "closed"}); err == nil {
		t.Fatalf("unknown status should fail")
	}
}

func TestList_PageTooLarge(t *testing.T) {
	f := newFixture(t)
	f.intake(t, IntakeInput{Subject: "x"})

	_, err := f.tickets.List(context.Background(), TicketQuery{Page: 1 << 62, Limit: 20})
	if fields := fieldErrors(t, err); fields["page"] == "" {
		t.Fatalf("expected page field error, got %v", err)
	}

	if _, err := f.tickets.List(context.Background(), TicketQuery{Page: 1000, Limit: 20}); err != nil {
		t.Fatalf("large but addressable page should succeed: %v", err)
	}
}

func TestList_CategoryBySlug(t *testing.T) {
	f := newFixture(t)
	f.intake(t, IntakeInput{Subject: "x"})
	f.intake(t, IntakeInput{Subject: "y", Category: string(domain.CategoryJobApplication)})

	page, err := f.tickets.List(context.Background(), TicketQuery{Category: "job-applicants"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Total != 1 || page.Items[0].Category != domain.CategoryJobApplication {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestStats_ZeroFilled(t *testing.T) {
	f := newFixture(t)
	f.intake(t, IntakeInput{Subject: "a"})
	f.intake(t, IntakeInput{Subject: "b", AIDraftResponse: "draft"})
	f.intake(t, IntakeInput{Subject: "c", AIDraftResponse: "draft", Category: string(domain.CategoryJobApplication)})

	stats, err := f.tickets.Stats(context.Background(), "")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 3 || stats.ByStatus[domain.TicketStatusPendingReview] != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if _, ok := stats.ByStatus[domain.TicketStatusArchived]; !ok {
		t.Fatalf("every status should be present")
	}

	scoped, err := f.tickets.Stats(context.Background(), string(domain.CategoryJobApplication))
	if err != nil {
		t.Fatalf("scoped stats: %v", err)
	}
	if scoped.Total != 1 {
		t.Fatalf("expected 1 in category, got %d", scoped.Total)
	}
}

func TestExport_HeadersAndCategoryColumns(t *testing.T) {
	f := newFixture(t)
	f.intake(t, IntakeInput{
		Subject:     "Hiring",
		Category:    string(domain.CategoryJobApplication),
		PhoneNumber: "+1 555",
		LinkedinURL: "https://linkedin.com/in/ada",
		Position:    "Engineer, Backend",
	})

	var buf bytes.Buffer
	if err := f.tickets.Export(context.Background(), &buf, TicketQuery{Category: string(domain.CategoryJobApplication)}); err != nil {
		t.Fatalf("export: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus one row, got %d", len(records))
	}
	wantHeader := []string{"ID", "First Name", "Last Name", "Email", "Subject", "Status", "Created At", "Updated At", "Responded At", "Phone", "LinkedIn", "Position"}
	if strings.Join(records[0], "|") != strings.Join(wantHeader, "|") {
		t.Fatalf("unexpected header %v", records[0])
	}
	row := records[1]
	if row[len(row)-1] != "Engineer, Backend" || row[8] != "" {
		t.Fatalf("unexpected row %v", row)
	}
}

func TestExport_SpecialCharactersRoundTrip(t *testing.T) {
	f := newFixture(t)
	values := []string{`Smith, "Jr"`, "line one\nline two", `say "hi", then leave`}
	f.intake(t, IntakeInput{
		FirstName: values[0],
		LastName:  values[1],
		Email:     "odd@example.com",
		Subject:   values[2],
	})

	var buf bytes.Buffer
	if err := f.tickets.Export(context.Background(), &buf, TicketQuery{}); err != nil {
		t.Fatalf("export: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus one row, got %d", len(records))
	}
	row := records[1]
	if row[1] != values[0] || row[2] != values[1] || row[4] != values[2] {
		t.Fatalf("values did not survive the round trip: %q", row)
	}
}

func TestExport_ContactUsSkipsDuplicateSubject(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	if err := f.tickets.Export(context.Background(), &buf, TicketQuery{Category: string(domain.CategoryContactUs)}); err != nil {
		t.Fatalf("export: %v", err)
	}
	header := strings.TrimSpace(buf.String())
	if strings.Count(header, "Subject") != 1 || !strings.HasSuffix(header, "Location") {
		t.Fatalf("unexpected header %q", header)
	}
}

func TestNotes_AddAndList(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.intake(t, IntakeInput{Subject: "x"})

	actor := operator()
	actor.Name = ""
	note, err := f.tickets.AddNote(ctx, actor, ticket.ID, "  called them back  ")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if note.AuthorName != actor.Email || note.Content != "called them back" {
		t.Fatalf("unexpected note %+v", note)
	}
	if _, err := f.tickets.AddNote(ctx, operator(), ticket.ID, "second"); err != nil {
		t.Fatalf("add second: %v", err)
	}

	notes, err := f.tickets.ListNotes(ctx, ticket.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(notes) != 2 || notes[0].Content != "second" {
		t.Fatalf("expected newest first, got %+v", notes)
	}
}

func TestNotes_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	ticket := f.intake(t, IntakeInput{Subject: "x"})

	if _, err := f.tickets.AddNote(ctx, operator(), ticket.ID, "   "); err == nil {
		t.Fatalf("blank note should fail")
	}
	if _, err := f.tickets.AddNote(ctx, operator(), ticket.ID, strings.Repeat("é", domain.NoteMaxLength)); err != nil {
		t.Fatalf("note at the limit should pass: %v", err)
	}
	if _, err := f.tickets.AddNote(ctx, operator(), ticket.ID, strings.Repeat("a", domain.NoteMaxLength+1)); err == nil {
		t.Fatalf("note over the limit should fail")
	}
	_, err := f.tickets.AddNote(ctx, operator(), "missing", "hello")
	if _, status := errorCode(err); status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown ticket, got %v", err)
	}
}
