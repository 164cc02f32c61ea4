package handlers

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/response-desk/internal/api/dto"
	apperrors "github.com/spec-kit/response-desk/pkg/util/errorutil"
)

func bindFields(t *testing.T, body string, dst any) map[string]string {
	t.Helper()
	app := fiber.New()
	var bindErr error
	app.Post("/", func(c *fiber.Ctx) error {
		bindErr = bindJSON(c, dst)
		return nil
	})
	req := httptest.NewRequest(fiber.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if _, err := app.Test(req, -1); err != nil {
		t.Fatalf("request: %v", err)
	}
	if bindErr == nil {
		return nil
	}
	var domainErr *apperrors.DomainError
	if !errors.As(bindErr, &domainErr) {
		t.Fatalf("expected domain error, got %v", bindErr)
	}
	fields, _ := domainErr.Details["fields"].(map[string]string)
	return fields
}

func TestBindJSON_UsesJSONFieldNames(t *testing.T) {
	fields := bindFields(t, `{"firstName":"Ada","email":"nope","attachments":[{"fileName":"a.pdf","fileType":"application/pdf","fileUrl":"not a url"}]}`, &dto.IntakeRequest{})
	if fields["lastName"] == "" {
		t.Fatalf("expected lastName error, got %v", fields)
	}
	if fields["email"] != "Invalid email address" {
		t.Fatalf("unexpected email error %q", fields["email"])
	}
	if fields["attachments[0].fileUrl"] != "Invalid URL" {
		t.Fatalf("expected nested attachment error, got %v", fields)
	}
}

func TestBindJSON_Valid(t *testing.T) {
	var req dto.BulkRequest
	if fields := bindFields(t, `{"ids":["a"],"action":"archive"}`, &req); fields != nil {
		t.Fatalf("unexpected errors %v", fields)
	}
	if len(req.IDs) != 1 || req.Action != "archive" {
		t.Fatalf("body not bound: %+v", req)
	}
}

func TestBindJSON_MalformedBody(t *testing.T) {
	app := fiber.New()
	var bindErr error
	app.Post("/", func(c *fiber.Ctx) error {
		bindErr = bindJSON(c, &dto.NoteRequest{})
		return nil
	})
	req := httptest.NewRequest(fiber.MethodPost, "/", strings.NewReader(`{"content":`))
	req.Header.Set("Content-Type", "application/json")
	if _, err := app.Test(req, -1); err != nil {
		t.Fatalf("request: %v", err)
	}
	if apperrors.ToDomainError(bindErr).HTTPStatus != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %v", bindErr)
	}
}

func TestParseTicketQuery(t *testing.T) {
	cases := []struct {
		query string
		ok    bool
		page  int
		limit int
	}{
		{"", true, 0, 0},
		{"?page=2&limit=50", true, 2, 50},
		{"?page=abc", false, 0, 0},
		{"?limit=0", false, 0, 0},
		{"?page=-1", false, 0, 0},
	}
	for _, tc := range cases {
		app := fiber.New()
		var (
			got pageLimit
			err error
		)
		app.Get("/", func(c *fiber.Ctx) error {
			q, e := parseTicketQuery(c)
			got, err = pageLimit{page: q.Page, limit: q.Limit}, e
			return nil
		})
		if _, errTest := app.Test(httptest.NewRequest(fiber.MethodGet, "/"+tc.query, nil), -1); errTest != nil {
			t.Fatalf("request: %v", errTest)
		}
		if (err == nil) != tc.ok {
			t.Fatalf("%q: expected ok=%v, got %v", tc.query, tc.ok, err)
		}
		if tc.ok && (got.page != tc.page || got.limit != tc.limit) {
			t.Fatalf("%q: got page=%d limit=%d", tc.query, got.page, got.limit)
		}
	}
}

type pageLimit struct {
	page  int
	limit int
}
