package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestToDomainError_PassesThroughWrappedDomainError(t *testing.T) {
	base := NewConflict("already enabled", nil)
	wrapped := fmt.Errorf("enable: %w", base)

	got := ToDomainError(wrapped)
	if got.HTTPStatus != http.StatusConflict || got.Code != "CONFLICT" {
		t.Fatalf("expected conflict, got %d %s", got.HTTPStatus, got.Code)
	}
}

func TestToDomainError_FiberError(t *testing.T) {
	got := ToDomainError(fiber.NewError(http.StatusNotFound, "Cannot GET /nope"))
	if got.HTTPStatus != http.StatusNotFound || got.Code != "NOT_FOUND" {
		t.Fatalf("expected not found mapping, got %d %s", got.HTTPStatus, got.Code)
	}
}

func TestToDomainError_UnknownErrorHidesDetail(t *testing.T) {
	got := ToDomainError(errors.New("pq: relation tickets does not exist"))
	if got.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", got.HTTPStatus)
	}
	if got.Message != "internal server error" {
		t.Fatalf("internal detail leaked: %q", got.Message)
	}
	if got.Err == nil {
		t.Fatalf("expected cause kept for logging")
	}
}

func TestNewBadGatewayKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewBadGateway("Failed to reach dispatch webhook", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to unwrap")
	}
	if ToDomainError(err).HTTPStatus != http.StatusBadGateway {
		t.Fatalf("expected 502")
	}
}
