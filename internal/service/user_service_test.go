package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/spec-kit/response-desk/internal/auth"
	"github.com/spec-kit/response-desk/internal/domain"
	apperrors "github.com/spec-kit/response-desk/pkg/util/errorutil"
)

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	domainErr := apperrors.ToDomainError(err)
	if domainErr.HTTPStatus != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	fields, _ := domainErr.Details["fields"].(map[string]string)
	return fields
}

func TestCreateUser_DefaultsToEmployee(t *testing.T) {
	f := newFixture(t)
	user, err := f.users.CreateUser(context.Background(), CreateUserInput{Email: "new@example.com", Name: "New", Password: "password123"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if user.Role != domain.RoleEmployee || user.TwoFactorEnabled {
		t.Fatalf("unexpected user %+v", user)
	}
	if user.PasswordHash == "password123" {
		t.Fatalf("password stored in plain text")
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.createUser(t, "taken@example.com", "password123", domain.RoleEmployee, false)

	_, err := f.users.CreateUser(context.Background(), CreateUserInput{Email: "Taken@Example.com", Password: "password123"})
	if _, status := errorCode(err); status != http.StatusConflict {
		t.Fatalf("expected 409, got %v", err)
	}
}

func TestCreateUser_InvalidRole(t *testing.T) {
	f := newFixture(t)
	_, err := f.users.CreateUser(context.Background(), CreateUserInput{Email: "a@example.com", Password: "password123", Role: "owner"})
	if fields := fieldErrors(t, err); fields["role"] == "" {
		t.Fatalf("expected role field error, got %v", fields)
	}
}

func TestUpdateRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	admin := f.createUser(t, "admin@example.com", "password123", domain.RoleAdmin, false)
	staff := f.createUser(t, "staff@example.com", "password123", domain.RoleEmployee, false)
	actor := auth.Session{UserID: admin.ID, Email: admin.Email, Role: domain.RoleAdmin, TwoFactorVerified: true}

	updated, err := f.users.UpdateRole(ctx, actor, staff.ID, "ceo")
	if err != nil {
		t.Fatalf("promote: %v", err)
	}
	if updated.Role != domain.RoleCEO {
		t.Fatalf("expected ceo, got %s", updated.Role)
	}

	_, err = f.users.UpdateRole(ctx, actor, admin.ID, "employee")
	if _, status := errorCode(err); status != http.StatusForbidden {
		t.Fatalf("expected 403 for self demotion, got %v", err)
	}
	stored, _ := f.users.GetProfile(ctx, admin.ID)
	if stored.Role != domain.RoleAdmin {
		t.Fatalf("admin role changed")
	}

	if _, err := f.users.UpdateRole(ctx, actor, admin.ID, "admin"); err != nil {
		t.Fatalf("keeping own admin role should pass: %v", err)
	}

	_, err = f.users.UpdateRole(ctx, actor, "00000000-0000-0000-0000-000000000000", "ceo")
	if _, status := errorCode(err); status != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestUpdateProfile_NameOnly(t *testing.T) {
	f := newFixture(t)
	user := f.createUser(t, "me@example.com", "password123", domain.RoleEmployee, false)

	updated, err := f.users.UpdateProfile(context.Background(), user.ID, ProfileInput{Name: "  Grace  "})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Grace" {
		t.Fatalf("unexpected name %q", updated.Name)
	}
	if updated.PasswordHash != user.PasswordHash {
		t.Fatalf("password must not change")
	}
}

func TestUpdateProfile_PasswordRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.createUser(t, "me@example.com", "password123", domain.RoleEmployee, false)

	cases := []struct {
		name  string
		input ProfileInput
		field string
	}{
		{"missing name", ProfileInput{Name: " "}, "name"},
		{"missing current", ProfileInput{Name: "Me", NewPassword: "newpassword"}, "currentPassword"},
		{"too short", ProfileInput{Name: "Me", CurrentPassword: "password123", NewPassword: "short", ConfirmPassword: "short"}, "newPassword"},
		{"mismatch", ProfileInput{Name: "Me", CurrentPassword: "password123", NewPassword: "newpassword", ConfirmPassword: "other"}, "confirmPassword"},
		{"wrong current", ProfileInput{Name: "Me", CurrentPassword: "nope", NewPassword: "newpassword", ConfirmPassword: "newpassword"}, "currentPassword"},
	}
	for _, tc := range cases {
		_, err := f.users.UpdateProfile(ctx, user.ID, tc.input)
		if fields := fieldErrors(t, err); fields[tc.field] == "" {
			t.Fatalf("%s: expected %s field error, got %v", tc.name, tc.field, fields)
		}
	}

	if _, err := f.users.UpdateProfile(ctx, user.ID, ProfileInput{
		Name:            "Me",
		CurrentPassword: "password123",
		NewPassword:     "newpassword",
		ConfirmPassword: "newpassword",
	}); err != nil {
		t.Fatalf("rotate: %v", err)
	}
	if _, err := f.auth.Login(ctx, "me@example.com", "newpassword"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, err := f.auth.Login(ctx, "me@example.com", "password123"); err == nil {
		t.Fatalf("old password still accepted")
	}
}
