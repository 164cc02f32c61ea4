package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/response-desk/internal/auth"
	apperrors "github.com/spec-kit/response-desk/pkg/util/errorutil"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindJSON parses the body into dst and runs struct validation. Failures
// come back as field-scoped validation errors.
func bindJSON(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.NewValidationError("Invalid request body", nil)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			key := strings.SplitN(fe.Namespace(), ".", 2)
			name := fe.Field()
			if len(key) == 2 {
				name = key[1]
			}
			if _, seen := fields[name]; !seen {
				fields[name] = fieldMessage(fe)
			}
		}
		return apperrors.NewFieldErrors(fields)
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return "Invalid email address"
	case "url":
		return "Invalid URL"
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("At least %s required", fe.Param())
		}
		return fmt.Sprintf("Must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("Must be at most %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("Must be greater than %s", fe.Param())
	}
	return "Invalid value"
}

// queryInt reads an optional integer query parameter. Absent means 0.
func queryInt(c *fiber.Ctx, key string, fields map[string]string) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		fields[key] = fmt.Sprintf("%s must be a positive integer", key)
		return 0
	}
	return n
}

func currentSession(c *fiber.Ctx) (auth.Session, error) {
	session, ok := auth.SessionFromContext(c)
	if !ok || session == nil {
		return auth.Session{}, apperrors.NewUnauthorized("authentication required")
	}
	return *session, nil
}
