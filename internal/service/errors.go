package service

import (
	"errors"

	"github.com/spec-kit/response-desk/internal/repository"
	apperrors "github.com/spec-kit/response-desk/pkg/util/errorutil"
)

// mapRepoErr turns repository sentinels into domain errors. Other errors
// pass through and surface as a generic 500.
func mapRepoErr(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, nil)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.NewConflict(resource+" already exists", nil)
	default:
		return err
	}
}
