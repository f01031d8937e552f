package services

import (
	"errors"

	"studiorit/internal/apperr"
	"studiorit/internal/repositories"
)

// repoErr translates repository sentinels into application errors.
func repoErr(err error, entity string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return apperr.NotFound(entity)
	case errors.Is(err, repositories.ErrVersionConflict):
		return apperr.Conflict("unchanged "+entity, "modified "+entity,
			entity+" was modified concurrently, reload and try again")
	case errors.Is(err, repositories.ErrDuplicate):
		return apperr.Conflict("new "+entity, "existing "+entity, entity+" already exists")
	default:
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return err
		}
		return apperr.Internal(err)
	}
}
