package service

import (
	"errors"

	"yamdb/internal/apperr"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/rbac"
)

// Authorizer decides whether an identity may act on a resource.
type Authorizer interface {
	Authorize(id rbac.Identity, act rbac.Action, res rbac.Resource, own rbac.Ownership) error
}

// storeError converts repository failures into client-facing errors.
func storeError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if ae := apperr.As(err); ae != nil {
		return ae
	}
	// a missing parent row reads as the parent not existing
	if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrMissingReference) {
		return apperr.NotFound(resource)
	}
	return apperr.Internal(err)
}
