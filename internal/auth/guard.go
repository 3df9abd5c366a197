package auth

import (
	"github.com/geocoder89/taskhub/internal/actorctx"
	"github.com/geocoder89/taskhub/internal/apperr"
)

var ErrForbidden = apperr.Forbidden("forbidden", "You are not allowed to access this resource")

// Authorize allows the owner of a resource and any admin. Callers must have
// already confirmed the resource exists.
func Authorize(actor actorctx.Actor, ownerID string) error {
	if actor.ID == "" {
		return ErrForbidden
	}
	if actor.ID == ownerID || actor.IsAdmin() {
		return nil
	}
	return ErrForbidden
}
