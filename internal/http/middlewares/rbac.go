package middlewares

import (
	"slices"

	"github.com/geocoder89/taskhub/internal/apperr"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

var errRoleDenied = apperr.Forbidden("forbidden", "You do not have permission to perform this action")

// RestrictTo must run after RequireAuth.
func (m *AuthMiddleware) RestrictTo(roles ...user.Role) gin.HandlerFunc {
	allowed := slices.Clone(roles)

	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)

		if !ok {
			m.prom.AuthFailure("missing_identity")
			abortErr(c, errNoIdentity)
			return
		}
		if !slices.Contains(allowed, actor.Role) {
			m.prom.AuthFailure("role_denied")
			abortErr(c, errRoleDenied)
			return
		}
		c.Next()
	}
}
