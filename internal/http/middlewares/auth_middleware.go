package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/actorctx"
	"github.com/geocoder89/taskhub/internal/apperr"
	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/gin-gonic/gin"
)

// Keep these interfaces small so tests can fake them easily.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type UserLoader interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

var (
	errMissingToken = apperr.Unauthenticated("unauthorized", "You are not logged in. Please log in to get access.")
	errUserGone     = apperr.Unauthenticated("unauthorized", "The user belonging to this token no longer exists.")
	errUserInactive = apperr.Unauthenticated("unauthorized", "This account has been deactivated.")
	errNoIdentity   = apperr.Unauthenticated("unauthorized", "Missing identity context")
)

type AuthMiddleware struct {
	jwt   TokenVerifier
	users UserLoader
	prom  *observability.Prom
}

func NewAuthMiddleware(jwt TokenVerifier, users UserLoader, prom *observability.Prom) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, users: users, prom: prom}
}

// RequireAuth verifies the bearer token, reloads the user and attaches the
// resulting actor. The role comes from the stored record, not the token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			m.prom.AuthFailure("missing_token")
			abortErr(c, errMissingToken)
			return
		}

		claims, err := m.jwt.Verify(raw)
		if err != nil {
			m.prom.AuthFailure("invalid_token")
			abortErr(c, auth.ErrInvalidToken)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		u, err := m.users.GetByID(ctx, claims.UserID())
		if err != nil {
			if errors.Is(err, user.ErrNotFound) {
				m.prom.AuthFailure("user_not_found")
				abortErr(c, errUserGone)
				return
			}

			slog.Default().ErrorContext(c.Request.Context(), "auth user lookup failed",
				"err", err,
				"user_id", claims.UserID(),
			)
			abortWith(c, http.StatusInternalServerError, "internal_error", "Internal server error")
			return
		}

		if !u.IsActive {
			m.prom.AuthFailure("inactive_user")
			abortErr(c, errUserInactive)
			return
		}

		SetActor(c, actorctx.Actor{ID: u.ID, Role: u.Role})

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

// SetActor attaches a verified actor to both the gin and request contexts.
func SetActor(c *gin.Context, actor actorctx.Actor) {
	c.Set(ctxActorKey, actor)
	c.Request = c.Request.WithContext(actorctx.WithActor(c.Request.Context(), actor))
}

// ActorFromContext is the only way handlers read the caller's identity.
func ActorFromContext(c *gin.Context) (actorctx.Actor, bool) {
	v, ok := c.Get(ctxActorKey)
	if !ok {
		return actorctx.Actor{}, false
	}
	a, ok := v.(actorctx.Actor)
	return a, ok && a.ID != ""
}
