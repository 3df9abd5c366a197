package actorctx

import (
	"context"

	"github.com/geocoder89/taskhub/internal/domain/user"
)

type ctxKey struct{}

// Actor is the verified identity behind a request. It is only ever built by
// the auth middleware from a verified token plus the stored user record.
type Actor struct {
	ID   string
	Role user.Role
}

func (a Actor) IsAdmin() bool {
	return a.Role.IsAdmin()
}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)

	return a, ok && a.ID != ""
}
