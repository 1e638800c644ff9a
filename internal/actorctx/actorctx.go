// Package actorctx carries the authenticated caller through a request's
// context.Context. The value is set once by the authorization middleware and
// read by handlers; it is never stored anywhere that outlives the request.
package actorctx

import (
	"context"

	"github.com/geocoder89/userhub/internal/domain/user"
)

type ctxKey struct{}

// Actor is a value type so readers get a copy and cannot mutate the
// identity seen by the rest of the request.
type Actor struct {
	Email string
	Role  user.Role
}

func With(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

func From(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)

	return a, ok && a.Email != ""
}
