package user

import (
	"context"
	"errors"
)

// Actor is the authenticated user performing a request.
type Actor struct {
	ID   string
	Name string
	Role Role
}

var ErrNoActor = errors.New("no authenticated actor on context")

type actorKeyType struct{}

var actorKey actorKeyType

// WithActor returns a context carrying the authenticated actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext extracts the authenticated actor placed on the
// context by the auth middleware.
func ActorFromContext(ctx context.Context) (Actor, error) {
	actor, ok := ctx.Value(actorKey).(Actor)
	if !ok || actor.ID == "" {
		return Actor{}, ErrNoActor
	}
	return actor, nil
}
