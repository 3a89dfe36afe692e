package container

import (
	"context"

	"github.com/google/uuid"
)

type dispatchIDKey struct{}

func withDispatchID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, dispatchIDKey{}, id)
}

// DispatchID returns the id of the dispatch an action body is running under.
func DispatchID(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	id, ok := ctx.Value(dispatchIDKey{}).(uuid.UUID)
	return id, ok
}
