package utils

import (
	"context"

	"github.com/EmpoweredVote/meal-tracker/internal/token"
)

type contextKey string

const ContextIdentityKey contextKey = "identity"

func WithIdentity(ctx context.Context, id token.Identity) context.Context {
	return context.WithValue(ctx, ContextIdentityKey, id)
}

func GetIdentityFromContext(ctx context.Context) (token.Identity, bool) {
	id, ok := ctx.Value(ContextIdentityKey).(token.Identity)
	return id, ok
}

func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := GetIdentityFromContext(ctx)
	return id.UserID, ok
}
