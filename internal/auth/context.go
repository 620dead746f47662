package auth

import (
	"context"

	"github.com/AnshRaj112/classroom-journal/internal/models"
)

type contextKey string

const keyIdentity contextKey = "identity"

func WithIdentity(ctx context.Context, identity models.Identity) context.Context {
	return context.WithValue(ctx, keyIdentity, identity)
}

func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	identity, ok := ctx.Value(keyIdentity).(models.Identity)
	return identity, ok && identity != nil
}
