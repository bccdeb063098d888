package middleware

import (
	"context"

	"github.com/dukastore/backend/internal/identity"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxOwner  contextKey = "cart_owner"
)

// UserIDFromContext returns the authenticated user id, or nil for guests.
func UserIDFromContext(ctx context.Context) *uint64 {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxUserID).(uint64); ok {
		return &v
	}
	return nil
}

// OwnerFromContext returns the resolved cart owner for the request.
func OwnerFromContext(ctx context.Context) identity.Owner {
	if ctx == nil {
		return identity.Owner{}
	}
	if v, ok := ctx.Value(ctxOwner).(identity.Owner); ok {
		return v
	}
	return identity.Owner{}
}

// WithUserID injects the authenticated user id into the context.
func WithUserID(ctx context.Context, userID uint64) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithOwner injects the resolved cart owner into the context.
func WithOwner(ctx context.Context, owner identity.Owner) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxOwner, owner)
}
