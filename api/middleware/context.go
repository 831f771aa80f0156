package middleware

import (
	"context"

	"github.com/google/uuid"

	pkgAuth "github.com/angelmondragon/storefront-promotions/pkg/auth"
)

type ctxKey struct{ name string }

var (
	userIDKey = &ctxKey{"user_id"}
	claimsKey = &ctxKey{"claims"}
)

// WithUserID records the acting user without full claims. Auth sets both.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

func WithClaims(ctx context.Context, claims *pkgAuth.AccessTokenClaims) context.Context {
	ctx = context.WithValue(ctx, claimsKey, claims)
	if claims != nil {
		ctx = WithUserID(ctx, claims.UserID.String())
	}
	return ctx
}

// UserIDFromContext returns "" for anonymous requests.
func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// ActorIDFromContext parses the acting user id, returning uuid.Nil when absent or malformed.
func ActorIDFromContext(ctx context.Context) uuid.UUID {
	id, err := uuid.Parse(UserIDFromContext(ctx))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// ClaimsFromContext returns nil for anonymous requests.
func ClaimsFromContext(ctx context.Context) *pkgAuth.AccessTokenClaims {
	claims, _ := ctx.Value(claimsKey).(*pkgAuth.AccessTokenClaims)
	return claims
}
