package middleware

import (
	"errors"
	"net/http"

	"github.com/angelmondragon/storefront-promotions/api/responses"
	pkgAuth "github.com/angelmondragon/storefront-promotions/pkg/auth"
	pkgerrors "github.com/angelmondragon/storefront-promotions/pkg/errors"
	"github.com/angelmondragon/storefront-promotions/pkg/logger"
)

// TokenVerifier is satisfied by *auth.Signer.
type TokenVerifier interface {
	Verify(raw string) (*pkgAuth.AccessTokenClaims, error)
}

// Auth requires a valid bearer token and seeds the request context with its claims.
func Auth(tokens TokenVerifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := pkgAuth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := tokens.Verify(raw)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, pkgAuth.ErrTokenExpired) {
					msg = "token expired"
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, msg))
				return
			}

			ctx := WithClaims(r.Context(), claims)
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission answers 401 when Auth has not run and 403 when the claims lack perm.
func RequirePermission(perm string, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var err error
			switch claims := ClaimsFromContext(r.Context()); {
			case claims == nil:
				err = pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
			case !claims.HasPermission(perm):
				err = pkgerrors.Newf(pkgerrors.CodeForbidden, "%s permission required", perm)
			}
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
