package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/stondral/tsew-sub002/api/responses"
	pkgAuth "github.com/stondral/tsew-sub002/pkg/auth"
	"github.com/stondral/tsew-sub002/pkg/config"
	pkgerrors "github.com/stondral/tsew-sub002/pkg/errors"
	"github.com/stondral/tsew-sub002/pkg/logger"
)

// Auth requires a valid bearer token and stores the principal in the request
// context. It makes no authorization decisions.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(cfg, logg, true)
}

// OptionalAuth accepts anonymous requests but still rejects a token that is
// present and invalid.
func OptionalAuth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return authenticate(cfg, logg, false)
}

func authenticate(cfg config.JWTConfig, logg *logger.Logger, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				if required {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			principal := claims.Principal()
			ctx := WithPrincipal(r.Context(), principal)
			ctx = withPrincipalFields(ctx, logg, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin limits a route to platform admins.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !PrincipalFromContext(r.Context()).IsPlatformAdmin() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "forbidden"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(raw string) string {
	token := strings.TrimSpace(raw)
	if len(token) >= 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	return token
}

func withPrincipalFields(ctx context.Context, logg *logger.Logger, principal pkgAuth.Principal) context.Context {
	if logg == nil {
		return ctx
	}
	ctx = logg.WithUserID(ctx, principal.UserID.String())
	return logg.WithSystemRole(ctx, string(principal.SystemRole))
}
