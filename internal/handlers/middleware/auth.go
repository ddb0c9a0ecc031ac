package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/nkiryanov/sims/internal/handlers/render"
	"github.com/nkiryanov/sims/internal/handlers/userctx"
	"github.com/nkiryanov/sims/internal/models"
)

const bearerScheme = "Bearer"

type authenticator interface {
	// Return user the access token was issued for
	Authenticate(ctx context.Context, access string) (models.User, error)
}

type AuthMiddleware struct {
	auth authenticator
}

func NewAuth(auth authenticator) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Auth lets through requests with valid bearer token and puts the user into request context
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, bearerScheme) || token == "" {
			render.ServiceError(w, "Authentication credentials were not provided", http.StatusUnauthorized)
			return
		}

		user, err := m.auth.Authenticate(r.Context(), strings.TrimSpace(token))
		if err != nil {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(userctx.New(r.Context(), user)))
	})
}

// RequireRoles lets through users with one of the roles. Must be used after Auth
func RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := userctx.FromContext(r.Context()); !ok {
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !userctx.HasRole(r.Context(), roles...) {
				render.ServiceError(w, "You do not have permission to perform this action", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
