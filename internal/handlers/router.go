package handlers

import (
	"net/http"

	"github.com/nkiryanov/sims/internal/handlers/middleware"
	"github.com/nkiryanov/sims/internal/models"
)

type Middleware = func(next http.Handler) http.Handler

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...Middleware) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	authHandler *AuthHandler,
	userHandler *UserHandler,
	authMiddleware Middleware,
	loggerMiddleware Middleware,
) http.Handler {
	withAuth := func(h http.HandlerFunc, mds ...Middleware) http.Handler {
		return chain(h, append([]Middleware{authMiddleware}, mds...)...)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register/", authHandler.register)
	mux.HandleFunc("POST /api/auth/login/", authHandler.login)
	mux.HandleFunc("POST /api/auth/refresh/", authHandler.refresh)
	mux.Handle("POST /api/auth/logout/", withAuth(authHandler.logout))
	mux.Handle("GET /api/auth/profile/{$}", withAuth(authHandler.profile))
	mux.Handle("PATCH /api/auth/profile/update/", withAuth(authHandler.updateProfile))
	mux.Handle("POST /api/auth/change-password/", withAuth(authHandler.changePassword))

	mux.Handle("GET /api/users/assigned-pgs/",
		withAuth(userHandler.assignedPGs, middleware.RequireRoles(models.RoleSupervisor, models.RoleAdmin)),
	)

	return chain(mux, loggerMiddleware)
}
