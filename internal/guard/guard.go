// Package guard decides whether the current session may open a protected view
package guard

import (
	"net/url"
	"slices"
	"strings"

	"github.com/nkiryanov/sims/internal/models"
)

type State int

const (
	StateUnknown         State = iota // session not loaded yet
	StateUnauthenticated              // no user or no token
	StateUnauthorized                 // authenticated, role not allowed
	StateAuthorized
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateUnauthorized:
		return "unauthorized"
	case StateAuthorized:
		return "authorized"
	default:
		return "unknown"
	}
}

const (
	LoginPath        = "/login"
	UnauthorizedPath = "/unauthorized"
	DashboardPath    = "/dashboard"
)

// Decision for a view. Redirect is set for unauthenticated and unauthorized states
type Decision struct {
	State    State
	Redirect string
}

// Evaluate decides access of session to the view at path.
// Empty allow-list admits any authenticated role.
func Evaluate(session models.Session, resolved bool, allowed []models.Role, path string) Decision {
	switch {
	case !resolved:
		return Decision{State: StateUnknown}

	case !session.Authenticated():
		return Decision{State: StateUnauthenticated, Redirect: LoginRedirect(path)}

	case len(allowed) > 0 && !slices.Contains(allowed, session.User.Role):
		return Decision{State: StateUnauthorized, Redirect: UnauthorizedPath}

	default:
		return Decision{State: StateAuthorized}
	}
}

// Login path that brings the user back to path after login
func LoginRedirect(path string) string {
	if path == "" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"next": {path}}.Encode()
}

// Destination preserved in the login query, dashboard hub if missing or not a local path
func NextFromLogin(rawQuery string) string {
	q, err := url.ParseQuery(strings.TrimPrefix(rawQuery, "?"))
	if err != nil {
		return DashboardPath
	}

	next := q.Get("next")
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return DashboardPath
	}
	return next
}

// Role dashboard hub
func HomePath(role models.Role) string {
	switch role {
	case models.RoleAdmin:
		return "/dashboard/admin"
	case models.RoleSupervisor:
		return "/dashboard/supervisor"
	case models.RolePG:
		return "/dashboard/pg"
	default:
		return UnauthorizedPath
	}
}
