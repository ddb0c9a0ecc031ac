package guard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/sims/internal/models"
	"github.com/nkiryanov/sims/internal/tokenstore"
)

func sessionOf(role models.Role, access string, refresh string) models.Session {
	return models.Session{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         &models.User{ID: 1, Username: "u", Role: role},
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		session  models.Session
		resolved bool
		allowed  []models.Role
		path     string
		expected Decision
	}{
		{
			name:     "unknown while not resolved",
			session:  sessionOf(models.RoleAdmin, "a", "r"),
			resolved: false,
			path:     "/dashboard/admin",
			expected: Decision{State: StateUnknown},
		},
		{
			name:     "no user",
			session:  models.Session{AccessToken: "a", RefreshToken: "r"},
			resolved: true,
			path:     "/dashboard/pg/logbook",
			expected: Decision{State: StateUnauthenticated, Redirect: "/login?next=%2Fdashboard%2Fpg%2Flogbook"},
		},
		{
			name:     "user without tokens",
			session:  sessionOf(models.RolePG, "", ""),
			resolved: true,
			path:     "/dashboard",
			expected: Decision{State: StateUnauthenticated, Redirect: "/login?next=%2Fdashboard"},
		},
		{
			name:     "refresh token only is still a session",
			session:  sessionOf(models.RolePG, "", "r"),
			resolved: true,
			allowed:  []models.Role{models.RolePG},
			path:     "/dashboard/pg",
			expected: Decision{State: StateAuthorized},
		},
		{
			name:     "role outside allow-list",
			session:  sessionOf(models.RolePG, "a", "r"),
			resolved: true,
			allowed:  []models.Role{models.RoleAdmin},
			path:     "/dashboard/admin",
			expected: Decision{State: StateUnauthorized, Redirect: "/unauthorized"},
		},
		{
			name:     "role in allow-list",
			session:  sessionOf(models.RoleSupervisor, "a", "r"),
			resolved: true,
			allowed:  []models.Role{models.RoleAdmin, models.RoleSupervisor},
			path:     "/dashboard/supervisor",
			expected: Decision{State: StateAuthorized},
		},
		{
			name:     "empty allow-list admits any role",
			session:  sessionOf(models.RolePG, "a", ""),
			resolved: true,
			path:     "/dashboard/search",
			expected: Decision{State: StateAuthorized},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.session, tt.resolved, tt.allowed, tt.path)

			require.Equal(t, tt.expected, got)
		})
	}
}

func TestNextFromLogin(t *testing.T) {
	tests := []struct {
		rawQuery string
		expected string
	}{
		{"next=%2Fdashboard%2Fpg%2Flogbook", "/dashboard/pg/logbook"},
		{"?next=/dashboard/search%3Fq%3Dcardio", "/dashboard/search?q=cardio"},
		{"", "/dashboard"},
		{"next=https://evil.example", "/dashboard"},
		{"next=//evil.example", "/dashboard"},
		{"next=%zz", "/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.rawQuery, func(t *testing.T) {
			require.Equal(t, tt.expected, NextFromLogin(tt.rawQuery))
		})
	}

	t.Run("round trip with login redirect", func(t *testing.T) {
		redirect := LoginRedirect("/dashboard/admin/users")
		_, query, _ := strings.Cut(redirect, "?")

		require.Equal(t, "/dashboard/admin/users", NextFromLogin(query))
	})
}

func TestHomePath(t *testing.T) {
	require.Equal(t, "/dashboard/admin", HomePath(models.RoleAdmin))
	require.Equal(t, "/dashboard/supervisor", HomePath(models.RoleSupervisor))
	require.Equal(t, "/dashboard/pg", HomePath(models.RolePG))
	require.Equal(t, "/unauthorized", HomePath(models.Role("student")))
}

func TestLookup(t *testing.T) {
	t.Run("exact", func(t *testing.T) {
		v, ok := Lookup("/dashboard/pg/logbook")
		require.True(t, ok)
		require.Equal(t, "/dashboard/pg/logbook", v.Path)
		require.Equal(t, []models.Role{models.RolePG}, v.Allowed)
	})

	t.Run("nested path falls back to closest parent", func(t *testing.T) {
		v, ok := Lookup("/dashboard/admin/users/42/?tab=roles")
		require.True(t, ok)
		require.Equal(t, "/dashboard/admin/users", v.Path)
	})

	t.Run("prefix is not a parent", func(t *testing.T) {
		v, ok := Lookup("/dashboard/pgx")
		require.True(t, ok)
		require.Equal(t, "/dashboard", v.Path)
	})

	t.Run("outside dashboard", func(t *testing.T) {
		_, ok := Lookup("/login")
		require.False(t, ok)
	})
}

func TestGuard(t *testing.T) {
	view, ok := Lookup("/dashboard/pg/logbook")
	require.True(t, ok)

	openStore := func(t *testing.T) *tokenstore.Store {
		store, err := tokenstore.Open(t.Context(), tokenstore.NewMemoryStorage(), nil)
		require.NoError(t, err)
		return store
	}

	t.Run("unknown until bound", func(t *testing.T) {
		g := New(view)
		t.Cleanup(g.Close)

		require.Equal(t, StateUnknown, g.Decision().State)

		g.Bind(openStore(t))

		require.Equal(t, Decision{State: StateUnauthenticated, Redirect: "/login?next=%2Fdashboard%2Fpg%2Flogbook"}, g.Decision())
	})

	t.Run("follows store mutations", func(t *testing.T) {
		store := openStore(t)
		g := New(view)
		t.Cleanup(g.Close)
		g.Bind(store)

		var states []State
		g.Subscribe(func(d Decision) { states = append(states, d.State) })

		require.NoError(t, store.SetSession(t.Context(), models.User{ID: 1, Role: models.RolePG}, "a1", "r1"))
		require.Equal(t, StateAuthorized, g.Decision().State)

		require.NoError(t, store.UpdateTokens(t.Context(), "r1", "a2", ""))
		require.NoError(t, store.UpdateUser(t.Context(), models.User{ID: 1, Role: models.RoleSupervisor}))
		require.Equal(t, StateUnauthorized, g.Decision().State)

		require.NoError(t, store.ClearSession(t.Context()))
		require.Equal(t, StateUnauthenticated, g.Decision().State)

		require.Equal(t, []State{StateAuthorized, StateUnauthorized, StateUnauthenticated}, states, "only changes are published")
	})

	t.Run("closed guard stops following", func(t *testing.T) {
		store := openStore(t)
		g := New(view)
		g.Bind(store)

		g.Close()
		require.NoError(t, store.SetSession(t.Context(), models.User{ID: 1, Role: models.RolePG}, "a1", "r1"))

		require.Equal(t, StateUnauthenticated, g.Decision().State)
	})
}
