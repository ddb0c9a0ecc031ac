package guard

import (
	"strings"

	"github.com/nkiryanov/sims/internal/models"
)

type View struct {
	Path    string
	Title   string
	Allowed []models.Role // empty: any authenticated user
}

var (
	anyRole        []models.Role
	adminOnly      = []models.Role{models.RoleAdmin}
	supervisorOnly = []models.Role{models.RoleSupervisor}
	pgOnly         = []models.Role{models.RolePG}
)

// Protected views of the dashboard
var Views = []View{
	{Path: "/dashboard", Title: "Dashboard", Allowed: anyRole},
	{Path: "/dashboard/search", Title: "Search", Allowed: anyRole},

	{Path: "/dashboard/admin", Title: "Admin dashboard", Allowed: adminOnly},
	{Path: "/dashboard/admin/users", Title: "Users", Allowed: adminOnly},
	{Path: "/dashboard/admin/bulk-import", Title: "Bulk import", Allowed: adminOnly},
	{Path: "/dashboard/admin/analytics", Title: "Analytics", Allowed: adminOnly},
	{Path: "/dashboard/admin/audit-logs", Title: "Audit logs", Allowed: adminOnly},

	{Path: "/dashboard/supervisor", Title: "Supervisor dashboard", Allowed: supervisorOnly},
	{Path: "/dashboard/supervisor/pgs", Title: "Assigned PGs", Allowed: supervisorOnly},
	{Path: "/dashboard/supervisor/logbooks", Title: "Logbook review", Allowed: supervisorOnly},

	{Path: "/dashboard/pg", Title: "PG dashboard", Allowed: pgOnly},
	{Path: "/dashboard/pg/logbook", Title: "Logbook", Allowed: pgOnly},
	{Path: "/dashboard/pg/rotations", Title: "Rotations", Allowed: pgOnly},
	{Path: "/dashboard/pg/notifications", Title: "Notifications", Allowed: pgOnly},
	{Path: "/dashboard/pg/results", Title: "Results", Allowed: pgOnly},
	{Path: "/dashboard/pg/certificates", Title: "Certificates", Allowed: pgOnly},
}

// Find view serving path: exact match or the closest parent view
func Lookup(path string) (View, bool) {
	path = strings.TrimRight(strings.SplitN(path, "?", 2)[0], "/")

	var (
		found View
		ok    bool
	)
	for _, v := range Views {
		if path != v.Path && !strings.HasPrefix(path, v.Path+"/") {
			continue
		}
		if !ok || len(v.Path) > len(found.Path) {
			found, ok = v, true
		}
	}
	return found, ok
}
