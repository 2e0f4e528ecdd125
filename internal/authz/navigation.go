package authz

// Route identifies a navigable view.
type Route string

const (
	RouteLogin       Route = "login"
	RouteDashboard   Route = "dashboard"
	RouteTimeEntries Route = "time-entries"
	RouteMatters     Route = "matters"
	RouteClients     Route = "clients"
	RouteContracts   Route = "contracts"
	RouteEmployees   Route = "employees"
	RouteRates       Route = "rates"
	RouteReports     Route = "reports"
)

// NavEntry is one item of the main navigation.
type NavEntry struct {
	Route    Route      `json:"route" yaml:"route"`
	Title    string     `json:"title" yaml:"title"`
	Path     string     `json:"path" yaml:"path"`
	Requires Capability `json:"requires" yaml:"requires"`
}

var navigation = []NavEntry{
	{Route: RouteDashboard, Title: "Dashboard", Path: "/dashboard", Requires: CapViewDashboard},
	{Route: RouteTimeEntries, Title: "Time entries", Path: "/time-entries", Requires: CapViewTimeEntries},
	{Route: RouteMatters, Title: "Matters", Path: "/matters", Requires: CapViewMatters},
	{Route: RouteClients, Title: "Clients", Path: "/clients", Requires: CapViewClients},
	{Route: RouteContracts, Title: "Contracts", Path: "/contracts", Requires: CapViewContracts},
	{Route: RouteEmployees, Title: "Employees", Path: "/employees", Requires: CapManageEmployees},
	{Route: RouteRates, Title: "Rates", Path: "/rates", Requires: CapManageRates},
	{Route: RouteReports, Title: "Reports", Path: "/reports", Requires: CapRunReports},
}

// Navigation returns the navigation entries visible to role, in menu order.
func Navigation(role Role) []NavEntry {
	caps := Capabilities(role)
	out := make([]NavEntry, 0, len(navigation))
	for _, entry := range navigation {
		if caps.Has(entry.Requires) {
			out = append(out, entry)
		}
	}
	return out
}

// RequiredCapability returns the capability a route needs. The login route
// needs none.
func RequiredCapability(route Route) (Capability, bool) {
	for _, entry := range navigation {
		if entry.Route == route {
			return entry.Requires, true
		}
	}
	return "", false
}

// ParseRoute resolves a route name or path ("rates", "/rates").
func ParseRoute(s string) (Route, bool) {
	if s == string(RouteLogin) || s == "/login" {
		return RouteLogin, true
	}
	for _, entry := range navigation {
		if string(entry.Route) == s || entry.Path == s {
			return entry.Route, true
		}
	}
	return "", false
}
