package guard

import (
	"net/http"
	"strings"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"

	"github.com/go-chi/chi/v5"
)

// Route tags a path pattern (chi syntax) with an access level.
type Route struct {
	Pattern string
	Access  Access
}

// DefaultRoutes is the route surface of the application.
var DefaultRoutes = []Route{
	{"/", Public},
	{"/login", Public},
	{"/login/google", Public},
	{"/register", Public},
	{"/forgot-password", Public},
	{"/reset-password", Public},
	{"/session", Public},
	{"/healthz", Public},
	{"/readyz", Public},
	{"/metrics", Public},
	{"/status", Public},

	{"/logout", AuthRequired},
	{"/community", AuthRequired},
	{"/money", AuthRequired},
	{"/money/*", AuthRequired},

	{"/admin", AdminRequired},
	{"/admin/*", AdminRequired},
}

// Table resolves request paths to access levels. Matching is delegated to
// a chi mux so patterns behave exactly like the router's.
type Table struct {
	mux    *chi.Mux
	access map[string]Access
	paths  Paths
}

// NewTable builds a table from routes.
func NewTable(routes []Route, paths Paths) *Table {
	t := &Table{
		mux:    chi.NewRouter(),
		access: make(map[string]Access, len(routes)),
		paths:  paths,
	}
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	for _, r := range routes {
		t.mux.Handle(r.Pattern, noop)
		t.access[r.Pattern] = r.Access
		// chi reports "/" as "" in some versions.
		t.access[strings.TrimSuffix(r.Pattern, "/")] = r.Access
	}
	return t
}

// DefaultTable is NewTable(DefaultRoutes, DefaultPaths()).
func DefaultTable() *Table {
	return NewTable(DefaultRoutes, DefaultPaths())
}

// Lookup returns the access level of path. Paths outside the table are
// public: there is no view behind them to protect.
func (t *Table) Lookup(path string) Access {
	if path == "" {
		path = "/"
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}

	rctx := chi.NewRouteContext()
	if !t.mux.Match(rctx, http.MethodGet, path) {
		return Public
	}
	return t.access[rctx.RoutePattern()]
}

// Check evaluates a navigation to target (a path, optionally with a query)
// for state.
func (t *Table) Check(target string, state domain.SessionState) Decision {
	return t.paths.Evaluate(t.Lookup(target), state, target)
}

// Paths returns the table's redirect destinations.
func (t *Table) Paths() Paths {
	return t.paths
}
