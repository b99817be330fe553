package handler

import (
	"net/http"

	"github.com/boddenberg/money-manager-bfa-go/internal/guard"
	"github.com/boddenberg/money-manager-bfa-go/internal/infra/observability"
	"github.com/boddenberg/money-manager-bfa-go/internal/service"
	"github.com/boddenberg/money-manager-bfa-go/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Deps are the services behind the local HTTP surface.
type Deps struct {
	Session   *session.Controller
	Auth      *service.AuthService
	Ledger    *service.LedgerRepository
	Dashboard *service.Dashboard
	Admin     *service.AdminService
	Guard     *guard.Table
	Metrics   *observability.Metrics
}

// NewRouter creates the HTTP router. Every path is a view; the guard
// middleware decides each navigation before its handler runs.
func NewRouter(d Deps, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	paths := d.Guard.Paths()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(GuardMiddleware(d.Guard, d.Session, d.Metrics, logger))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(d.Session))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))
	r.Get("/status", statusHandler(d.Session, d.Metrics))

	// --- Public views ---
	r.Get("/", homeHandler(d.Session))
	r.Get("/session", sessionHandler(d.Session))
	r.Get("/login", loginViewHandler(d.Session))
	r.Post("/login", loginHandler(d.Auth, paths, logger))
	r.Post("/login/google", googleLoginHandler(d.Auth, paths, logger))
	r.Post("/register", registerHandler(d.Auth, paths, logger))
	r.Post("/forgot-password", forgotPasswordHandler(d.Auth, paths, logger))
	r.Post("/reset-password", resetPasswordHandler(d.Auth, paths, logger))

	// --- Authenticated views ---
	r.Post("/logout", logoutHandler(d.Auth, paths))
	r.Get("/community", communityHandler(d.Session))

	r.Route("/money", func(r chi.Router) {
		r.Get("/", dashboardHandler(d.Dashboard, paths, logger))

		r.Route("/months", func(r chi.Router) {
			r.Get("/", listMonthsHandler(d.Ledger, paths, logger))
			r.Post("/", createMonthHandler(d.Ledger, paths, logger))

			r.Route("/{monthID}", func(r chi.Router) {
				r.Get("/", monthDetailHandler(d.Dashboard, paths, logger))
				r.Patch("/", updateMonthHandler(d.Ledger, paths, logger))
				r.Delete("/", deleteMonthHandler(d.Ledger, paths, logger))

				r.Get("/bills", listBillsHandler(d.Ledger, paths, logger))
				r.Post("/bills", createBillHandler(d.Ledger, paths, logger))
				r.Get("/bills/{billID}", getBillHandler(d.Ledger, paths, logger))
				r.Put("/bills/{billID}", updateBillHandler(d.Ledger, paths, logger))
				r.Delete("/bills/{billID}", deleteBillHandler(d.Ledger, paths, logger))
			})
		})
	})

	// --- Admin views ---
	r.Route("/admin", func(r chi.Router) {
		r.Get("/", listUsersHandler(d.Admin, paths, logger))
		r.Get("/users", listUsersHandler(d.Admin, paths, logger))
		r.Post("/users/{userID}/toggle-ban", toggleBanHandler(d.Admin, paths, logger))
		r.Delete("/users/{userID}", deleteUserHandler(d.Admin, paths, logger))
	})

	return r
}
