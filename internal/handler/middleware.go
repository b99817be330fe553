package handler

import (
	"net/http"

	"github.com/boddenberg/money-manager-bfa-go/internal/guard"
	"github.com/boddenberg/money-manager-bfa-go/internal/infra/observability"
	"github.com/boddenberg/money-manager-bfa-go/internal/port"

	"go.uber.org/zap"
)

// GuardMiddleware evaluates the route guard on every request. The session
// is read fresh each time, so a token that expired since the last request
// redirects to login.
func GuardMiddleware(table *guard.Table, session port.SessionReader, metrics *observability.Metrics, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := table.Check(r.URL.RequestURI(), session.State())
			metrics.IncrGuardDecision(string(decision.Outcome))
			if decision.Allowed() {
				next.ServeHTTP(w, r)
				return
			}

			logger.Info("guard: redirecting",
				zap.String("path", r.URL.Path),
				zap.String("location", decision.Location),
				zap.String("reason", string(decision.Reason)),
			)
			http.Redirect(w, r, decision.Location, http.StatusSeeOther)
		})
	}
}
