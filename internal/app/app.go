// Package app wires configuration into the services shared by the local
// server and the command-line client.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/boddenberg/money-manager-bfa-go/internal/config"
	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
	"github.com/boddenberg/money-manager-bfa-go/internal/guard"
	"github.com/boddenberg/money-manager-bfa-go/internal/handler"
	"github.com/boddenberg/money-manager-bfa-go/internal/infra/client"
	"github.com/boddenberg/money-manager-bfa-go/internal/infra/observability"
	"github.com/boddenberg/money-manager-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/money-manager-bfa-go/internal/infra/tokenstore"
	"github.com/boddenberg/money-manager-bfa-go/internal/port"
	"github.com/boddenberg/money-manager-bfa-go/internal/service"
	"github.com/boddenberg/money-manager-bfa-go/internal/session"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// App holds the wired services.
type App struct {
	Session   *session.Controller
	Auth      *service.AuthService
	Ledger    *service.LedgerRepository
	Dashboard *service.Dashboard
	Admin     *service.AdminService
	Guard     *guard.Table
	Metrics   *observability.Metrics

	closers []io.Closer
	logger  *zap.Logger
}

// New builds the application from cfg and restores any persisted session.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	persister, err := a.persister(cfg)
	if err != nil {
		return nil, err
	}

	// --- Metrics ---
	a.Metrics = observability.NewMetrics()

	// --- Session ---
	store := session.NewTokenStore(persister, logger)
	store.Restore(ctx)
	a.Session = session.NewController(store, logger)
	a.Session.Subscribe(func(t domain.SessionTransition, _ domain.SessionState) {
		a.Metrics.IncrTransition(t)
	})

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxBackoff:     cfg.MaxBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker(resilience.BreakerSettings{
		Name:         "money-api",
		OpenTimeout:  cfg.BreakerTimeout,
		IsSuccessful: client.IsRemoteHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			a.Metrics.SetBreakerState(name, to)
			logger.Warn("remote api: circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	// --- Remote API client ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	api := client.New(httpClient, cfg.APIBaseURL, client.Endpoints{
		Login:          cfg.APILoginPath,
		Register:       cfg.APIRegisterPath,
		GoogleLogin:    cfg.APIGoogleLoginPath,
		ForgotPassword: cfg.APIForgotPasswordPath,
		ResetPassword:  cfg.APIResetPasswordPath,
		Months:         cfg.APIMonthsPath,
		Bills:          cfg.APIBillsPath,
		Admin:          cfg.APIAdminPath,
	}, cb, resilienceCfg, logger)

	// --- Services ---
	a.Auth = service.NewAuthService(api, a.Session, logger)
	a.Ledger = service.NewLedgerRepository(api, a.Session, a.Metrics, logger)
	a.Session.Subscribe(a.Ledger.OnSessionChange)
	a.Dashboard = service.NewDashboard(a.Ledger, cfg.MaxConcurrency, a.Metrics, logger)
	a.Admin = service.NewAdminService(api, a.Session, logger)

	// --- Route guard ---
	a.Guard = guard.DefaultTable()

	return a, nil
}

func (a *App) persister(cfg *config.Config) (port.TokenPersister, error) {
	switch cfg.TokenStore {
	case config.TokenStoreSQLite:
		db, err := tokenstore.NewSQLite(cfg.TokenDBPath)
		if err != nil {
			return nil, fmt.Errorf("open token database: %w", err)
		}
		a.closers = append(a.closers, db)
		a.logger.Info("token store: sqlite", zap.String("path", cfg.TokenDBPath))
		return db, nil
	case config.TokenStoreMemory:
		a.logger.Info("token store: memory (session ends with the process)")
		return tokenstore.NewMemory(), nil
	default:
		a.logger.Info("token store: file",
			zap.String("path", cfg.TokenFile),
			zap.Bool("sealed", cfg.TokenSecret != ""),
		)
		return tokenstore.NewFile(cfg.TokenFile, cfg.TokenSecret), nil
	}
}

// Router returns the local HTTP surface.
func (a *App) Router() http.Handler {
	return handler.NewRouter(handler.Deps{
		Session:   a.Session,
		Auth:      a.Auth,
		Ledger:    a.Ledger,
		Dashboard: a.Dashboard,
		Admin:     a.Admin,
		Guard:     a.Guard,
		Metrics:   a.Metrics,
	}, a.logger)
}

// Navigate evaluates the route guard for target and records the decision.
func (a *App) Navigate(target string) guard.Decision {
	d := a.Guard.Check(target, a.Session.State())
	a.Metrics.IncrGuardDecision(string(d.Outcome))
	return d
}

// Close releases storage handles.
func (a *App) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
