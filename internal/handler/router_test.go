package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
	"github.com/boddenberg/money-manager-bfa-go/internal/guard"
	"github.com/boddenberg/money-manager-bfa-go/internal/handler"
	"github.com/boddenberg/money-manager-bfa-go/internal/infra/client"
	"github.com/boddenberg/money-manager-bfa-go/internal/infra/observability"
	"github.com/boddenberg/money-manager-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/money-manager-bfa-go/internal/infra/tokenstore"
	"github.com/boddenberg/money-manager-bfa-go/internal/service"
	"github.com/boddenberg/money-manager-bfa-go/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Fake remote API ---

type remote struct {
	mu     sync.Mutex
	now    func() time.Time
	nextID int64
	months map[int64]domain.FinancialMonth
	bills  map[int64]domain.Bill
	calls  atomic.Int32
}

func newRemote(now func() time.Time) (*remote, *httptest.Server) {
	rm := &remote{now: now, months: map[int64]domain.FinancialMonth{}, bills: map[int64]domain.Bill{}}
	return rm, httptest.NewServer(rm.routes())
}

func (rm *remote) token(email string) string {
	role := "User"
	if strings.HasPrefix(email, "admin") {
		role = "Admin"
	}
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   email,
		"email": email,
		"role":  role,
		"exp":   rm.now().Add(time.Hour).Unix(),
	}).SignedString([]byte("remote-secret"))
	return tok
}

func (rm *remote) routes() http.Handler {
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, status int, v any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(v)
	}
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			rm.calls.Add(1)
			if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			rm.mu.Lock()
			defer rm.mu.Unlock()
			next(w, r)
		}
	}

	mux.HandleFunc("POST /login", func(w http.ResponseWriter, r *http.Request) {
		rm.calls.Add(1)
		var req domain.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			reply(w, http.StatusUnauthorized, domain.APIErrorPayload{Errors: []domain.APIErrorItem{{Description: "invalid credentials"}}})
			return
		}
		reply(w, http.StatusOK, domain.LoginResponse{AccessToken: rm.token(req.Email)})
	})

	mux.HandleFunc("GET /api/financial-months", authed(func(w http.ResponseWriter, r *http.Request) {
		out := []domain.FinancialMonth{}
		for id := int64(1); id <= rm.nextID; id++ {
			if m, ok := rm.months[id]; ok {
				out = append(out, m)
			}
		}
		reply(w, http.StatusOK, out)
	}))
	mux.HandleFunc("POST /api/financial-months", authed(func(w http.ResponseWriter, r *http.Request) {
		var rec domain.MonthRecord
		json.NewDecoder(r.Body).Decode(&rec)
		for _, m := range rm.months {
			if m.Year == rec.Year && m.Month == rec.Month {
				reply(w, http.StatusConflict, domain.APIErrorPayload{Errors: []domain.APIErrorItem{{Description: "month already exists"}}})
				return
			}
		}
		rm.nextID++
		m := domain.FinancialMonth{ID: rm.nextID, Year: rec.Year, Month: rec.Month, TotalIncome: rec.TotalIncome}
		rm.months[m.ID] = m
		reply(w, http.StatusCreated, m)
	}))
	mux.HandleFunc("GET /api/financial-months/{id}", authed(func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		m, ok := rm.months[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		reply(w, http.StatusOK, m)
	}))
	mux.HandleFunc("GET /api/bills", authed(func(w http.ResponseWriter, r *http.Request) {
		monthID, _ := strconv.ParseInt(r.URL.Query().Get("financialMonthId"), 10, 64)
		out := []domain.Bill{}
		for id := int64(1); id <= rm.nextID; id++ {
			if b, ok := rm.bills[id]; ok && b.FinancialMonthID == monthID {
				out = append(out, b)
			}
		}
		reply(w, http.StatusOK, out)
	}))
	mux.HandleFunc("POST /api/bills", authed(func(w http.ResponseWriter, r *http.Request) {
		var rec domain.BillRecord
		json.NewDecoder(r.Body).Decode(&rec)
		rm.nextID++
		b := domain.Bill{ID: rm.nextID, FinancialMonthID: rec.FinancialMonthID, Type: rec.Type,
			Amount: rec.Amount, Description: rec.Description, Color: rec.Color}
		rm.bills[b.ID] = b
		reply(w, http.StatusCreated, b)
	}))
	mux.HandleFunc("GET /api/admin/users", authed(func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, []domain.AdminUser{{ID: "u1", Email: "ada@example.com"}})
	}))
	return mux
}

// --- Harness ---

type harness struct {
	router http.Handler
	remote *remote
	ctrl   *session.Controller
	clock  *time.Time
	mu     *sync.Mutex
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	var mu sync.Mutex
	now := time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	rm, srv := newRemote(clock)
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond, MaxConcurrency: 4}
	api := client.New(srv.Client(), srv.URL, client.DefaultEndpoints(),
		resilience.NewCircuitBreaker(resilience.BreakerSettings{Name: "test", IsSuccessful: client.IsRemoteHealthy}), cfg, logger)

	store := session.NewTokenStore(tokenstore.NewMemory(), logger, session.WithClock(clock))
	ctrl := session.NewController(store, logger)
	ctrl.Subscribe(func(tr domain.SessionTransition, _ domain.SessionState) { metrics.IncrTransition(tr) })

	ledger := service.NewLedgerRepository(api, ctrl, metrics, logger)
	ctrl.Subscribe(ledger.OnSessionChange)

	router := handler.NewRouter(handler.Deps{
		Session:   ctrl,
		Auth:      service.NewAuthService(api, ctrl, logger),
		Ledger:    ledger,
		Dashboard: service.NewDashboard(ledger, cfg.MaxConcurrency, metrics, logger),
		Admin:     service.NewAdminService(api, ctrl, logger),
		Guard:     guard.DefaultTable(),
		Metrics:   metrics,
	}, logger)

	return &harness{router: router, remote: rm, ctrl: ctrl, clock: &now, mu: &mu}
}

func (h *harness) advance(d time.Duration) {
	h.mu.Lock()
	*h.clock = h.clock.Add(d)
	h.mu.Unlock()
}

func (h *harness) do(method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func (h *harness) login(t *testing.T, email string) {
	t.Helper()
	rec := h.do(http.MethodPost, "/login", map[string]string{"email": email, "password": "secret"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

// --- Operational endpoints ---

func TestHealthz(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	h := newHarness(t)
	h.do(http.MethodGet, "/money", nil)

	rec := h.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "money_guard_decisions_total")
}

// --- Route guard ---

func TestGuard_AnonymousIsSentToLogin(t *testing.T) {
	h := newHarness(t)

	for _, path := range []string{"/money", "/money/months/3", "/community", "/admin", "/admin/users?search=x"} {
		rec := h.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code, path)
		assert.Equal(t, "/login?next="+url.QueryEscape(path), rec.Header().Get("Location"), path)
	}
	assert.Equal(t, int32(0), h.remote.calls.Load())
}

func TestGuard_PublicViewsAreOpen(t *testing.T) {
	h := newHarness(t)

	for _, path := range []string{"/", "/login", "/session", "/status", "/no-such-view"} {
		rec := h.do(http.MethodGet, path, nil)
		assert.NotEqual(t, http.StatusSeeOther, rec.Code, path)
	}
}

func TestGuard_UserIsSentHomeFromAdmin(t *testing.T) {
	h := newHarness(t)
	h.login(t, "ada@example.com")

	rec := h.do(http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = h.do(http.MethodGet, "/money", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGuard_AdminIsAllowed(t *testing.T) {
	h := newHarness(t)
	h.login(t, "admin@example.com")

	rec := h.do(http.MethodGet, "/admin/users", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var users []domain.AdminUser
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&users))
	assert.Len(t, users, 1)
}

func TestGuard_ExpiredSessionRedirectsWithoutRemoteCall(t *testing.T) {
	h := newHarness(t)
	h.login(t, "ada@example.com")
	before := h.remote.calls.Load()

	h.advance(2 * time.Hour)

	rec := h.do(http.MethodGet, "/money", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login?next=%2Fmoney", rec.Header().Get("Location"))
	assert.Equal(t, before, h.remote.calls.Load())
	assert.False(t, h.ctrl.IsAuthenticated())
}

// --- Auth ---

func TestLogin_RedirectsToNext(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/login?next=%2Fmoney", map[string]string{"email": "ada@example.com", "password": "secret"})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/money", rec.Header().Get("Location"))
	assert.True(t, h.ctrl.IsAuthenticated())
}

func TestLogin_IgnoresForeignNext(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/login?next=https%3A%2F%2Fevil.example", map[string]string{"email": "ada@example.com", "password": "secret"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/login", map[string]string{"email": "ada@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
	assert.False(t, h.ctrl.IsAuthenticated())
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	h.login(t, "ada@example.com")

	rec := h.do(http.MethodPost, "/logout", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.False(t, h.ctrl.IsAuthenticated())

	rec = h.do(http.MethodGet, "/status", nil)
	var status domain.ClientStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, int64(1), status.Logins)
	assert.Equal(t, int64(1), status.Logouts)
}

// --- Ledger ---

func TestLedger_DashboardTotals(t *testing.T) {
	h := newHarness(t)
	h.login(t, "ada@example.com")

	rec := h.do(http.MethodPost, "/money/months", map[string]any{"period": "2025-01", "totalIncome": 1000})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var month domain.FinancialMonth
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&month))
	assert.Equal(t, "January", month.Month)

	billsPath := "/money/months/" + strconv.FormatInt(month.ID, 10) + "/bills"
	rec = h.do(http.MethodPost, billsPath, map[string]any{"type": "Food", "amount": 200})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = h.do(http.MethodPost, billsPath, map[string]any{"type": "Rent", "amount": "150"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = h.do(http.MethodGet, "/money", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var dash domain.DashboardView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&dash))
	require.Len(t, dash.Months, 1)
	assert.Equal(t, "350", dash.Months[0].TotalSpent.String())
	assert.Equal(t, "650", dash.Months[0].Remaining.String())
}

func TestLedger_DuplicateMonthIsConflict(t *testing.T) {
	h := newHarness(t)
	h.login(t, "ada@example.com")

	body := map[string]any{"year": 2025, "month": 1, "totalIncome": 10}
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/money/months", body).Code)

	rec := h.do(http.MethodPost, "/money/months", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "month already exists")
}

func TestLedger_InvalidBillIsRejectedLocally(t *testing.T) {
	h := newHarness(t)
	h.login(t, "ada@example.com")
	before := h.remote.calls.Load()

	for _, body := range []map[string]any{
		{"type": "Food!", "amount": 1},
		{"type": "F", "amount": 1},
		{"type": "Food", "amount": -4},
		{"type": "Food"},
	} {
		rec := h.do(http.MethodPost, "/money/months/1/bills", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Equal(t, before, h.remote.calls.Load())
}

func TestLedger_UnknownMonthIsNotFound(t *testing.T) {
	h := newHarness(t)
	h.login(t, "ada@example.com")

	rec := h.do(http.MethodGet, "/money/months/99", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
