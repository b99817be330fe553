package service_test

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
	"github.com/boddenberg/money-manager-bfa-go/internal/infra/observability"
	"github.com/boddenberg/money-manager-bfa-go/internal/infra/tokenstore"
	"github.com/boddenberg/money-manager-bfa-go/internal/service"
	"github.com/boddenberg/money-manager-bfa-go/internal/session"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Session helpers ---

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *testClock {
	return &testClock{now: time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func mint(t *testing.T, sub, role string, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   sub,
		"email": sub + "@example.com",
		"role":  role,
		"exp":   exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func newController(clock *testClock) *session.Controller {
	store := session.NewTokenStore(tokenstore.NewMemory(), zap.NewNop(), session.WithClock(clock.Now))
	return session.NewController(store, zap.NewNop())
}

// loggedIn returns a controller holding a one-hour token with role.
func loggedIn(t *testing.T, clock *testClock, role string) *session.Controller {
	t.Helper()
	ctrl := newController(clock)
	_, ok := ctrl.Login(mint(t, "user-1", role, clock.Now().Add(time.Hour)))
	require.True(t, ok)
	return ctrl
}

// --- Mocks ---

// fakeLedgerAPI is an in-memory remote that enforces one month per
// (year, month) like the real service.
type fakeLedgerAPI struct {
	mu     sync.Mutex
	nextID int64
	months map[int64]*domain.FinancialMonth
	bills  map[int64]*domain.Bill
	calls  atomic.Int32

	listGate chan struct{} // when set, ListMonths blocks until closed
	err      error
}

func newFakeLedgerAPI() *fakeLedgerAPI {
	return &fakeLedgerAPI{
		months: make(map[int64]*domain.FinancialMonth),
		bills:  make(map[int64]*domain.Bill),
	}
}

func (f *fakeLedgerAPI) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeLedgerAPI) ListMonths(_ context.Context, _ string) ([]domain.FinancialMonth, error) {
	f.calls.Add(1)
	if f.listGate != nil {
		<-f.listGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.FinancialMonth, 0, len(f.months))
	for i := int64(1); i <= f.nextID; i++ {
		if m, ok := f.months[i]; ok {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeLedgerAPI) GetMonth(_ context.Context, _ string, id int64) (*domain.FinancialMonth, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.months[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "financial month", ID: strconv.FormatInt(id, 10)}
	}
	cp := *m
	return &cp, nil
}

func (f *fakeLedgerAPI) CreateMonth(_ context.Context, _ string, rec domain.MonthRecord) (*domain.FinancialMonth, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.months {
		if m.Year == rec.Year && m.Month == rec.Month {
			return nil, &domain.ErrConflict{Message: "a financial month for this period already exists"}
		}
	}
	m := &domain.FinancialMonth{ID: f.id(), Year: rec.Year, Month: rec.Month, TotalIncome: rec.TotalIncome}
	f.months[m.ID] = m
	cp := *m
	return &cp, nil
}

func (f *fakeLedgerAPI) UpdateMonth(_ context.Context, _ string, id int64, rec domain.MonthRecord) (*domain.FinancialMonth, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.months[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "financial month", ID: strconv.FormatInt(id, 10)}
	}
	m.Year, m.Month, m.TotalIncome = rec.Year, rec.Month, rec.TotalIncome
	cp := *m
	return &cp, nil
}

func (f *fakeLedgerAPI) DeleteMonth(_ context.Context, _ string, id int64) error {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.months, id)
	for bid, b := range f.bills {
		if b.FinancialMonthID == id {
			delete(f.bills, bid)
		}
	}
	return nil
}

func (f *fakeLedgerAPI) ListBills(_ context.Context, _ string, monthID int64) ([]domain.Bill, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []domain.Bill{}
	for i := int64(1); i <= f.nextID; i++ {
		if b, ok := f.bills[i]; ok && b.FinancialMonthID == monthID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (f *fakeLedgerAPI) GetBill(_ context.Context, _ string, id int64) (*domain.Bill, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bills[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: strconv.FormatInt(id, 10)}
	}
	cp := *b
	return &cp, nil
}

func (f *fakeLedgerAPI) CreateBill(_ context.Context, _ string, rec domain.BillRecord) (*domain.Bill, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	b := &domain.Bill{
		ID:               f.id(),
		FinancialMonthID: rec.FinancialMonthID,
		Type:             rec.Type,
		Amount:           rec.Amount,
		Description:      rec.Description,
		Color:            rec.Color,
	}
	f.bills[b.ID] = b
	cp := *b
	return &cp, nil
}

func (f *fakeLedgerAPI) UpdateBill(_ context.Context, _ string, id int64, rec domain.BillRecord) (*domain.Bill, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bills[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: strconv.FormatInt(id, 10)}
	}
	b.Type, b.Amount, b.Description, b.Color = rec.Type, rec.Amount, rec.Description, rec.Color
	cp := *b
	return &cp, nil
}

func (f *fakeLedgerAPI) DeleteBill(_ context.Context, _ string, id int64) error {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.bills, id)
	return nil
}

func newRepo(api *fakeLedgerAPI, ctrl *session.Controller) *service.LedgerRepository {
	repo := service.NewLedgerRepository(api, ctrl, observability.NewMetrics(), zap.NewNop())
	ctrl.Subscribe(repo.OnSessionChange)
	return repo
}
