package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
	"github.com/boddenberg/money-manager-bfa-go/internal/infra/observability"
	"github.com/boddenberg/money-manager-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ledgerTracer = otel.Tracer("service/ledger")

// LedgerRepository is the authenticated CRUD surface for financial months
// and bills. Every call reads the bearer token from the session; without a
// valid token it fails with ErrUnauthorized before touching the network.
// Inputs are validated before any remote call.
//
// Nothing is cached except the in-flight ListMonths call, which concurrent
// callers holding the same token share.
type LedgerRepository struct {
	api     port.LedgerAPI
	session port.SessionReader

	inflight singleflight.Group
	kmu      sync.Mutex
	keys     map[string]struct{}

	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewLedgerRepository creates the repository.
func NewLedgerRepository(
	api port.LedgerAPI,
	session port.SessionReader,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *LedgerRepository {
	return &LedgerRepository{
		api:     api,
		session: session,
		keys:    make(map[string]struct{}),
		metrics: metrics,
		logger:  logger,
	}
}

// OnSessionChange drops shared in-flight lists when the session ends, so a
// later session never joins a request made with an old token. Register it
// with the session controller's Subscribe.
func (r *LedgerRepository) OnSessionChange(t domain.SessionTransition, _ domain.SessionState) {
	if t == domain.TransitionLogin {
		return
	}
	r.kmu.Lock()
	for k := range r.keys {
		r.inflight.Forget(k)
	}
	clear(r.keys)
	r.kmu.Unlock()
}

func (r *LedgerRepository) token() (string, error) {
	token, ok := r.session.Token()
	if !ok {
		return "", &domain.ErrUnauthorized{Message: "no active session"}
	}
	return token, nil
}

// observe records duration and failures of one repository operation.
func (r *LedgerRepository) observe(op string, start time.Time, err error) {
	r.metrics.RecordOperation(op, time.Since(start))
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	r.metrics.IncrRemoteError(err)
	if k := domain.Kind(err); k == domain.KindNetworkFailure || k == domain.KindUnknown {
		r.logger.Warn("ledger: operation failed", zap.String("op", op), zap.Error(err))
	}
}

// ============================================================
// Financial months
// ============================================================

// ListMonths returns every month of the current user.
func (r *LedgerRepository) ListMonths(ctx context.Context) (months []domain.FinancialMonth, err error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerRepository.ListMonths")
	defer span.End()
	start := time.Now()
	defer func() { r.observe("ListMonths", start, err) }()

	token, err := r.token()
	if err != nil {
		return nil, err
	}

	key := "months:" + token
	r.kmu.Lock()
	r.keys[key] = struct{}{}
	r.kmu.Unlock()

	// The shared call must outlive any single caller's cancellation; the
	// HTTP client timeout still bounds it.
	shared := context.WithoutCancel(ctx)
	ch := r.inflight.DoChan(key, func() (any, error) {
		defer func() {
			r.kmu.Lock()
			delete(r.keys, key)
			r.kmu.Unlock()
		}()
		return r.api.ListMonths(shared, token)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			r.metrics.IncrSharedList()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		months = cloneMonths(res.Val.([]domain.FinancialMonth))
		span.SetAttributes(attribute.Int("months.count", len(months)))
		return months, nil
	}
}

// GetMonth returns one month with its bills.
func (r *LedgerRepository) GetMonth(ctx context.Context, id int64) (month *domain.FinancialMonth, err error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerRepository.GetMonth")
	defer span.End()
	span.SetAttributes(attribute.Int64("month.id", id))
	start := time.Now()
	defer func() { r.observe("GetMonth", start, err) }()

	token, err := r.token()
	if err != nil {
		return nil, err
	}
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	return r.api.GetMonth(ctx, token, id)
}

// CreateMonth creates a month. A second month for the same (year, month)
// fails with ErrConflict from the remote.
func (r *LedgerRepository) CreateMonth(ctx context.Context, in domain.MonthInput) (month *domain.FinancialMonth, err error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerRepository.CreateMonth")
	defer span.End()
	start := time.Now()
	defer func() { r.observe("CreateMonth", start, err) }()

	token, err := r.token()
	if err != nil {
		return nil, err
	}
	rec, err := domain.BuildMonthRecord(in)
	if err != nil {
		return nil, err
	}

	month, err = r.api.CreateMonth(ctx, token, rec)
	if err != nil {
		return nil, err
	}
	r.logger.Info("ledger: month created",
		zap.Int64("month_id", month.ID),
		zap.Int("year", rec.Year),
		zap.String("month", rec.Month),
	)
	return month, nil
}

// UpdateMonth applies patch to the current remote version of the month and
// writes the merged record back.
func (r *LedgerRepository) UpdateMonth(ctx context.Context, id int64, patch domain.MonthPatch) (month *domain.FinancialMonth, err error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerRepository.UpdateMonth")
	defer span.End()
	span.SetAttributes(attribute.Int64("month.id", id))
	start := time.Now()
	defer func() { r.observe("UpdateMonth", start, err) }()

	token, err := r.token()
	if err != nil {
		return nil, err
	}
	if err := validateID("id", id); err != nil {
		return nil, err
	}
	if err := validatePatch(patch); err != nil {
		return nil, err
	}

	current, err := r.api.GetMonth(ctx, token, id)
	if err != nil {
		return nil, err
	}

	in := domain.MonthInput{Year: current.Year, TotalIncome: current.TotalIncome}
	keepName := false
	if patch.Year != nil {
		in.Year = *patch.Year
	}
	if patch.TotalIncome != nil {
		in.TotalIncome = *patch.TotalIncome
	}
	switch n, ok := domain.MonthNumber(current.Month); {
	case patch.Month != nil:
		in.Month = *patch.Month
	case ok:
		in.Month = n
	default:
		// The stored name is not one we write ourselves; the patch does not
		// touch it, so it goes back unchanged.
		in.Month = 1
		keepName = true
		r.logger.Warn("ledger: month has an unrecognised name",
			zap.Int64("month_id", id),
			zap.String("month", current.Month),
		)
	}

	rec, err := domain.BuildMonthRecord(in)
	if err != nil {
		return nil, err
	}
	if keepName {
		rec.Month = current.Month
	}
	return r.api.UpdateMonth(ctx, token, id, rec)
}

// DeleteMonth deletes a month and, remotely, all of its bills.
func (r *LedgerRepository) DeleteMonth(ctx context.Context, id int64) (err error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerRepository.DeleteMonth")
	defer span.End()
	span.SetAttributes(attribute.Int64("month.id", id))
	start := time.Now()
	defer func() { r.observe("DeleteMonth", start, err) }()

	token, err := r.token()
	if err != nil {
		return err
	}
	if err := validateID("id", id); err != nil {
		return err
	}
	if err := r.api.DeleteMonth(ctx, token, id); err != nil {
		return err
	}
	r.logger.Info("ledger: month deleted", zap.Int64("month_id", id))
	return nil
}

// ============================================================
// Bills
// ============================================================

// ListBills returns the bills of a month in creation order.
func (r *LedgerRepository) ListBills(ctx context.Context, monthID int64) (bills []domain.Bill, err error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerRepository.ListBills")
	defer span.End()
	span.SetAttributes(attribute.Int64("month.id", monthID))
	start := time.Now()
	defer func() { r.observe("ListBills", start, err) }()

	token, err := r.token()
	if err != nil {
		return nil, err
	}
	if err := validateID("financialMonthId", monthID); err != nil {
		return nil, err
	}
	return r.api.ListBills(ctx, token, monthID)
}

// GetBill returns a bill of monthID. A bill that exists but belongs to
// another month is reported as not found.
func (r *LedgerRepository) GetBill(ctx context.Context, monthID, billID int64) (bill *domain.Bill, err error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerRepository.GetBill")
	defer span.End()
	span.SetAttributes(attribute.Int64("month.id", monthID), attribute.Int64("bill.id", billID))
	start := time.Now()
	defer func() { r.observe("GetBill", start, err) }()

	token, err := r.token()
	if err != nil {
		return nil, err
	}
	if err := validateID("financialMonthId", monthID); err != nil {
		return nil, err
	}
	if err := validateID("id", billID); err != nil {
		return nil, err
	}
	return r.ownedBill(ctx, token, monthID, billID)
}

// CreateBill adds a bill to monthID. A missing colour is picked from the
// palette.
func (r *LedgerRepository) CreateBill(ctx context.Context, monthID int64, in domain.BillInput) (bill *domain.Bill, err error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerRepository.CreateBill")
	defer span.End()
	span.SetAttributes(attribute.Int64("month.id", monthID))
	start := time.Now()
	defer func() { r.observe("CreateBill", start, err) }()

	token, err := r.token()
	if err != nil {
		return nil, err
	}
	rec, err := domain.BuildBillRecord(monthID, in)
	if err != nil {
		return nil, err
	}
	return r.api.CreateBill(ctx, token, rec)
}

// UpdateBill replaces a bill of monthID. An empty colour keeps the bill's
// current colour.
func (r *LedgerRepository) UpdateBill(ctx context.Context, monthID, billID int64, in domain.BillInput) (bill *domain.Bill, err error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerRepository.UpdateBill")
	defer span.End()
	span.SetAttributes(attribute.Int64("month.id", monthID), attribute.Int64("bill.id", billID))
	start := time.Now()
	defer func() { r.observe("UpdateBill", start, err) }()

	token, err := r.token()
	if err != nil {
		return nil, err
	}
	if err := validateID("id", billID); err != nil {
		return nil, err
	}
	// Validate with a placeholder colour first so bad input never costs a
	// round trip.
	probe := in
	if probe.Color == "" {
		probe.Color = domain.BillPalette[0]
	}
	if _, err := domain.BuildBillRecord(monthID, probe); err != nil {
		return nil, err
	}

	current, err := r.ownedBill(ctx, token, monthID, billID)
	if err != nil {
		return nil, err
	}
	if in.Color == "" {
		in.Color = current.Color
	}
	rec, err := domain.BuildBillRecord(monthID, in)
	if err != nil {
		return nil, err
	}
	return r.api.UpdateBill(ctx, token, billID, rec)
}

// DeleteBill deletes a bill of monthID.
func (r *LedgerRepository) DeleteBill(ctx context.Context, monthID, billID int64) (err error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerRepository.DeleteBill")
	defer span.End()
	span.SetAttributes(attribute.Int64("month.id", monthID), attribute.Int64("bill.id", billID))
	start := time.Now()
	defer func() { r.observe("DeleteBill", start, err) }()

	token, err := r.token()
	if err != nil {
		return err
	}
	if err := validateID("financialMonthId", monthID); err != nil {
		return err
	}
	if err := validateID("id", billID); err != nil {
		return err
	}
	if _, err := r.ownedBill(ctx, token, monthID, billID); err != nil {
		return err
	}
	return r.api.DeleteBill(ctx, token, billID)
}

func (r *LedgerRepository) ownedBill(ctx context.Context, token string, monthID, billID int64) (*domain.Bill, error) {
	bill, err := r.api.GetBill(ctx, token, billID)
	if err != nil {
		return nil, err
	}
	if bill.FinancialMonthID != monthID {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: strconv.FormatInt(billID, 10)}
	}
	return bill, nil
}

func validateID(field string, id int64) error {
	if id <= 0 {
		return &domain.ErrValidation{Field: field, Message: "must be a positive id"}
	}
	return nil
}

func validatePatch(p domain.MonthPatch) error {
	if p.Year != nil || p.Month != nil {
		year, month := 2000, 1
		if p.Year != nil {
			year = *p.Year
		}
		if p.Month != nil {
			month = *p.Month
		}
		if _, err := domain.ResolveMonth(year, month); err != nil {
			return err
		}
	}
	if p.TotalIncome != nil && p.TotalIncome.IsNegative() {
		return &domain.ErrValidation{Field: "totalIncome", Message: "income must not be negative"}
	}
	return nil
}

// cloneMonths copies a shared result so callers cannot see each other's
// mutations.
func cloneMonths(in []domain.FinancialMonth) []domain.FinancialMonth {
	if in == nil {
		return nil
	}
	out := make([]domain.FinancialMonth, len(in))
	for i, m := range in {
		out[i] = m
		if m.Bills != nil {
			out[i].Bills = append([]domain.Bill(nil), m.Bills...)
		}
	}
	return out
}
