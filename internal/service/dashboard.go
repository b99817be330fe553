package service

import (
	"context"
	"sort"
	"time"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
	"github.com/boddenberg/money-manager-bfa-go/internal/infra/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Dashboard assembles the ledger overview: every month with its bills,
// summarised, plus totals across months.
type Dashboard struct {
	ledger         *LedgerRepository
	maxConcurrency int
	metrics        *observability.Metrics
	logger         *zap.Logger
}

// NewDashboard creates the dashboard loader. maxConcurrency bounds the
// parallel bill fetches.
func NewDashboard(ledger *LedgerRepository, maxConcurrency int, metrics *observability.Metrics, logger *zap.Logger) *Dashboard {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	return &Dashboard{
		ledger:         ledger,
		maxConcurrency: maxConcurrency,
		metrics:        metrics,
		logger:         logger,
	}
}

// Load fetches and summarises the ledger for v. Months are ordered newest
// first. Summaries are always recomputed from the fetched data.
func (d *Dashboard) Load(v *View) (*domain.DashboardView, error) {
	return Run(v, d.load)
}

// Month loads one month with its freshly computed summary.
func (d *Dashboard) Month(v *View, id int64) (*domain.MonthDetail, error) {
	return Run(v, func(ctx context.Context) (*domain.MonthDetail, error) {
		month, err := d.ledger.GetMonth(ctx, id)
		if err != nil {
			return nil, err
		}
		if month.Bills == nil {
			bills, err := d.ledger.ListBills(ctx, id)
			if err != nil {
				return nil, err
			}
			month.Bills = bills
		}
		summary, err := Summarize(*month)
		if err != nil {
			return nil, err
		}
		return &domain.MonthDetail{Month: *month, Summary: summary}, nil
	})
}

func (d *Dashboard) load(ctx context.Context) (*domain.DashboardView, error) {
	ctx, span := ledgerTracer.Start(ctx, "Dashboard.Load")
	defer span.End()

	start := time.Now()
	defer func() {
		d.metrics.RecordOperation("Dashboard.Load", time.Since(start))
	}()

	months, err := d.ledger.ListMonths(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("months.count", len(months)))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(d.maxConcurrency)
	for i := range months {
		if months[i].Bills != nil {
			continue
		}
		i := i
		g.Go(func() error {
			bills, err := d.ledger.ListBills(gCtx, months[i].ID)
			if err != nil {
				d.logger.Warn("dashboard: failed to fetch bills",
					zap.Int64("month_id", months[i].ID),
					zap.Error(err),
				)
				return err
			}
			months[i].Bills = bills
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(months, func(a, b int) bool {
		return monthKey(months[a]) > monthKey(months[b])
	})

	summaries, totals, err := SummarizeAll(months)
	if err != nil {
		return nil, err
	}
	return &domain.DashboardView{Months: summaries, Totals: totals}, nil
}

func monthKey(m domain.FinancialMonth) int {
	n, _ := domain.MonthNumber(m.Month)
	return m.Year*100 + n
}
