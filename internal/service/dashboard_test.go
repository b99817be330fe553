package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
	"github.com/boddenberg/money-manager-bfa-go/internal/infra/observability"
	"github.com/boddenberg/money-manager-bfa-go/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDashboard_Load(t *testing.T) {
	clock := newClock()
	api := newFakeLedgerAPI()
	repo := newRepo(api, loggedIn(t, clock, "User"))
	ctx := context.Background()

	jan, err := repo.CreateMonth(ctx, january2025("1000"))
	require.NoError(t, err)
	mar, err := repo.CreateMonth(ctx, domain.MonthInput{Year: 2025, Month: 3, TotalIncome: dec("100")})
	require.NoError(t, err)
	_, err = repo.CreateBill(ctx, jan.ID, domain.BillInput{Type: "Food", Amount: dec("200")})
	require.NoError(t, err)
	_, err = repo.CreateBill(ctx, jan.ID, domain.BillInput{Type: "Rent", Amount: dec("150")})
	require.NoError(t, err)
	_, err = repo.CreateBill(ctx, mar.ID, domain.BillInput{Type: "Trip", Amount: dec("130")})
	require.NoError(t, err)

	dash := service.NewDashboard(repo, 2, observability.NewMetrics(), zap.NewNop())
	view := service.Mount(ctx, "/money")
	defer view.Unmount()

	got, err := dash.Load(view)
	require.NoError(t, err)
	require.Len(t, got.Months, 2)

	assert.Equal(t, "March", got.Months[0].Month)
	assert.True(t, got.Months[0].Overspent)
	assert.Equal(t, "January", got.Months[1].Month)
	assert.True(t, got.Months[1].Remaining.Equal(dec("650")))
	assert.True(t, got.Totals.TotalSpent.Equal(dec("480")))
	assert.True(t, got.Totals.Remaining.Equal(dec("620")))
}

func TestDashboard_Month(t *testing.T) {
	clock := newClock()
	repo := newRepo(newFakeLedgerAPI(), loggedIn(t, clock, "User"))
	ctx := context.Background()

	jan, err := repo.CreateMonth(ctx, january2025("1000"))
	require.NoError(t, err)
	_, err = repo.CreateBill(ctx, jan.ID, domain.BillInput{Type: "Food", Amount: dec("200")})
	require.NoError(t, err)

	dash := service.NewDashboard(repo, 1, observability.NewMetrics(), zap.NewNop())
	view := service.Mount(ctx, "/money/1")
	detail, err := dash.Month(view, jan.ID)
	require.NoError(t, err)
	assert.Len(t, detail.Month.Bills, 1)
	assert.True(t, detail.Summary.Remaining.Equal(dec("800")))
}

func TestView_ResultAfterUnmountIsDropped(t *testing.T) {
	view := service.Mount(context.Background(), "/money")

	got, err := service.Run(view, func(ctx context.Context) (int, error) {
		view.Unmount()
		<-ctx.Done()
		return 42, nil
	})
	assert.ErrorIs(t, err, service.ErrViewClosed)
	assert.Zero(t, got)
	assert.True(t, view.Closed())
}

func TestView_DeliversWhileMounted(t *testing.T) {
	view := service.Mount(context.Background(), "/money")
	defer view.Unmount()

	got, err := service.Run(view, func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, got)

	boom := errors.New("boom")
	_, err = service.Run(view, func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
}

func TestDashboard_UnmountedViewDropsLoad(t *testing.T) {
	clock := newClock()
	repo := newRepo(newFakeLedgerAPI(), loggedIn(t, clock, "User"))
	dash := service.NewDashboard(repo, 1, observability.NewMetrics(), zap.NewNop())

	view := service.Mount(context.Background(), "/money")
	view.Unmount()
	_, err := dash.Load(view)
	assert.ErrorIs(t, err, service.ErrViewClosed)
}
