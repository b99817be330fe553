package service_test

import (
	"testing"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
	"github.com/boddenberg/money-manager-bfa-go/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSummarize_Totals(t *testing.T) {
	month := domain.FinancialMonth{
		ID: 1, Year: 2025, Month: "January", TotalIncome: dec("1000"),
		Bills: []domain.Bill{
			{ID: 1, FinancialMonthID: 1, Type: "Food", Amount: dec("200")},
			{ID: 2, FinancialMonthID: 1, Type: "Rent", Amount: dec("150")},
		},
	}

	s, err := service.Summarize(month)
	require.NoError(t, err)
	assert.True(t, s.TotalSpent.Equal(dec("350")), "spent %s", s.TotalSpent)
	assert.True(t, s.Remaining.Equal(dec("650")), "remaining %s", s.Remaining)
	assert.False(t, s.Overspent)
}

func TestSummarize_GroupsByExactLabelInFirstAppearanceOrder(t *testing.T) {
	month := domain.FinancialMonth{
		ID: 2, TotalIncome: dec("100"),
		Bills: []domain.Bill{
			{ID: 1, Type: "Gym", Amount: dec("10.10")},
			{ID: 2, Type: "Food", Amount: dec("20.20")},
			{ID: 3, Type: "food", Amount: dec("1")},
			{ID: 4, Type: "Gym", Amount: dec("0.20")},
		},
	}

	s, err := service.Summarize(month)
	require.NoError(t, err)

	require.Len(t, s.ByCategory, 3)
	assert.Equal(t, "Gym", s.ByCategory[0].Category)
	assert.Equal(t, "Food", s.ByCategory[1].Category)
	assert.Equal(t, "food", s.ByCategory[2].Category)
	assert.True(t, s.PerCategory["Gym"].Equal(dec("10.30")))
	assert.Equal(t, 2, s.ByCategory[0].Bills)
	assert.True(t, s.TotalSpent.Equal(dec("31.50")))
}

func TestSummarize_OverspentIsValid(t *testing.T) {
	s, err := service.Summarize(domain.FinancialMonth{
		ID: 3, TotalIncome: dec("50"),
		Bills: []domain.Bill{{ID: 1, Type: "Travel", Amount: dec("80")}},
	})
	require.NoError(t, err)
	assert.True(t, s.Remaining.Equal(dec("-30")))
	assert.True(t, s.Overspent)
}

func TestSummarize_EmptyMonth(t *testing.T) {
	s, err := service.Summarize(domain.FinancialMonth{ID: 4, TotalIncome: dec("12")})
	require.NoError(t, err)
	assert.True(t, s.TotalSpent.IsZero())
	assert.True(t, s.Remaining.Equal(dec("12")))
	assert.Empty(t, s.PerCategory)
	assert.Empty(t, s.ByCategory)
}

func TestSummarize_Idempotent(t *testing.T) {
	month := domain.FinancialMonth{
		ID: 5, TotalIncome: dec("999.99"),
		Bills: []domain.Bill{
			{ID: 1, Type: "A", Amount: dec("0.1")},
			{ID: 2, Type: "B", Amount: dec("0.2")},
			{ID: 3, Type: "A", Amount: dec("0.3")},
		},
	}
	first, err := service.Summarize(month)
	require.NoError(t, err)
	second, err := service.Summarize(month)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.True(t, first.TotalSpent.Equal(dec("0.6")))
}

func TestSummarize_RejectsCorruptInput(t *testing.T) {
	tests := []struct {
		name  string
		month domain.FinancialMonth
	}{
		{"negative amount", domain.FinancialMonth{ID: 1, Bills: []domain.Bill{{ID: 1, Type: "A", Amount: dec("-1")}}}},
		{"foreign bill", domain.FinancialMonth{ID: 1, Bills: []domain.Bill{{ID: 1, FinancialMonthID: 2, Type: "A", Amount: dec("1")}}}},
		{"negative income", domain.FinancialMonth{ID: 1, TotalIncome: dec("-5")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Summarize(tt.month)
			assert.Equal(t, domain.KindInvalid, domain.Kind(err))
		})
	}
}

func TestSummarizeAll(t *testing.T) {
	months := []domain.FinancialMonth{
		{ID: 1, TotalIncome: dec("1000"), Bills: []domain.Bill{{ID: 1, Type: "Food", Amount: dec("200")}}},
		{ID: 2, TotalIncome: dec("500"), Bills: []domain.Bill{{ID: 2, Type: "Food", Amount: dec("600")}}},
	}

	summaries, totals, err := service.SummarizeAll(months)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, 2, totals.Months)
	assert.True(t, totals.TotalIncome.Equal(dec("1500")))
	assert.True(t, totals.TotalSpent.Equal(dec("800")))
	assert.True(t, totals.Remaining.Equal(dec("700")))
	assert.True(t, summaries[1].Overspent)
}
