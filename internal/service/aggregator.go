package service

import (
	"strconv"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"

	"github.com/shopspring/decimal"
)

// Summarize derives the totals of one month. It is pure: the same month
// always yields the same summary. Bills are summed in their stored order
// and grouped by their exact, case-sensitive category label. A negative
// remaining balance is valid and flagged as Overspent.
//
// A month whose data breaks the ledger invariants (negative income or
// amount, a bill owned by another month) is rejected with ErrValidation.
func Summarize(m domain.FinancialMonth) (domain.MonthSummary, error) {
	if m.TotalIncome.IsNegative() {
		return domain.MonthSummary{}, &domain.ErrValidation{
			Field:   "totalIncome",
			Message: "month " + strconv.FormatInt(m.ID, 10) + " has negative income",
		}
	}

	spent := decimal.Zero
	perCategory := make(map[string]decimal.Decimal)
	byCategory := make([]domain.CategoryTotal, 0)
	index := make(map[string]int)

	for _, b := range m.Bills {
		if b.FinancialMonthID != 0 && b.FinancialMonthID != m.ID {
			return domain.MonthSummary{}, &domain.ErrValidation{
				Field:   "financialMonthId",
				Message: "bill " + strconv.FormatInt(b.ID, 10) + " belongs to another month",
			}
		}
		if b.Amount.IsNegative() {
			return domain.MonthSummary{}, &domain.ErrValidation{
				Field:   "amount",
				Message: "bill " + strconv.FormatInt(b.ID, 10) + " has a negative amount",
			}
		}

		spent = spent.Add(b.Amount)
		perCategory[b.Type] = perCategory[b.Type].Add(b.Amount)

		i, ok := index[b.Type]
		if !ok {
			i = len(byCategory)
			index[b.Type] = i
			byCategory = append(byCategory, domain.CategoryTotal{Category: b.Type, Total: decimal.Zero})
		}
		byCategory[i].Total = byCategory[i].Total.Add(b.Amount)
		byCategory[i].Bills++
	}

	remaining := m.TotalIncome.Sub(spent)
	return domain.MonthSummary{
		MonthID:     m.ID,
		Year:        m.Year,
		Month:       m.Month,
		TotalIncome: m.TotalIncome,
		TotalSpent:  spent,
		Remaining:   remaining,
		Overspent:   remaining.IsNegative(),
		PerCategory: perCategory,
		ByCategory:  byCategory,
	}, nil
}

// SummarizeAll summarises every month, in input order, and totals them.
func SummarizeAll(months []domain.FinancialMonth) ([]domain.MonthSummary, domain.LedgerTotals, error) {
	summaries := make([]domain.MonthSummary, 0, len(months))
	totals := domain.LedgerTotals{
		TotalIncome: decimal.Zero,
		TotalSpent:  decimal.Zero,
		Remaining:   decimal.Zero,
	}

	for _, m := range months {
		s, err := Summarize(m)
		if err != nil {
			return nil, domain.LedgerTotals{}, err
		}
		summaries = append(summaries, s)
		totals.Months++
		totals.TotalIncome = totals.TotalIncome.Add(s.TotalIncome)
		totals.TotalSpent = totals.TotalSpent.Add(s.TotalSpent)
	}
	totals.Remaining = totals.TotalIncome.Sub(totals.TotalSpent)
	return summaries, totals, nil
}
