package domain

import (
	"github.com/shopspring/decimal"
)

func init() {
	// The remote API exchanges amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// ============================================================
// Ledger: remote records
// ============================================================

// FinancialMonth is one month of the ledger: its income and the bills
// recorded against it, in creation order.
type FinancialMonth struct {
	ID          int64           `json:"id"`
	Year        int             `json:"year"`
	Month       string          `json:"month"`
	TotalIncome decimal.Decimal `json:"totalIncome"`
	Bills       []Bill          `json:"bills,omitempty"`
}

// Bill is one categorised expense owned by exactly one FinancialMonth.
type Bill struct {
	ID               int64           `json:"id"`
	FinancialMonthID int64           `json:"financialMonthId"`
	Type             string          `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	Description      string          `json:"description,omitempty"`
	Color            string          `json:"color,omitempty"`
}

// MonthInput is the body of createMonth. Month is the numeric month (1 to 12);
// the canonical name is derived by ResolveMonth.
type MonthInput struct {
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	TotalIncome decimal.Decimal `json:"totalIncome"`
}

// MonthPatch carries the fields of updateMonth. Nil fields are left unchanged.
type MonthPatch struct {
	Year        *int             `json:"year,omitempty"`
	Month       *int             `json:"month,omitempty"`
	TotalIncome *decimal.Decimal `json:"totalIncome,omitempty"`
}

// MonthRecord is the wire body the remote API expects for month writes.
type MonthRecord struct {
	Year        int             `json:"year"`
	Month       string          `json:"month"`
	TotalIncome decimal.Decimal `json:"totalIncome"`
}

// BillInput is the body of createBill / updateBill.
type BillInput struct {
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	Color       string          `json:"color,omitempty"`
}

// BillRecord is the wire body the remote API expects for bill writes.
type BillRecord struct {
	FinancialMonthID int64           `json:"financialMonthId"`
	Type             string          `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	Description      string          `json:"description"`
	Color            string          `json:"color"`
}

// ============================================================
// Ledger: derived values (never persisted)
// ============================================================

// CategoryTotal is the sum of bill amounts for one category label.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Bills    int             `json:"bills"`
}

// MonthSummary is the derived summary of one FinancialMonth.
type MonthSummary struct {
	MonthID     int64                      `json:"monthId"`
	Year        int                        `json:"year"`
	Month       string                     `json:"month"`
	TotalIncome decimal.Decimal            `json:"totalIncome"`
	TotalSpent  decimal.Decimal            `json:"totalSpent"`
	Remaining   decimal.Decimal            `json:"remaining"`
	Overspent   bool                       `json:"overspent"`
	PerCategory map[string]decimal.Decimal `json:"perCategory"`
	ByCategory  []CategoryTotal            `json:"byCategory"`
}

// LedgerTotals aggregates a set of month summaries.
type LedgerTotals struct {
	Months      int             `json:"months"`
	TotalIncome decimal.Decimal `json:"totalIncome"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
	Remaining   decimal.Decimal `json:"remaining"`
}

// MonthDetail is a month together with its freshly computed summary.
type MonthDetail struct {
	Month   FinancialMonth `json:"month"`
	Summary MonthSummary   `json:"summary"`
}

// DashboardView is the payload of the ledger overview.
type DashboardView struct {
	Months []MonthSummary `json:"months"`
	Totals LedgerTotals   `json:"totals"`
}
