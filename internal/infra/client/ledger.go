package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
)

// ============================================================
// Financial months
// ============================================================

// ListMonths returns every financial month of the token's user.
func (cl *Client) ListMonths(ctx context.Context, token string) ([]domain.FinancialMonth, error) {
	var months []domain.FinancialMonth
	_, err := cl.do(ctx, call{
		op:       "Client.ListMonths",
		method:   http.MethodGet,
		path:     cl.endpoints.Months,
		token:    token,
		out:      &months,
		resource: "financial months",
	})
	if err != nil {
		return nil, err
	}
	return months, nil
}

// GetMonth returns one financial month with its bills.
func (cl *Client) GetMonth(ctx context.Context, token string, id int64) (*domain.FinancialMonth, error) {
	var month domain.FinancialMonth
	_, err := cl.do(ctx, call{
		op:       "Client.GetMonth",
		method:   http.MethodGet,
		path:     cl.monthPath(id),
		token:    token,
		out:      &month,
		resource: "financial month",
		id:       strconv.FormatInt(id, 10),
	})
	if err != nil {
		return nil, err
	}
	return &month, nil
}

// CreateMonth creates a financial month.
func (cl *Client) CreateMonth(ctx context.Context, token string, rec domain.MonthRecord) (*domain.FinancialMonth, error) {
	var month domain.FinancialMonth
	decoded, err := cl.do(ctx, call{
		op:       "Client.CreateMonth",
		method:   http.MethodPost,
		path:     cl.endpoints.Months,
		token:    token,
		body:     rec,
		out:      &month,
		resource: "financial month",
	})
	if err != nil {
		return nil, err
	}
	if !decoded {
		month = domain.FinancialMonth{Year: rec.Year, Month: rec.Month, TotalIncome: rec.TotalIncome}
	}
	return &month, nil
}

// UpdateMonth replaces a financial month's fields.
func (cl *Client) UpdateMonth(ctx context.Context, token string, id int64, rec domain.MonthRecord) (*domain.FinancialMonth, error) {
	var month domain.FinancialMonth
	decoded, err := cl.do(ctx, call{
		op:       "Client.UpdateMonth",
		method:   http.MethodPut,
		path:     cl.monthPath(id),
		token:    token,
		body:     rec,
		out:      &month,
		resource: "financial month",
		id:       strconv.FormatInt(id, 10),
	})
	if err != nil {
		return nil, err
	}
	if !decoded {
		// 204 No Content: echo what was written.
		month = domain.FinancialMonth{ID: id, Year: rec.Year, Month: rec.Month, TotalIncome: rec.TotalIncome}
	}
	return &month, nil
}

// DeleteMonth deletes a financial month; the remote cascades to its bills.
func (cl *Client) DeleteMonth(ctx context.Context, token string, id int64) error {
	_, err := cl.do(ctx, call{
		op:       "Client.DeleteMonth",
		method:   http.MethodDelete,
		path:     cl.monthPath(id),
		token:    token,
		resource: "financial month",
		id:       strconv.FormatInt(id, 10),
	})
	return err
}

func (cl *Client) monthPath(id int64) string {
	return fmt.Sprintf("%s/%d", cl.endpoints.Months, id)
}

// ============================================================
// Bills
// ============================================================

// ListBills returns the bills of one financial month.
func (cl *Client) ListBills(ctx context.Context, token string, monthID int64) ([]domain.Bill, error) {
	var bills []domain.Bill
	q := url.Values{"financialMonthId": {strconv.FormatInt(monthID, 10)}}
	_, err := cl.do(ctx, call{
		op:       "Client.ListBills",
		method:   http.MethodGet,
		path:     cl.endpoints.Bills + "?" + q.Encode(),
		token:    token,
		out:      &bills,
		resource: "financial month",
		id:       strconv.FormatInt(monthID, 10),
	})
	if err != nil {
		return nil, err
	}
	return bills, nil
}

// GetBill returns one bill.
func (cl *Client) GetBill(ctx context.Context, token string, id int64) (*domain.Bill, error) {
	var bill domain.Bill
	_, err := cl.do(ctx, call{
		op:       "Client.GetBill",
		method:   http.MethodGet,
		path:     cl.billPath(id),
		token:    token,
		out:      &bill,
		resource: "bill",
		id:       strconv.FormatInt(id, 10),
	})
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

// CreateBill creates a bill in rec.FinancialMonthID.
func (cl *Client) CreateBill(ctx context.Context, token string, rec domain.BillRecord) (*domain.Bill, error) {
	var bill domain.Bill
	decoded, err := cl.do(ctx, call{
		op:       "Client.CreateBill",
		method:   http.MethodPost,
		path:     cl.endpoints.Bills,
		token:    token,
		body:     rec,
		out:      &bill,
		resource: "financial month",
		id:       strconv.FormatInt(rec.FinancialMonthID, 10),
	})
	if err != nil {
		return nil, err
	}
	if !decoded {
		bill = billFromRecord(0, rec)
	}
	return &bill, nil
}

// UpdateBill replaces a bill's fields.
func (cl *Client) UpdateBill(ctx context.Context, token string, id int64, rec domain.BillRecord) (*domain.Bill, error) {
	var bill domain.Bill
	decoded, err := cl.do(ctx, call{
		op:       "Client.UpdateBill",
		method:   http.MethodPut,
		path:     cl.billPath(id),
		token:    token,
		body:     rec,
		out:      &bill,
		resource: "bill",
		id:       strconv.FormatInt(id, 10),
	})
	if err != nil {
		return nil, err
	}
	if !decoded {
		bill = billFromRecord(id, rec)
	}
	return &bill, nil
}

// DeleteBill deletes a bill.
func (cl *Client) DeleteBill(ctx context.Context, token string, id int64) error {
	_, err := cl.do(ctx, call{
		op:       "Client.DeleteBill",
		method:   http.MethodDelete,
		path:     cl.billPath(id),
		token:    token,
		resource: "bill",
		id:       strconv.FormatInt(id, 10),
	})
	return err
}

func (cl *Client) billPath(id int64) string {
	return fmt.Sprintf("%s/%d", cl.endpoints.Bills, id)
}

func billFromRecord(id int64, rec domain.BillRecord) domain.Bill {
	return domain.Bill{
		ID:               id,
		FinancialMonthID: rec.FinancialMonthID,
		Type:             rec.Type,
		Amount:           rec.Amount,
		Description:      rec.Description,
		Color:            rec.Color,
	}
}
