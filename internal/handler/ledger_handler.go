package handler

import (
	"encoding/json"
	"net/http"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
	"github.com/boddenberg/money-manager-bfa-go/internal/guard"
	"github.com/boddenberg/money-manager-bfa-go/internal/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ============================================================
// GET /money: ledger overview
// ============================================================

func dashboardHandler(dash *service.Dashboard, paths guard.Paths, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view := service.Mount(r.Context(), r.URL.Path)
		defer view.Unmount()

		result, err := dash.Load(view)
		if err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// ============================================================
// Financial months
// ============================================================

// createMonthRequest accepts either year+month or the "YYYY-MM" period of a
// month picker.
type createMonthRequest struct {
	Year        int             `json:"year"`
	Month       int             `json:"month"`
	Period      string          `json:"period"`
	TotalIncome decimal.Decimal `json:"totalIncome"`
}

func (req createMonthRequest) input() (domain.MonthInput, error) {
	in := domain.MonthInput{Year: req.Year, Month: req.Month, TotalIncome: req.TotalIncome}
	if req.Period != "" {
		year, month, err := domain.ParseYearMonth(req.Period)
		if err != nil {
			return domain.MonthInput{}, err
		}
		in.Year, in.Month = year, month
	}
	return in, nil
}

func listMonthsHandler(repo *service.LedgerRepository, paths guard.Paths, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		months, err := repo.ListMonths(r.Context())
		if err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}
		if months == nil {
			months = []domain.FinancialMonth{}
		}
		writeJSON(w, http.StatusOK, months)
	}
}

func createMonthHandler(repo *service.LedgerRepository, paths guard.Paths, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createMonthRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}
		in, err := req.input()
		if err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}

		month, err := repo.CreateMonth(r.Context(), in)
		if err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}
		writeJSON(w, http.StatusCreated, month)
	}
}

func monthDetailHandler(dash *service.Dashboard, paths guard.Paths, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "monthID")
		if err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}

		view := service.Mount(r.Context(), r.URL.Path)
		defer view.Unmount()

		detail, err := dash.Month(view, id)
		if err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func updateMonthHandler(repo *service.LedgerRepository, paths guard.Paths, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "monthID")
		if err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}
		var patch domain.MonthPatch
		if err := decodeJSON(r, &patch); err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}

		month, err := repo.UpdateMonth(r.Context(), id, patch)
		if err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}
		writeJSON(w, http.StatusOK, month)
	}
}

func deleteMonthHandler(repo *service.LedgerRepository, paths guard.Paths, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r, "monthID")
		if err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}
		if err := repo.DeleteMonth(r.Context(), id); err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Bills
// ============================================================

// billRequest takes the amount as a number or numeric string, as typed.
type billRequest struct {
	Type        string      `json:"type"`
	Amount      json.Number `json:"amount"`
	Description string      `json:"description"`
	Color       string      `json:"color"`
}

func (req billRequest) input() (domain.BillInput, error) {
	amount, err := domain.ParseAmount(req.Amount.String())
	if err != nil {
		return domain.BillInput{}, err
	}
	return domain.BillInput{
		Type:        req.Type,
		Amount:      amount,
		Description: req.Description,
		Color:       req.Color,
	}, nil
}

func listBillsHandler(repo *service.LedgerRepository, paths guard.Paths, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		monthID, err := pathID(r, "monthID")
		if err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}
		bills, err := repo.ListBills(r.Context(), monthID)
		if err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}
		if bills == nil {
			bills = []domain.Bill{}
		}
		writeJSON(w, http.StatusOK, bills)
	}
}

func createBillHandler(repo *service.LedgerRepository, paths guard.Paths, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		monthID, err := pathID(r, "monthID")
		if err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}
		in, err := readBill(r)
		if err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}

		bill, err := repo.CreateBill(r.Context(), monthID, in)
		if err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}
		writeJSON(w, http.StatusCreated, bill)
	}
}

func getBillHandler(repo *service.LedgerRepository, paths guard.Paths, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		monthID, billID, err := billIDs(r)
		if err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}
		bill, err := repo.GetBill(r.Context(), monthID, billID)
		if err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}
		writeJSON(w, http.StatusOK, bill)
	}
}

func updateBillHandler(repo *service.LedgerRepository, paths guard.Paths, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		monthID, billID, err := billIDs(r)
		if err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}
		in, err := readBill(r)
		if err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}

		bill, err := repo.UpdateBill(r.Context(), monthID, billID, in)
		if err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}
		writeJSON(w, http.StatusOK, bill)
	}
}

func deleteBillHandler(repo *service.LedgerRepository, paths guard.Paths, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		monthID, billID, err := billIDs(r)
		if err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}
		if err := repo.DeleteBill(r.Context(), monthID, billID); err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func readBill(r *http.Request) (domain.BillInput, error) {
	var req billRequest
	if err := decodeJSON(r, &req); err != nil {
		return domain.BillInput{}, err
	}
	return req.input()
}

func billIDs(r *http.Request) (monthID, billID int64, err error) {
	if monthID, err = pathID(r, "monthID"); err != nil {
		return 0, 0, err
	}
	if billID, err = pathID(r, "billID"); err != nil {
		return 0, 0, err
	}
	return monthID, billID, nil
}
