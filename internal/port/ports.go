// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the session and
// ledger services from the concrete HTTP client and token storage.
package port

import (
	"context"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
)

// TokenPersister keeps the bearer token in durable client storage so a
// session survives a restart. Load returns "" when nothing is stored.
type TokenPersister interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// SessionReader exposes the current session to consumers that must not
// mutate it.
type SessionReader interface {
	State() domain.SessionState
	Token() (string, bool)
}

// SessionManager is a SessionReader that can also start and end the
// session.
type SessionManager interface {
	SessionReader
	Login(token string) (domain.SessionState, bool)
	Logout()
}

// AuthAPI is the remote authentication contract.
type AuthAPI interface {
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error)
	GoogleLogin(ctx context.Context, req *domain.GoogleLoginRequest) (*domain.LoginResponse, error)
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.RegisterResponse, error)
	ForgotPassword(ctx context.Context, req *domain.ForgotPasswordRequest) (*domain.MessageResponse, error)
	ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) (*domain.MessageResponse, error)
}

// LedgerAPI is the remote CRUD contract for financial months and bills.
// Every call carries the caller's bearer token.
type LedgerAPI interface {
	// Financial months
	ListMonths(ctx context.Context, token string) ([]domain.FinancialMonth, error)
	GetMonth(ctx context.Context, token string, id int64) (*domain.FinancialMonth, error)
	CreateMonth(ctx context.Context, token string, rec domain.MonthRecord) (*domain.FinancialMonth, error)
	UpdateMonth(ctx context.Context, token string, id int64, rec domain.MonthRecord) (*domain.FinancialMonth, error)
	DeleteMonth(ctx context.Context, token string, id int64) error

	// Bills
	ListBills(ctx context.Context, token string, monthID int64) ([]domain.Bill, error)
	GetBill(ctx context.Context, token string, id int64) (*domain.Bill, error)
	CreateBill(ctx context.Context, token string, rec domain.BillRecord) (*domain.Bill, error)
	UpdateBill(ctx context.Context, token string, id int64, rec domain.BillRecord) (*domain.Bill, error)
	DeleteBill(ctx context.Context, token string, id int64) error
}

// AdminAPI is the remote user-administration contract.
type AdminAPI interface {
	ListUsers(ctx context.Context, token, search string) ([]domain.AdminUser, error)
	ToggleBan(ctx context.Context, token, userID string) error
	DeleteUser(ctx context.Context, token, userID string) error
}
