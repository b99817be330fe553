package handler

import (
	"net/http"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
	"github.com/boddenberg/money-manager-bfa-go/internal/guard"
	"github.com/boddenberg/money-manager-bfa-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// POST /login, POST /login/google
// ============================================================

type googleLoginRequest struct {
	Credential string `json:"credential"`
}

func loginHandler(svc *service.AuthService, paths guard.Paths, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "handler.Login")
		defer span.End()

		var req domain.LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}

		result, err := svc.Login(ctx, req.Email, req.Password)
		if err != nil {
			handleCredentialsError(w, r, err, paths, logger)
			return
		}
		afterLogin(w, r, result)
	}
}

func googleLoginHandler(svc *service.AuthService, paths guard.Paths, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "handler.GoogleLogin")
		defer span.End()

		var req googleLoginRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}

		result, err := svc.GoogleLogin(ctx, req.Credential)
		if err != nil {
			handleCredentialsError(w, r, err, paths, logger)
			return
		}
		afterLogin(w, r, result)
	}
}

// afterLogin returns to the view that sent the user to login, if any.
func afterLogin(w http.ResponseWriter, r *http.Request, result *domain.LoginResult) {
	if next := localTarget(r.URL.Query().Get("next")); next != "" {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ============================================================
// POST /register
// ============================================================

func registerHandler(svc *service.AuthService, paths guard.Paths, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "handler.Register")
		defer span.End()

		var req domain.RegisterRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}

		result, err := svc.Register(ctx, req)
		if err != nil {
			handleCredentialsError(w, r, err, paths, logger)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

// ============================================================
// POST /forgot-password, POST /reset-password
// ============================================================

func forgotPasswordHandler(svc *service.AuthService, paths guard.Paths, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.ForgotPasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}

		resp, err := svc.ForgotPassword(r.Context(), req.Email)
		if err != nil {
			handleCredentialsError(w, r, err, paths, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func resetPasswordHandler(svc *service.AuthService, paths guard.Paths, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.ResetPasswordRequest
		if err := decodeJSON(r, &req); err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}

		resp, err := svc.ResetPassword(r.Context(), req)
		if err != nil {
			handleCredentialsError(w, r, err, paths, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// ============================================================
// POST /logout
// ============================================================

func logoutHandler(svc *service.AuthService, paths guard.Paths) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.Logout()
		http.Redirect(w, r, paths.Home, http.StatusSeeOther)
	}
}
