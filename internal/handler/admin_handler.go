package handler

import (
	"net/http"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
	"github.com/boddenberg/money-manager-bfa-go/internal/guard"
	"github.com/boddenberg/money-manager-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// GET /admin, GET /admin/users?search=
func listUsersHandler(svc *service.AdminService, paths guard.Paths, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := svc.ListUsers(r.Context(), r.URL.Query().Get("search"))
		if err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}
		if users == nil {
			users = []domain.AdminUser{}
		}
		writeJSON(w, http.StatusOK, users)
	}
}

// POST /admin/users/{userID}/toggle-ban
func toggleBanHandler(svc *service.AdminService, paths guard.Paths, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.ToggleBan(r.Context(), chi.URLParam(r, "userID")); err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// DELETE /admin/users/{userID}
func deleteUserHandler(svc *service.AdminService, paths guard.Paths, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteUser(r.Context(), chi.URLParam(r, "userID")); err != nil {
			handleServiceError(w, r, err, paths, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
