package handler

import (
	"net/http"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
	"github.com/boddenberg/money-manager-bfa-go/internal/infra/observability"
	"github.com/boddenberg/money-manager-bfa-go/internal/session"
)

type viewResponse struct {
	View    string              `json:"view"`
	Session domain.SessionState `json:"session"`
	Next    string              `json:"next,omitempty"`
}

func healthzHandler(ctrl *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"session": string(ctrl.State().Status),
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func statusHandler(ctrl *session.Controller, metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot(ctrl.State()))
	}
}

func homeHandler(ctrl *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, viewResponse{View: "home", Session: ctrl.State()})
	}
}

func sessionHandler(ctrl *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ctrl.State())
	}
}

func loginViewHandler(ctrl *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, viewResponse{
			View:    "login",
			Session: ctrl.State(),
			Next:    localTarget(r.URL.Query().Get("next")),
		})
	}
}

func communityHandler(ctrl *session.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, viewResponse{View: "community", Session: ctrl.State()})
	}
}
