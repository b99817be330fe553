package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
	"github.com/boddenberg/money-manager-bfa-go/internal/guard"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

const maxRequestBody = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON reads a JSON request body into dst. Unknown fields are
// rejected so typos surface as validation errors.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &domain.ErrValidation{Message: "invalid request body: " + err.Error()}
	}
	return nil
}

// pathID parses a positive int64 URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.ErrValidation{Field: name, Message: "must be a positive id"}
	}
	return id, nil
}

// localTarget returns next when it is a path on this server, or "".
func localTarget(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	if u, err := url.Parse(next); err != nil || u.Host != "" || u.Scheme != "" {
		return ""
	}
	return next
}

// statusClientClosedRequest is the non-standard 499 logged for requests
// whose client disconnected.
const statusClientClosedRequest = 499

// handleServiceError maps domain errors to HTTP responses. A lost session
// sends the browser back through login and returns it to the same view; a
// role the view does not allow goes home.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error, paths guard.Paths, logger *zap.Logger) {
	var notFound *domain.ErrNotFound
	var validation *domain.ErrValidation
	var forbidden *domain.ErrForbidden
	var unauthorized *domain.ErrUnauthorized
	var conflict *domain.ErrConflict
	var network *domain.ErrNetwork

	switch {
	case errors.Is(err, context.Canceled):
		// The client went away; nobody reads this response.
		logger.Debug("request cancelled", zap.String("path", r.URL.Path))
		w.WriteHeader(statusClientClosedRequest)
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("request timed out", zap.String("path", r.URL.Path))
		writeError(w, http.StatusGatewayTimeout, "the money service took too long to answer")
	case errors.As(err, &unauthorized):
		logger.Info("session required", zap.String("path", r.URL.Path), zap.String("error", err.Error()))
		http.Redirect(w, r, paths.Login+"?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		http.Redirect(w, r, paths.Home, http.StatusSeeOther)
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, validation.Message)
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &network):
		logger.Error("remote api unavailable", zap.Error(err))
		writeError(w, http.StatusBadGateway, "the money service is unavailable, please try again")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// handleCredentialsError is handleServiceError for the sign-in forms, where
// a 401 means wrong credentials rather than a lost session.
func handleCredentialsError(w http.ResponseWriter, r *http.Request, err error, paths guard.Paths, logger *zap.Logger) {
	var unauthorized *domain.ErrUnauthorized
	if errors.As(err, &unauthorized) {
		logger.Warn("auth: sign-in rejected", zap.String("path", r.URL.Path), zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}
	handleServiceError(w, r, err, paths, logger)
}
