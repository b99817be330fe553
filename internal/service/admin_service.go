package service

import (
	"context"
	"strings"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
	"github.com/boddenberg/money-manager-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var adminTracer = otel.Tracer("service/admin")

// AdminService is the user-administration surface. Only an Admin session
// may use it; the role check runs locally before any remote call.
type AdminService struct {
	api     port.AdminAPI
	session port.SessionReader
	logger  *zap.Logger
}

// NewAdminService creates the admin service.
func NewAdminService(api port.AdminAPI, session port.SessionReader, logger *zap.Logger) *AdminService {
	return &AdminService{api: api, session: session, logger: logger}
}

func (s *AdminService) authorize(action string) (string, error) {
	state := s.session.State()
	if !state.IsAuthenticated() {
		return "", &domain.ErrUnauthorized{Message: "no active session"}
	}
	if state.Role() != domain.RoleAdmin {
		return "", &domain.ErrForbidden{Action: action}
	}
	token, ok := s.session.Token()
	if !ok {
		return "", &domain.ErrUnauthorized{Message: "session expired"}
	}
	return token, nil
}

// ListUsers returns all users, or those matching search.
func (s *AdminService) ListUsers(ctx context.Context, search string) ([]domain.AdminUser, error) {
	ctx, span := adminTracer.Start(ctx, "AdminService.ListUsers")
	defer span.End()

	token, err := s.authorize("list users")
	if err != nil {
		return nil, err
	}
	return s.api.ListUsers(ctx, token, strings.TrimSpace(search))
}

// ToggleBan bans or unbans a user.
func (s *AdminService) ToggleBan(ctx context.Context, userID string) error {
	ctx, span := adminTracer.Start(ctx, "AdminService.ToggleBan")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	token, err := s.authorize("ban users")
	if err != nil {
		return err
	}
	if strings.TrimSpace(userID) == "" {
		return &domain.ErrValidation{Field: "id", Message: "user id is required"}
	}
	if err := s.api.ToggleBan(ctx, token, userID); err != nil {
		return err
	}
	s.logger.Info("admin: toggled ban", zap.String("user_id", userID))
	return nil
}

// DeleteUser permanently deletes a user.
func (s *AdminService) DeleteUser(ctx context.Context, userID string) error {
	ctx, span := adminTracer.Start(ctx, "AdminService.DeleteUser")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	token, err := s.authorize("delete users")
	if err != nil {
		return err
	}
	if strings.TrimSpace(userID) == "" {
		return &domain.ErrValidation{Field: "id", Message: "user id is required"}
	}
	if err := s.api.DeleteUser(ctx, token, userID); err != nil {
		return err
	}
	s.logger.Warn("admin: deleted user", zap.String("user_id", userID))
	return nil
}
