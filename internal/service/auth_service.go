package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
	"github.com/boddenberg/money-manager-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var authTracer = otel.Tracer("service/auth")

const minPasswordLength = 8

const registeredMessage = "Registration successful. Please check your email to confirm your account."

// AuthService runs the authentication flows against the remote API and
// installs the resulting token in the session.
type AuthService struct {
	api     port.AuthAPI
	session port.SessionManager
	logger  *zap.Logger
}

// NewAuthService creates the auth service.
func NewAuthService(api port.AuthAPI, session port.SessionManager, logger *zap.Logger) *AuthService {
	return &AuthService{api: api, session: session, logger: logger}
}

// ============================================================
// Login
// ============================================================

// Login signs in with email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, &domain.ErrValidation{Field: "password", Message: "password is required"}
	}

	resp, err := s.api.Login(ctx, &domain.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return s.install(resp.AccessToken)
}

// GoogleLogin signs in with a Google ID-token credential.
func (s *AuthService) GoogleLogin(ctx context.Context, credential string) (*domain.LoginResult, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.GoogleLogin")
	defer span.End()

	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, &domain.ErrValidation{Field: "credential", Message: "google credential is required"}
	}

	resp, err := s.api.GoogleLogin(ctx, &domain.GoogleLoginRequest{Credential: credential})
	if err != nil {
		return nil, err
	}
	return s.install(resp.AccessToken)
}

// install hands token to the session. A token the client cannot decode
// (malformed, expired, missing exp) does not start a session.
func (s *AuthService) install(token string) (*domain.LoginResult, error) {
	state, ok := s.session.Login(token)
	if !ok {
		s.logger.Warn("auth: remote returned an unusable token")
		return nil, &domain.ErrUnauthorized{Message: "login failed: the server returned an unusable session token"}
	}
	return &domain.LoginResult{Session: state}, nil
}

// Logout ends the session. Logging out while anonymous is a no-op.
func (s *AuthService) Logout() {
	s.session.Logout()
}

// ============================================================
// Registration
// ============================================================

// Register creates an account. When the remote confirms the registration
// with a token the new session starts immediately; otherwise the user has
// to confirm by email first.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.RegisterResult, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Register")
	defer span.End()

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	req.Email = email
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.LastName = strings.TrimSpace(req.LastName)
	if req.FirstName == "" {
		return nil, &domain.ErrValidation{Field: "firstName", Message: "first name is required"}
	}
	if req.LastName == "" {
		return nil, &domain.ErrValidation{Field: "lastName", Message: "last name is required"}
	}
	if err := checkPassword("password", req.Password); err != nil {
		return nil, err
	}
	score, label := domain.PasswordStrength(req.Password)

	resp, err := s.api.Register(ctx, &req)
	if err != nil {
		return nil, err
	}

	result := &domain.RegisterResult{
		Message:          resp.Message,
		Session:          s.session.State(),
		PasswordScore:    score,
		PasswordStrength: label,
	}
	if result.Message == "" {
		result.Message = registeredMessage
	}
	if resp.AccessToken != "" {
		if state, ok := s.session.Login(resp.AccessToken); ok {
			result.Session = state
		} else {
			s.logger.Warn("auth: registration token is unusable, continuing anonymous")
		}
	}

	s.logger.Info("auth: registered", zap.Bool("session_started", result.Session.IsAuthenticated()))
	return result, nil
}

// ============================================================
// Password recovery
// ============================================================

// ForgotPassword asks the remote to email a reset link.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (*domain.MessageResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.ForgotPassword")
	defer span.End()

	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	return s.api.ForgotPassword(ctx, &domain.ForgotPasswordRequest{Email: email})
}

// ResetPassword sets a new password with the emailed reset token.
func (s *AuthService) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) (*domain.MessageResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.ResetPassword")
	defer span.End()

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	req.Email = email
	if strings.TrimSpace(req.Token) == "" {
		return nil, &domain.ErrValidation{Field: "token", Message: "reset token is required"}
	}
	if err := checkPassword("newPassword", req.NewPassword); err != nil {
		return nil, err
	}
	return s.api.ResetPassword(ctx, &req)
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", &domain.ErrValidation{Field: "email", Message: "email is required"}
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", &domain.ErrValidation{Field: "email", Message: "email is not valid"}
	}
	return strings.ToLower(email), nil
}

func checkPassword(field, pw string) error {
	if len([]rune(pw)) < minPasswordLength {
		return &domain.ErrValidation{Field: field, Message: "password must be at least 8 characters"}
	}
	return nil
}
