package client

import (
	"context"
	"net/http"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
)

// Login exchanges email and password for an access token.
func (cl *Client) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	var resp domain.LoginResponse
	_, err := cl.do(ctx, call{
		op:     "Client.Login",
		method: http.MethodPost,
		path:   cl.endpoints.Login,
		body:   req,
		out:    &resp,
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GoogleLogin exchanges a Google ID-token credential for an access token.
func (cl *Client) GoogleLogin(ctx context.Context, req *domain.GoogleLoginRequest) (*domain.LoginResponse, error) {
	var resp domain.LoginResponse
	_, err := cl.do(ctx, call{
		op:     "Client.GoogleLogin",
		method: http.MethodPost,
		path:   cl.endpoints.GoogleLogin,
		body:   req,
		out:    &resp,
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account.
func (cl *Client) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.RegisterResponse, error) {
	var resp domain.RegisterResponse
	_, err := cl.do(ctx, call{
		op:     "Client.Register",
		method: http.MethodPost,
		path:   cl.endpoints.Register,
		body:   req,
		out:    &resp,
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ForgotPassword asks the remote to email a reset link.
func (cl *Client) ForgotPassword(ctx context.Context, req *domain.ForgotPasswordRequest) (*domain.MessageResponse, error) {
	var resp domain.MessageResponse
	_, err := cl.do(ctx, call{
		op:     "Client.ForgotPassword",
		method: http.MethodPost,
		path:   cl.endpoints.ForgotPassword,
		body:   req,
		out:    &resp,
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ResetPassword sets a new password using the emailed reset token.
func (cl *Client) ResetPassword(ctx context.Context, req *domain.ResetPasswordRequest) (*domain.MessageResponse, error) {
	var resp domain.MessageResponse
	_, err := cl.do(ctx, call{
		op:     "Client.ResetPassword",
		method: http.MethodPost,
		path:   cl.endpoints.ResetPassword,
		body:   req,
		out:    &resp,
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
