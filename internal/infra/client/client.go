// Package client talks to the remote persistence service: authentication,
// financial months, bills and user administration. Every call goes through
// a bulkhead, a circuit breaker and (for reads) retry with backoff, and
// every non-2xx answer is mapped onto the domain error taxonomy.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
	"github.com/boddenberg/money-manager-bfa-go/internal/infra/resilience"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("client")

const (
	serviceName     = "money-api"
	maxResponseBody = 1 << 20
	maxErrorMessage = 200
)

// Endpoints are the remote paths, relative to the base URL. They are
// configurable because the remote has exposed different paths across
// revisions (e.g. "/login" vs "/api/Auth/login").
type Endpoints struct {
	Login          string
	Register       string
	GoogleLogin    string
	ForgotPassword string
	ResetPassword  string
	Months         string
	Bills          string
	Admin          string
}

// DefaultEndpoints returns the paths used by the current remote revision.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Login:          "/login",
		Register:       "/register",
		GoogleLogin:    "/api/auth/google-login",
		ForgotPassword: "/api/auth/forgot-password",
		ResetPassword:  "/api/auth/reset-password",
		Months:         "/api/financial-months",
		Bills:          "/api/bills",
		Admin:          "/api/admin",
	}
}

// Client is the HTTP adapter for port.AuthAPI, port.LedgerAPI and
// port.AdminAPI.
type Client struct {
	httpClient *http.Client
	baseURL    string
	endpoints  Endpoints
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
	logger     *zap.Logger
}

// New creates a remote API client.
func New(httpClient *http.Client, baseURL string, endpoints Endpoints, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		endpoints:  endpoints,
		cb:         cb,
		cfg:        cfg,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		logger:     logger,
	}
}

// IsRemoteHealthy tells the circuit breaker which errors still prove the
// remote is up: answers it deliberately rejected, and calls the caller
// abandoned.
func IsRemoteHealthy(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	switch domain.Kind(err) {
	case domain.KindNone, domain.KindUnauthorized, domain.KindForbidden,
		domain.KindInvalid, domain.KindConflict, domain.KindNotFound:
		return true
	default:
		return false
	}
}

// call describes one remote request.
type call struct {
	op       string // span name
	method   string
	path     string
	token    string
	body     any
	out      any
	resource string // for NotFound errors
	id       string
}

// do executes c and reports whether a response body was decoded into c.out.
func (cl *Client) do(ctx context.Context, c call) (bool, error) {
	ctx, span := tracer.Start(ctx, c.op)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", c.method),
		attribute.String("http.path", c.path),
	)

	// A caller that has gone away is not a remote failure: hand its
	// context error back unwrapped and keep it out of the breaker.
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := cl.bulkhead.Acquire(ctx); err != nil {
		return false, err
	}
	defer cl.bulkhead.Release()

	cfg := cl.cfg
	if c.method != http.MethodGet {
		// Writes are not idempotent on the remote; never replay them.
		cfg.MaxRetries = 0
	}

	var decoded bool
	_, err := cl.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, cfg, func() error {
			var attemptErr error
			decoded, attemptErr = cl.attempt(ctx, c)
			return attemptErr
		})
	})
	if err == nil {
		return decoded, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && domain.Kind(err) == domain.KindUnknown {
		return false, ctxErr
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	if domain.Kind(err) != domain.KindUnknown {
		return false, err
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		cl.logger.Warn("remote api: circuit breaker rejected call", zap.String("op", c.op))
	}
	return false, &domain.ErrNetwork{Service: serviceName, Err: err}
}

// attempt performs a single HTTP round trip. Errors the remote returned on
// purpose are Permanent so they are not retried.
func (cl *Client) attempt(ctx context.Context, c call) (bool, error) {
	var reqBody io.Reader
	if c.body != nil {
		b, err := json.Marshal(c.body)
		if err != nil {
			return false, resilience.Permanent(fmt.Errorf("encode request: %w", err))
		}
		reqBody = bytes.NewReader(b)
	}

	url := cl.baseURL + c.path
	req, err := http.NewRequestWithContext(ctx, c.method, url, reqBody)
	if err != nil {
		return false, resilience.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if c.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := cl.httpClient.Do(req)
	if err != nil {
		cl.logger.Warn("remote api: request failed",
			zap.String("method", c.method),
			zap.String("path", c.path),
			zap.Error(err),
		)
		return false, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		cl.logger.Debug("remote api: request OK",
			zap.String("method", c.method),
			zap.String("path", c.path),
			zap.Int("status", resp.StatusCode),
		)
		if c.out == nil || len(bytes.TrimSpace(body)) == 0 {
			return false, nil
		}
		if err := json.Unmarshal(body, c.out); err != nil {
			return false, resilience.Permanent(&domain.ErrNetwork{
				Service: serviceName,
				Status:  resp.StatusCode,
				Err:     fmt.Errorf("decode response: %w", err),
			})
		}
		return true, nil
	}

	cl.logger.Warn("remote api: non-2xx response",
		zap.String("method", c.method),
		zap.String("path", c.path),
		zap.Int("status", resp.StatusCode),
	)
	return false, statusError(resp.StatusCode, body, c)
}

// statusError maps a non-2xx answer onto the error taxonomy.
func statusError(status int, body []byte, c call) error {
	msg := errorMessage(body)
	if msg == "" {
		msg = strings.ToLower(http.StatusText(status))
	}

	switch {
	case status == http.StatusUnauthorized:
		return resilience.Permanent(&domain.ErrUnauthorized{Message: msg})
	case status == http.StatusForbidden:
		return resilience.Permanent(&domain.ErrForbidden{Action: msg})
	case status == http.StatusNotFound:
		return resilience.Permanent(&domain.ErrNotFound{Resource: c.resource, ID: c.id})
	case status == http.StatusConflict:
		return resilience.Permanent(&domain.ErrConflict{Message: msg})
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return resilience.Permanent(&domain.ErrValidation{Message: msg})
	case status >= 500:
		return &domain.ErrNetwork{Service: serviceName, Status: status, Err: errors.New(msg)}
	default:
		return resilience.Permanent(&domain.ErrNetwork{Service: serviceName, Status: status, Err: errors.New(msg)})
	}
}

// problemDetails is the ASP.NET validation error shape, where errors is a
// map of field name to messages.
type problemDetails struct {
	Title  string              `json:"title"`
	Detail string              `json:"detail"`
	Errors map[string][]string `json:"errors"`
}

// errorMessage extracts a human-readable message from an error body.
func errorMessage(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var payload domain.APIErrorPayload
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := payload.Message(); msg != "" {
			return msg
		}
	}

	var problem problemDetails
	if err := json.Unmarshal(body, &problem); err == nil {
		fields := make([]string, 0, len(problem.Errors))
		for field := range problem.Errors {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		var parts []string
		for _, field := range fields {
			for _, m := range problem.Errors[field] {
				parts = append(parts, field+": "+m)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
		if problem.Detail != "" {
			return problem.Detail
		}
		if problem.Title != "" {
			return problem.Title
		}
	}

	if body[0] == '{' || body[0] == '[' {
		return ""
	}
	msg := string(body)
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage]
	}
	return msg
}
