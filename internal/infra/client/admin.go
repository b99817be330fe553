package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
)

// ListUsers returns all users, or those matching search.
func (cl *Client) ListUsers(ctx context.Context, token, search string) ([]domain.AdminUser, error) {
	path := cl.endpoints.Admin + "/users"
	if search != "" {
		path += "?" + url.Values{"search": {search}}.Encode()
	}

	var users []domain.AdminUser
	_, err := cl.do(ctx, call{
		op:       "Client.ListUsers",
		method:   http.MethodGet,
		path:     path,
		token:    token,
		out:      &users,
		resource: "users",
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// ToggleBan flips a user's banned flag.
func (cl *Client) ToggleBan(ctx context.Context, token, userID string) error {
	_, err := cl.do(ctx, call{
		op:       "Client.ToggleBan",
		method:   http.MethodPost,
		path:     cl.endpoints.Admin + "/toggle-ban/" + url.PathEscape(userID),
		token:    token,
		resource: "user",
		id:       userID,
	})
	return err
}

// DeleteUser permanently deletes a user.
func (cl *Client) DeleteUser(ctx context.Context, token, userID string) error {
	_, err := cl.do(ctx, call{
		op:       "Client.DeleteUser",
		method:   http.MethodDelete,
		path:     cl.endpoints.Admin + "/delete/" + url.PathEscape(userID),
		token:    token,
		resource: "user",
		id:       userID,
	})
	return err
}
