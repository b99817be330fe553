package session

import (
	"strings"
	"time"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// Claim names issued by the remote API. The ASP.NET identity URIs appear
// alongside (or instead of) the short JWT names depending on the issuer.
const (
	claimNameIdentifier = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"
	claimEmailAddress   = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/emailaddress"
	claimRole           = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"
)

var (
	userIDClaims = []string{"sub", "nameid", claimNameIdentifier, "userId", "uid"}
	emailClaims  = []string{"email", claimEmailAddress, "unique_name"}
	roleClaims   = []string{"role", "roles", claimRole}
)

var parser = jwt.NewParser()

// DecodeClaims reads the identity embedded in token without verifying its
// signature. It reports false when the token is not a well-formed JWT, has
// no subject, has no expiry, or expires at or before now.
func DecodeClaims(token string, now time.Time) (domain.Claims, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Claims{}, false
	}

	mc := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, mc); err != nil {
		return domain.Claims{}, false
	}

	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return domain.Claims{}, false
	}
	if !exp.Time.After(now) {
		return domain.Claims{}, false
	}

	userID := firstString(mc, userIDClaims)
	if userID == "" {
		return domain.Claims{}, false
	}

	return domain.Claims{
		UserID:    userID,
		Email:     firstString(mc, emailClaims),
		Role:      roleOf(mc),
		ExpiresAt: exp.Time.UTC(),
	}, true
}

func firstString(mc jwt.MapClaims, names []string) string {
	for _, name := range names {
		if v, ok := mc[name].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// roleOf returns Admin if any role claim names it, User otherwise. A role
// claim may be a single string or an array of strings.
func roleOf(mc jwt.MapClaims) domain.Role {
	for _, name := range roleClaims {
		switch v := mc[name].(type) {
		case string:
			if isAdmin(v) {
				return domain.RoleAdmin
			}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok && isAdmin(s) {
					return domain.RoleAdmin
				}
			}
		}
	}
	return domain.RoleUser
}

func isAdmin(role string) bool {
	return strings.EqualFold(strings.TrimSpace(role), string(domain.RoleAdmin))
}
