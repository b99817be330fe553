package guard_test

import (
	"testing"
	"time"

	"github.com/boddenberg/money-manager-bfa-go/internal/domain"
	"github.com/boddenberg/money-manager-bfa-go/internal/guard"

	"github.com/stretchr/testify/assert"
)

var (
	anonymous = domain.Anonymous()
	user      = domain.Authenticated(domain.Claims{UserID: "u1", Role: domain.RoleUser, ExpiresAt: time.Now().Add(time.Hour)})
	admin     = domain.Authenticated(domain.Claims{UserID: "a1", Role: domain.RoleAdmin, ExpiresAt: time.Now().Add(time.Hour)})
)

func TestEvaluate_AdminView(t *testing.T) {
	d := guard.Evaluate(guard.AdminRequired, anonymous, "/admin")
	assert.Equal(t, guard.Redirect, d.Outcome)
	assert.Equal(t, "/login?next=%2Fadmin", d.Location)
	assert.Equal(t, "/admin", d.Target)
	assert.Equal(t, guard.ReasonNotLoggedIn, d.Reason)

	d = guard.Evaluate(guard.AdminRequired, user, "/admin")
	assert.Equal(t, guard.Redirect, d.Outcome)
	assert.Equal(t, guard.HomePath, d.Location)
	assert.Empty(t, d.Target)
	assert.Equal(t, guard.ReasonNotAuthorized, d.Reason)

	d = guard.Evaluate(guard.AdminRequired, admin, "/admin")
	assert.True(t, d.Allowed())
}

func TestEvaluate_AuthView(t *testing.T) {
	assert.Equal(t, guard.Redirect, guard.Evaluate(guard.AuthRequired, anonymous, "/money").Outcome)
	assert.True(t, guard.Evaluate(guard.AuthRequired, user, "/money").Allowed())
	assert.True(t, guard.Evaluate(guard.AuthRequired, admin, "/money").Allowed())
}

func TestEvaluate_PublicView(t *testing.T) {
	for _, s := range []domain.SessionState{anonymous, user, admin} {
		assert.True(t, guard.Evaluate(guard.Public, s, "/").Allowed())
	}
}

func TestEvaluate_CustomPaths(t *testing.T) {
	p := guard.Paths{Login: "/signin", Home: "/welcome"}
	assert.Equal(t, "/signin?next=%2Fmoney%3Fyear%3D2025", p.Evaluate(guard.AuthRequired, anonymous, "/money?year=2025").Location)
	assert.Equal(t, "/welcome", p.Evaluate(guard.AdminRequired, user, "/admin").Location)
	assert.Equal(t, "/signin", p.Evaluate(guard.AuthRequired, anonymous, "").Location)
}

func TestTable_Lookup(t *testing.T) {
	table := guard.DefaultTable()

	tests := []struct {
		path string
		want guard.Access
	}{
		{"/", guard.Public},
		{"/login", guard.Public},
		{"/register", guard.Public},
		{"/money", guard.AuthRequired},
		{"/money/months/12", guard.AuthRequired},
		{"/money/months/12/bills/3?x=1", guard.AuthRequired},
		{"/logout", guard.AuthRequired},
		{"/admin", guard.AdminRequired},
		{"/admin/users", guard.AdminRequired},
		{"/admin/users/7/toggle-ban", guard.AdminRequired},
		{"/unknown", guard.Public},
		{"", guard.Public},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Lookup(tt.path))
		})
	}
}

func TestTable_Check(t *testing.T) {
	table := guard.DefaultTable()

	d := table.Check("/money/months/3", anonymous)
	assert.Equal(t, guard.Redirect, d.Outcome)
	assert.Equal(t, "/login?next=%2Fmoney%2Fmonths%2F3", d.Location)

	assert.Equal(t, "/", table.Check("/admin/users", user).Location)
	assert.True(t, table.Check("/admin/users", admin).Allowed())
}

func TestTable_ReevaluatedOnEveryNavigation(t *testing.T) {
	table := guard.DefaultTable()
	state := anonymous

	assert.False(t, table.Check("/money", state).Allowed())
	state = user
	assert.True(t, table.Check("/money", state).Allowed())
	state = anonymous
	assert.False(t, table.Check("/money", state).Allowed())
}

func TestAccess_String(t *testing.T) {
	assert.Equal(t, "public", guard.Public.String())
	assert.Equal(t, "auth-required", guard.AuthRequired.String())
	assert.Equal(t, "admin-required", guard.AdminRequired.String())
}
