package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriflow/nutriflow/internal/platform/db"
)

func strPtr(s string) *string { return &s }

func TestCanAccessClient(t *testing.T) {
	tests := []struct {
		name   string
		user   AuthUser
		client ClientRecord
		want   bool
	}{
		{"owner sees tenant client of another coach",
			AuthUser{ID: "u1", Role: RoleOwner, TenantID: strPtr("t1")},
			ClientRecord{ID: "c1", UserID: "u2", TenantID: strPtr("t1")}, true},
		{"admin denied other tenant",
			AuthUser{ID: "u1", Role: RoleAdmin, TenantID: strPtr("t1")},
			ClientRecord{ID: "c1", UserID: "u1", TenantID: strPtr("t2")}, false},
		{"owner falls back to ownership for tenant-less client",
			AuthUser{ID: "u1", Role: RoleOwner, TenantID: strPtr("t1")},
			ClientRecord{ID: "c1", UserID: "u1"}, true},
		{"owner denied tenant-less client of someone else",
			AuthUser{ID: "u1", Role: RoleOwner, TenantID: strPtr("t1")},
			ClientRecord{ID: "c1", UserID: "u2"}, false},
		{"nutritionist denied tenant colleague's client",
			AuthUser{ID: "u1", Role: RoleNutritionist, TenantID: strPtr("t1")},
			ClientRecord{ID: "c1", UserID: "u2", TenantID: strPtr("t1")}, false},
		{"nutritionist sees own client in tenant",
			AuthUser{ID: "u1", Role: RoleNutritionist, TenantID: strPtr("t1")},
			ClientRecord{ID: "c1", UserID: "u1", TenantID: strPtr("t1")}, true},
		{"nutritionist denied own client in other tenant",
			AuthUser{ID: "u1", Role: RoleNutritionist, TenantID: strPtr("t1")},
			ClientRecord{ID: "c1", UserID: "u1", TenantID: strPtr("t2")}, false},
		{"nutritionist sees own tenant-less client",
			AuthUser{ID: "u1", Role: RoleNutritionist, TenantID: strPtr("t1")},
			ClientRecord{ID: "c1", UserID: "u1"}, true},
		{"tenant-less nutritionist sees own tenanted client",
			AuthUser{ID: "u1", Role: RoleNutritionist},
			ClientRecord{ID: "c1", UserID: "u1", TenantID: strPtr("t9")}, true},
		{"tenant-less admin only sees own",
			AuthUser{ID: "u1", Role: RoleAdmin},
			ClientRecord{ID: "c1", UserID: "u2", TenantID: strPtr("t1")}, false},
		{"tenant-less owner sees own",
			AuthUser{ID: "u1", Role: RoleOwner},
			ClientRecord{ID: "c1", UserID: "u1", TenantID: strPtr("t1")}, true},
		{"unknown role falls back to ownership",
			AuthUser{ID: "u1", Role: Role("AUDITOR"), TenantID: strPtr("t1")},
			ClientRecord{ID: "c1", UserID: "u2", TenantID: strPtr("t1")}, false},
		{"unknown role sees own",
			AuthUser{ID: "u1", Role: Role("AUDITOR"), TenantID: strPtr("t1")},
			ClientRecord{ID: "c1", UserID: "u1", TenantID: strPtr("t2")}, true},
		{"empty tenant string counts as none",
			AuthUser{ID: "u1", Role: RoleOwner, TenantID: strPtr("")},
			ClientRecord{ID: "c1", UserID: "u2", TenantID: strPtr("")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanAccessClient(tt.user, tt.client))
			assert.Equal(t, tt.want, AccessibleClientFilter(tt.user).Matches(tt.client))
		})
	}
}

func TestAccessibleClientFilter_AgreesWithCanAccessClient(t *testing.T) {
	tenants := []*string{nil, strPtr(""), strPtr("t1"), strPtr("t2")}
	roles := []Role{RoleOwner, RoleAdmin, RoleNutritionist, Role(""), Role("GUEST")}
	owners := []string{"u1", "u2"}

	for _, role := range roles {
		for _, ut := range tenants {
			user := AuthUser{ID: "u1", Role: role, TenantID: ut}
			filter := AccessibleClientFilter(user)
			for _, owner := range owners {
				for _, ct := range tenants {
					client := ClientRecord{ID: "c", UserID: owner, TenantID: ct}
					assert.Equal(t, CanAccessClient(user, client), filter.Matches(client),
						"role=%s userTenant=%s owner=%s clientTenant=%s", role, show(ut), owner, show(ct))
				}
			}
		}
	}
}

func show(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%q", *p)
}

func TestClientFilter_Clause(t *testing.T) {
	tests := []struct {
		name     string
		user     AuthUser
		wantSQL  string
		wantArgs []interface{}
	}{
		{"manager with tenant",
			AuthUser{ID: "u1", Role: RoleOwner, TenantID: strPtr("t1")},
			"(tenant_id = $3 OR ((tenant_id IS NULL OR tenant_id = '') AND user_id = $4))",
			[]interface{}{"t1", "u1"}},
		{"nutritionist with tenant",
			AuthUser{ID: "u1", Role: RoleNutritionist, TenantID: strPtr("t1")},
			"(user_id = $3 AND ((tenant_id IS NULL OR tenant_id = '') OR tenant_id = $4))",
			[]interface{}{"u1", "t1"}},
		{"nutritionist without tenant",
			AuthUser{ID: "u1", Role: RoleNutritionist},
			"user_id = $3",
			[]interface{}{"u1"}},
		{"admin without tenant",
			AuthUser{ID: "u1", Role: RoleAdmin},
			"user_id = $3",
			[]interface{}{"u1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args := AccessibleClientFilter(tt.user).Clause("user_id", "tenant_id", 3)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestClientFilter_Apply(t *testing.T) {
	q := db.NewSelectQuery("client c", "c.id")
	q.AddEq("c.status", "ACTIVE")
	AccessibleClientFilter(AuthUser{ID: "u1", Role: RoleAdmin, TenantID: strPtr("t1")}).Apply(q, "c.")

	require.Equal(t, 4, q.Idx())
	assert.Equal(t,
		"SELECT c.id FROM client c WHERE 1=1 AND c.status = $1 AND (c.tenant_id = $2 OR ((c.tenant_id IS NULL OR c.tenant_id = '') AND c.user_id = $3))",
		q.SQL())
	assert.Equal(t, []interface{}{"ACTIVE", "t1", "u1"}, q.Args())
}

func TestParseRole(t *testing.T) {
	assert.Equal(t, RoleOwner, ParseRole(" owner "))
	assert.True(t, ParseRole("nutritionist").Valid())
	assert.False(t, ParseRole("guest").Valid())
}

type stubLoader map[uuid.UUID]ClientRecord

func (s stubLoader) LoadClientRecord(ctx context.Context, id uuid.UUID) (ClientRecord, error) {
	rec, ok := s[id]
	if !ok {
		return ClientRecord{}, db.ErrNotFound
	}
	return rec, nil
}

func TestAuthorizeClient(t *testing.T) {
	own := uuid.New()
	other := uuid.New()
	loader := stubLoader{
		own:   {ID: own.String(), UserID: "u1", TenantID: strPtr("t1")},
		other: {ID: other.String(), UserID: "u2", TenantID: strPtr("t2")},
	}
	user := AuthUser{ID: "u1", Role: RoleNutritionist, TenantID: strPtr("t1")}

	require.NoError(t, AuthorizeClient(context.Background(), loader, user, own))
	assert.ErrorIs(t, AuthorizeClient(context.Background(), loader, user, other), ErrClientNotFound)
	assert.ErrorIs(t, AuthorizeClient(context.Background(), loader, user, uuid.New()), ErrClientNotFound)
}

type failingLoader struct{}

func (failingLoader) LoadClientRecord(ctx context.Context, id uuid.UUID) (ClientRecord, error) {
	return ClientRecord{}, errors.New("connection reset")
}

func TestAuthorizeClient_StorageError(t *testing.T) {
	err := AuthorizeClient(context.Background(), failingLoader{}, AuthUser{ID: "u1"}, uuid.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrClientNotFound)
}
