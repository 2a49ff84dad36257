package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/nutriflow/nutriflow/internal/platform/db"
)

// ErrClientNotFound is returned both for missing clients and for clients the
// caller may not access, so that existence is not revealed.
var ErrClientNotFound = errors.New("client not found")

// ClientLoader fetches the access projection of a client. It returns
// db.ErrNotFound when the client does not exist.
type ClientLoader interface {
	LoadClientRecord(ctx context.Context, id uuid.UUID) (ClientRecord, error)
}

// AuthorizeClient loads the client and checks that user may access it.
func AuthorizeClient(ctx context.Context, loader ClientLoader, user AuthUser, id uuid.UUID) error {
	rec, err := loader.LoadClientRecord(ctx, id)
	if errors.Is(err, db.ErrNotFound) {
		return ErrClientNotFound
	}
	if err != nil {
		return fmt.Errorf("load client: %w", err)
	}
	if !CanAccessClient(user, rec) {
		return ErrClientNotFound
	}
	return nil
}

// ClientRecord is the part of a client needed to decide access.
type ClientRecord struct {
	ID       string
	UserID   string
	TenantID *string
}

// CanAccessClient decides whether user may see client.
//
// Tenant managers (OWNER, ADMIN) see every client of their tenant, plus
// their own tenant-less clients. Nutritionists see only the clients they
// own, and never one that belongs to another tenant. Users without a tenant
// and users with an unknown role see only what they own.
func CanAccessClient(user AuthUser, client ClientRecord) bool {
	userTenant, userHasTenant := user.Tenant()
	clientTenant, clientHasTenant := tenantOf(client.TenantID)
	owns := client.UserID == user.ID

	switch {
	case user.Role.managesTenant() && userHasTenant:
		if clientHasTenant {
			return clientTenant == userTenant
		}
		return owns
	case user.Role == RoleNutritionist:
		if !owns {
			return false
		}
		if userHasTenant && clientHasTenant {
			return clientTenant == userTenant
		}
		return true
	default:
		return owns
	}
}

type filterKind int

const (
	filterOwned filterKind = iota
	filterTenantOrOwned
	filterOwnedInTenant
)

// ClientFilter selects the clients a user may access. The same filter is
// evaluated in SQL through Apply and in memory through Matches; both accept
// exactly the clients CanAccessClient allows.
type ClientFilter struct {
	kind     filterKind
	userID   string
	tenantID string
}

// AccessibleClientFilter returns the filter for user.
func AccessibleClientFilter(user AuthUser) ClientFilter {
	tenant, hasTenant := user.Tenant()
	f := ClientFilter{kind: filterOwned, userID: user.ID, tenantID: tenant}

	switch {
	case user.Role.managesTenant() && hasTenant:
		f.kind = filterTenantOrOwned
	case user.Role == RoleNutritionist && hasTenant:
		f.kind = filterOwnedInTenant
	}
	return f
}

// Matches evaluates the filter against a single client.
func (f ClientFilter) Matches(c ClientRecord) bool {
	tenant, hasTenant := tenantOf(c.TenantID)
	owns := c.UserID == f.userID

	switch f.kind {
	case filterTenantOrOwned:
		return (hasTenant && tenant == f.tenantID) || (!hasTenant && owns)
	case filterOwnedInTenant:
		return owns && (!hasTenant || tenant == f.tenantID)
	default:
		return owns
	}
}

// Clause renders the filter as a SQL predicate over the given columns,
// numbering placeholders from startIdx.
func (f ClientFilter) Clause(userCol, tenantCol string, startIdx int) (string, []interface{}) {
	// Empty tenant ids are stored as NULL or '', both of which mean "no tenant".
	noTenant := fmt.Sprintf("(%s IS NULL OR %s = '')", tenantCol, tenantCol)

	switch f.kind {
	case filterTenantOrOwned:
		return fmt.Sprintf("(%s = $%d OR (%s AND %s = $%d))",
				tenantCol, startIdx, noTenant, userCol, startIdx+1),
			[]interface{}{f.tenantID, f.userID}
	case filterOwnedInTenant:
		return fmt.Sprintf("(%s = $%d AND (%s OR %s = $%d))",
				userCol, startIdx, noTenant, tenantCol, startIdx+1),
			[]interface{}{f.userID, f.tenantID}
	default:
		return fmt.Sprintf("%s = $%d", userCol, startIdx), []interface{}{f.userID}
	}
}

// Apply adds the filter to q. prefix qualifies the columns, e.g. "c." when
// the client table is aliased.
func (f ClientFilter) Apply(q *db.SelectQuery, prefix string) {
	clause, args := f.Clause(prefix+"user_id", prefix+"tenant_id", q.Idx())
	q.Add(clause, args...)
}
