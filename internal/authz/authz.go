// Package authz decides whether a caller may act on a business. Permissions
// are recomputed from role membership on every check and never cached.
package authz

import (
	"context"

	"github.com/frahmantamala/rogue-contacts/internal/permission"
)

// OwnerKind tags which kind of party owns a business.
type OwnerKind string

const (
	OwnerUser         OwnerKind = "user"
	OwnerOrganization OwnerKind = "organization"
)

type Action string

const (
	ActionView           Action = "view"
	ActionManageRoles    Action = "manage_roles"
	ActionDeleteBusiness Action = "delete_business"
)

// Target is the business a request acts on, with the owner fields the gate
// needs.
type Target struct {
	BusinessID   int64
	BusinessName string
	OwnerKind    OwnerKind
	OwnerID      int64
	OwnerName    string
	OwnerUserID  int64
}

// Resolver computes the caller's effective permissions on a business from
// role membership alone. No membership yields an empty set.
type Resolver interface {
	GetEffectivePermissions(ctx context.Context, callerID int64, ownerName, businessName string) (permission.Set, error)
}
