package authz

import (
	"context"
	"fmt"
	"strings"

	"github.com/frahmantamala/rogue-contacts/internal/permission"
	"github.com/jmoiron/sqlx"
)

const businessPermissionsQuery = `
SELECT DISTINCT rp.permission_id
FROM user_business_roles ur
JOIN business_roles r ON r.id = ur.role_id
JOIN business_role_permissions rp ON rp.role_id = r.id
JOIN businesses b ON b.id = r.business_id
JOIN parties p ON p.id = b.owner_id
WHERE ur.user_id = ? AND p.name_key = ? AND b.name = ?
ORDER BY rp.permission_id`

const organizationPermissionsQuery = `
SELECT DISTINCT rp.permission_id
FROM user_organization_roles ur
JOIN organization_roles r ON r.id = ur.role_id
JOIN organization_role_permissions rp ON rp.role_id = r.id
JOIN parties p ON p.id = r.organization_id
JOIN businesses b ON b.owner_id = p.id
WHERE ur.user_id = ? AND p.name_key = ? AND b.name = ?
ORDER BY rp.permission_id`

// BusinessResolver reads permissions granted by business-scoped roles.
type BusinessResolver struct {
	db *sqlx.DB
}

func NewBusinessResolver(db *sqlx.DB) *BusinessResolver {
	return &BusinessResolver{db: db}
}

func (r *BusinessResolver) GetEffectivePermissions(ctx context.Context, callerID int64, ownerName, businessName string) (permission.Set, error) {
	return selectPermissions(ctx, r.db, businessPermissionsQuery, callerID, ownerName, businessName)
}

// OrganizationResolver reads permissions granted by organization roles on
// the organization that owns the business.
type OrganizationResolver struct {
	db *sqlx.DB
}

func NewOrganizationResolver(db *sqlx.DB) *OrganizationResolver {
	return &OrganizationResolver{db: db}
}

func (r *OrganizationResolver) GetEffectivePermissions(ctx context.Context, callerID int64, ownerName, businessName string) (permission.Set, error) {
	return selectPermissions(ctx, r.db, organizationPermissionsQuery, callerID, ownerName, businessName)
}

func selectPermissions(ctx context.Context, db *sqlx.DB, query string, callerID int64, ownerName, businessName string) (permission.Set, error) {
	var ids []int
	if err := db.SelectContext(ctx, &ids, db.Rebind(query), callerID, strings.ToLower(ownerName), businessName); err != nil {
		return nil, fmt.Errorf("select effective permissions: %w", err)
	}
	set := permission.NewSet()
	for _, id := range ids {
		set.Add(permission.ID(id))
	}
	return set, nil
}
