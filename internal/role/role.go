package role

import (
	"errors"
	"time"

	businessDatamodel "github.com/frahmantamala/rogue-contacts/internal/core/datamodel/business"
	"github.com/frahmantamala/rogue-contacts/internal/permission"
)

var (
	ErrNotFound      = errors.New("role not found")
	ErrDuplicateName = errors.New("role name already used in business")
	ErrUserNotFound  = errors.New("user not found")
)

// Role is a named permission set scoped to one business. Permissions always
// come from the business catalog.
type Role struct {
	ID          int64
	BusinessID  int64
	Name        string
	Permissions permission.Set
	CreatedAt   time.Time
}

func (r *Role) ToDto() RoleDto {
	return RoleDto{
		ID:          r.ID,
		Name:        r.Name,
		Permissions: r.Permissions.Names(permission.KindBusiness),
		CreatedAt:   r.CreatedAt,
	}
}

func ToDtos(roles []*Role) []RoleDto {
	out := make([]RoleDto, 0, len(roles))
	for _, r := range roles {
		out = append(out, r.ToDto())
	}
	return out
}

func FromDataModel(row *businessDatamodel.Role) *Role {
	perms := permission.NewSet()
	for _, p := range row.Permissions {
		perms.Add(permission.ID(p.PermissionID))
	}
	return &Role{
		ID:          row.ID,
		BusinessID:  row.BusinessID,
		Name:        row.Name,
		Permissions: perms,
		CreatedAt:   row.CreatedAt,
	}
}

// PermissionRows expands a set into join rows for roleID, ordered by id.
func PermissionRows(roleID int64, perms permission.Set) []businessDatamodel.RolePermission {
	rows := make([]businessDatamodel.RolePermission, 0, perms.Len())
	for _, id := range perms.IDs() {
		rows = append(rows, businessDatamodel.RolePermission{RoleID: roleID, PermissionID: int(id)})
	}
	return rows
}
