package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	businessDatamodel "github.com/frahmantamala/rogue-contacts/internal/core/datamodel/business"
	userDatamodel "github.com/frahmantamala/rogue-contacts/internal/core/datamodel/user"
	"github.com/frahmantamala/rogue-contacts/internal/permission"
	"github.com/frahmantamala/rogue-contacts/internal/role"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRoleRepository(db *gorm.DB) role.Repository {
	return &RoleRepository{db: db, now: time.Now}
}

func (r *RoleRepository) Create(ctx context.Context, out *role.Role) error {
	row := businessDatamodel.Role{BusinessID: out.BusinessID, Name: out.Name}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Permissions").Create(&row).Error; err != nil {
			return err
		}
		return replacePermissions(tx, row.ID, out.Permissions)
	})
	if err != nil {
		return translate(err)
	}

	out.ID = row.ID
	out.CreatedAt = row.CreatedAt
	return nil
}

func (r *RoleRepository) ListByBusiness(ctx context.Context, businessID int64) ([]*role.Role, error) {
	var rows []*businessDatamodel.Role
	err := r.db.WithContext(ctx).
		Preload("Permissions").
		Where("business_id = ?", businessID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	roles := make([]*role.Role, 0, len(rows))
	for _, row := range rows {
		roles = append(roles, role.FromDataModel(row))
	}
	return roles, nil
}

// Update runs in one transaction whose first statement touches the role row,
// so concurrent mutations of the same role serialize on its row lock.
func (r *RoleRepository) Update(ctx context.Context, businessID, roleID int64, name *string, perms permission.Set) (*role.Role, error) {
	var row businessDatamodel.Role

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{"updated_at": r.now().UTC()}
		if name != nil {
			updates["name"] = *name
		}
		if err := lockRole(tx, businessID, roleID, updates); err != nil {
			return err
		}

		if perms != nil {
			if err := replacePermissions(tx, roleID, perms); err != nil {
				return err
			}
		}

		return tx.Preload("Permissions").Where("id = ?", roleID).Take(&row).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return role.FromDataModel(&row), nil
}

func (r *RoleRepository) Delete(ctx context.Context, businessID, roleID int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRole(tx, businessID, roleID, map[string]interface{}{"updated_at": r.now().UTC()}); err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", roleID).Delete(&businessDatamodel.RoleAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role_id = ?", roleID).Delete(&businessDatamodel.RolePermission{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", roleID).Delete(&businessDatamodel.Role{}).Error
	})
	return translate(err)
}

func (r *RoleRepository) NameExists(ctx context.Context, businessID int64, name string, excludeRoleID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&businessDatamodel.Role{}).
		Where("business_id = ? AND name = ? AND id <> ?", businessID, name, excludeRoleID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count roles: %w", err)
	}
	return count > 0, nil
}

func (r *RoleRepository) FindUserID(ctx context.Context, username string) (int64, error) {
	var party userDatamodel.Party
	err := r.db.WithContext(ctx).
		Where("name_key = ? AND kind = ?", strings.ToLower(username), userDatamodel.PartyKindUser).
		Take(&party).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, role.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("find user: %w", err)
	}
	return party.ID, nil
}

func (r *RoleRepository) Assign(ctx context.Context, businessID, roleID, userID int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRole(tx, businessID, roleID, map[string]interface{}{"updated_at": r.now().UTC()}); err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&businessDatamodel.RoleAssignment{UserID: userID, RoleID: roleID}).Error
	})
	return translate(err)
}

func (r *RoleRepository) Unassign(ctx context.Context, businessID, roleID, userID int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRole(tx, businessID, roleID, map[string]interface{}{"updated_at": r.now().UTC()}); err != nil {
			return err
		}
		return tx.Where("user_id = ? AND role_id = ?", userID, roleID).
			Delete(&businessDatamodel.RoleAssignment{}).Error
	})
	return translate(err)
}

// lockRole updates the role row scoped to its business. No matching row
// means the role does not exist in that business.
func lockRole(tx *gorm.DB, businessID, roleID int64, updates map[string]interface{}) error {
	result := tx.Model(&businessDatamodel.Role{}).
		Where("id = ? AND business_id = ?", roleID, businessID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return role.ErrNotFound
	}
	return nil
}

func replacePermissions(tx *gorm.DB, roleID int64, perms permission.Set) error {
	if err := tx.Where("role_id = ?", roleID).Delete(&businessDatamodel.RolePermission{}).Error; err != nil {
		return err
	}
	rows := role.PermissionRows(roleID, perms)
	if len(rows) == 0 {
		return nil
	}
	return tx.Create(&rows).Error
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, role.ErrNotFound), errors.Is(err, role.ErrUserNotFound):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return role.ErrDuplicateName
	default:
		return fmt.Errorf("role store: %w", err)
	}
}
