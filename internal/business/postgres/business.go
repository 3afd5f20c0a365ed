package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/frahmantamala/rogue-contacts/internal/business"
	businessDatamodel "github.com/frahmantamala/rogue-contacts/internal/core/datamodel/business"
	"gorm.io/gorm"
)

const recordColumns = "b.id, b.owner_id, b.name, b.created_at, p.kind AS owner_kind, p.name AS owner_name, COALESCE(o.owner_id, p.id) AS owner_user_id"

const roleOfBusiness = "role_id IN (SELECT id FROM business_roles WHERE business_id = ?)"

type BusinessRepository struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) business.Repository {
	return &BusinessRepository{db: db}
}

func (r *BusinessRepository) Create(ctx context.Context, ownerID int64, name string) (*business.Business, error) {
	row := businessDatamodel.Business{OwnerID: ownerID, Name: name}
	err := r.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, business.ErrDuplicateName
	}
	if err != nil {
		return nil, fmt.Errorf("create business: %w", err)
	}
	return r.GetByID(ctx, row.ID)
}

func (r *BusinessRepository) NameExistsForOwner(ctx context.Context, ownerID int64, name string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&businessDatamodel.Business{}).
		Where("owner_id = ? AND name = ?", ownerID, name).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count businesses: %w", err)
	}
	return count > 0, nil
}

func (r *BusinessRepository) GetByID(ctx context.Context, id int64) (*business.Business, error) {
	var rec businessDatamodel.BusinessRecord
	result := r.records(ctx).Where("b.id = ?", id).Limit(1).Scan(&rec)
	if result.Error != nil {
		return nil, fmt.Errorf("get business: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, business.ErrNotFound
	}
	return business.FromRecord(&rec), nil
}

func (r *BusinessRepository) ListByOwnerUser(ctx context.Context, userID int64) ([]*business.Business, error) {
	var recs []businessDatamodel.BusinessRecord
	err := r.records(ctx).
		Where("COALESCE(o.owner_id, p.id) = ?", userID).
		Order("p.name_key ASC, b.name ASC").
		Scan(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}

	out := make([]*business.Business, 0, len(recs))
	for i := range recs {
		out = append(out, business.FromRecord(&recs[i]))
	}
	return out, nil
}

func (r *BusinessRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(roleOfBusiness, id).Delete(&businessDatamodel.RoleAssignment{}).Error; err != nil {
			return fmt.Errorf("delete role assignments: %w", err)
		}
		if err := tx.Where(roleOfBusiness, id).Delete(&businessDatamodel.RolePermission{}).Error; err != nil {
			return fmt.Errorf("delete role permissions: %w", err)
		}
		if err := tx.Where("business_id = ?", id).Delete(&businessDatamodel.Role{}).Error; err != nil {
			return fmt.Errorf("delete roles: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&businessDatamodel.Business{})
		if result.Error != nil {
			return fmt.Errorf("delete business: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return business.ErrNotFound
		}
		return nil
	})
}

func (r *BusinessRepository) records(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("businesses b").
		Select(recordColumns).
		Joins("JOIN parties p ON p.id = b.owner_id").
		Joins("LEFT JOIN organizations o ON o.id = p.id")
}
