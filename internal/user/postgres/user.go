package postgres

import (
	"context"
	"errors"
	"fmt"

	userDatamodel "github.com/frahmantamala/rogue-contacts/internal/core/datamodel/user"
	"github.com/frahmantamala/rogue-contacts/internal/user"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

const userColumns = "u.id, p.name AS username, u.display_name, u.email, u.password_hash, u.created_at"

// UsernameExists checks the shared party namespace so a username cannot
// collide with an organization name either.
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&userDatamodel.Party{}).
		Where("name_key = ?", user.NameKey(username)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count parties: %w", err)
	}
	return count > 0, nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("email_key = ?", user.NameKey(email)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return count > 0, nil
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	party, row := user.ToDataModel(u)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(party).Error; err != nil {
			return err
		}
		row.ID = party.ID
		return tx.Create(row).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return user.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	u.ID = party.ID
	u.CreatedAt = row.CreatedAt
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.findOne(ctx, "u.id = ?", id)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.findOne(ctx, "p.name_key = ?", user.NameKey(username))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.findOne(ctx, "u.email_key = ?", user.NameKey(email))
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id int64, oldHash, newHash string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&userDatamodel.User{}).
		Where("id = ? AND password_hash = ?", id, oldHash).
		Update("password_hash", newHash)
	if result.Error != nil {
		return false, fmt.Errorf("update password hash: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *UserRepository) findOne(ctx context.Context, where string, arg interface{}) (*user.User, error) {
	var out user.User
	result := r.db.WithContext(ctx).
		Table("users u").
		Select(userColumns).
		Joins("JOIN parties p ON p.id = u.id").
		Where(where, arg).
		Limit(1).
		Scan(&out)
	if result.Error != nil {
		return nil, fmt.Errorf("find user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, user.ErrNotFound
	}
	return &out, nil
}
