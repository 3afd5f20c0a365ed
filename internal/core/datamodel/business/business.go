package business

import "time"

type Business struct {
	ID        int64     `gorm:"primaryKey"`
	OwnerID   int64     `gorm:"column:owner_id;not null;uniqueIndex:idx_business_owner_name"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:idx_business_owner_name"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Business) TableName() string {
	return "businesses"
}

// BusinessRecord is a business joined with the party that owns it.
// OwnerUserID is the user that holds owner rights: the party itself for
// user-owned businesses, the organization owner otherwise.
type BusinessRecord struct {
	ID          int64     `gorm:"column:id"`
	OwnerID     int64     `gorm:"column:owner_id"`
	Name        string    `gorm:"column:name"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	OwnerKind   string    `gorm:"column:owner_kind"`
	OwnerName   string    `gorm:"column:owner_name"`
	OwnerUserID int64     `gorm:"column:owner_user_id"`
}

type Role struct {
	ID          int64            `gorm:"primaryKey"`
	BusinessID  int64            `gorm:"column:business_id;not null;uniqueIndex:idx_business_role_name"`
	Name        string           `gorm:"column:name;not null;uniqueIndex:idx_business_role_name"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	Permissions []RolePermission `gorm:"foreignKey:RoleID"`
}

func (Role) TableName() string {
	return "business_roles"
}

type RolePermission struct {
	RoleID       int64 `gorm:"column:role_id;primaryKey;autoIncrement:false"`
	PermissionID int   `gorm:"column:permission_id;primaryKey;autoIncrement:false"`
}

func (RolePermission) TableName() string {
	return "business_role_permissions"
}

type RoleAssignment struct {
	UserID    int64     `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	RoleID    int64     `gorm:"column:role_id;primaryKey;autoIncrement:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (RoleAssignment) TableName() string {
	return "user_business_roles"
}
