package organization

import "time"

// Organization shares its primary key with the owning Party row.
type Organization struct {
	ID        int64     `gorm:"primaryKey;autoIncrement:false"`
	OwnerID   int64     `gorm:"column:owner_id;not null;index"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Organization) TableName() string {
	return "organizations"
}

type Role struct {
	ID             int64     `gorm:"primaryKey"`
	OrganizationID int64     `gorm:"column:organization_id;not null;uniqueIndex:idx_organization_role_name"`
	Name           string    `gorm:"column:name;not null;uniqueIndex:idx_organization_role_name"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Role) TableName() string {
	return "organization_roles"
}

type RolePermission struct {
	RoleID       int64 `gorm:"column:role_id;primaryKey;autoIncrement:false"`
	PermissionID int   `gorm:"column:permission_id;primaryKey;autoIncrement:false"`
}

func (RolePermission) TableName() string {
	return "organization_role_permissions"
}

type RoleAssignment struct {
	UserID int64 `gorm:"column:user_id;primaryKey;autoIncrement:false"`
	RoleID int64 `gorm:"column:role_id;primaryKey;autoIncrement:false"`
}

func (RoleAssignment) TableName() string {
	return "user_organization_roles"
}
