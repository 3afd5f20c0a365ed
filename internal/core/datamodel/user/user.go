package user

import "time"

const (
	PartyKindUser         = "user"
	PartyKindOrganization = "organization"
)

// Party is the shared name namespace for users and organizations.
// NameKey is the lower-cased name and carries the uniqueness constraint.
type Party struct {
	ID        int64     `gorm:"primaryKey"`
	Kind      string    `gorm:"column:kind;not null"`
	Name      string    `gorm:"column:name;not null"`
	NameKey   string    `gorm:"column:name_key;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Party) TableName() string {
	return "parties"
}

// User shares its primary key with the owning Party row.
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement:false"`
	DisplayName  string    `gorm:"column:display_name;not null"`
	Email        string    `gorm:"column:email;not null"`
	EmailKey     string    `gorm:"column:email_key;uniqueIndex;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}
