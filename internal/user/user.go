package user

import (
	"errors"
	"strings"
	"time"

	userDatamodel "github.com/frahmantamala/rogue-contacts/internal/core/datamodel/user"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user already exists")
)

type User struct {
	ID           int64
	Username     string
	DisplayName  string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

func (u *User) ToDto() UserDto {
	return UserDto{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		CreatedAt:   u.CreatedAt,
	}
}

// NameKey is the case-folded form used for uniqueness and lookups.
func NameKey(s string) string {
	return strings.ToLower(s)
}

func ToDataModel(u *User) (*userDatamodel.Party, *userDatamodel.User) {
	party := &userDatamodel.Party{
		ID:        u.ID,
		Kind:      userDatamodel.PartyKindUser,
		Name:      u.Username,
		NameKey:   NameKey(u.Username),
		CreatedAt: u.CreatedAt,
	}
	row := &userDatamodel.User{
		ID:           u.ID,
		DisplayName:  u.DisplayName,
		Email:        u.Email,
		EmailKey:     NameKey(u.Email),
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
	return party, row
}

func FromDataModel(party *userDatamodel.Party, row *userDatamodel.User) *User {
	return &User{
		ID:           row.ID,
		Username:     party.Name,
		DisplayName:  row.DisplayName,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt,
	}
}
