// Package datamodeltest opens an in-memory sqlite schema and seeds rows for
// repository and handler tests.
package datamodeltest

import (
	"fmt"
	"strings"

	"github.com/frahmantamala/rogue-contacts/internal/core/datamodel"
	businessDatamodel "github.com/frahmantamala/rogue-contacts/internal/core/datamodel/business"
	orgDatamodel "github.com/frahmantamala/rogue-contacts/internal/core/datamodel/organization"
	userDatamodel "github.com/frahmantamala/rogue-contacts/internal/core/datamodel/user"
	"github.com/frahmantamala/rogue-contacts/internal/permission"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open returns a gorm handle and an sqlx handle over the same single
// in-memory connection.
func Open() (*gorm.DB, *sqlx.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	Expect(err).NotTo(HaveOccurred())

	sqlDB, err := db.DB()
	Expect(err).NotTo(HaveOccurred())
	sqlDB.SetMaxOpenConns(1)

	Expect(db.AutoMigrate(datamodel.AllModels()...)).To(Succeed())
	return db, sqlx.NewDb(sqlDB, "sqlite3")
}

type Fixtures struct {
	DB *gorm.DB
}

func (f Fixtures) party(kind, name string) int64 {
	p := userDatamodel.Party{Kind: kind, Name: name, NameKey: strings.ToLower(name)}
	Expect(f.DB.Create(&p).Error).To(Succeed())
	return p.ID
}

// User inserts a user whose email is derived from the username.
func (f Fixtures) User(username string) int64 {
	return f.UserWithHash(username, "$2a$12$placeholderplaceholderplaceholderplaceholderplacehold")
}

func (f Fixtures) UserWithHash(username, hash string) int64 {
	id := f.party(userDatamodel.PartyKindUser, username)
	email := fmt.Sprintf("%s@example.com", username)
	Expect(f.DB.Create(&userDatamodel.User{
		ID:           id,
		DisplayName:  username,
		Email:        email,
		EmailKey:     strings.ToLower(email),
		PasswordHash: hash,
	}).Error).To(Succeed())
	return id
}

func (f Fixtures) Organization(name string, ownerID int64) int64 {
	id := f.party(userDatamodel.PartyKindOrganization, name)
	Expect(f.DB.Create(&orgDatamodel.Organization{ID: id, OwnerID: ownerID}).Error).To(Succeed())
	return id
}

func (f Fixtures) Business(ownerID int64, name string) int64 {
	b := businessDatamodel.Business{OwnerID: ownerID, Name: name}
	Expect(f.DB.Create(&b).Error).To(Succeed())
	return b.ID
}

func (f Fixtures) BusinessRole(businessID int64, name string, perms ...permission.ID) int64 {
	r := businessDatamodel.Role{BusinessID: businessID, Name: name}
	Expect(f.DB.Omit("Permissions").Create(&r).Error).To(Succeed())
	for _, p := range perms {
		Expect(f.DB.Create(&businessDatamodel.RolePermission{RoleID: r.ID, PermissionID: int(p)}).Error).To(Succeed())
	}
	return r.ID
}

func (f Fixtures) AssignBusinessRole(userID, roleID int64) {
	Expect(f.DB.Create(&businessDatamodel.RoleAssignment{UserID: userID, RoleID: roleID}).Error).To(Succeed())
}

func (f Fixtures) OrganizationRole(organizationID int64, name string, perms ...permission.ID) int64 {
	r := orgDatamodel.Role{OrganizationID: organizationID, Name: name}
	Expect(f.DB.Create(&r).Error).To(Succeed())
	for _, p := range perms {
		Expect(f.DB.Create(&orgDatamodel.RolePermission{RoleID: r.ID, PermissionID: int(p)}).Error).To(Succeed())
	}
	return r.ID
}

func (f Fixtures) AssignOrganizationRole(userID, roleID int64) {
	Expect(f.DB.Create(&orgDatamodel.RoleAssignment{UserID: userID, RoleID: roleID}).Error).To(Succeed())
}
