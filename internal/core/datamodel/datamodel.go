// Package datamodel groups the gorm row models of every table.
package datamodel

import (
	"github.com/frahmantamala/rogue-contacts/internal/core/datamodel/business"
	"github.com/frahmantamala/rogue-contacts/internal/core/datamodel/organization"
	"github.com/frahmantamala/rogue-contacts/internal/core/datamodel/user"
)

// AllModels lists every row model in dependency order. Production schema is
// owned by the SQL migrations; this is for AutoMigrate in tests and tooling.
func AllModels() []interface{} {
	return []interface{}{
		&user.Party{},
		&user.User{},
		&organization.Organization{},
		&organization.Role{},
		&organization.RolePermission{},
		&organization.RoleAssignment{},
		&business.Business{},
		&business.Role{},
		&business.RolePermission{},
		&business.RoleAssignment{},
	}
}
