package business

import (
	"time"

	"github.com/frahmantamala/rogue-contacts/internal/role"
)

type CreateBusinessDTO struct {
	Name string `json:"name"`
}

// GetBusinessQuery selects a business either by id or by owner and name.
type GetBusinessQuery struct {
	OwnerName    string
	BusinessName string
	BusinessID   int64
}

type BusinessDto struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Owner     string         `json:"owner"`
	OwnerKind string         `json:"owner_kind"`
	CreatedAt time.Time      `json:"created_at"`
	Roles     []role.RoleDto `json:"roles,omitempty"`
}
