package role

import "time"

type CreateRoleDTO struct {
	Name        string   `json:"name"`
	Permissions []string `json:"permissions"`
}

// UpdateRoleDTO is a partial update. A nil Permissions leaves the set as is;
// a non-nil one replaces it.
type UpdateRoleDTO struct {
	Name        *string   `json:"name,omitempty"`
	Permissions *[]string `json:"permissions,omitempty"`
}

type RoleDto struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"created_at"`
}
