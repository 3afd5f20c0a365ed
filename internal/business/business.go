package business

import (
	"errors"
	"time"

	businessDatamodel "github.com/frahmantamala/rogue-contacts/internal/core/datamodel/business"
	"github.com/frahmantamala/rogue-contacts/internal/role"
)

var (
	ErrNotFound      = errors.New("business not found")
	ErrDuplicateName = errors.New("business name already used by owner")
)

// Business is a named resource owned by a user or an organization.
type Business struct {
	ID          int64
	OwnerID     int64
	OwnerKind   string
	OwnerName   string
	OwnerUserID int64
	Name        string
	CreatedAt   time.Time
}

func (b *Business) ToDto(roles []*role.Role) BusinessDto {
	dto := BusinessDto{
		ID:        b.ID,
		Name:      b.Name,
		Owner:     b.OwnerName,
		OwnerKind: b.OwnerKind,
		CreatedAt: b.CreatedAt,
	}
	if roles != nil {
		dto.Roles = role.ToDtos(roles)
	}
	return dto
}

func FromRecord(rec *businessDatamodel.BusinessRecord) *Business {
	return &Business{
		ID:          rec.ID,
		OwnerID:     rec.OwnerID,
		OwnerKind:   rec.OwnerKind,
		OwnerName:   rec.OwnerName,
		OwnerUserID: rec.OwnerUserID,
		Name:        rec.Name,
		CreatedAt:   rec.CreatedAt,
	}
}
