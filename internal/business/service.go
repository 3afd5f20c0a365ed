package business

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/rogue-contacts/internal"
	"github.com/frahmantamala/rogue-contacts/internal/authz"
	"github.com/frahmantamala/rogue-contacts/internal/core/common/validation"
	"github.com/frahmantamala/rogue-contacts/internal/core/events"
	"github.com/frahmantamala/rogue-contacts/internal/role"
)

const fieldName = "name"

type Repository interface {
	Create(ctx context.Context, ownerID int64, name string) (*Business, error)
	NameExistsForOwner(ctx context.Context, ownerID int64, name string) (bool, error)
	GetByID(ctx context.Context, id int64) (*Business, error)
	ListByOwnerUser(ctx context.Context, userID int64) ([]*Business, error)
	// Delete removes the business with its roles, role permissions and
	// assignments in one transaction.
	Delete(ctx context.Context, id int64) error
}

type Locator interface {
	Locate(ctx context.Context, ownerName, businessName string) (authz.Target, error)
	LocateByID(ctx context.Context, businessID int64) (authz.Target, error)
}

type Authorizer interface {
	Check(ctx context.Context, callerID int64, target authz.Target, action authz.Action) error
}

type RoleLister interface {
	ListByBusiness(ctx context.Context, businessID int64) ([]*role.Role, error)
}

type ServiceAPI interface {
	CreateBusiness(ctx context.Context, callerID int64, dto CreateBusinessDTO) (*BusinessDto, error)
	GetBusiness(ctx context.Context, callerID int64, query GetBusinessQuery) (*BusinessDto, error)
	DeleteBusiness(ctx context.Context, callerID int64, owner, business string) error
	ListOwnedBusinesses(ctx context.Context, callerID int64) ([]BusinessDto, error)
}

type Service struct {
	repo       Repository
	roles      RoleLister
	locator    Locator
	authorizer Authorizer
	events     events.Publisher
	logger     *slog.Logger
}

func NewService(repo Repository, roles RoleLister, locator Locator, authorizer Authorizer, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		roles:      roles,
		locator:    locator,
		authorizer: authorizer,
		events:     publisher,
		logger:     logger,
	}
}

// CreateBusiness registers a business owned by the caller.
func (s *Service) CreateBusiness(ctx context.Context, callerID int64, dto CreateBusinessDTO) (*BusinessDto, error) {
	v := validation.NewValidator()
	validation.BusinessName(v, fieldName, dto.Name)
	if err := v.Validate(); err != nil {
		return nil, err
	}

	taken, err := s.repo.NameExistsForOwner(ctx, callerID, dto.Name)
	if err != nil {
		return nil, internal.ErrInternal(err)
	}
	if taken {
		return nil, nameTaken()
	}

	b, err := s.repo.Create(ctx, callerID, dto.Name)
	if errors.Is(err, ErrDuplicateName) {
		return nil, nameTaken()
	}
	if err != nil {
		return nil, internal.ErrInternal(err)
	}

	s.logger.Info("business created", "business_id", b.ID, "owner_id", callerID)
	s.publish(ctx, events.NewBusinessEvent(events.EventTypeBusinessCreated, callerID, b.ID, b.Name))

	out := b.ToDto(nil)
	out.Roles = []role.RoleDto{}
	return &out, nil
}

func (s *Service) GetBusiness(ctx context.Context, callerID int64, query GetBusinessQuery) (*BusinessDto, error) {
	var (
		target authz.Target
		err    error
	)
	switch {
	case query.BusinessID > 0:
		target, err = s.locator.LocateByID(ctx, query.BusinessID)
	case query.OwnerName != "" && query.BusinessName != "":
		v := validation.NewValidator()
		validation.BusinessPath(v, query.OwnerName, query.BusinessName)
		if err := v.Validate(); err != nil {
			return nil, err
		}
		target, err = s.locator.Locate(ctx, query.OwnerName, query.BusinessName)
	default:
		return nil, internal.NewValidationError("Either a business id or an owner and business name is required.", internal.ErrCodeMissingQuery)
	}
	if err != nil {
		return nil, err
	}

	if err := s.authorizer.Check(ctx, callerID, target, authz.ActionView); err != nil {
		return nil, err
	}

	b, err := s.repo.GetByID(ctx, target.BusinessID)
	if errors.Is(err, ErrNotFound) {
		return nil, internal.ErrBusinessNotFound
	}
	if err != nil {
		return nil, internal.ErrInternal(err)
	}

	roles, err := s.roles.ListByBusiness(ctx, b.ID)
	if err != nil {
		return nil, internal.ErrInternal(err)
	}

	out := b.ToDto(roles)
	return &out, nil
}

func (s *Service) DeleteBusiness(ctx context.Context, callerID int64, owner, business string) error {
	v := validation.NewValidator()
	validation.BusinessPath(v, owner, business)
	if err := v.Validate(); err != nil {
		return err
	}

	target, err := s.locator.Locate(ctx, owner, business)
	if err != nil {
		return err
	}
	if err := s.authorizer.Check(ctx, callerID, target, authz.ActionDeleteBusiness); err != nil {
		return err
	}

	err = s.repo.Delete(ctx, target.BusinessID)
	if errors.Is(err, ErrNotFound) {
		return internal.ErrBusinessNotFound
	}
	if err != nil {
		return internal.ErrInternal(err)
	}

	s.logger.Info("business deleted", "business_id", target.BusinessID, "actor_id", callerID)
	s.publish(ctx, events.NewBusinessEvent(events.EventTypeBusinessDeleted, callerID, target.BusinessID, target.BusinessName))
	return nil
}

// ListOwnedBusinesses returns the businesses the caller holds owner rights
// on, directly or through an organization they own.
func (s *Service) ListOwnedBusinesses(ctx context.Context, callerID int64) ([]BusinessDto, error) {
	list, err := s.repo.ListByOwnerUser(ctx, callerID)
	if err != nil {
		return nil, internal.ErrInternal(err)
	}

	out := make([]BusinessDto, 0, len(list))
	for _, b := range list {
		out = append(out, b.ToDto(nil))
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "event_type", event.EventType(), "event_id", event.EventID(), "error", err)
	}
}

func nameTaken() *internal.AppError {
	return internal.NewConflictFieldErrors([]internal.ValidationError{{
		Field:   fieldName,
		Message: "Business with this name already exists.",
		Code:    string(internal.ErrCodeBusinessNameTaken),
	}})
}
