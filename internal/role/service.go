package role

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/rogue-contacts/internal"
	"github.com/frahmantamala/rogue-contacts/internal/authz"
	"github.com/frahmantamala/rogue-contacts/internal/core/common/validation"
	"github.com/frahmantamala/rogue-contacts/internal/core/events"
	"github.com/frahmantamala/rogue-contacts/internal/permission"
)

const (
	fieldName        = "name"
	fieldPermissions = "permissions"
	fieldUsername    = "username"
)

type Repository interface {
	Create(ctx context.Context, r *Role) error
	ListByBusiness(ctx context.Context, businessID int64) ([]*Role, error)
	// Update locks the role row first; a nil perms leaves permissions untouched.
	Update(ctx context.Context, businessID, roleID int64, name *string, perms permission.Set) (*Role, error)
	Delete(ctx context.Context, businessID, roleID int64) error
	NameExists(ctx context.Context, businessID int64, name string, excludeRoleID int64) (bool, error)
	FindUserID(ctx context.Context, username string) (int64, error)
	Assign(ctx context.Context, businessID, roleID, userID int64) error
	Unassign(ctx context.Context, businessID, roleID, userID int64) error
}

// BusinessLocator finds the business a role request is scoped to.
type BusinessLocator interface {
	Locate(ctx context.Context, ownerName, businessName string) (authz.Target, error)
}

type Authorizer interface {
	Check(ctx context.Context, callerID int64, target authz.Target, action authz.Action) error
}

type ServiceAPI interface {
	CreateRole(ctx context.Context, callerID int64, owner, business string, dto CreateRoleDTO) (*RoleDto, error)
	GetAllRoles(ctx context.Context, callerID int64, owner, business string) ([]RoleDto, error)
	UpdateRole(ctx context.Context, callerID int64, owner, business string, roleID int64, dto UpdateRoleDTO) (*RoleDto, error)
	DeleteRole(ctx context.Context, callerID int64, owner, business string, roleID int64) error
	AssignRole(ctx context.Context, callerID int64, owner, business string, roleID int64, username string) error
	UnassignRole(ctx context.Context, callerID int64, owner, business string, roleID int64, username string) error
}

type Service struct {
	repo       Repository
	locator    BusinessLocator
	authorizer Authorizer
	events     events.Publisher
	logger     *slog.Logger
}

func NewService(repo Repository, locator BusinessLocator, authorizer Authorizer, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		locator:    locator,
		authorizer: authorizer,
		events:     publisher,
		logger:     logger,
	}
}

func (s *Service) CreateRole(ctx context.Context, callerID int64, owner, business string, dto CreateRoleDTO) (*RoleDto, error) {
	v := validation.NewValidator()
	validation.BusinessPath(v, owner, business)
	validation.RoleName(v, fieldName, &dto.Name)
	perms, err := validateWithPermissions(v, dto.Permissions)
	if err != nil {
		return nil, err
	}

	target, err := s.authorize(ctx, callerID, owner, business, authz.ActionManageRoles)
	if err != nil {
		return nil, err
	}

	if err := s.ensureNameFree(ctx, target.BusinessID, dto.Name, 0); err != nil {
		return nil, err
	}

	r := &Role{BusinessID: target.BusinessID, Name: dto.Name, Permissions: perms}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, s.mapRepoError(err)
	}

	s.logger.Info("role created", "business_id", target.BusinessID, "role_id", r.ID)
	s.publish(ctx, events.NewRoleEvent(events.EventTypeRoleCreated, callerID, target.BusinessID, r.ID))

	out := r.ToDto()
	return &out, nil
}

func (s *Service) GetAllRoles(ctx context.Context, callerID int64, owner, business string) ([]RoleDto, error) {
	v := validation.NewValidator()
	validation.BusinessPath(v, owner, business)
	if err := v.Validate(); err != nil {
		return nil, err
	}

	target, err := s.authorize(ctx, callerID, owner, business, authz.ActionView)
	if err != nil {
		return nil, err
	}

	roles, err := s.repo.ListByBusiness(ctx, target.BusinessID)
	if err != nil {
		return nil, internal.ErrInternal(err)
	}
	return ToDtos(roles), nil
}

func (s *Service) UpdateRole(ctx context.Context, callerID int64, owner, business string, roleID int64, dto UpdateRoleDTO) (*RoleDto, error) {
	v := validation.NewValidator()
	validation.BusinessPath(v, owner, business)
	if dto.Name != nil {
		validation.RoleName(v, fieldName, dto.Name)
	}
	var names []string
	if dto.Permissions != nil {
		names = *dto.Permissions
	}
	perms, err := validateWithPermissions(v, names)
	if err != nil {
		return nil, err
	}
	if dto.Permissions == nil {
		perms = nil
	}

	target, err := s.authorize(ctx, callerID, owner, business, authz.ActionManageRoles)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		if err := s.ensureNameFree(ctx, target.BusinessID, *dto.Name, roleID); err != nil {
			return nil, err
		}
	}

	r, err := s.repo.Update(ctx, target.BusinessID, roleID, dto.Name, perms)
	if err != nil {
		return nil, s.mapRepoError(err)
	}

	s.publish(ctx, events.NewRoleEvent(events.EventTypeRoleUpdated, callerID, target.BusinessID, r.ID))

	out := r.ToDto()
	return &out, nil
}

func (s *Service) DeleteRole(ctx context.Context, callerID int64, owner, business string, roleID int64) error {
	v := validation.NewValidator()
	validation.BusinessPath(v, owner, business)
	if err := v.Validate(); err != nil {
		return err
	}

	target, err := s.authorize(ctx, callerID, owner, business, authz.ActionManageRoles)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, target.BusinessID, roleID); err != nil {
		return s.mapRepoError(err)
	}

	s.logger.Info("role deleted", "business_id", target.BusinessID, "role_id", roleID)
	s.publish(ctx, events.NewRoleEvent(events.EventTypeRoleDeleted, callerID, target.BusinessID, roleID))
	return nil
}

// AssignRole grants roleID to username. Assigning twice is a no-op.
func (s *Service) AssignRole(ctx context.Context, callerID int64, owner, business string, roleID int64, username string) error {
	target, userID, err := s.membershipTarget(ctx, callerID, owner, business, username)
	if err != nil {
		return err
	}

	if err := s.repo.Assign(ctx, target.BusinessID, roleID, userID); err != nil {
		return s.mapRepoError(err)
	}

	s.publish(ctx, events.NewRoleMembershipEvent(events.EventTypeRoleAssigned, callerID, target.BusinessID, roleID, userID))
	return nil
}

func (s *Service) UnassignRole(ctx context.Context, callerID int64, owner, business string, roleID int64, username string) error {
	target, userID, err := s.membershipTarget(ctx, callerID, owner, business, username)
	if err != nil {
		return err
	}

	if err := s.repo.Unassign(ctx, target.BusinessID, roleID, userID); err != nil {
		return s.mapRepoError(err)
	}

	s.publish(ctx, events.NewRoleMembershipEvent(events.EventTypeRoleUnassigned, callerID, target.BusinessID, roleID, userID))
	return nil
}

func (s *Service) membershipTarget(ctx context.Context, callerID int64, owner, business, username string) (authz.Target, int64, error) {
	v := validation.NewValidator()
	validation.BusinessPath(v, owner, business)
	validation.PartyName(v, fieldUsername, username)
	if err := v.Validate(); err != nil {
		return authz.Target{}, 0, err
	}

	target, err := s.authorize(ctx, callerID, owner, business, authz.ActionManageRoles)
	if err != nil {
		return authz.Target{}, 0, err
	}

	userID, err := s.repo.FindUserID(ctx, username)
	if err != nil {
		return authz.Target{}, 0, s.mapRepoError(err)
	}
	return target, userID, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish event", "event_type", event.EventType(), "event_id", event.EventID(), "error", err)
	}
}

func (s *Service) authorize(ctx context.Context, callerID int64, owner, business string, action authz.Action) (authz.Target, error) {
	target, err := s.locator.Locate(ctx, owner, business)
	if err != nil {
		return authz.Target{}, err
	}
	if err := s.authorizer.Check(ctx, callerID, target, action); err != nil {
		return authz.Target{}, err
	}
	return target, nil
}

func (s *Service) ensureNameFree(ctx context.Context, businessID int64, name string, excludeRoleID int64) error {
	taken, err := s.repo.NameExists(ctx, businessID, name, excludeRoleID)
	if err != nil {
		return internal.ErrInternal(err)
	}
	if taken {
		return roleNameTaken()
	}
	return nil
}

func (s *Service) mapRepoError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return internal.ErrRoleNotFound
	case errors.Is(err, ErrDuplicateName):
		return roleNameTaken()
	case errors.Is(err, ErrUserNotFound):
		return internal.NewNotFoundError("The user was not found.", internal.ErrCodeUserNotFound).
			WithDetails(internal.ValidationErrors{Errors: []internal.ValidationError{{
				Field:   fieldUsername,
				Message: "The user was not found.",
				Code:    string(internal.ErrCodeUserNotFound),
			}}})
	default:
		return internal.ErrInternal(err)
	}
}

// validateWithPermissions runs v and parses names, reporting every failure
// of both in one aggregated error.
func validateWithPermissions(v *validation.ValidationBuilder, names []string) (permission.Set, error) {
	var errs []internal.ValidationError
	if err := v.Validate(); err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			errs = append(errs, appErr.FieldErrors()...)
		}
	}

	perms, err := permission.ParseNames(permission.KindBusiness, fieldPermissions, names)
	if err != nil {
		if appErr, ok := internal.IsAppError(err); ok {
			errs = append(errs, appErr.FieldErrors()...)
		}
	}

	if len(errs) > 0 {
		return nil, internal.NewAggregateValidationError(errs)
	}
	return perms, nil
}

func roleNameTaken() *internal.AppError {
	return internal.NewAlreadyExistsError(fieldName, "A role with this name already exists.", internal.ErrCodeRoleNameTaken)
}
