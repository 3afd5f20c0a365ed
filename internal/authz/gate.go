package authz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/rogue-contacts/internal"
	"github.com/frahmantamala/rogue-contacts/internal/observability"
	"github.com/frahmantamala/rogue-contacts/internal/permission"
)

const (
	outcomeOwner     = "owner"
	outcomeAllowed   = "allowed"
	outcomeNotFound  = "not_found"
	outcomeForbidden = "forbidden"
	outcomeError     = "error"
)

// policy binds an owner kind to its resolver and to the permissions that
// unlock each action. An action missing from actions is owner-only.
type policy struct {
	kind     permission.Kind
	resolver Resolver
	view     permission.ID
	actions  map[Action]permission.ID
}

// Gate applies the uniform authorization rule: owners pass, callers without
// the view permission see NotFound, callers lacking the action permission
// see Forbidden.
type Gate struct {
	policies map[OwnerKind]policy
	metrics  *observability.Metrics
	logger   *slog.Logger
}

func NewGate(businessResolver, organizationResolver Resolver, metrics *observability.Metrics, logger *slog.Logger) *Gate {
	return &Gate{
		policies: map[OwnerKind]policy{
			OwnerUser: {
				kind:     permission.KindBusiness,
				resolver: businessResolver,
				view:     permission.BusinessView,
				actions: map[Action]permission.ID{
					ActionManageRoles: permission.BusinessManageRoles,
				},
			},
			OwnerOrganization: {
				kind:     permission.KindOrganization,
				resolver: organizationResolver,
				view:     permission.OrganizationView,
				actions: map[Action]permission.ID{
					ActionManageRoles:    permission.OrganizationManageRoles,
					ActionDeleteBusiness: permission.OrganizationManageBusinesses,
				},
			},
		},
		metrics: metrics,
		logger:  logger,
	}
}

func (g *Gate) Check(ctx context.Context, callerID int64, target Target, action Action) error {
	outcome, err := g.decide(ctx, callerID, target, action)
	g.metrics.ObserveAuthzDecision(string(action), outcome)
	if outcome == outcomeError {
		g.logger.Error("authorization check failed",
			"caller_id", callerID,
			"business_id", target.BusinessID,
			"action", action,
			"error", err)
	}
	return err
}

func (g *Gate) decide(ctx context.Context, callerID int64, target Target, action Action) (string, error) {
	if callerID > 0 && callerID == target.OwnerUserID {
		return outcomeOwner, nil
	}

	p, ok := g.policies[target.OwnerKind]
	if !ok || p.resolver == nil {
		return outcomeError, internal.ErrInternal(fmt.Errorf("no authorization policy for owner kind %q", target.OwnerKind))
	}

	perms, err := p.resolver.GetEffectivePermissions(ctx, callerID, target.OwnerName, target.BusinessName)
	if err != nil {
		return outcomeError, internal.ErrInternal(err)
	}

	if !perms.Has(p.view) {
		return outcomeNotFound, internal.ErrBusinessNotFound
	}
	if action == ActionView {
		return outcomeAllowed, nil
	}

	required, ok := p.actions[action]
	if !ok || !perms.Has(required) {
		return outcomeForbidden, internal.ErrAccessDenied
	}
	return outcomeAllowed, nil
}
