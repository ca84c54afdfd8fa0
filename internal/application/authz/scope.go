package authz

import (
	"context"
	"fmt"

	"github.com/praxishq/praxis/internal/application/ports"
	"github.com/praxishq/praxis/internal/domain"
	domerrors "github.com/praxishq/praxis/internal/domain/errors"
)

// ScopeFilter computes which organizations and users an actor may see. Admin
// roles see across tenants, platform agents see their assigned organizations,
// client roles see exactly their own organization.
type ScopeFilter struct {
	orgs        ports.OrganizationRepository
	memberships ports.MembershipStore
}

// NewScopeFilter creates a scope filter over the given stores.
func NewScopeFilter(orgs ports.OrganizationRepository, memberships ports.MembershipStore) *ScopeFilter {
	return &ScopeFilter{orgs: orgs, memberships: memberships}
}

// AccessibleOrganizations returns the active organizations visible to the
// actor. An empty result is a valid terminal answer ("render nothing"), never
// an error: an actor with no membership, or a platform agent with zero
// assignments, simply sees nothing. Store failures surface as
// ErrScopeUnavailable so callers cannot mistake "couldn't determine access"
// for "no access".
func (f *ScopeFilter) AccessibleOrganizations(ctx context.Context, actor domain.Identity) ([]*domain.Organization, error) {
	switch actor.Role {
	case domain.RoleSystemAdmin, domain.RolePlatformAdmin:
		orgs, err := f.orgs.ListActive(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domerrors.ErrScopeUnavailable, err)
		}
		return orgs, nil

	case domain.RolePlatformAgent:
		ids, err := f.memberships.LookupAgentAssignments(ctx, actor.UserID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domerrors.ErrScopeUnavailable, err)
		}
		if len(ids) == 0 {
			return []*domain.Organization{}, nil
		}
		orgs, err := f.orgs.ListActiveByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domerrors.ErrScopeUnavailable, err)
		}
		return orgs, nil
	}

	// Client-family roles: exactly the one organization of the membership.
	m, err := f.memberships.LookupMembership(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domerrors.ErrScopeUnavailable, err)
	}
	if m == nil {
		return []*domain.Organization{}, nil
	}
	org, err := f.orgs.GetByID(ctx, m.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domerrors.ErrScopeUnavailable, err)
	}
	if org == nil || !org.Active {
		return []*domain.Organization{}, nil
	}
	return []*domain.Organization{org}, nil
}

// AccessibleOrganizationIDs returns just the IDs of the visible organizations.
func (f *ScopeFilter) AccessibleOrganizationIDs(ctx context.Context, actor domain.Identity) ([]domain.OrganizationID, error) {
	orgs, err := f.AccessibleOrganizations(ctx, actor)
	if err != nil {
		return nil, err
	}
	ids := make([]domain.OrganizationID, 0, len(orgs))
	for _, o := range orgs {
		ids = append(ids, o.ID)
	}
	return ids, nil
}

// AccessibleUsers returns a predicate reporting whether a user (identified by
// their membership) falls inside the actor's scope. Visibility of the
// organization is necessary but not sufficient for any particular action on a
// user; actions are gated separately by the permission rules.
func (f *ScopeFilter) AccessibleUsers(ctx context.Context, actor domain.Identity) (func(m *domain.Membership) bool, error) {
	ids, err := f.AccessibleOrganizationIDs(ctx, actor)
	if err != nil {
		return nil, err
	}
	visible := make(map[domain.OrganizationID]struct{}, len(ids))
	for _, id := range ids {
		visible[id] = struct{}{}
	}
	return func(m *domain.Membership) bool {
		if m == nil {
			return false
		}
		_, ok := visible[m.OrganizationID]
		return ok
	}, nil
}
