package ports

import (
	"context"
	"time"

	"github.com/praxishq/praxis/internal/domain"
)

// UserRepository defines persistence for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, userID domain.UserID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// List returns users whose membership is in one of the given organizations.
	List(ctx context.Context, orgIDs []domain.OrganizationID, limit, offset int) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	SetBanned(ctx context.Context, userID domain.UserID, banned bool) error
	// Delete removes a user row. Only used to undo a creation whose
	// membership insert failed; deleting an established user is out of scope.
	Delete(ctx context.Context, userID domain.UserID) error
}

// OrganizationRepository defines persistence for organizations.
type OrganizationRepository interface {
	GetByID(ctx context.Context, orgID domain.OrganizationID) (*domain.Organization, error)
	ListActive(ctx context.Context) ([]*domain.Organization, error)
	ListActiveByIDs(ctx context.Context, ids []domain.OrganizationID) ([]*domain.Organization, error)
	Update(ctx context.Context, org *domain.Organization) error
}

// MembershipStore is the membership/assignment data source the scope filter
// reads. One read per call; idempotent and safely retryable.
type MembershipStore interface {
	// LookupMembership returns the user's membership, or nil when none exists.
	LookupMembership(ctx context.Context, userID domain.UserID) (*domain.Membership, error)
	// LookupAgentAssignments returns the organizations a platform agent is
	// assigned to. Zero assignments is a valid result, not an error.
	LookupAgentAssignments(ctx context.Context, userID domain.UserID) ([]domain.OrganizationID, error)
	AddMembership(ctx context.Context, m *domain.Membership) error
	RemoveMembership(ctx context.Context, orgID domain.OrganizationID, userID domain.UserID) error
}

// InvitationRepository defines persistence for organization invitations.
type InvitationRepository interface {
	Create(ctx context.Context, inv *domain.Invitation) error
	GetByID(ctx context.Context, id domain.InvitationID) (*domain.Invitation, error)
	ListPendingByOrganization(ctx context.Context, orgID domain.OrganizationID) ([]*domain.Invitation, error)
	// UpdateStatus transitions the invitation from one status to another and
	// returns the number of rows moved, so callers can detect a no-op on an
	// already-terminal invitation.
	UpdateStatus(ctx context.Context, id domain.InvitationID, from, to domain.InvitationStatus) (int64, error)
}

// AuditLogRepository is the append-only persistence behind the audit sink.
type AuditLogRepository interface {
	Append(ctx context.Context, e AuditEvent) error
	// DeleteOlderThan removes entries past the retention window. Used by the
	// retention janitor only.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
