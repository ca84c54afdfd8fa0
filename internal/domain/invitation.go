package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InvitationID is a value object for invitation identity.
type InvitationID struct{ uuid.UUID }

// NewInvitationID creates a new InvitationID from uuid.
func NewInvitationID(id uuid.UUID) InvitationID { return InvitationID{UUID: id} }

// String returns the canonical string form.
func (i InvitationID) String() string { return i.UUID.String() }

// InvitationStatus is the closed invitation state set. Pending is the only
// non-terminal state.
type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationCancelled InvitationStatus = "cancelled"
	InvitationExpired   InvitationStatus = "expired"
)

// String returns the raw status value.
func (s InvitationStatus) String() string { return string(s) }

// ParseInvitationStatus validates a raw string against the closed status set.
func ParseInvitationStatus(s string) (InvitationStatus, error) {
	switch st := InvitationStatus(s); st {
	case InvitationPending, InvitationAccepted, InvitationCancelled, InvitationExpired:
		return st, nil
	}
	return "", fmt.Errorf("unknown invitation status %q", s)
}

// Invitation is a pending offer of membership in an organization with a
// proposed role. Acceptance and expiry transitions happen outside this core.
type Invitation struct {
	ID             InvitationID
	OrganizationID OrganizationID
	Email          string
	Role           Role
	Status         InvitationStatus
	InvitedBy      UserID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
