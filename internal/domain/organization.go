package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrganizationID is a value object for organization identity.
type OrganizationID struct{ uuid.UUID }

// NewOrganizationID creates a new OrganizationID from uuid.
func NewOrganizationID(id uuid.UUID) OrganizationID { return OrganizationID{UUID: id} }

// String returns the canonical string form.
func (o OrganizationID) String() string { return o.UUID.String() }

// OrganizationType tags an organization as platform-operator or tenant.
type OrganizationType string

const (
	OrganizationTypeAdmin  OrganizationType = "admin"
	OrganizationTypeClient OrganizationType = "client"
)

// String returns the raw type value.
func (t OrganizationType) String() string { return string(t) }

// ParseOrganizationType validates a raw string against the closed type set.
func ParseOrganizationType(s string) (OrganizationType, error) {
	switch t := OrganizationType(s); t {
	case OrganizationTypeAdmin, OrganizationTypeClient:
		return t, nil
	}
	return "", fmt.Errorf("unknown organization type %q", s)
}

// Organization is a tenant or platform-operator org. Its type constrains which
// role family memberships inside it may carry.
type Organization struct {
	ID        OrganizationID
	Name      string
	Type      OrganizationType
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Membership ties one user to one organization with exactly one role at a time.
type Membership struct {
	OrganizationID OrganizationID
	UserID         UserID
	Role           Role
	CreatedAt      time.Time
}
