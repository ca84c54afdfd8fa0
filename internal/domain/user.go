package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserID is a value object for user identity.
type UserID struct{ uuid.UUID }

// NewUserID creates a new UserID from uuid.
func NewUserID(id uuid.UUID) UserID { return UserID{UUID: id} }

// String returns the canonical string form.
func (u UserID) String() string { return u.UUID.String() }

// User is an account known to the platform. Role and organization come from the
// user's membership, not from the user row.
type User struct {
	ID           UserID
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	Banned       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is what authorization decisions consume: who is acting, with which
// role, inside which organization. During impersonation the effective identity
// is the target's while ActorID keeps the real, audit-recorded user.
type Identity struct {
	UserID         UserID
	Role           Role
	OrganizationID OrganizationID
	// ActorID is the real authenticated user. Equal to UserID except while an
	// impersonation overlay is active.
	ActorID UserID
}

// Impersonating reports whether this identity is an impersonation overlay.
func (i Identity) Impersonating() bool { return i.ActorID != i.UserID }
