package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/praxishq/praxis/internal/application/ports"
	"github.com/praxishq/praxis/internal/domain"
	domerrors "github.com/praxishq/praxis/internal/domain/errors"
)

// AuthHandler handles /auth/login. Successful login issues an RS256 access
// token carrying the user's role and organization.
type AuthHandler struct {
	users        ports.UserRepository
	memberships  ports.MembershipStore
	hasher       ports.PasswordHasher
	tokens       ports.TokenIssuer
	accessExpiry int64
	log          zerolog.Logger
}

// NewAuthHandler creates the login handler. accessExpiry is the issued token
// lifetime in seconds.
func NewAuthHandler(users ports.UserRepository, memberships ports.MembershipStore, hasher ports.PasswordHasher, tokens ports.TokenIssuer, accessExpiry int64, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		users:        users,
		memberships:  memberships,
		hasher:       hasher,
		tokens:       tokens,
		accessExpiry: accessExpiry,
		log:          log,
	}
}

// Login authenticates by email and password. Banned users and users without a
// membership are rejected with the same generic error as a bad password.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErr(w, http.StatusBadRequest, "", "invalid body")
		return
	}
	if body.Email == "" || body.Password == "" {
		writeErr(w, http.StatusBadRequest, "", "email and password required")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), body.Email)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if user == nil || user.Banned || !h.hasher.Verify(body.Password, user.PasswordHash) {
		writeDomainErr(w, domerrors.ErrInvalidCredentials)
		return
	}

	membership, err := h.memberships.LookupMembership(r.Context(), user.ID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	if membership == nil {
		writeDomainErr(w, domerrors.ErrInvalidCredentials)
		return
	}

	identity := domain.Identity{
		UserID:         user.ID,
		Role:           membership.Role,
		OrganizationID: membership.OrganizationID,
		ActorID:        user.ID,
	}
	token, err := h.tokens.IssueAccessToken(identity, h.accessExpiry)
	if err != nil {
		h.log.Error().Err(err).Str("user_id", user.ID.String()).Msg("token issuance failed")
		writeErr(w, http.StatusInternalServerError, ErrCodeInternal, "token issuance failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   h.accessExpiry,
		"user_id":      user.ID.String(),
		"role":         membership.Role.String(),
	})
}
