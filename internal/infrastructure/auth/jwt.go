package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/praxishq/praxis/internal/domain"
)

// TokenIssuer implements ports.TokenIssuer with RS256. Tokens carry the
// effective identity (user, role, org) plus an actor_id claim holding the real
// authenticated user; the two differ only while an impersonation overlay is
// active. Overlay transitions always re-issue the token, so no downstream
// component can keep trusting a pre-transition identity.
type TokenIssuer struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	audience   string
}

type accessClaims struct {
	jwt.RegisteredClaims
	UserID  string `json:"user_id"`
	Role    string `json:"role"`
	OrgID   string `json:"org_id,omitempty"`
	ActorID string `json:"actor_id,omitempty"` // present only on overlay tokens
}

// NewTokenIssuer creates an RS256 token issuer/validator.
func NewTokenIssuer(privateKey *rsa.PrivateKey, issuer, audience string) *TokenIssuer {
	return &TokenIssuer{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
		issuer:     issuer,
		audience:   audience,
	}
}

// IssueAccessToken signs a token for the given identity.
func (t *TokenIssuer) IssueAccessToken(identity domain.Identity, expiresInSeconds int64) (string, error) {
	now := time.Now()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			Subject:   identity.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expiresInSeconds) * time.Second)),
		},
		UserID: identity.UserID.String(),
		Role:   identity.Role.String(),
	}
	if identity.OrganizationID != (domain.OrganizationID{}) {
		claims.OrgID = identity.OrganizationID.String()
	}
	if identity.Impersonating() {
		claims.ActorID = identity.ActorID.String()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(t.privateKey)
}

// ValidateAccessToken parses and verifies a token, returning the identity it
// carries.
func (t *TokenIssuer) ValidateAccessToken(tokenString string) (domain.Identity, error) {
	var claims accessClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.publicKey, nil
	}, jwt.WithIssuer(t.issuer), jwt.WithAudience(t.audience))
	if err != nil {
		return domain.Identity{}, err
	}
	if !token.Valid {
		return domain.Identity{}, errors.New("invalid token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("invalid user_id claim: %w", err)
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("invalid role claim: %w", err)
	}
	identity := domain.Identity{
		UserID:  domain.NewUserID(userID),
		Role:    role,
		ActorID: domain.NewUserID(userID),
	}
	if claims.OrgID != "" {
		orgID, err := uuid.Parse(claims.OrgID)
		if err != nil {
			return domain.Identity{}, fmt.Errorf("invalid org_id claim: %w", err)
		}
		identity.OrganizationID = domain.NewOrganizationID(orgID)
	}
	if claims.ActorID != "" {
		actorID, err := uuid.Parse(claims.ActorID)
		if err != nil {
			return domain.Identity{}, fmt.Errorf("invalid actor_id claim: %w", err)
		}
		identity.ActorID = domain.NewUserID(actorID)
	}
	return identity, nil
}
