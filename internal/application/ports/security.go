package ports

import "github.com/praxishq/praxis/internal/domain"

// PasswordHasher hashes and verifies passwords (Argon2id).
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// TokenIssuer signs and validates JWTs (RS256). Tokens carry the effective
// identity plus the real actor for impersonation overlays.
type TokenIssuer interface {
	IssueAccessToken(identity domain.Identity, expiresInSeconds int64) (string, error)
	ValidateAccessToken(tokenString string) (domain.Identity, error)
}
