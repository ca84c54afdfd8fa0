package middleware

import (
	"net/http"

	"github.com/praxishq/praxis/internal/domain"
)

// RequireAdminFamily rejects requests whose identity is not an admin-family
// role. Finer-grained checks against a specific target remain the handlers'
// job; this only fences off platform-operator surfaces.
func RequireAdminFamily(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeAuthErr(w, "unauthorized")
			return
		}
		if !identity.Role.IsAdminFamily() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"admin role required","code":"forbidden"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole rejects requests whose identity does not hold one of the given
// roles.
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				writeAuthErr(w, "unauthorized")
				return
			}
			if _, ok := allowed[identity.Role]; !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"insufficient role","code":"forbidden"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
