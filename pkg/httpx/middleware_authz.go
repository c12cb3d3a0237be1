package httpx

import (
	"net/http"
	"strings"

	"github.com/aussiebroadwan/hotellisting/pkg/jwtx"
)

// RequireRole the caller must carry at least one of the provided role claims.
// It must run after AuthnMiddleware.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}

			for _, role := range roles {
				if claims.Has(jwtx.ClaimRole, role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			WriteError(w, http.StatusForbidden, ErrorTypeForbidden,
				"requires role: "+strings.Join(roles, " or "))
		})
	}
}
