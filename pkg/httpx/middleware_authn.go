package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/hotellisting/pkg/jwtx"
	"github.com/aussiebroadwan/hotellisting/pkg/slogx"
)

// AuthnMiddleware requires a valid bearer access token carrying a uid claim.
// The verified claims and the principal id are placed on the request
// context, and the request logger gains a principal_id attribute.
func AuthnMiddleware(v *jwtx.Verifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := bearerToken(r)
			if !ok {
				writeBearerError(w, "missing bearer token")
				return
			}

			claims, err := v.Verify(raw)
			if err != nil {
				desc := "token verification failed"
				if errors.Is(err, jwtx.ErrExpired) {
					desc = "token expired"
				}
				writeBearerError(w, desc)
				slogx.FromContext(ctx).Warn("jwt verify failed", "err", err)
				return
			}

			uid, _ := claims.First(jwtx.ClaimUserID)
			if uid == "" {
				writeBearerError(w, "token has no principal")
				return
			}

			ctx = contextWithAuth(ctx, uid, claims)
			ctx = slogx.With(ctx, "principal_id", uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>". The
// scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func contextWithAuth(ctx context.Context, uid string, cs jwtx.ClaimSet) context.Context {
	ctx = context.WithValue(ctx, CtxKeyUserID, uid)
	ctx = context.WithValue(ctx, CtxKeyClaims, cs)
	return ctx
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	w.WriteHeader(http.StatusUnauthorized)
}
