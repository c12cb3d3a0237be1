package httpx

import (
	"context"

	"github.com/aussiebroadwan/hotellisting/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID ctxKey = "user_id"
	CtxKeyClaims ctxKey = "claims"
)

// ClaimsFromContext returns the verified access token claims placed on the
// context by AuthnMiddleware.
func ClaimsFromContext(ctx context.Context) (jwtx.ClaimSet, bool) {
	cs, ok := ctx.Value(CtxKeyClaims).(jwtx.ClaimSet)
	return cs, ok
}

// UserIDFromContext returns the authenticated principal id, or "".
func UserIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(CtxKeyUserID).(string)
	return id
}
