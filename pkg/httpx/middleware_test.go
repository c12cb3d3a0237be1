package httpx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/hotellisting/pkg/httpx"
	"github.com/aussiebroadwan/hotellisting/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newTestTokens(t *testing.T) (*jwtx.Issuer, *jwtx.Verifier) {
	t.Helper()
	iss, err := jwtx.NewIssuer(jwtx.IssuerOptions{
		Issuer:   "HotelListingApi",
		Audience: "HotelListingApiClient",
		Key:      testKey,
		TTL:      time.Minute,
	})
	require.NoError(t, err)
	v, err := jwtx.NewVerifier(jwtx.VerifierOptions{
		Issuer:   "HotelListingApi",
		Audience: "HotelListingApiClient",
		Key:      testKey,
	})
	require.NoError(t, err)
	return iss, v
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})

	httpx.Chain(h, mw("a"), mw("b"), mw("c")).
		ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, []string{"a", "b", "c", "handler"}, order)
}

func TestRecover(t *testing.T) {
	h := httpx.Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body httpx.ErrorDetails
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, httpx.ErrorTypeFailure, body.ErrorType)
	require.NotContains(t, body.ErrorMessage, "boom")
}

func TestAuthnAndRequireRole(t *testing.T) {
	iss, v := newTestTokens(t)

	token := func(roles ...string) string {
		var cs jwtx.ClaimSet
		cs.Add(jwtx.ClaimUserID, "01HZUSER")
		for _, r := range roles {
			cs.Add(jwtx.ClaimRole, r)
		}
		tok, err := iss.Issue(cs, time.Now())
		require.NoError(t, err)
		return tok
	}

	var seenUser string
	h := httpx.Chain(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seenUser = httpx.UserIDFromContext(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}),
		httpx.AuthnMiddleware(v),
		httpx.RequireRole("Administrator"),
	)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic Zm9vOmJhcg==", http.StatusUnauthorized},
		{"garbage token", "Bearer not.a.jwt", http.StatusUnauthorized},
		{"missing role", "Bearer " + token("User"), http.StatusForbidden},
		{"has role", "Bearer " + token("User", "Administrator"), http.StatusNoContent},
		{"lowercase scheme", "bearer " + token("Administrator"), http.StatusNoContent},
		{"empty token", "Bearer   ", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				require.True(t, strings.HasPrefix(rec.Header().Get("WWW-Authenticate"), "Bearer"))
			}
		})
	}

	require.Equal(t, "01HZUSER", seenUser)
}

func TestRequireRole_WithoutAuthn(t *testing.T) {
	h := httpx.RequireRole("Administrator")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthn_RejectsExpiredAndAnonymousTokens(t *testing.T) {
	iss, v := newTestTokens(t)

	h := httpx.AuthnMiddleware(v)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	serve := func(tok string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	var withUID jwtx.ClaimSet
	withUID.Add(jwtx.ClaimUserID, "01HZUSER")
	expired, err := iss.Issue(withUID, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	rec := serve(expired)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "token expired")

	var anonymous jwtx.ClaimSet
	anonymous.Add(jwtx.ClaimEmail, "a@x.io")
	noUID, err := iss.Issue(anonymous, time.Now())
	require.NoError(t, err)

	rec = serve(noUID)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Header().Get("WWW-Authenticate"), "no principal")
}
