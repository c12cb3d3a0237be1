package jwtx_test

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/hotellisting/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newTestIssuer(t *testing.T, ttl time.Duration) *jwtx.Issuer {
	t.Helper()
	iss, err := jwtx.NewIssuer(jwtx.IssuerOptions{
		Issuer:   "HotelListingApi",
		Audience: "HotelListingApiClient",
		Key:      testKey,
		TTL:      ttl,
	})
	require.NoError(t, err)
	return iss
}

func newTestVerifier(t *testing.T) *jwtx.Verifier {
	t.Helper()
	v, err := jwtx.NewVerifier(jwtx.VerifierOptions{
		Issuer:   "HotelListingApi",
		Audience: "HotelListingApiClient",
		Key:      testKey,
	})
	require.NoError(t, err)
	return v
}

func TestNewIssuer_Configuration(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		_, err := jwtx.NewIssuer(jwtx.IssuerOptions{Issuer: "a", Audience: "b", TTL: time.Minute})
		require.ErrorIs(t, err, jwtx.ErrMissingSigningKey)
	})

	t.Run("non-positive ttl", func(t *testing.T) {
		_, err := jwtx.NewIssuer(jwtx.IssuerOptions{Key: testKey})
		require.ErrorIs(t, err, jwtx.ErrInvalidTTL)
	})

	t.Run("verifier missing key", func(t *testing.T) {
		_, err := jwtx.NewVerifier(jwtx.VerifierOptions{Issuer: "a", Audience: "b"})
		require.ErrorIs(t, err, jwtx.ErrMissingSigningKey)
	})
}

func TestIssue_Payload(t *testing.T) {
	iss := newTestIssuer(t, 10*time.Minute)
	now := time.Now().UTC().Truncate(time.Second)

	var cs jwtx.ClaimSet
	cs.Add(jwtx.ClaimSubject, "a@x.io")
	cs.Add(jwtx.ClaimEmail, "a@x.io")
	cs.Add(jwtx.ClaimRole, "User")
	cs.Add(jwtx.ClaimRole, "Administrator")
	cs.Add("iss", "spoofed")

	token, err := iss.Issue(cs, now)
	require.NoError(t, err)

	t.Run("header is HS256", func(t *testing.T) {
		parts := strings.Split(token, ".")
		raw, err := base64.RawURLEncoding.DecodeString(parts[0])
		require.NoError(t, err)
		require.Contains(t, string(raw), `"alg":"HS256"`)
	})

	t.Run("claims grouped by type", func(t *testing.T) {
		p := decodePayload(t, token)
		require.Equal(t, "a@x.io", p["sub"])
		require.Equal(t, "a@x.io", p["email"])
		require.Equal(t, []any{"User", "Administrator"}, p["role"])
	})

	t.Run("registered claims owned by issuer", func(t *testing.T) {
		p := decodePayload(t, token)
		require.Equal(t, "HotelListingApi", p["iss"])
		require.Equal(t, "HotelListingApiClient", p["aud"])
		require.EqualValues(t, now.Unix(), p["iat"])
		require.EqualValues(t, now.Add(10*time.Minute).Unix(), p["exp"])
	})
}

func TestVerify(t *testing.T) {
	iss := newTestIssuer(t, time.Minute)
	v := newTestVerifier(t)

	var cs jwtx.ClaimSet
	cs.Add(jwtx.ClaimEmail, "a@x.io")
	cs.Add(jwtx.ClaimRole, "User")
	cs.Add(jwtx.ClaimRole, "Administrator")

	t.Run("valid token", func(t *testing.T) {
		token, err := iss.Issue(cs, time.Now())
		require.NoError(t, err)

		got, err := v.Verify(token)
		require.NoError(t, err)
		require.Equal(t, []string{"User", "Administrator"}, got.Values(jwtx.ClaimRole))
		email, _ := got.First(jwtx.ClaimEmail)
		require.Equal(t, "a@x.io", email)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := iss.Issue(cs, time.Now().Add(-2*time.Minute))
		require.NoError(t, err)

		_, err = v.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("wrong key", func(t *testing.T) {
		other, err := jwtx.NewIssuer(jwtx.IssuerOptions{
			Issuer: "HotelListingApi", Audience: "HotelListingApiClient",
			Key: []byte("another-secret"), TTL: time.Minute,
		})
		require.NoError(t, err)
		token, err := other.Issue(cs, time.Now())
		require.NoError(t, err)

		_, err = v.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrInvalidSig)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := jwtx.NewIssuer(jwtx.IssuerOptions{
			Issuer: "SomeoneElse", Audience: "HotelListingApiClient",
			Key: testKey, TTL: time.Minute,
		})
		require.NoError(t, err)
		token, err := other.Issue(cs, time.Now())
		require.NoError(t, err)

		_, err = v.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("wrong audience", func(t *testing.T) {
		other, err := jwtx.NewIssuer(jwtx.IssuerOptions{
			Issuer: "HotelListingApi", Audience: "SomeoneElse",
			Key: testKey, TTL: time.Minute,
		})
		require.NoError(t, err)
		token, err := other.Issue(cs, time.Now())
		require.NoError(t, err)

		_, err = v.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrAudience)
	})

	t.Run("other algorithm rejected", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
			"iss": "HotelListingApi",
			"aud": "HotelListingApiClient",
			"exp": time.Now().Add(time.Minute).Unix(),
		})
		signed, err := tok.SignedString(testKey)
		require.NoError(t, err)

		_, err = v.Verify(signed)
		require.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := v.Verify("not-a-token")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})
}

func TestParseUnverified(t *testing.T) {
	iss := newTestIssuer(t, time.Minute)

	var cs jwtx.ClaimSet
	cs.Add(jwtx.ClaimEmail, "a@x.io")
	cs.Add(jwtx.ClaimUserID, "01HZZZ")

	t.Run("expired token still decodes", func(t *testing.T) {
		token, err := iss.Issue(cs, time.Now().Add(-time.Hour))
		require.NoError(t, err)

		got, err := jwtx.ParseUnverified(token)
		require.NoError(t, err)
		email, ok := got.First(jwtx.ClaimEmail)
		require.True(t, ok)
		require.Equal(t, "a@x.io", email)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := jwtx.ParseUnverified("garbage")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})
}
