package identity

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://securetoken.google.com/edgeguard-test"
	testAudience = "edgeguard-test"
)

func signHS256(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-checked"))
	require.NoError(t, err)
	return token
}

func TestUnverifiedDecoder_Decode(t *testing.T) {
	decoder := NewUnverifiedDecoder()
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	t.Run("should extract subject, audience, expiry and email", func(t *testing.T) {
		token := signHS256(t, jwt.MapClaims{
			"sub":   "admin-uid",
			"aud":   testAudience,
			"exp":   exp.Unix(),
			"email": "admin@example.com",
		})

		claims, err := decoder.Decode(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, "admin-uid", claims.Subject)
		assert.Equal(t, []string{testAudience}, claims.Audience)
		assert.True(t, claims.ExpiresAt.Equal(exp))
		assert.Equal(t, "admin@example.com", claims.Email)
		assert.False(t, claims.Verified)
	})

	t.Run("should leave expiry zero when absent", func(t *testing.T) {
		token := signHS256(t, jwt.MapClaims{"sub": "admin-uid"})

		claims, err := decoder.Decode(context.Background(), token)
		require.NoError(t, err)
		assert.True(t, claims.ExpiresAt.IsZero())
		assert.False(t, claims.Expired(time.Now()))
	})

	t.Run("should ignore the signature", func(t *testing.T) {
		token := signHS256(t, jwt.MapClaims{"sub": "admin-uid"})
		tampered := token[:len(token)-4] + "AAAA"

		claims, err := decoder.Decode(context.Background(), tampered)
		require.NoError(t, err)
		assert.Equal(t, "admin-uid", claims.Subject)
	})

	t.Run("should accept a padded payload segment", func(t *testing.T) {
		header := base64.URLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
		payload := base64.URLEncoding.EncodeToString([]byte(`{"sub":"a"}`))
		require.Contains(t, payload, "=")

		claims, err := decoder.Decode(context.Background(), header+"."+payload+".sig")
		require.NoError(t, err)
		assert.Equal(t, "a", claims.Subject)
	})

	t.Run("should not depend on the header", func(t *testing.T) {
		payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"a","email":"x@y"}`))
		headers := map[string]string{
			"without alg": base64.RawURLEncoding.EncodeToString([]byte(`{"typ":"JWT"}`)),
			"unknown alg": base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"XYZ"}`)),
			"not base64":  "@@@",
			"empty":       "",
			"alg none":    base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`)),
		}

		for name, header := range headers {
			claims, err := decoder.Decode(context.Background(), header+"."+payload+".sig")
			require.NoError(t, err, name)
			assert.Equal(t, "a", claims.Subject, name)
			assert.Equal(t, "x@y", claims.Email, name)
		}
	})

	malformed := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"one segment", "abc"},
		{"two segments", "abc.def"},
		{"four segments", "a.b.c.d"},
		{"payload is not base64", "eyJhbGciOiJIUzI1NiJ9.@@@.sig"},
		{"empty payload", "eyJhbGciOiJIUzI1NiJ9..sig"},
		{"payload is not JSON", "eyJhbGciOiJIUzI1NiJ9." + base64.RawURLEncoding.EncodeToString([]byte("nope")) + ".sig"},
	}
	for _, tc := range malformed {
		t.Run("should reject "+tc.name, func(t *testing.T) {
			_, err := decoder.Decode(context.Background(), tc.token)
			assert.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func TestClaims_Helpers(t *testing.T) {
	now := time.Now()

	claims := Claims{Audience: []string{"a", "b"}, ExpiresAt: now}
	assert.True(t, claims.HasAudience("b"))
	assert.False(t, claims.HasAudience("c"))
	assert.True(t, claims.Expired(now), "expiry equal to now counts as expired")
	assert.False(t, claims.Expired(now.Add(-time.Millisecond)))
}

func newTestOIDCDecoder(t *testing.T, key *rsa.PrivateKey, now time.Time) *OIDCDecoder {
	t.Helper()
	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{key.Public()}}
	verifier := oidc.NewVerifier(testIssuer, keySet, &oidc.Config{
		ClientID: testAudience,
		Now:      func() time.Time { return now },
	})
	return NewOIDCDecoderFromVerifier(verifier)
}

func signRS256(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestOIDCDecoder_Decode(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	otherKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	now := time.Now()
	decoder := newTestOIDCDecoder(t, key, now)

	baseClaims := func() jwt.MapClaims {
		return jwt.MapClaims{
			"iss":   testIssuer,
			"aud":   testAudience,
			"sub":   "admin-uid",
			"iat":   now.Add(-time.Minute).Unix(),
			"exp":   now.Add(time.Hour).Unix(),
			"email": "admin@example.com",
		}
	}

	t.Run("should return verified claims for a valid token", func(t *testing.T) {
		claims, decodeErr := decoder.Decode(context.Background(), signRS256(t, key, baseClaims()))
		require.NoError(t, decodeErr)
		assert.True(t, claims.Verified)
		assert.Equal(t, "admin-uid", claims.Subject)
		assert.Equal(t, "admin@example.com", claims.Email)
		assert.True(t, claims.HasAudience(testAudience))
	})

	t.Run("should reject a token signed by another key", func(t *testing.T) {
		_, decodeErr := decoder.Decode(context.Background(), signRS256(t, otherKey, baseClaims()))
		assert.ErrorIs(t, decodeErr, ErrInvalidToken)
	})

	t.Run("should reject a foreign audience", func(t *testing.T) {
		claims := baseClaims()
		claims["aud"] = "someone-else"
		_, decodeErr := decoder.Decode(context.Background(), signRS256(t, key, claims))
		assert.ErrorIs(t, decodeErr, ErrInvalidToken)
	})

	t.Run("should reject an expired token", func(t *testing.T) {
		claims := baseClaims()
		claims["exp"] = now.Add(-time.Minute).Unix()
		_, decodeErr := decoder.Decode(context.Background(), signRS256(t, key, claims))
		assert.ErrorIs(t, decodeErr, ErrInvalidToken)
	})

	t.Run("should report malformed tokens separately", func(t *testing.T) {
		_, decodeErr := decoder.Decode(context.Background(), "only.two")
		assert.ErrorIs(t, decodeErr, ErrMalformedToken)
	})
}
