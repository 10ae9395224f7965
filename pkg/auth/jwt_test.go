package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chainsafe/billing-bridge/pkg/config"
)

func newValidator() *JWTValidator {
	return NewJWTValidator(config.AuthConfig{JWTSecret: "test-secret", Issuer: "billing-bridge"})
}

func TestJWTValidator_RoundTrip(t *testing.T) {
	v := newValidator()
	token, err := v.IssueToken("alice", time.Minute)
	require.NoError(t, err)

	claims, err := v.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, "billing-bridge", claims.Issuer)
}

func TestJWTValidator_Rejects(t *testing.T) {
	v := newValidator()

	expired, err := v.IssueToken("alice", -time.Minute)
	require.NoError(t, err)

	other := NewJWTValidator(config.AuthConfig{JWTSecret: "other-secret", Issuer: "billing-bridge"})
	wrongKey, err := other.IssueToken("alice", time.Minute)
	require.NoError(t, err)

	wrongIssuer, err := NewJWTValidator(config.AuthConfig{JWTSecret: "test-secret", Issuer: "someone-else"}).
		IssueToken("alice", time.Minute)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    "billing-bridge",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "alice",
		Issuer:  "billing-bridge",
	}}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"expired":      expired,
		"wrong key":    wrongKey,
		"wrong issuer": wrongIssuer,
		"no subject":   noSubject,
		"no expiry":    noExpiry,
		"garbage":      "not-a-token",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := v.ValidateToken(token)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestIssueToken_NotConfigured(t *testing.T) {
	_, err := NewJWTValidator(config.AuthConfig{}).IssueToken("alice", time.Minute)
	require.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	v := newValidator()
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, ok := ClaimsFromContext(r.Context()); ok {
			seen = c.Subject
		}
		w.WriteHeader(http.StatusNoContent)
	})
	h := Middleware(v, zap.NewNop())(next)

	token, err := v.IssueToken("ops", time.Minute)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		seen = ""
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "ops", seen)
	})

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "missing bearer token")
	})

	t.Run("bad token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("disabled without secret", func(t *testing.T) {
		open := Middleware(NewJWTValidator(config.AuthConfig{}), zap.NewNop())(next)
		rec := httptest.NewRecorder()
		open.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}
