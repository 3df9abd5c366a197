package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret-key-with-enough-bytes!")

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	m, err := NewManager(testSecret, time.Hour, "taskhub-test", opts...)
	require.NoError(t, err)
	return m
}

func signRaw(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return raw
}

func TestIssueAndVerifyRoundTrip(t *testing.T) {
	m := newTestManager(t)

	for _, role := range []user.Role{user.RoleUser, user.RoleAdmin} {
		raw, exp, err := m.Issue("user-123", role)
		require.NoError(t, err)
		require.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

		claims, err := m.Verify(raw)
		require.NoError(t, err)
		require.Equal(t, "user-123", claims.UserID())
		require.Equal(t, string(role), claims.Role)
		require.Equal(t, "taskhub-test", claims.Issuer)
		require.NotNil(t, claims.IssuedAt)
		require.NotNil(t, claims.ExpiresAt)
	}
}

func TestVerifyRejectsExpiredTokens(t *testing.T) {
	past := time.Now().Add(-2 * time.Hour)
	issuer := newTestManager(t, WithClock(func() time.Time { return past }))

	raw, _, err := issuer.Issue("user-1", user.RoleAdmin)
	require.NoError(t, err)

	// the signature is valid for this key; only the expiry is wrong
	verifier := newTestManager(t)
	_, err = verifier.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)

	t.Run("exactly at expiry", func(t *testing.T) {
		start := time.Now()
		clock := start
		m := newTestManager(t, WithClock(func() time.Time { return clock }))

		raw, exp, err := m.Issue("user-1", user.RoleUser)
		require.NoError(t, err)

		clock = exp.Add(time.Second)
		_, err = m.Verify(raw)
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestVerifyCollapsesEveryFailureIntoOneError(t *testing.T) {
	m := newTestManager(t)
	now := time.Now()

	valid, _, err := m.Issue("user-1", user.RoleUser)
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	registered := func(sub string) jwt.RegisteredClaims {
		return jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    "taskhub-test",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}
	}

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"tampered signature", tampered},
		{"wrong key", signRaw(t, jwt.SigningMethodHS256, []byte("some-other-secret-value-entirely"), &Claims{Role: "user", RegisteredClaims: registered("user-1")})},
		{"none algorithm", signRaw(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, &Claims{Role: "user", RegisteredClaims: registered("user-1")})},
		{"HS512 not allowed", signRaw(t, jwt.SigningMethodHS512, testSecret, &Claims{Role: "user", RegisteredClaims: registered("user-1")})},
		{"missing subject", signRaw(t, jwt.SigningMethodHS256, testSecret, &Claims{Role: "user", RegisteredClaims: registered("")})},
		{"unknown role", signRaw(t, jwt.SigningMethodHS256, testSecret, &Claims{Role: "superuser", RegisteredClaims: registered("user-1")})},
		{"wrong issuer", signRaw(t, jwt.SigningMethodHS256, testSecret, &Claims{Role: "user", RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "someone-else",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		}})},
		{"missing expiry", signRaw(t, jwt.SigningMethodHS256, testSecret, &Claims{Role: "user", RegisteredClaims: jwt.RegisteredClaims{
			Subject:  "user-1",
			Issuer:   "taskhub-test",
			IssuedAt: jwt.NewNumericDate(now),
		}})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := m.Verify(tt.token)
			require.Nil(t, claims)
			require.Same(t, ErrInvalidToken, err)
		})
	}
}

func TestRotatingSecretInvalidatesTokens(t *testing.T) {
	old := newTestManager(t)
	raw, _, err := old.Issue("user-1", user.RoleUser)
	require.NoError(t, err)

	rotated, err := NewManager([]byte("a-brand-new-secret-after-rotation"), time.Hour, "taskhub-test")
	require.NoError(t, err)

	_, err = rotated.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewManager(t *testing.T) {
	_, err := NewManager(nil, time.Hour, "x")
	require.Error(t, err)

	m, err := NewManager([]byte("k"), 0, "")
	require.NoError(t, err)
	require.Equal(t, 24*time.Hour, m.TTL())
}
