package auth

import (
	"errors"
	"time"

	"github.com/geocoder89/taskhub/internal/apperr"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the only error Verify returns. Callers cannot tell a bad
// signature from an expired or malformed token.
var ErrInvalidToken = apperr.Unauthenticated("invalid_token", "Invalid or expired token")

var errEmptySecret = errors.New("auth: signing secret must not be empty")

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// UserID is the token subject.
func (c *Claims) UserID() string {
	return c.Subject
}

type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type Option func(*Manager)

// WithClock overrides the time source used for both issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(secret []byte, ttl time.Duration, issuer string, opts ...Option) (*Manager, error) {
	if len(secret) == 0 {
		return nil, errEmptySecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	key := make([]byte, len(secret))
	copy(key, secret)

	m := &Manager{
		secret: key,
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m, nil
}

func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Issue signs an HS256 token for the given identity.
func (m *Manager) Issue(userID string, role user.Role) (string, time.Time, error) {
	now := m.now().UTC()
	expiresAt := now.Add(m.ttl)

	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	raw, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}

	return raw, expiresAt, nil
}

// Verify checks the signature, then expiry and issuer, then the shape of the
// claims. Every failure collapses into ErrInvalidToken.
func (m *Manager) Verify(tokenStr string) (*Claims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	}
	if m.issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		// Enforce HS256
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, parserOpts...)

	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	if _, err := user.ParseRole(claims.Role); err != nil {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
