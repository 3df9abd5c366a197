package security

import (
	"golang.org/x/crypto/bcrypt"
)

// bcrypt generates a fresh salt per call and stores it inside the hash
// string, so Verify needs nothing but the stored value.
type Hasher struct {
	cost  int
	dummy []byte
}

// NewHasher returns a bcrypt hasher. A cost outside bcrypt's range falls back
// to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	// used to spend the same time on unknown emails as on wrong passwords
	dummy, err := bcrypt.GenerateFromPassword([]byte("taskhub-timing-equalizer"), cost)
	if err != nil {
		dummy = nil
	}

	return &Hasher{cost: cost, dummy: dummy}
}

// Hash hashes a plain text password with bcrypt.
func (h *Hasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Verify reports whether plain matches stored. A malformed stored value is a
// non-match.
func (h *Hasher) Verify(plain, stored string) bool {
	if stored == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
}

// Dummy burns one comparison and always reports false.
func (h *Hasher) Dummy(plain string) bool {
	if h.dummy != nil {
		_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(plain))
	}
	return false
}
