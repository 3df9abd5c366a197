package user

import (
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/apperr"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Role         Role      `json:"role"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

var (
	ErrNotFound   = apperr.NotFound("user_not_found", "User not found")
	ErrEmailTaken = apperr.Validation("email_taken", "Email is already in use.")
)

// NewUser is the input a store needs to persist a fresh account.
// The hash is computed by the caller.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
	Role         Role
}

// with pointers if optional, it will be nil
type ListUsersFilter struct {
	Role     *Role
	IsActive *bool
	Limit    int
	Offset   int
}

// partial admin update; nil fields are left untouched
type UpdateUserRequest struct {
	Name     *string `json:"name" binding:"omitempty,min=1,max=50"`
	Email    *string `json:"email" binding:"omitempty,email"`
	Role     *Role   `json:"role" binding:"omitempty,oneof=user admin"`
	IsActive *bool   `json:"isActive"`
}

func (r *UpdateUserRequest) Normalize() {
	if r.Name != nil {
		n := strings.TrimSpace(*r.Name)
		r.Name = &n
	}
	if r.Email != nil {
		e := NormalizeEmail(*r.Email)
		r.Email = &e
	}
}

func (r UpdateUserRequest) Empty() bool {
	return r.Name == nil && r.Email == nil && r.Role == nil && r.IsActive == nil
}

// NormalizeEmail is the canonical login key form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
