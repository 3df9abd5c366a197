package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/apperr"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	GetByID(ctx context.Context, id string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, nu user.NewUser) (user.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type TokenIssuer interface {
	Issue(userID string, role user.Role) (string, time.Time, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, stored string) bool
	Dummy(plain string) bool
}

var (
	errInvalidCredentials = apperr.Unauthenticated("invalid_credentials", "Email or password is incorrect.")
	errWrongPassword      = apperr.Unauthenticated("incorrect_password", "Current password is incorrect.")
	errAdminSignup        = apperr.Forbidden("admin_signup_disabled", "Admin accounts cannot be self-registered.")
	errInvalidName        = apperr.Validation("invalid_name", "Name must be between 1 and 50 characters.")
	errNotLoggedIn        = apperr.Unauthenticated("unauthorized", "You are not logged in. Please log in to get access.")
)

type AuthHandler struct {
	users            UserReader
	userWriter       UserWriter
	tokens           TokenIssuer
	hasher           PasswordHasher
	allowAdminSignup bool
	prom             *observability.Prom
}

func NewAuthHandler(users UserReader, userWriter UserWriter, tokens TokenIssuer, hasher PasswordHasher, allowAdminSignup bool, prom *observability.Prom) *AuthHandler {
	return &AuthHandler{
		users:            users,
		userWriter:       userWriter,
		tokens:           tokens,
		hasher:           hasher,
		allowAdminSignup: allowAdminSignup,
		prom:             prom,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Name     string    `json:"name" binding:"required,max=50"`
	Email    string    `json:"email" binding:"required,email"`
	Password string    `json:"password" binding:"required,min=6,max=72"`
	Role     user.Role `json:"role" binding:"omitempty,oneof=user admin"`
}

type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6,max=72"`
}

type tokenResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expiresAt"`
	User      *user.User `json:"user,omitempty"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if n := len([]rune(name)); n < 1 || n > 50 {
		RespondErr(ctx, errInvalidName)
		return
	}

	role := req.Role
	if role == "" {
		role = user.RoleUser
	}
	if role.IsAdmin() && !h.allowAdminSignup {
		h.prom.AuthFailure("admin_signup")
		RespondErr(ctx, errAdminSignup)
		return
	}

	hash, err := h.hasher.Hash(req.Password)

	if err != nil {
		RespondErr(ctx, err)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.userWriter.Create(cctx, user.NewUser{
		Name:         name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	})

	if err != nil {
		RespondErr(ctx, err)
		return
	}

	h.respondWithToken(ctx, http.StatusCreated, "User registered successfully", u)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// same bcrypt cost as a wrong password
			h.hasher.Dummy(req.Password)
			h.prom.AuthFailure("unknown_email")
			RespondErr(ctx, errInvalidCredentials)
			return
		}
		RespondErr(ctx, err)
		return
	}

	if !h.hasher.Verify(req.Password, foundUser.PasswordHash) {
		h.prom.AuthFailure("wrong_password")
		RespondErr(ctx, errInvalidCredentials)
		return
	}

	if !foundUser.IsActive {
		h.prom.AuthFailure("inactive_user")
		RespondErr(ctx, errInvalidCredentials)
		return
	}

	h.respondWithToken(ctx, http.StatusOK, "Login successful", foundUser)
}

func (h *AuthHandler) Me(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)
	if !ok {
		RespondErr(ctx, errNotLoggedIn)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, actor.ID)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondSuccess(ctx, http.StatusOK, "", gin.H{"user": u})
}

// UpdatePassword rotates the caller's password and returns a fresh token.
// Tokens issued earlier stay valid until they expire.
func (h *AuthHandler) UpdatePassword(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)
	if !ok {
		RespondErr(ctx, errNotLoggedIn)
		return
	}

	var req UpdatePasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.users.GetByID(cctx, actor.ID)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	if !h.hasher.Verify(req.CurrentPassword, u.PasswordHash) {
		h.prom.AuthFailure("wrong_current_password")
		RespondErr(ctx, errWrongPassword)
		return
	}

	hash, err := h.hasher.Hash(req.NewPassword)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	if err := h.userWriter.UpdatePassword(cctx, u.ID, hash); err != nil {
		RespondErr(ctx, err)
		return
	}

	token, expiresAt, err := h.tokens.Issue(u.ID, u.Role)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondSuccess(ctx, http.StatusOK, "Password updated successfully", tokenResponse{Token: token, ExpiresAt: expiresAt})
}

func (h *AuthHandler) respondWithToken(ctx *gin.Context, status int, message string, u user.User) {
	token, expiresAt, err := h.tokens.Issue(u.ID, u.Role)

	if err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondSuccess(ctx, status, message, tokenResponse{Token: token, ExpiresAt: expiresAt, User: &u})
}
