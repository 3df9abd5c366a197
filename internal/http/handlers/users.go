package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/geocoder89/taskhub/internal/apperr"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/utils"
	"github.com/gin-gonic/gin"
)

type UserAdminStore interface {
	GetByID(ctx context.Context, id string) (user.User, error)
	List(ctx context.Context, f user.ListUsersFilter) ([]user.User, int, error)
	Update(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error)
	Delete(ctx context.Context, id string) error
}

var (
	errInvalidRole     = apperr.Validation("invalid_role", "role must be one of user, admin")
	errInvalidIsActive = apperr.Validation("invalid_is_active", "isActive must be true or false")
	errSelfLockout     = apperr.Validation("self_lockout", "Admins cannot delete, deactivate or demote their own account")
)

// UsersHandler serves the admin-only user management routes.
type UsersHandler struct {
	repo UserAdminStore
}

func NewUsersHandler(repo UserAdminStore) *UsersHandler {
	return &UsersHandler{repo: repo}
}

type userListData struct {
	Users      []user.User    `json:"users"`
	Pagination utils.PageMeta `json:"pagination"`
}

func (h *UsersHandler) List(ctx *gin.Context) {
	var filter user.ListUsersFilter

	if raw := ctx.Query("role"); raw != "" {
		role, err := user.ParseRole(raw)
		if err != nil {
			RespondErr(ctx, errInvalidRole)
			return
		}
		filter.Role = &role
	}

	if raw := ctx.Query("isActive"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			RespondErr(ctx, errInvalidIsActive)
			return
		}
		filter.IsActive = &active
	}

	page := utils.ParsePage(ctx.Query("page"), ctx.Query("limit"))
	filter.Limit = page.Limit
	filter.Offset = page.Offset()

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	users, total, err := h.repo.List(cctx, filter)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondList(ctx, len(users), userListData{
		Users:      users,
		Pagination: utils.NewPageMeta(page, total),
	})
}

func (h *UsersHandler) Get(ctx *gin.Context) {
	id, ok := userIDParam(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.repo.GetByID(cctx, id)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondSuccess(ctx, http.StatusOK, "", gin.H{"user": u})
}

func (h *UsersHandler) Update(ctx *gin.Context) {
	id, ok := userIDParam(ctx)
	if !ok {
		return
	}

	var req user.UpdateUserRequest

	if !BindJSON(ctx, &req) {
		return
	}

	req.Normalize()
	if req.Empty() {
		RespondErr(ctx, errEmptyUpdate)
		return
	}
	if req.Name != nil {
		if n := len([]rune(*req.Name)); n < 1 || n > 50 {
			RespondErr(ctx, errInvalidName)
			return
		}
	}

	if isSelf(ctx, id) && ((req.IsActive != nil && !*req.IsActive) || (req.Role != nil && !req.Role.IsAdmin())) {
		RespondErr(ctx, errSelfLockout)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.repo.Update(cctx, id, req)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondSuccess(ctx, http.StatusOK, "User updated successfully", gin.H{"user": u})
}

// Delete removes the user together with every task they own.
func (h *UsersHandler) Delete(ctx *gin.Context) {
	id, ok := userIDParam(ctx)
	if !ok {
		return
	}

	if isSelf(ctx, id) {
		RespondErr(ctx, errSelfLockout)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.repo.Delete(cctx, id); err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondSuccess(ctx, http.StatusOK, "User deleted successfully", nil)
}

func userIDParam(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondErr(ctx, errInvalidID)
		return "", false
	}
	return id, true
}

func isSelf(ctx *gin.Context, id string) bool {
	actor, ok := middlewares.ActorFromContext(ctx)
	return ok && actor.ID == id
}
