package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/taskhub/internal/apperr"
	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/utils"
	"github.com/gin-gonic/gin"
)

type TaskStore interface {
	Create(ctx context.Context, ownerID string, req task.CreateTaskRequest) (task.Task, error)
	GetByID(ctx context.Context, id string) (task.Task, error)
	List(ctx context.Context, f task.ListTasksFilter) ([]task.Task, int, error)
	Stats(ctx context.Context, userID string) (task.Stats, error)
	Update(ctx context.Context, id string, req task.UpdateTaskRequest) (task.Task, error)
	Delete(ctx context.Context, id string) error
}

var (
	errInvalidID       = apperr.Validation("invalid_id", "id must be a valid UUID")
	errInvalidStatus   = apperr.Validation("invalid_status", "status must be one of pending, in-progress, completed")
	errInvalidPriority = apperr.Validation("invalid_priority", "priority must be one of low, medium, high")
	errEmptyUpdate     = apperr.Validation("empty_update", "Provide at least one field to update")
)

type TasksHandler struct {
	repo TaskStore
}

func NewTasksHandler(repo TaskStore) *TasksHandler {
	return &TasksHandler{repo: repo}
}

type taskListData struct {
	Tasks      []task.Task    `json:"tasks"`
	Pagination utils.PageMeta `json:"pagination"`
}

// List returns the caller's own tasks.
func (h *TasksHandler) List(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)
	if !ok {
		RespondErr(ctx, errNotLoggedIn)
		return
	}

	filter := task.ListTasksFilter{UserID: actor.ID}

	if raw := ctx.Query("status"); raw != "" {
		s := task.Status(raw)
		if !s.Valid() {
			RespondErr(ctx, errInvalidStatus)
			return
		}
		filter.Status = &s
	}

	if raw := ctx.Query("priority"); raw != "" {
		p := task.Priority(raw)
		if !p.Valid() {
			RespondErr(ctx, errInvalidPriority)
			return
		}
		filter.Priority = &p
	}

	sort, err := task.ParseSort(ctx.Query("sort"))
	if err != nil {
		RespondErr(ctx, err)
		return
	}
	filter.Sort = sort

	page := utils.ParsePage(ctx.Query("page"), ctx.Query("limit"))
	filter.Limit = page.Limit
	filter.Offset = page.Offset()

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	tasks, total, err := h.repo.List(cctx, filter)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondList(ctx, len(tasks), taskListData{
		Tasks:      tasks,
		Pagination: utils.NewPageMeta(page, total),
	})
}

func (h *TasksHandler) Stats(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)
	if !ok {
		RespondErr(ctx, errNotLoggedIn)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	stats, err := h.repo.Stats(cctx, actor.ID)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondSuccess(ctx, http.StatusOK, "", stats)
}

func (h *TasksHandler) Get(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	t, ok := h.loadAuthorized(cctx, ctx)
	if !ok {
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, Envelope{Status: "success", Data: gin.H{"task": t}})
}

func (h *TasksHandler) Create(ctx *gin.Context) {
	actor, ok := middlewares.ActorFromContext(ctx)
	if !ok {
		RespondErr(ctx, errNotLoggedIn)
		return
	}

	var req task.CreateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := req.Normalize(); err != nil {
		RespondErr(ctx, err)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	// owner is always the verified caller
	t, err := h.repo.Create(cctx, actor.ID, req)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	ctx.Header("Location", ctx.FullPath()+"/"+t.ID)
	RespondSuccess(ctx, http.StatusCreated, "Task created successfully", gin.H{"task": t})
}

// Update runs the ownership guard before looking at the body, so a caller
// who may not touch the task gets 404/403 whatever they send.
func (h *TasksHandler) Update(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	existing, ok := h.loadAuthorized(cctx, ctx)
	if !ok {
		return
	}

	var req task.UpdateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := req.Normalize(); err != nil {
		RespondErr(ctx, err)
		return
	}
	if req.Title == nil && req.Description == nil && req.Status == nil && req.Priority == nil && req.DueDate == nil {
		RespondErr(ctx, errEmptyUpdate)
		return
	}

	t, err := h.repo.Update(cctx, existing.ID, req)
	if err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondSuccess(ctx, http.StatusOK, "Task updated successfully", gin.H{"task": t})
}

func (h *TasksHandler) Delete(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	existing, ok := h.loadAuthorized(cctx, ctx)
	if !ok {
		return
	}

	if err := h.repo.Delete(cctx, existing.ID); err != nil {
		RespondErr(ctx, err)
		return
	}

	RespondSuccess(ctx, http.StatusOK, "Task deleted successfully", nil)
}

// loadAuthorized fetches the task named by :id and applies the ownership
// guard. A missing task is 404 before ownership is considered.
func (h *TasksHandler) loadAuthorized(cctx context.Context, ctx *gin.Context) (task.Task, bool) {
	actor, ok := middlewares.ActorFromContext(ctx)
	if !ok {
		RespondErr(ctx, errNotLoggedIn)
		return task.Task{}, false
	}

	id := ctx.Param("id")
	if !utils.IsUUID(id) {
		RespondErr(ctx, errInvalidID)
		return task.Task{}, false
	}

	t, err := h.repo.GetByID(cctx, id)
	if err != nil {
		RespondErr(ctx, err)
		return task.Task{}, false
	}

	if err := auth.Authorize(actor, t.UserID); err != nil {
		RespondErr(ctx, err)
		return task.Task{}, false
	}

	return t, true
}
