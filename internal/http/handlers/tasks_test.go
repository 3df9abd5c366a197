package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/taskhub/internal/actorctx"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

type fakeTasksRepo struct {
	createFn func(ctx context.Context, ownerID string, req task.CreateTaskRequest) (task.Task, error)
	getFn    func(ctx context.Context, id string) (task.Task, error)
	listFn   func(ctx context.Context, f task.ListTasksFilter) ([]task.Task, int, error)
	statsFn  func(ctx context.Context, userID string) (task.Stats, error)
	updateFn func(ctx context.Context, id string, req task.UpdateTaskRequest) (task.Task, error)
	deleteFn func(ctx context.Context, id string) error
}

func (f *fakeTasksRepo) Create(ctx context.Context, ownerID string, req task.CreateTaskRequest) (task.Task, error) {
	if f.createFn != nil {
		return f.createFn(ctx, ownerID, req)
	}
	return task.NewFromCreateRequest(ownerID, req), nil
}

func (f *fakeTasksRepo) GetByID(ctx context.Context, id string) (task.Task, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return task.Task{}, task.ErrNotFound
}

func (f *fakeTasksRepo) List(ctx context.Context, filter task.ListTasksFilter) ([]task.Task, int, error) {
	if f.listFn != nil {
		return f.listFn(ctx, filter)
	}
	return []task.Task{}, 0, nil
}

func (f *fakeTasksRepo) Stats(ctx context.Context, userID string) (task.Stats, error) {
	if f.statsFn != nil {
		return f.statsFn(ctx, userID)
	}
	return task.Stats{ByStatus: []task.StatusCount{}}, nil
}

func (f *fakeTasksRepo) Update(ctx context.Context, id string, req task.UpdateTaskRequest) (task.Task, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, req)
	}
	return task.Task{}, task.ErrNotFound
}

func (f *fakeTasksRepo) Delete(ctx context.Context, id string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return nil
}

// tasksRouter mounts the handler behind a stub that plays the auth middleware.
func tasksRouter(repo handlers.TaskStore, actor *actorctx.Actor) *gin.Engine {
	h := handlers.NewTasksHandler(repo)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if actor != nil {
			middlewares.SetActor(c, *actor)
		}
		c.Next()
	})
	r.GET("/tasks", h.List)
	r.GET("/tasks/stats", h.Stats)
	r.POST("/tasks", h.Create)
	r.GET("/tasks/:id", h.Get)
	r.PUT("/tasks/:id", h.Update)
	r.DELETE("/tasks/:id", h.Delete)
	return r
}

func send(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTaskOwnershipMatrix(t *testing.T) {
	ownerID := uuid.NewString()
	taskID := uuid.NewString()
	stored := task.Task{ID: taskID, Title: "owned", Status: task.StatusPending, Priority: task.PriorityLow, UserID: ownerID}

	repo := &fakeTasksRepo{
		getFn: func(_ context.Context, id string) (task.Task, error) {
			if id == taskID {
				return stored, nil
			}
			return task.Task{}, task.ErrNotFound
		},
		updateFn: func(_ context.Context, id string, req task.UpdateTaskRequest) (task.Task, error) {
			out := stored
			out.Apply(req, stored.UpdatedAt)
			return out, nil
		},
	}

	owner := &actorctx.Actor{ID: ownerID, Role: user.RoleUser}
	stranger := &actorctx.Actor{ID: uuid.NewString(), Role: user.RoleUser}
	admin := &actorctx.Actor{ID: uuid.NewString(), Role: user.RoleAdmin}

	type call struct{ method, body string }
	calls := []call{
		{http.MethodGet, ""},
		{http.MethodPut, `{"status":"completed"}`},
		{http.MethodDelete, ""},
	}

	tests := []struct {
		name  string
		actor *actorctx.Actor
		path  string
		want  int
	}{
		{"owner", owner, "/tasks/" + taskID, http.StatusOK},
		{"admin", admin, "/tasks/" + taskID, http.StatusOK},
		{"stranger", stranger, "/tasks/" + taskID, http.StatusForbidden},
		{"missing task beats ownership", stranger, "/tasks/" + uuid.NewString(), http.StatusNotFound},
		{"malformed id", owner, "/tasks/abc", http.StatusBadRequest},
		{"no identity", nil, "/tasks/" + taskID, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		for _, c := range calls {
			t.Run(tt.name+" "+c.method, func(t *testing.T) {
				w := send(tasksRouter(repo, tt.actor), c.method, tt.path, c.body)
				require.Equal(t, tt.want, w.Code, w.Body.String())
			})
		}
	}
}

func TestCreateTaskUsesActorAsOwner(t *testing.T) {
	actor := &actorctx.Actor{ID: uuid.NewString(), Role: user.RoleUser}

	var gotOwner string
	repo := &fakeTasksRepo{
		createFn: func(_ context.Context, ownerID string, req task.CreateTaskRequest) (task.Task, error) {
			gotOwner = ownerID
			return task.NewFromCreateRequest(ownerID, req), nil
		},
	}

	w := send(tasksRouter(repo, actor), http.MethodPost, "/tasks", `{"title":"  Plan sprint  ","userId":"attacker","user":"attacker"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.Equal(t, actor.ID, gotOwner)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Task task.Task `json:"task"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "success", resp.Status)
	require.Equal(t, "Plan sprint", resp.Data.Task.Title)
	require.Equal(t, actor.ID, resp.Data.Task.UserID)
}

func TestListTasksPassesFilters(t *testing.T) {
	actor := &actorctx.Actor{ID: uuid.NewString(), Role: user.RoleAdmin}

	var got task.ListTasksFilter
	repo := &fakeTasksRepo{
		listFn: func(_ context.Context, f task.ListTasksFilter) ([]task.Task, int, error) {
			got = f
			return []task.Task{}, 42, nil
		},
	}

	w := send(tasksRouter(repo, actor), http.MethodGet, "/tasks?status=in-progress&priority=high&page=3&limit=500&sort=-dueDate", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// admins list their own tasks too
	require.Equal(t, actor.ID, got.UserID)
	require.Equal(t, task.StatusInProgress, *got.Status)
	require.Equal(t, task.PriorityHigh, *got.Priority)
	require.Equal(t, task.Sort{Field: task.SortDueDate, Desc: true}, got.Sort)
	require.Equal(t, 100, got.Limit)
	require.Equal(t, 200, got.Offset)

	var resp struct {
		Results int `json:"results"`
		Data    struct {
			Pagination struct {
				CurrentPage int `json:"currentPage"`
				TotalPages  int `json:"totalPages"`
				TotalItems  int `json:"totalItems"`
			} `json:"pagination"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 0, resp.Results)
	require.Equal(t, 3, resp.Data.Pagination.CurrentPage)
	require.Equal(t, 1, resp.Data.Pagination.TotalPages)
	require.Equal(t, 42, resp.Data.Pagination.TotalItems)
}

func TestStoreFailuresAreOpaque500s(t *testing.T) {
	actor := &actorctx.Actor{ID: uuid.NewString(), Role: user.RoleUser}
	boom := errors.New("pq: connection reset by peer")

	repo := &fakeTasksRepo{
		listFn:  func(context.Context, task.ListTasksFilter) ([]task.Task, int, error) { return nil, 0, boom },
		statsFn: func(context.Context, string) (task.Stats, error) { return task.Stats{}, boom },
	}

	gin.SetMode(gin.ReleaseMode)
	defer gin.SetMode(gin.TestMode)

	for _, path := range []string{"/tasks", "/tasks/stats"} {
		w := send(tasksRouter(repo, actor), http.MethodGet, path, "")
		require.Equal(t, http.StatusInternalServerError, w.Code)
		require.NotContains(t, w.Body.String(), "connection reset")
		require.Contains(t, w.Body.String(), `"internal_error"`)
	}
}

func TestTaskStats(t *testing.T) {
	actor := &actorctx.Actor{ID: uuid.NewString(), Role: user.RoleUser}

	repo := &fakeTasksRepo{
		statsFn: func(_ context.Context, userID string) (task.Stats, error) {
			require.Equal(t, actor.ID, userID)
			return task.Stats{TotalTasks: 3, ByStatus: []task.StatusCount{{Status: task.StatusPending, Count: 3}}}, nil
		},
	}

	w := send(tasksRouter(repo, actor), http.MethodGet, "/tasks/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"status":"success","data":{"totalTasks":3,"byStatus":[{"status":"pending","count":3}]}}`, w.Body.String())
}

func TestUpdateChecksOwnershipBeforeBody(t *testing.T) {
	ownerID := uuid.NewString()
	taskID := uuid.NewString()

	updates := 0
	repo := &fakeTasksRepo{
		getFn: func(_ context.Context, id string) (task.Task, error) {
			if id == taskID {
				return task.Task{ID: taskID, Title: "owned", UserID: ownerID}, nil
			}
			return task.Task{}, task.ErrNotFound
		},
		updateFn: func(context.Context, string, task.UpdateTaskRequest) (task.Task, error) {
			updates++
			return task.Task{}, nil
		},
	}

	owner := &actorctx.Actor{ID: ownerID, Role: user.RoleUser}
	stranger := &actorctx.Actor{ID: uuid.NewString(), Role: user.RoleUser}

	tests := []struct {
		name     string
		actor    *actorctx.Actor
		path     string
		body     string
		want     int
		wantCode string
	}{
		{"stranger empty body", stranger, "/tasks/" + taskID, `{}`, http.StatusForbidden, "forbidden"},
		{"stranger invalid body", stranger, "/tasks/" + taskID, `{"status":"done"}`, http.StatusForbidden, "forbidden"},
		{"stranger broken json", stranger, "/tasks/" + taskID, `{"title":`, http.StatusForbidden, "forbidden"},
		{"missing task empty body", stranger, "/tasks/" + uuid.NewString(), `{}`, http.StatusNotFound, ""},
		{"owner empty body", owner, "/tasks/" + taskID, `{}`, http.StatusBadRequest, "empty_update"},
		{"owner invalid body", owner, "/tasks/" + taskID, `{"status":"done"}`, http.StatusBadRequest, "invalid_request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := send(tasksRouter(repo, tt.actor), http.MethodPut, tt.path, tt.body)
			require.Equal(t, tt.want, w.Code, w.Body.String())

			if tt.wantCode != "" {
				var resp handlers.APIError
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				require.Equal(t, tt.wantCode, resp.Code)
			}
		})
	}

	require.Zero(t, updates)
}
