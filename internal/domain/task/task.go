package task

import (
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/apperr"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Rank orders priorities low < medium < high.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	default:
		return -1
	}
}

func (p Priority) Valid() bool {
	return p.Rank() >= 0
}

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      Status     `json:"status"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	UserID      string     `json:"userId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

var (
	ErrNotFound     = apperr.NotFound("task_not_found", "Task not found")
	ErrInvalidTitle = apperr.Validation("invalid_title", "Title must be between 3 and 100 characters.")
)

// CreateTaskRequest has no owner field. The owner is the authenticated actor.
type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required,min=3,max=100"`
	Description string     `json:"description" binding:"omitempty,max=500"`
	Status      Status     `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Priority    Priority   `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate"`
}

// partial update, nil fields are left untouched
type UpdateTaskRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=3,max=100"`
	Description *string    `json:"description" binding:"omitempty,max=500"`
	Status      *Status    `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Priority    *Priority  `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate"`
}

func (r *CreateTaskRequest) Normalize() error {
	title, err := normalizeTitle(r.Title)
	if err != nil {
		return err
	}
	r.Title = title
	r.Description = strings.TrimSpace(r.Description)

	if r.Status == "" {
		r.Status = StatusPending
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	return nil
}

func (r *UpdateTaskRequest) Normalize() error {
	if r.Title != nil {
		title, err := normalizeTitle(*r.Title)
		if err != nil {
			return err
		}
		r.Title = &title
	}
	if r.Description != nil {
		d := strings.TrimSpace(*r.Description)
		r.Description = &d
	}
	return nil
}

// Apply copies the set fields of req onto t.
func (t *Task) Apply(req UpdateTaskRequest, now time.Time) {
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		t.Description = *req.Description
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.DueDate != nil {
		d := req.DueDate.UTC()
		t.DueDate = &d
	}
	t.UpdatedAt = now
}

func normalizeTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	n := len([]rune(title))
	if n < 3 || n > 100 {
		return "", ErrInvalidTitle
	}
	return title, nil
}

// with pointers if optional, it will be nil
type ListTasksFilter struct {
	UserID   string
	Status   *Status
	Priority *Priority
	Sort     Sort
	Limit    int
	Offset   int
}

type StatusCount struct {
	Status Status `json:"status"`
	Count  int    `json:"count"`
}

type Stats struct {
	TotalTasks int           `json:"totalTasks"`
	ByStatus   []StatusCount `json:"byStatus"`
}
