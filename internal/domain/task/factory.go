package task

import (
	"time"

	"github.com/google/uuid"
)

// NewFromCreateRequest builds a task owned by ownerID. req must already be
// normalized.
func NewFromCreateRequest(ownerID string, req CreateTaskRequest) Task {
	now := time.Now().UTC()

	t := Task{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		UserID:      ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if req.DueDate != nil {
		d := req.DueDate.UTC()
		t.DueDate = &d
	}

	return t
}
