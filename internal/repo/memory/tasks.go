package memory

import (
	"context"
	"sort"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
)

type TasksRepo struct {
	s *Store
}

func (r *TasksRepo) Create(ctx context.Context, ownerID string, req task.CreateTaskRequest) (task.Task, error) {
	t := task.NewFromCreateRequest(ownerID, req)

	r.s.mu.Lock()
	r.s.tasks[t.ID] = t
	r.s.mu.Unlock()

	return t, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, id string) (task.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

func (r *TasksRepo) List(ctx context.Context, f task.ListTasksFilter) ([]task.Task, int, error) {
	r.s.mu.RLock()
	matched := make([]task.Task, 0)
	for _, t := range r.s.tasks {
		if t.UserID != f.UserID {
			continue
		}
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		if f.Priority != nil && t.Priority != *f.Priority {
			continue
		}
		matched = append(matched, t)
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if f.Sort.Field == task.SortDueDate {
			if ai, bj := matched[i].DueDate == nil, matched[j].DueDate == nil; ai != bj {
				return bj
			}
		}
		c := compareTasks(matched[i], matched[j], f.Sort.Field)
		if c == 0 {
			return matched[i].ID < matched[j].ID
		}
		if f.Sort.Desc {
			return c > 0
		}
		return c < 0
	})

	return window(matched, f.Offset, f.Limit), len(matched), nil
}

func (r *TasksRepo) Stats(ctx context.Context, userID string) (task.Stats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	counts := make(map[task.Status]int)
	total := 0
	for _, t := range r.s.tasks {
		if t.UserID != userID {
			continue
		}
		counts[t.Status]++
		total++
	}

	stats := task.Stats{TotalTasks: total, ByStatus: make([]task.StatusCount, 0, len(counts))}
	for _, s := range []task.Status{task.StatusPending, task.StatusInProgress, task.StatusCompleted} {
		if n := counts[s]; n > 0 {
			stats.ByStatus = append(stats.ByStatus, task.StatusCount{Status: s, Count: n})
		}
	}
	return stats, nil
}

func (r *TasksRepo) Update(ctx context.Context, id string, req task.UpdateTaskRequest) (task.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}

	t.Apply(req, time.Now().UTC())
	r.s.tasks[id] = t
	return t, nil
}

func (r *TasksRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tasks[id]; !ok {
		return task.ErrNotFound
	}
	delete(r.s.tasks, id)
	return nil
}

// compareTasks returns <0, 0, >0. Missing due dates compare equal here;
// List places them last in either direction.
func compareTasks(a, b task.Task, field task.SortField) int {
	switch field {
	case task.SortUpdatedAt:
		return a.UpdatedAt.Compare(b.UpdatedAt)
	case task.SortDueDate:
		if a.DueDate == nil || b.DueDate == nil {
			return 0
		}
		return a.DueDate.Compare(*b.DueDate)
	case task.SortPriority:
		return a.Priority.Rank() - b.Priority.Rank()
	case task.SortStatus:
		return compareStrings(string(a.Status), string(b.Status))
	case task.SortTitle:
		return compareStrings(a.Title, b.Title)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
