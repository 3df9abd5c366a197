package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, title, description, status, priority, due_date, user_id, created_at, updated_at`

// sortColumns whitelists the ORDER BY expression per sort field.
var sortColumns = map[task.SortField]string{
	task.SortCreatedAt: "created_at",
	task.SortUpdatedAt: "updated_at",
	task.SortDueDate:   "due_date",
	task.SortStatus:    "status",
	task.SortTitle:     "title",
	task.SortPriority:  "CASE priority WHEN 'low' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END",
}

type TasksRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{pool: pool, prom: prom}
}

func scanTask(row pgx.Row) (task.Task, error) {
	var t task.Task
	var status, priority string

	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&status,
		&priority,
		&t.DueDate,
		&t.UserID,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return task.Task{}, err
	}

	t.Status = task.Status(status)
	t.Priority = task.Priority(priority)
	return t, nil
}

func (r *TasksRepo) Create(ctx context.Context, ownerID string, req task.CreateTaskRequest) (task.Task, error) {
	t := task.NewFromCreateRequest(ownerID, req)

	err := r.prom.ObserveDB("tasks.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO tasks (id, title, description, status, priority, due_date, user_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), t.DueDate, t.UserID, t.CreatedAt, t.UpdatedAt,
		)
		return err
	})
	if err != nil {
		return task.Task{}, err
	}

	return t, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, id string) (task.Task, error) {
	var t task.Task

	err := r.prom.ObserveDB("tasks.get_by_id", func() error {
		var err error
		t, err = scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, err
	}
	return t, nil
}

func orderBy(s task.Sort) string {
	col, ok := sortColumns[s.Field]
	if !ok {
		col = sortColumns[task.SortCreatedAt]
	}

	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}

	clause := col + " " + dir
	if s.Field == task.SortDueDate {
		clause += " NULLS LAST"
	}
	return " ORDER BY " + clause + ", id ASC"
}

func (r *TasksRepo) List(ctx context.Context, f task.ListTasksFilter) ([]task.Task, int, error) {
	conds := []string{"user_id = $1"}
	args := []any{f.UserID}

	argsPosition := 2

	if f.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, string(*f.Status))
		argsPosition++
	}

	if f.Priority != nil {
		conds = append(conds, fmt.Sprintf("priority = $%d", argsPosition))
		args = append(args, string(*f.Priority))
		argsPosition++
	}

	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	err := r.prom.ObserveDB("tasks.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`+where, args...).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + taskColumns + ` FROM tasks` + where + orderBy(f.Sort) +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)
	args = append(args, f.Limit, f.Offset)

	output := make([]task.Task, 0, f.Limit)

	err = r.prom.ObserveDB("tasks.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			output = append(output, t)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

func (r *TasksRepo) Stats(ctx context.Context, userID string) (task.Stats, error) {
	counts := make(map[task.Status]int)

	err := r.prom.ObserveDB("tasks.stats", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT status, COUNT(*) FROM tasks WHERE user_id = $1 GROUP BY status`,
			userID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var status string
			var n int
			if err := rows.Scan(&status, &n); err != nil {
				return err
			}
			counts[task.Status(status)] = n
		}
		return rows.Err()
	})
	if err != nil {
		return task.Stats{}, err
	}

	stats := task.Stats{ByStatus: make([]task.StatusCount, 0, len(counts))}
	for _, s := range []task.Status{task.StatusPending, task.StatusInProgress, task.StatusCompleted} {
		if n := counts[s]; n > 0 {
			stats.ByStatus = append(stats.ByStatus, task.StatusCount{Status: s, Count: n})
			stats.TotalTasks += n
		}
	}
	return stats, nil
}

func (r *TasksRepo) Update(ctx context.Context, id string, req task.UpdateTaskRequest) (task.Task, error) {
	var status, priority *string
	if req.Status != nil {
		s := string(*req.Status)
		status = &s
	}
	if req.Priority != nil {
		p := string(*req.Priority)
		priority = &p
	}

	var t task.Task
	err := r.prom.ObserveDB("tasks.update", func() error {
		var err error
		t, err = scanTask(r.pool.QueryRow(ctx,
			`UPDATE tasks
			SET title = COALESCE($2, title),
				description = COALESCE($3, description),
				status = COALESCE($4, status),
				priority = COALESCE($5, priority),
				due_date = COALESCE($6, due_date),
				updated_at = NOW()
			WHERE id = $1
			RETURNING `+taskColumns,
			id, req.Title, req.Description, status, priority, req.DueDate,
		))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}
		return task.Task{}, err
	}
	return t, nil
}

func (r *TasksRepo) Delete(ctx context.Context, id string) error {
	var affected int64
	err := r.prom.ObserveDB("tasks.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return task.ErrNotFound
	}
	return nil
}
