package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, email, password_hash, role, is_active, created_at, updated_at`

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	return false
}

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	var role string

	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return user.User{}, err
	}

	u.Role, err = user.ParseRole(role)
	if err != nil {
		return user.User{}, fmt.Errorf("user %s: %w", u.ID, err)
	}

	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, nu user.NewUser) (user.User, error) {
	var u user.User
	now := time.Now().UTC()

	err := r.prom.ObserveDB("users.create", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`INSERT INTO users (id, name, email, password_hash, role, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, TRUE, $6, $6)
			RETURNING `+userColumns,
			uuid.NewString(), nu.Name, user.NormalizeEmail(nu.Email), nu.PasswordHash, string(nu.Role), now,
		))
		return err
	})

	if err != nil {
		if IsUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email",
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		user.NormalizeEmail(email),
	)
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id",
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	)
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, arg any) (user.User, error) {
	var u user.User

	err := r.prom.ObserveDB(op, func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx, query, arg))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}

		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) List(ctx context.Context, f user.ListUsersFilter) ([]user.User, int, error) {
	var conds []string
	var args []any

	argsPosition := 1

	if f.Role != nil {
		conds = append(conds, fmt.Sprintf("role = $%d", argsPosition))
		args = append(args, string(*f.Role))
		argsPosition++
	}

	if f.IsActive != nil {
		conds = append(conds, fmt.Sprintf("is_active = $%d", argsPosition))
		args = append(args, *f.IsActive)
		argsPosition++
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	err := r.prom.ObserveDB("users.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total)
	})
	if err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + userColumns + ` FROM users` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)
	args = append(args, f.Limit, f.Offset)

	output := make([]user.User, 0, f.Limit)

	err = r.prom.ObserveDB("users.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			output = append(output, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

func (r *UsersRepo) Update(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error) {
	var role *string
	if req.Role != nil {
		s := string(*req.Role)
		role = &s
	}

	var u user.User
	err := r.prom.ObserveDB("users.update", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`UPDATE users
			SET name = COALESCE($2, name),
				email = COALESCE($3, email),
				role = COALESCE($4, role),
				is_active = COALESCE($5, is_active),
				updated_at = NOW()
			WHERE id = $1
			RETURNING `+userColumns,
			id, req.Name, req.Email, role, req.IsActive,
		))
		return err
	})

	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return user.User{}, user.ErrNotFound
		case IsUniqueViolation(err):
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	var affected int64
	err := r.prom.ObserveDB("users.update_password", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
			id, passwordHash,
		)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return user.ErrNotFound
	}
	return nil
}

// Delete removes the user; tasks go with it via ON DELETE CASCADE.
func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	var affected int64
	err := r.prom.ObserveDB("users.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}

	// if no rows were deleted as a result return a not found error
	if affected == 0 {
		return user.ErrNotFound
	}
	return nil
}
