package memory

import (
	"context"
	"sort"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/google/uuid"
)

type UsersRepo struct {
	s *Store
}

func (r *UsersRepo) Create(ctx context.Context, nu user.NewUser) (user.User, error) {
	now := time.Now().UTC()
	u := user.User{
		ID:           uuid.NewString(),
		Name:         nu.Name,
		Email:        user.NormalizeEmail(nu.Email),
		PasswordHash: nu.PasswordHash,
		Role:         nu.Role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.byEmail[u.Email]; taken {
		return user.User{}, user.ErrEmailTaken
	}

	r.s.users[u.ID] = u
	r.s.byEmail[u.Email] = u.ID

	return u, nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.byEmail[user.NormalizeEmail(email)]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return r.s.users[id], nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) List(ctx context.Context, f user.ListUsersFilter) ([]user.User, int, error) {
	r.s.mu.RLock()
	matched := make([]user.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		if f.Role != nil && u.Role != *f.Role {
			continue
		}
		if f.IsActive != nil && u.IsActive != *f.IsActive {
			continue
		}
		matched = append(matched, u)
	}
	r.s.mu.RUnlock()

	// newest first, id as tie-break
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	return window(matched, f.Offset, f.Limit), len(matched), nil
}

func (r *UsersRepo) Update(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if req.Email != nil && *req.Email != u.Email {
		if _, taken := r.s.byEmail[*req.Email]; taken {
			return user.User{}, user.ErrEmailTaken
		}
		delete(r.s.byEmail, u.Email)
		u.Email = *req.Email
		r.s.byEmail[u.Email] = u.ID
	}
	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	u.UpdatedAt = time.Now().UTC()

	r.s.users[id] = u
	return u, nil
}

func (r *UsersRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = time.Now().UTC()
	r.s.users[id] = u
	return nil
}

// Delete removes the user and every task they own.
func (r *UsersRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.ErrNotFound
	}

	delete(r.s.users, id)
	delete(r.s.byEmail, u.Email)

	for tid, t := range r.s.tasks {
		if t.UserID == id {
			delete(r.s.tasks, tid)
		}
	}
	return nil
}

func window[T any](items []T, offset, limit int) []T {
	if offset < 0 || offset >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return items[offset:end]
}
