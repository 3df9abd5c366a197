package memory

import (
	"sync"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
)

// Store keeps users and tasks in process memory. Users and tasks share one
// lock so deleting a user and their tasks is a single step.
type Store struct {
	mu      sync.RWMutex
	users   map[string]user.User
	byEmail map[string]string
	tasks   map[string]task.Task
}

func NewStore() *Store {
	return &Store{
		users:   make(map[string]user.User),
		byEmail: make(map[string]string),
		tasks:   make(map[string]task.Task),
	}
}

func (s *Store) Users() *UsersRepo {
	return &UsersRepo{s: s}
}

func (s *Store) Tasks() *TasksRepo {
	return &TasksRepo{s: s}
}
