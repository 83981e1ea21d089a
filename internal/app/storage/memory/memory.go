// Package memory provides the in-memory TaskStore implementation.
package memory

import (
	"context"
	"sync"
	"time"

	core "github.com/taskchain/backend/internal/app/core/service"
	"github.com/taskchain/backend/internal/app/domain/task"
	"github.com/taskchain/backend/internal/app/storage"
)

// Store is an in-memory implementation of storage.TaskStore. It is safe for
// concurrent use. Listing preserves insertion order, though that order is not
// part of the store contract.
type Store struct {
	mu    sync.RWMutex
	order []string
	tasks map[string]task.Task
}

var _ storage.TaskStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		tasks: make(map[string]task.Task),
	}
}

func (s *Store) CreateTask(_ context.Context, t task.Task) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[t.ID]; exists {
		return task.Task{}, core.NewConflictError("task", t.ID, "id already in use")
	}

	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	s.tasks[t.ID] = t
	s.order = append(s.order, t.ID)
	return t, nil
}

func (s *Store) GetTask(_ context.Context, id string) (task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return task.Task{}, core.NewNotFoundError("task", id)
	}
	return t, nil
}

func (s *Store) UpdateTask(_ context.Context, t task.Task) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.tasks[t.ID]
	if !ok {
		return task.Task{}, core.NewNotFoundError("task", t.ID)
	}

	t.CreatedAt = original.CreatedAt
	t.UpdatedAt = time.Now().UTC()

	s.tasks[t.ID] = t
	return t, nil
}

func (s *Store) ListTasks(_ context.Context, f task.Filter) ([]task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]task.Task, 0, len(s.order))
	for _, id := range s.order {
		if t := s.tasks[id]; f.Matches(t) {
			result = append(result, t)
		}
	}
	return result, nil
}

func (s *Store) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return core.NewNotFoundError("task", id)
	}

	delete(s.tasks, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
