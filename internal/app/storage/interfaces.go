// Package storage defines persistence interfaces for the application. The
// store implementation owns its own locking or transactional discipline;
// services and handlers never synchronise store access themselves.
package storage

import (
	"context"

	"github.com/taskchain/backend/internal/app/domain/task"
)

// TaskStore persists task records.
type TaskStore interface {
	CreateTask(ctx context.Context, t task.Task) (task.Task, error)
	GetTask(ctx context.Context, id string) (task.Task, error)
	UpdateTask(ctx context.Context, t task.Task) (task.Task, error)
	ListTasks(ctx context.Context, f task.Filter) ([]task.Task, error)
	DeleteTask(ctx context.Context, id string) error
}
