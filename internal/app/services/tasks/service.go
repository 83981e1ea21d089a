// Package tasks implements task CRUD and the completion side effect.
package tasks

import (
	"context"
	"strings"

	"github.com/google/uuid"

	core "github.com/taskchain/backend/internal/app/core/service"
	"github.com/taskchain/backend/internal/app/domain/task"
	"github.com/taskchain/backend/internal/app/storage"
	"github.com/taskchain/backend/internal/config"
	"github.com/taskchain/backend/pkg/logger"
)

// CompletionNotifier records one completed task for an owner on-chain. The
// tasks service calls it exactly once per false-to-true completion
// transition.
type CompletionNotifier interface {
	RecordCompletion(ctx context.Context, owner string) error
}

// AddressValidator checks an owner address format.
type AddressValidator func(string) error

// Service manages task records and fires the completion side effect.
type Service struct {
	store    storage.TaskStore
	notifier CompletionNotifier
	validate AddressValidator
	policy   config.NotifyPolicy
	log      *logger.Logger
}

// Option configures the service.
type Option func(*Service)

// WithNotifier attaches the completion notifier.
func WithNotifier(n CompletionNotifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithNotifyPolicy selects how notifier failures affect the caller.
func WithNotifyPolicy(p config.NotifyPolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithAddressValidator overrides owner address validation.
func WithAddressValidator(v AddressValidator) Option {
	return func(s *Service) { s.validate = v }
}

// New creates the tasks service.
func New(store storage.TaskStore, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.NewDefault("tasks")
	}
	svc := &Service{
		store:  store,
		policy: config.NotifyBestEffort,
		log:    log,
		validate: func(owner string) error {
			if strings.TrimSpace(owner) == "" {
				return core.RequiredError("owner")
			}
			return nil
		},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// List returns tasks matching the filter.
func (s *Service) List(ctx context.Context, f task.Filter) ([]task.Task, error) {
	return s.store.ListTasks(ctx, f)
}

// Get returns one task by id.
func (s *Service) Get(ctx context.Context, id string) (task.Task, error) {
	return s.store.GetTask(ctx, id)
}

// Create validates and stores a new task, assigning an id when the caller
// did not supply one. Creating a task that is already completed does not
// fire the completion side effect.
func (s *Service) Create(ctx context.Context, t task.Task) (task.Task, error) {
	text, err := normalizeText(t.Text)
	if err != nil {
		return task.Task{}, err
	}
	t.Text = text

	if err := s.validate(t.Owner); err != nil {
		return task.Task{}, core.NewValidationError("owner", err.Error())
	}

	if strings.TrimSpace(t.ID) == "" {
		t.ID = uuid.NewString()
	}

	return s.store.CreateTask(ctx, t)
}

// Update applies a partial patch to a task. A false-to-true transition of
// the completed flag notifies the chain gateway once; the store mutation is
// never rolled back if that notification fails.
func (s *Service) Update(ctx context.Context, id string, patch task.Patch) (task.Task, error) {
	existing, err := s.store.GetTask(ctx, id)
	if err != nil {
		return task.Task{}, err
	}

	updated := existing
	if patch.Text != nil {
		text, err := normalizeText(*patch.Text)
		if err != nil {
			return task.Task{}, err
		}
		updated.Text = text
	}
	if patch.Completed != nil {
		updated.Completed = *patch.Completed
	}

	stored, err := s.store.UpdateTask(ctx, updated)
	if err != nil {
		return task.Task{}, err
	}

	if !existing.Completed && stored.Completed {
		if err := s.notifyCompleted(ctx, stored); err != nil {
			return task.Task{}, err
		}
	}

	return stored, nil
}

// Delete removes a task. Deleting a completed task never reverses any
// on-chain counter; achievements are monotonic.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteTask(ctx, id)
}

func (s *Service) notifyCompleted(ctx context.Context, t task.Task) error {
	if s.notifier == nil {
		return nil
	}

	err := s.notifier.RecordCompletion(ctx, t.Owner)
	if err == nil {
		return nil
	}

	if s.policy == config.NotifyRequired {
		return core.NewDependencyError("chain", err)
	}

	// Best-effort policy: the task stays completed locally even though the
	// on-chain counter was not advanced.
	s.log.WithError(err).
		WithField("task_id", t.ID).
		WithField("owner", t.Owner).
		Warn("completion recorded locally but chain notification failed")
	return nil
}

func normalizeText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", core.NewValidationError("text", "must not be empty")
	}
	return text, nil
}
