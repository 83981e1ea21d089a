// Package app wires the domain services together.
package app

import (
	"context"
	"fmt"

	"github.com/taskchain/backend/internal/app/domain/task"
	achievementssvc "github.com/taskchain/backend/internal/app/services/achievements"
	taskssvc "github.com/taskchain/backend/internal/app/services/tasks"
	"github.com/taskchain/backend/internal/app/storage"
	"github.com/taskchain/backend/internal/app/storage/memory"
	"github.com/taskchain/backend/internal/chain"
	"github.com/taskchain/backend/internal/config"
	"github.com/taskchain/backend/internal/payment"
	"github.com/taskchain/backend/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Tasks storage.TaskStore
}

// Dependencies holds the external collaborators the services drive.
type Dependencies struct {
	// Gateway binds the achievement contract. When nil the achievement
	// endpoints are not wired and task completions stay local.
	Gateway achievementssvc.Gateway

	// Payments creates checkout sessions. May be nil in tests.
	Payments payment.SessionCreator

	NotifyPolicy    config.NotifyPolicy
	AllowDirectMint bool
	DefaultBadgeURI string
}

// Application ties domain services together.
type Application struct {
	log *logger.Logger

	Tasks        *taskssvc.Service
	Achievements *achievementssvc.Service
	Payments     payment.SessionCreator
}

// New builds a fully initialised application with the provided stores and
// collaborators.
func New(stores Stores, deps Dependencies, log *logger.Logger) (*Application, error) {
	if log == nil {
		log = logger.NewDefault("app")
	}
	if stores.Tasks == nil {
		stores.Tasks = memory.New()
	}
	if deps.NotifyPolicy == "" {
		deps.NotifyPolicy = config.NotifyBestEffort
	}

	taskOpts := []taskssvc.Option{
		taskssvc.WithNotifyPolicy(deps.NotifyPolicy),
	}

	var achievementsSvc *achievementssvc.Service
	if deps.Gateway != nil {
		achievementsSvc = achievementssvc.New(deps.Gateway, log.Named("achievements"),
			achievementssvc.WithDirectMint(deps.AllowDirectMint),
			achievementssvc.WithDefaultBadgeURI(deps.DefaultBadgeURI),
		)
		taskOpts = append(taskOpts,
			taskssvc.WithNotifier(completionNotifier{svc: achievementsSvc}),
			taskssvc.WithAddressValidator(chain.ValidateAddress),
		)
	}

	return &Application{
		log:          log,
		Tasks:        taskssvc.New(stores.Tasks, log.Named("tasks"), taskOpts...),
		Achievements: achievementsSvc,
		Payments:     deps.Payments,
	}, nil
}

// Seed creates the given tasks when the store is empty. Seeding never fires
// the completion side effect, even for tasks seeded as completed.
func (a *Application) Seed(ctx context.Context, seed *config.SeedConfig) error {
	if seed == nil || len(seed.Tasks) == 0 {
		return nil
	}

	existing, err := a.Tasks.List(ctx, task.Filter{})
	if err != nil {
		return fmt.Errorf("check store before seeding: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, st := range seed.Tasks {
		t := task.Task{Text: st.Text, Completed: st.Completed, Owner: seed.Owner}
		if _, err := a.Tasks.Create(ctx, t); err != nil {
			return fmt.Errorf("seed task %q: %w", st.Text, err)
		}
	}
	a.log.With("count", len(seed.Tasks)).Info("seeded task store")
	return nil
}

// completionNotifier adapts the achievements service to the tasks service's
// notifier interface, discarding the transaction result.
type completionNotifier struct {
	svc *achievementssvc.Service
}

func (n completionNotifier) RecordCompletion(ctx context.Context, owner string) error {
	_, err := n.svc.RecordCompletion(ctx, owner)
	return err
}
