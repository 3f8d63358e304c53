package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"rentdesk/internal/app/aggregates"
)

// Reconciler is the periodic aggregate repair job.
type Reconciler interface {
	RefreshAll(ctx context.Context) (aggregates.Targets, error)
}

// Scheduler runs background jobs on a gocron scheduler.
type Scheduler struct {
	sched  gocron.Scheduler
	logger *slog.Logger
}

func New(logger *slog.Logger) (*Scheduler, error) {
	s, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{sched: s, logger: logger}, nil
}

// AddReconcile refreshes every counter each interval. Runs never overlap.
func (s *Scheduler) AddReconcile(ctx context.Context, every time.Duration, rec Reconciler) error {
	if every <= 0 {
		return fmt.Errorf("schedule: reconcile interval must be positive, got %s", every)
	}
	_, err := s.sched.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() { s.reconcile(ctx, rec) }),
		gocron.WithName("aggregates.reconcile"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

func (s *Scheduler) reconcile(ctx context.Context, rec Reconciler) {
	if ctx.Err() != nil {
		return
	}
	started := time.Now()
	targets, err := rec.RefreshAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "reconcile failed", "error", err)
		return
	}
	s.logger.InfoContext(ctx, "reconcile finished",
		"owners", len(targets.Owners),
		"tenants", len(targets.Tenants),
		"listings", len(targets.Listings),
		"took", time.Since(started))
}

func (s *Scheduler) Jobs() int { return len(s.sched.Jobs()) }

func (s *Scheduler) Start() { s.sched.Start() }

func (s *Scheduler) Shutdown() error { return s.sched.Shutdown() }
