package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/edgard/chatwidget/internal/app/tasks"
	"github.com/edgard/chatwidget/internal/config"
)

// Scheduler runs the configured background tasks using gocron.
type Scheduler struct {
	scheduler gocron.Scheduler
	logger    *slog.Logger
	cfg       *config.SchedulerConfig
	taskMap   map[string]tasks.ScheduledTaskFunc
	mu        sync.Mutex
	running   bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler creates a scheduler for the registered tasks.
func NewScheduler(logger *slog.Logger, cfg *config.SchedulerConfig, taskMap map[string]tasks.ScheduledTaskFunc) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}

	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		scheduler: s,
		logger:    logger.With("component", "scheduler"),
		cfg:       cfg,
		taskMap:   taskMap,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// jobDefinition picks a cron or interval definition for the task. ok is false
// when neither is configured.
func jobDefinition(tc config.TaskConfig) (def gocron.JobDefinition, desc string, ok bool) {
	switch {
	case tc.Schedule != "":
		return gocron.CronJob(tc.Schedule, true), tc.Schedule, true
	case tc.Interval > 0:
		return gocron.DurationJob(tc.Interval), "every " + tc.Interval.String(), true
	default:
		return nil, "", false
	}
}

// Start schedules every enabled task that has a registered implementation
// and starts ticking.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler is already running")
	}

	scheduled := 0
	if s.cfg != nil {
		for name, tc := range s.cfg.Tasks {
			if !tc.Enabled {
				s.logger.Debug("Skipping disabled task", "task_name", name)
				continue
			}

			taskFunc, exists := s.taskMap[name]
			if !exists {
				s.logger.Warn("Scheduled task configured but not available, skipping", "task_name", name)
				continue
			}

			def, desc, ok := jobDefinition(tc)
			if !ok {
				s.logger.Warn("Scheduled task enabled without schedule or interval, skipping", "task_name", name)
				continue
			}

			_, err := s.scheduler.NewJob(
				def,
				gocron.NewTask(s.wrap(name, taskFunc), s.ctx),
				gocron.WithName(name),
				gocron.WithSingletonMode(gocron.LimitModeReschedule),
			)
			if err != nil {
				s.logger.Error("Failed to schedule task", "task_name", name, "schedule", desc, "error", err)
				continue
			}

			s.logger.Info("Scheduled task", "task_name", name, "schedule", desc)
			scheduled++
		}
	}

	s.scheduler.Start()
	s.running = true
	s.logger.Info("Scheduler started", "tasks_scheduled", scheduled)
	return nil
}

func (s *Scheduler) wrap(name string, fn tasks.ScheduledTaskFunc) func(ctx context.Context) {
	return func(ctx context.Context) {
		start := time.Now()
		s.logger.Debug("Running scheduled task", "task_name", name)
		if err := fn(ctx); err != nil {
			s.logger.Error("Scheduled task failed", "task_name", name, "error", err)
		}
		s.logger.Debug("Finished scheduled task", "task_name", name, "duration", time.Since(start))
	}
}

// Jobs returns the names of the scheduled jobs.
func (s *Scheduler) Jobs() []string {
	var names []string
	for _, j := range s.scheduler.Jobs() {
		names = append(names, j.Name())
	}
	return names
}

// Stop shuts the scheduler down, waiting for running jobs.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.cancel()
	err := s.scheduler.Shutdown()
	if err != nil {
		s.logger.Error("Error during scheduler shutdown", "error", err)
	} else {
		s.logger.Info("Scheduler stopped")
	}
	s.running = false
	return err
}
