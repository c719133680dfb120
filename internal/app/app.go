// Package app manages the lifecycle of the widget's surface and background
// scheduler.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Surface presents the widget to users until ctx is cancelled or the user
// leaves. Returning nil ends the application.
type Surface interface {
	Run(ctx context.Context) error
}

// App runs a surface alongside the scheduler.
type App struct {
	logger    *slog.Logger
	surface   Surface
	scheduler *Scheduler
}

// New creates the orchestrator. scheduler may be nil.
func New(logger *slog.Logger, surface Surface, scheduler *Scheduler) *App {
	return &App{
		logger:    logger.With("component", "orchestrator"),
		surface:   surface,
		scheduler: scheduler,
	}
}

// Run blocks until the surface finishes, a component fails, or ctx is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Starting orchestrator...")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		if err := a.surface.Run(gCtx); err != nil {
			return fmt.Errorf("surface stopped: %w", err)
		}
		a.logger.Info("Surface finished")
		return nil
	})

	if a.scheduler != nil {
		g.Go(func() error {
			if err := a.scheduler.Start(); err != nil {
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
			<-gCtx.Done()
			if err := a.scheduler.Stop(); err != nil {
				a.logger.Error("Error stopping scheduler", "error", err)
			}
			return nil
		})
	}

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("Orchestrator stopped due to error", "error", err)
		return err
	}

	a.logger.Info("Orchestrator stopped gracefully")
	return nil
}
