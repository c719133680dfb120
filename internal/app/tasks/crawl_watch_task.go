package tasks

import (
	"context"
	"fmt"
)

func newCrawlWatchTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", CrawlWatch)

	return func(ctx context.Context) error {
		active, err := deps.Watcher.Poll(ctx)
		if err != nil {
			return fmt.Errorf("crawl watch failed: %w", err)
		}
		log.DebugContext(ctx, "Polled crawler jobs", "active", active)
		return nil
	}
}
