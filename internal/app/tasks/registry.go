package tasks

import (
	"context"

	"github.com/edgard/chatwidget/internal/storage"
)

// Task names, matching the keys of the scheduler configuration.
const (
	StorageMaintenance = "storage_maintenance"
	CrawlWatch         = "crawl_watch"
)

// ScheduledTaskFunc is the signature of every scheduled task. It must honor
// ctx cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// RegisterAllTasks returns the tasks that deps can support, keyed by name.
func RegisterAllTasks(deps TaskDeps) map[string]ScheduledTaskFunc {
	tasks := make(map[string]ScheduledTaskFunc)

	if m, ok := deps.Storage.(storage.Maintainer); ok {
		tasks[StorageMaintenance] = newStorageMaintenanceTask(deps, m)
	}
	if deps.Watcher != nil {
		tasks[CrawlWatch] = newCrawlWatchTask(deps)
	}

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}
