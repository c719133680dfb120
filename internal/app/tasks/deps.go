// Package tasks implements the scheduled background tasks.
package tasks

import (
	"log/slog"

	"github.com/edgard/chatwidget/internal/crawl"
	"github.com/edgard/chatwidget/internal/storage"
)

// TaskDeps contains the dependencies scheduled tasks may use. Nil fields
// disable the tasks that need them.
type TaskDeps struct {
	Logger  *slog.Logger
	Storage storage.Backend
	Watcher *crawl.Watcher
}
