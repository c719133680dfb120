package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatwidget/internal/crawl"
	"github.com/edgard/chatwidget/internal/logger"
	"github.com/edgard/chatwidget/internal/storage"
)

type listerFunc func(ctx context.Context, clientID string) ([]crawl.Job, error)

func (f listerFunc) ListJobs(ctx context.Context, clientID string) ([]crawl.Job, error) {
	return f(ctx, clientID)
}

func TestRegisterAllTasks(t *testing.T) {
	t.Parallel()

	sqlite, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "tasks.db"), logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	watcher := crawl.NewWatcher(listerFunc(func(context.Context, string) ([]crawl.Job, error) {
		return nil, nil
	}), []string{"c1"}, logger.Discard())

	tests := []struct {
		name string
		deps TaskDeps
		want []string
	}{
		{"memory has no maintenance", TaskDeps{Storage: storage.NewMemory()}, nil},
		{"sqlite is maintained", TaskDeps{Storage: sqlite}, []string{StorageMaintenance}},
		{"watcher enables crawl watch", TaskDeps{Storage: storage.NewMemory(), Watcher: watcher}, []string{CrawlWatch}},
		{"everything", TaskDeps{Storage: sqlite, Watcher: watcher}, []string{StorageMaintenance, CrawlWatch}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.deps.Logger = logger.Discard()
			got := RegisterAllTasks(tt.deps)

			var names []string
			for name := range got {
				names = append(names, name)
			}
			assert.ElementsMatch(t, tt.want, names)
			for _, fn := range got {
				assert.NoError(t, fn(context.Background()))
			}
		})
	}
}

func TestCrawlWatchTaskReportsErrors(t *testing.T) {
	t.Parallel()

	watcher := crawl.NewWatcher(listerFunc(func(context.Context, string) ([]crawl.Job, error) {
		return nil, errors.New("unreachable")
	}), []string{"c1"}, logger.Discard())

	task := newCrawlWatchTask(TaskDeps{Logger: logger.Discard(), Watcher: watcher})
	assert.ErrorContains(t, task(context.Background()), "crawl watch failed")
}
