package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/edgard/chatwidget/internal/storage"
)

func newStorageMaintenanceTask(deps TaskDeps, m storage.Maintainer) ScheduledTaskFunc {
	log := deps.Logger.With("task", StorageMaintenance)

	return func(ctx context.Context) error {
		start := time.Now()
		if err := m.RunMaintenance(ctx); err != nil {
			log.ErrorContext(ctx, "Storage maintenance failed", "error", err, "duration", time.Since(start))
			return fmt.Errorf("storage maintenance failed: %w", err)
		}
		log.InfoContext(ctx, "Storage maintenance completed", "duration", time.Since(start))
		return nil
	}
}
