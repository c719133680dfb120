package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// JobLister lists a client's crawler jobs.
type JobLister interface {
	ListJobs(ctx context.Context, clientID string) ([]Job, error)
}

// Watcher polls the jobs of a fixed set of clients and logs every status
// change it observes.
type Watcher struct {
	lister    JobLister
	clientIDs []string
	logger    *slog.Logger

	mu   sync.Mutex
	seen map[string]Status
}

// NewWatcher returns a watcher for the given clients.
func NewWatcher(lister JobLister, clientIDs []string, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		lister:    lister,
		clientIDs: append([]string(nil), clientIDs...),
		logger:    logger.With("component", "crawl_watcher"),
		seen:      make(map[string]Status),
	}
}

// Poll lists jobs once for every client. It reports whether any job is still
// pending or running. Clients that fail to list are skipped and their errors
// joined.
func (w *Watcher) Poll(ctx context.Context) (bool, error) {
	var (
		active bool
		errs   []error
	)

	for _, clientID := range w.clientIDs {
		jobs, err := w.lister.ListJobs(ctx, clientID)
		if err != nil {
			errs = append(errs, fmt.Errorf("list jobs for %s: %w", clientID, err))
			continue
		}
		for _, job := range jobs {
			w.observe(ctx, job)
			if job.Status.Active() {
				active = true
			}
		}
	}
	return active, errors.Join(errs...)
}

func (w *Watcher) observe(ctx context.Context, job Job) {
	w.mu.Lock()
	prev, known := w.seen[job.ID]
	w.seen[job.ID] = job.Status
	w.mu.Unlock()

	if known && prev == job.Status {
		return
	}

	log := w.logger.With("job_id", job.ID, "client_id", job.ClientID, "url", job.URL, "status", job.Status)
	switch {
	case !known:
		log.DebugContext(ctx, "Tracking crawler job")
	case job.Status == StatusFailed:
		log.WarnContext(ctx, "Crawler job failed", "previous", prev, "result", job.ResultData)
	default:
		log.InfoContext(ctx, "Crawler job changed status", "previous", prev)
	}
}

// Status returns the last observed status of a job.
func (w *Watcher) Status(jobID string) (Status, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	s, ok := w.seen[jobID]
	return s, ok
}
