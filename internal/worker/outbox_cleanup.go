package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/petify/petify-api/pkg/logger"
	"github.com/petify/petify-api/pkg/metrics"
)

type outboxPruner interface {
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}

// OutboxCleanupWorker deletes processed outbox events past the retention window.
type OutboxCleanupWorker struct {
	repo            outboxPruner
	retention       time.Duration
	cleanupInterval time.Duration
	logger          *logger.Logger
	metrics         *metrics.Metrics
	now             func() time.Time
}

func NewOutboxCleanupWorker(repo outboxPruner, retention, cleanupInterval time.Duration, log *logger.Logger, m *metrics.Metrics) *OutboxCleanupWorker {
	return &OutboxCleanupWorker{
		repo:            repo,
		retention:       retention,
		cleanupInterval: cleanupInterval,
		logger:          log,
		metrics:         m,
		now:             time.Now,
	}
}

func (w *OutboxCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.cleanup(ctx); err != nil {
				w.logger.Error(err, "Outbox cleanup failed")
			}
		}
	}
}

func (w *OutboxCleanupWorker) cleanup(ctx context.Context) error {
	cutoff := w.now().Add(-w.retention)

	rows, err := w.repo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to clean up outbox events: %w", err)
	}
	if w.metrics != nil {
		w.metrics.OutboxEventsDeleted.Add(float64(rows))
	}

	w.logger.Info("Cleaned up outbox events", "deleted", rows, "cutoff", cutoff)
	return nil
}
