// Package worker purges expired stories in the background.
package worker

import (
	"context"
	"time"

	"signlearn-service/internal/metrics"
	"signlearn-service/internal/repository"

	"go.uber.org/zap"
)

type Worker struct {
	stories  repository.Stories
	interval time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

func NewWorker(stories repository.Stories, interval time.Duration, logger *zap.Logger) *Worker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Worker{
		stories:  stories,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
}

// Run purges once immediately and then every interval until ctx ends.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("worker started", zap.Duration("interval", w.interval))
	w.ExpireStories(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker stopped")
			return
		case <-ticker.C:
			w.ExpireStories(ctx)
		}
	}
}

func (w *Worker) ExpireStories(ctx context.Context) int64 {
	start := time.Now()
	count, err := w.stories.DeleteExpired(ctx, w.now().UTC())
	duration := time.Since(start)
	metrics.WorkerLatencySeconds.Observe(duration.Seconds())

	if err != nil {
		w.logger.Error("failed to expire stories", zap.Error(err))
		return 0
	}
	if count > 0 {
		metrics.StoriesExpiredTotal.Add(float64(count))
		w.logger.Info("stories expired",
			zap.Int64("count", count),
			zap.Duration("duration", duration))
	}
	return count
}
