package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/shelfwiseapp/shelfwise-server/internal/metrics"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
)

// drainBatch bounds how many queued jobs one sweep picks up.
const drainBatch = 100

// RecomputeWorker finishes recomputes that could not complete in line with
// their mutation, and reconciles every book on startup.
type RecomputeWorker struct {
	store      store.Store
	aggregates *AggregateMaintainer
	queue      RecomputeQueue
	metrics    *metrics.Metrics
	interval   time.Duration
	logger     *slog.Logger
}

// NewRecomputeWorker creates a worker sweeping the queue every interval.
func NewRecomputeWorker(st store.Store, aggregates *AggregateMaintainer, q RecomputeQueue, m *metrics.Metrics, interval time.Duration, logger *slog.Logger) *RecomputeWorker {
	return &RecomputeWorker{
		store:      st,
		aggregates: aggregates,
		queue:      q,
		metrics:    m,
		interval:   interval,
		logger:     logger,
	}
}

// Run drains the queue every interval until ctx is cancelled.
func (w *RecomputeWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("recompute worker started", "interval", w.interval)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("recompute worker stopped")
			return
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil && ctx.Err() == nil {
				w.logger.Error("recompute queue sweep failed", "error", err)
			}
		}
	}
}

// Drain processes one batch of queued jobs and returns how many completed.
//
// A job is acked only if it is still the latest job for its book, so a
// mutation that re-queued the book during the recompute is not lost.
func (w *RecomputeWorker) Drain(ctx context.Context) (int, error) {
	jobs, err := w.queue.Pending(ctx, drainBatch)
	if err != nil {
		return 0, err
	}

	done := 0
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return done, err
		}

		if err := w.aggregates.Recompute(ctx, job.BookID); err != nil {
			w.logger.Warn("queued recompute failed",
				"book_id", job.BookID, "job_id", job.ID, "attempts", job.Attempts+1, "error", err)
			if ferr := w.queue.Fail(ctx, job, err); ferr != nil {
				w.logger.Error("failed to record recompute failure", "book_id", job.BookID, "error", ferr)
			}
			w.recordProcessed(metrics.ResultFailed)
			continue
		}

		acked, err := w.queue.Ack(ctx, job)
		if err != nil {
			w.logger.Error("failed to ack recompute job", "book_id", job.BookID, "job_id", job.ID, "error", err)
			continue
		}
		if !acked {
			w.logger.Debug("recompute job superseded", "book_id", job.BookID, "job_id", job.ID)
			w.recordProcessed(metrics.ResultSkipped)
			continue
		}
		w.recordProcessed(metrics.ResultOK)
		done++
	}

	w.updateDepth(ctx)
	if done > 0 {
		w.logger.Info("recompute queue drained", "completed", done, "picked", len(jobs))
	}
	return done, nil
}

// Reconcile recomputes every book in the catalog. Failures are queued.
func (w *RecomputeWorker) Reconcile(ctx context.Context) error {
	ids, err := w.store.ListBookIDs(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	for _, bookID := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.aggregates.RecomputeAfterMutation(ctx, bookID, "reconcile")
	}
	w.updateDepth(ctx)

	w.logger.Info("aggregate reconcile complete", "books", len(ids), "duration", time.Since(start))
	return nil
}

func (w *RecomputeWorker) recordProcessed(result string) {
	if w.metrics != nil {
		w.metrics.QueueProcessed.WithLabelValues(result).Inc()
	}
}

func (w *RecomputeWorker) updateDepth(ctx context.Context) {
	if w.metrics == nil {
		return
	}
	n, err := w.queue.Len(ctx)
	if err != nil {
		return
	}
	w.metrics.QueueDepth.Set(float64(n))
}
