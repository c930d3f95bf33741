package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwiseapp/shelfwise-server/internal/errors"
	"github.com/shelfwiseapp/shelfwise-server/internal/metrics"
	"github.com/shelfwiseapp/shelfwise-server/internal/queue"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
)

// Aggregate names used in logs and metrics.
const (
	aggregateRating  = "rating"
	aggregateShelved = "shelved"
	aggregateAll     = "all"
)

// RecomputeQueue durably remembers books whose aggregates could not be
// recomputed in line with the mutation.
type RecomputeQueue interface {
	Enqueue(ctx context.Context, bookID, reason string) (*queue.Job, error)
	Pending(ctx context.Context, limit int) ([]*queue.Job, error)
	Ack(ctx context.Context, job *queue.Job) (bool, error)
	Fail(ctx context.Context, job *queue.Job, cause error) error
	Len(ctx context.Context) (int, error)
}

// AggregateOptions tunes an AggregateMaintainer. Zero values use defaults.
type AggregateOptions struct {
	Attempts int           // tries per recompute, default 3
	Backoff  time.Duration // base delay between tries, grows linearly
	Queue    RecomputeQueue
	Metrics  *metrics.Metrics
}

// AggregateMaintainer keeps a book's averageRating, totalRatings and
// totalShelved equal to what its reviews and ledger entries say.
//
// Every recompute is a full read of the source facts followed by a single
// overwrite, so concurrent or repeated recomputes converge. Writes go
// through a circuit breaker so a struggling database is not hammered by
// retries from every request.
type AggregateMaintainer struct {
	store    store.Store
	queue    RecomputeQueue
	metrics  *metrics.Metrics
	breaker  *gobreaker.CircuitBreaker[struct{}]
	logger   *slog.Logger
	attempts int
	backoff  time.Duration
}

// NewAggregateMaintainer creates an AggregateMaintainer.
func NewAggregateMaintainer(st store.Store, logger *slog.Logger, opts AggregateOptions) *AggregateMaintainer {
	if opts.Attempts <= 0 {
		opts.Attempts = 3
	}
	if opts.Backoff < 0 {
		opts.Backoff = 0
	}

	m := &AggregateMaintainer{
		store:    st,
		queue:    opts.Queue,
		metrics:  opts.Metrics,
		logger:   logger,
		attempts: opts.Attempts,
		backoff:  opts.Backoff,
	}

	const breakerName = "aggregate-writes"
	m.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 10
		},
		// Only an unavailable store counts against the breaker.
		IsSuccessful: func(err error) bool {
			return err == nil || !store.IsTransient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			if m.metrics != nil {
				m.metrics.BreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			}
		},
	})
	return m
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// write runs a store write through the breaker.
func (m *AggregateMaintainer) write(fn func() error) error {
	_, err := m.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return store.ErrUnavailable.WithCause(err)
	}
	return err
}

// RecomputeRatingAggregate sets the book's average rating and rating count
// from its approved reviews. A missing book is a no-op.
func (m *AggregateMaintainer) RecomputeRatingAggregate(ctx context.Context, bookID string) error {
	return m.withRetry(ctx, aggregateRating, bookID, func() error {
		reviews, err := m.store.ListReviews(ctx, store.ReviewFilter{
			BookID: bookID,
			Status: domain.ReviewApproved,
		})
		if err != nil {
			return err
		}
		ratings := make([]int, len(reviews))
		for i, r := range reviews {
			ratings[i] = r.Rating
		}
		agg := domain.NewRatingAggregate(ratings)
		return m.write(func() error {
			return m.store.SetRatingAggregate(ctx, bookID, agg)
		})
	})
}

// RecomputeShelfCount sets the book's shelving count from its ledger
// entries. A missing book is a no-op.
func (m *AggregateMaintainer) RecomputeShelfCount(ctx context.Context, bookID string) error {
	return m.withRetry(ctx, aggregateShelved, bookID, func() error {
		n, err := m.store.CountUserBooks(ctx, store.LedgerFilter{BookID: bookID})
		if err != nil {
			return err
		}
		return m.write(func() error {
			return m.store.SetShelvedCount(ctx, bookID, n)
		})
	})
}

// Recompute refreshes every derived field of the book. Both aggregates are
// attempted even when the first fails.
func (m *AggregateMaintainer) Recompute(ctx context.Context, bookID string) error {
	return errors.Join(
		m.RecomputeRatingAggregate(ctx, bookID),
		m.RecomputeShelfCount(ctx, bookID),
	)
}

// RecomputeAfterMutation is called once a review or ledger write has
// succeeded. The mutation stands regardless: if the recompute cannot
// finish now the book is queued and the queue worker finishes it later.
func (m *AggregateMaintainer) RecomputeAfterMutation(ctx context.Context, bookID, reason string) {
	err := m.Recompute(ctx, bookID)
	if err == nil {
		return
	}

	if m.queue == nil {
		m.logger.Error("aggregate recompute failed with no queue to fall back on",
			"book_id", bookID, "reason", reason, "error", err)
		return
	}

	// The request may already be gone; the enqueue must still land.
	job, qerr := m.queue.Enqueue(context.WithoutCancel(ctx), bookID, reason)
	if qerr != nil {
		m.logger.Error("failed to queue aggregate recompute",
			"book_id", bookID, "reason", reason, "error", errors.Join(err, qerr))
		return
	}
	m.record(aggregateAll, metrics.ResultQueued)
	m.logger.Warn("aggregate recompute deferred to queue",
		"book_id", bookID, "reason", reason, "job_id", job.ID, "error", err)
}

// withRetry runs fn up to m.attempts times while it fails transiently.
func (m *AggregateMaintainer) withRetry(ctx context.Context, aggregate, bookID string, fn func() error) error {
	start := time.Now()
	defer func() {
		if m.metrics != nil {
			m.metrics.ObserveRecompute(aggregate, time.Since(start).Seconds())
		}
	}()

	var err error
	for attempt := 1; attempt <= m.attempts; attempt++ {
		err = fn()
		switch {
		case err == nil:
			m.record(aggregate, metrics.ResultOK)
			return nil
		case errors.Is(err, store.ErrNotFound):
			m.record(aggregate, metrics.ResultSkipped)
			m.logger.Debug("recompute skipped, book gone", "book_id", bookID, "aggregate", aggregate)
			return nil
		case !store.IsTransient(err):
			m.record(aggregate, metrics.ResultFailed)
			return fmt.Errorf("recompute %s for book %s: %w", aggregate, bookID, err)
		}

		if attempt == m.attempts {
			break
		}
		m.record(aggregate, metrics.ResultRetried)
		m.logger.Debug("recompute failed, retrying",
			"book_id", bookID, "aggregate", aggregate, "attempt", attempt, "error", err)
		if werr := sleepCtx(ctx, m.backoff*time.Duration(attempt)); werr != nil {
			return werr
		}
	}

	m.record(aggregate, metrics.ResultFailed)
	return domainerrors.Transient(fmt.Sprintf("recompute %s for book %s", aggregate, bookID), err)
}

func (m *AggregateMaintainer) record(aggregate, result string) {
	if m.metrics != nil {
		m.metrics.RecordRecompute(aggregate, result)
	}
}

// sleepCtx waits for d or until ctx ends.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
