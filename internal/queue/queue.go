// Package queue is a durable outbox of book recompute jobs backed by Badger.
//
// There is at most one job per book. Enqueueing a book that is already
// queued replaces the job with a fresh token, so a worker that read the old
// job cannot acknowledge the newer request by mistake.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const keyPrefix = "recompute:"

// maxConflictRetries bounds retries of a transaction that lost a write race.
const maxConflictRetries = 3

// Job asks for a full recompute of one book's aggregates.
type Job struct {
	ID         string    `json:"id"`
	BookID     string    `json:"book_id"`
	Reason     string    `json:"reason"`
	Attempts   int       `json:"attempts"`
	LastError  string    `json:"last_error,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// Queue stores recompute jobs keyed by book.
type Queue struct {
	db     *badger.DB
	logger *slog.Logger
	now    func() time.Time
}

// Open opens (or creates) the queue directory at path.
func Open(path string, logger *slog.Logger) (*Queue, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true
	return open(opts, logger)
}

// OpenInMemory opens a queue that lives only as long as the process.
func OpenInMemory(logger *slog.Logger) (*Queue, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts, logger)
}

func open(opts badger.Options, logger *slog.Logger) (*Queue, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger queue: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{db: db, logger: logger, now: time.Now}, nil
}

// Close flushes and closes the queue.
func (q *Queue) Close() error {
	return q.db.Close()
}

func jobKey(bookID string) []byte {
	return []byte(keyPrefix + bookID)
}

// Enqueue records that bookID needs a recompute. Attempts carry over from a
// job being replaced.
func (q *Queue) Enqueue(ctx context.Context, bookID, reason string) (*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var job *Job
	err := q.update(func(txn *badger.Txn) error {
		prev, err := getJob(txn, bookID)
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		job = &Job{
			ID:         uuid.NewString(),
			BookID:     bookID,
			Reason:     reason,
			EnqueuedAt: q.now().UTC(),
		}
		if prev != nil {
			job.Attempts = prev.Attempts
			job.LastError = prev.LastError
		}
		return putJob(txn, job)
	})
	if err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", bookID, err)
	}

	q.logger.Debug("recompute enqueued", "book_id", bookID, "job_id", job.ID, "reason", reason)
	return job, nil
}

// Get returns the queued job for bookID, or nil if there is none.
func (q *Queue) Get(ctx context.Context, bookID string) (*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var job *Job
	err := q.db.View(func(txn *badger.Txn) error {
		j, err := getJob(txn, bookID)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		job = j
		return err
	})
	return job, err
}

// Pending returns up to limit queued jobs in key order. limit <= 0 returns all.
func (q *Queue) Pending(ctx context.Context, limit int) ([]*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var jobs []*Job
	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if limit > 0 && len(jobs) >= limit {
				break
			}
			var job Job
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &job)
			}); err != nil {
				return fmt.Errorf("decode job %s: %w", it.Item().Key(), err)
			}
			jobs = append(jobs, &job)
		}
		return nil
	})
	return jobs, err
}

// Ack removes job if it is still the current job for its book. It reports
// false when the book was re-enqueued after job was read.
func (q *Queue) Ack(ctx context.Context, job *Job) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	acked := false
	err := q.update(func(txn *badger.Txn) error {
		acked = false
		current, err := getJob(txn, job.BookID)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if current.ID != job.ID {
			return nil
		}
		acked = true
		return txn.Delete(jobKey(job.BookID))
	})
	return acked, err
}

// Fail bumps the attempt count of job and records cause, if job is still current.
func (q *Queue) Fail(ctx context.Context, job *Job, cause error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return q.update(func(txn *badger.Txn) error {
		current, err := getJob(txn, job.BookID)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if current.ID != job.ID {
			return nil
		}
		current.Attempts++
		if cause != nil {
			current.LastError = cause.Error()
		}
		job.Attempts, job.LastError = current.Attempts, current.LastError
		return putJob(txn, current)
	})
}

// Len counts queued jobs.
func (q *Queue) Len(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	n := 0
	err := q.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(keyPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// update runs fn in a read-write transaction, retrying on write conflicts.
func (q *Queue) update(fn func(txn *badger.Txn) error) error {
	var err error
	for range maxConflictRetries {
		err = q.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func getJob(txn *badger.Txn, bookID string) (*Job, error) {
	item, err := txn.Get(jobKey(bookID))
	if err != nil {
		return nil, err
	}
	var job Job
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &job)
	}); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", bookID, err)
	}
	return &job, nil
}

func putJob(txn *badger.Txn, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}
	return txn.Set(jobKey(job.BookID), data)
}
