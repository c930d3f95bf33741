package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	"github.com/shelfwiseapp/shelfwise-server/internal/id"
	"github.com/shelfwiseapp/shelfwise-server/internal/metrics"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
)

// ActivityService records feed activities and purges expired ones.
type ActivityService struct {
	store     store.Store
	metrics   *metrics.Metrics
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewActivityService creates a new activity service. A non-positive
// retention uses domain.DefaultActivityRetention.
func NewActivityService(st store.Store, m *metrics.Metrics, retention time.Duration, logger *slog.Logger) *ActivityService {
	if retention <= 0 {
		retention = domain.DefaultActivityRetention
	}
	return &ActivityService{
		store:     st,
		metrics:   m,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

// RecordAddedToShelf records that user put book on shelf.
func (s *ActivityService) RecordAddedToShelf(ctx context.Context, user *domain.User, book *domain.Book, shelf domain.Shelf) error {
	return s.record(ctx, user, book, func(a *domain.Activity) {
		a.Kind = domain.ActivityAddedToShelf
		a.Shelf = shelf
	})
}

// RecordStartedReading records that user moved book to currently reading.
func (s *ActivityService) RecordStartedReading(ctx context.Context, user *domain.User, book *domain.Book) error {
	return s.record(ctx, user, book, func(a *domain.Activity) {
		a.Kind = domain.ActivityStartedReading
	})
}

// RecordFinishedBook records that user finished book.
func (s *ActivityService) RecordFinishedBook(ctx context.Context, user *domain.User, book *domain.Book) error {
	return s.record(ctx, user, book, func(a *domain.Activity) {
		a.Kind = domain.ActivityFinishedBook
	})
}

// RecordRatedBook records that user reviewed book with rating.
func (s *ActivityService) RecordRatedBook(ctx context.Context, user *domain.User, book *domain.Book, rating int) error {
	return s.record(ctx, user, book, func(a *domain.Activity) {
		a.Kind = domain.ActivityRatedBook
		a.Rating = rating
	})
}

func (s *ActivityService) record(ctx context.Context, user *domain.User, book *domain.Book, set func(*domain.Activity)) error {
	activityID, err := id.Generate(id.PrefixActivity)
	if err != nil {
		return fmt.Errorf("generate activity ID: %w", err)
	}

	now := s.now()
	activity := &domain.Activity{
		ID:              activityID,
		UserID:          user.ID,
		BookID:          book.ID,
		CreatedAt:       now,
		ExpiresAt:       now.Add(s.retention),
		UserDisplayName: user.Name(),
		BookTitle:       book.Title,
		BookAuthor:      book.Author,
		BookCoverRef:    book.CoverRef,
	}
	set(activity)

	if err := s.store.CreateActivity(ctx, activity); err != nil {
		return fmt.Errorf("create activity: %w", err)
	}

	s.logger.Info("activity recorded",
		"kind", activity.Kind,
		"user_id", user.ID,
		"book_id", book.ID,
	)
	return nil
}

// PurgeExpired deletes activities past their retention window.
func (s *ActivityService) PurgeExpired(ctx context.Context) (int, error) {
	n, err := s.store.DeleteExpiredActivities(ctx, s.now())
	if err != nil {
		return 0, storeError(err, "activities")
	}
	if s.metrics != nil {
		s.metrics.ActivitiesPurged.Add(float64(n))
	}
	if n > 0 {
		s.logger.Info("expired activities purged", "count", n)
	}
	return n, nil
}

// RunPurger purges expired activities every interval until ctx is cancelled.
// Feed reads already hide expired activities, so a missed sweep only
// delays reclaiming space.
func (s *ActivityService) RunPurger(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.PurgeExpired(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("activity purge failed", "error", err)
			}
		}
	}
}
