package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwiseapp/shelfwise-server/internal/errors"
	"github.com/shelfwiseapp/shelfwise-server/internal/id"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
	"github.com/shelfwiseapp/shelfwise-server/internal/validation"
)

// ReviewService manages reviews and their moderation. Every review write is
// followed by a recompute of the book's rating aggregate.
type ReviewService struct {
	store      store.Store
	aggregates *AggregateMaintainer
	activities *ActivityService
	validator  *validation.Validator
	logger     *slog.Logger
	now        func() time.Time
}

// NewReviewService creates a new review service.
func NewReviewService(st store.Store, aggregates *AggregateMaintainer, activities *ActivityService, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		store:      st,
		aggregates: aggregates,
		activities: activities,
		validator:  validation.New(),
		logger:     logger,
		now:        time.Now,
	}
}

// CreateReviewRequest contains fields for reviewing a book.
type CreateReviewRequest struct {
	BookID  string `json:"book_id" validate:"required"`
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"required,max=1000"`
}

// CreateReview submits a review for moderation. The review counts towards
// the book's rating only once approved.
func (s *ReviewService) CreateReview(ctx context.Context, userID string, req CreateReviewRequest) (*domain.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := loadUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	book, err := loadBook(ctx, s.store, req.BookID)
	if err != nil {
		return nil, err
	}

	reviewID, err := id.Generate(id.PrefixReview)
	if err != nil {
		return nil, fmt.Errorf("generate review ID: %w", err)
	}

	now := s.now()
	review := &domain.Review{
		ID:        reviewID,
		BookID:    book.ID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		Status:    domain.ReviewPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateReview(ctx, review); err != nil {
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("you have already reviewed this book")
		}
		return nil, storeError(err, "review")
	}

	if err := s.activities.RecordRatedBook(ctx, user, book, review.Rating); err != nil {
		s.logger.Warn("failed to record rating activity", "user_id", userID, "book_id", book.ID, "error", err)
	}
	s.aggregates.RecomputeAfterMutation(ctx, book.ID, "review created")

	s.logger.Info("review submitted",
		"review_id", review.ID,
		"user_id", userID,
		"book_id", book.ID,
		"rating", review.Rating,
	)
	return review, nil
}

// ModerateReview sets a review's status.
func (s *ReviewService) ModerateReview(ctx context.Context, reviewID string, status domain.ReviewStatus) (*domain.Review, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, domainerrors.Validationf("invalid status %q", status)
	}

	now := s.now()
	if err := s.store.UpdateReviewStatus(ctx, reviewID, status, now); err != nil {
		return nil, storeError(err, "review")
	}
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, storeError(err, "review")
	}
	s.aggregates.RecomputeAfterMutation(ctx, review.BookID, "review "+string(status))

	s.logger.Info("review moderated", "review_id", reviewID, "book_id", review.BookID, "status", status)
	return review, nil
}

// DeleteReview deletes the user's own review.
func (s *ReviewService) DeleteReview(ctx context.Context, userID, reviewID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return storeError(err, "review")
	}
	if review.UserID != userID {
		return domainerrors.Forbidden("not authorized to delete this review")
	}
	return s.delete(ctx, review)
}

// RemoveReview deletes any review, for moderators.
func (s *ReviewService) RemoveReview(ctx context.Context, reviewID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return storeError(err, "review")
	}
	return s.delete(ctx, review)
}

func (s *ReviewService) delete(ctx context.Context, review *domain.Review) error {
	if err := s.store.DeleteReview(ctx, review.ID); err != nil {
		return storeError(err, "review")
	}
	s.aggregates.RecomputeAfterMutation(ctx, review.BookID, "review deleted")

	s.logger.Info("review deleted", "review_id", review.ID, "book_id", review.BookID, "user_id", review.UserID)
	return nil
}

// BookReviews returns a book's approved reviews, newest first.
func (s *ReviewService) BookReviews(ctx context.Context, bookID string) ([]*domain.Review, error) {
	if _, err := loadBook(ctx, s.store, bookID); err != nil {
		return nil, err
	}
	return s.list(ctx, store.ReviewFilter{BookID: bookID, Status: domain.ReviewApproved})
}

// UserReviews returns every review the user wrote, newest first.
func (s *ReviewService) UserReviews(ctx context.Context, userID string) ([]*domain.Review, error) {
	return s.list(ctx, store.ReviewFilter{UserID: userID})
}

// ReviewsByStatus lists reviews for moderation, newest first. Empty
// arguments match everything.
func (s *ReviewService) ReviewsByStatus(ctx context.Context, status domain.ReviewStatus, bookID string) ([]*domain.Review, error) {
	if status != "" && !status.Valid() {
		return nil, domainerrors.Validationf("invalid status %q", status)
	}
	return s.list(ctx, store.ReviewFilter{Status: status, BookID: bookID})
}

func (s *ReviewService) list(ctx context.Context, f store.ReviewFilter) ([]*domain.Review, error) {
	reviews, err := s.store.ListReviews(ctx, f)
	if err != nil {
		return nil, storeError(err, "reviews")
	}
	if reviews == nil {
		reviews = []*domain.Review{}
	}
	return reviews, nil
}
