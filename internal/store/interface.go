// Package store defines the ledger fact store used by the Shelfwise engines.
package store

import (
	"context"
	"time"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
)

// Store is the persistence interface for books, genres, reviews, ledger
// entries, activities and users.
//
// Implementations return ErrNotFound for missing records, ErrAlreadyExists
// for uniqueness violations and ErrUnavailable for failures that may
// succeed on retry.
type Store interface {
	// Lifecycle
	Close() error
	Ping(ctx context.Context) error
	SetSearchIndexer(indexer SearchIndexer)

	// Genres
	CreateGenre(ctx context.Context, g *domain.Genre) error
	GetGenre(ctx context.Context, id string) (*domain.Genre, error)
	UpdateGenre(ctx context.Context, g *domain.Genre) error
	// ListGenres returns genres in creation order.
	ListGenres(ctx context.Context) ([]*domain.Genre, error)
	// CountBooksByGenre maps genre ID to number of catalog books.
	CountBooksByGenre(ctx context.Context) (map[string]int, error)

	// Books
	CreateBook(ctx context.Context, b *domain.Book) error
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	GetBooksByIDs(ctx context.Context, ids []string) (map[string]*domain.Book, error)
	// UpdateBook writes descriptive fields only. Aggregates are untouched.
	UpdateBook(ctx context.Context, b *domain.Book) error
	DeleteBook(ctx context.Context, id string) error
	QueryBooks(ctx context.Context, q BookQuery) ([]*domain.Book, error)
	CountBooks(ctx context.Context, q BookQuery) (int, error)
	// SampleBooks draws up to n distinct books uniformly at random from
	// those not in exclude.
	SampleBooks(ctx context.Context, exclude []string, n int) ([]*domain.Book, error)
	ListBookIDs(ctx context.Context) ([]string, error)
	// SetRatingAggregate overwrites average rating and rating count in one statement.
	SetRatingAggregate(ctx context.Context, bookID string, agg domain.RatingAggregate) error
	// SetShelvedCount overwrites the shelving count.
	SetShelvedCount(ctx context.Context, bookID string, n int) error

	// Reviews
	CreateReview(ctx context.Context, r *domain.Review) error
	GetReview(ctx context.Context, id string) (*domain.Review, error)
	UpdateReviewStatus(ctx context.Context, id string, status domain.ReviewStatus, at time.Time) error
	DeleteReview(ctx context.Context, id string) error
	DeleteReviewsByBook(ctx context.Context, bookID string) (int, error)
	ListReviews(ctx context.Context, f ReviewFilter) ([]*domain.Review, error)
	CountReviews(ctx context.Context, f ReviewFilter) (int, error)

	// Ledger entries
	CreateUserBook(ctx context.Context, ub *domain.UserBook) error
	GetUserBook(ctx context.Context, id string) (*domain.UserBook, error)
	UpdateUserBook(ctx context.Context, ub *domain.UserBook) error
	DeleteUserBook(ctx context.Context, id string) error
	DeleteUserBooksByBook(ctx context.Context, bookID string) (int, error)
	ListUserBooks(ctx context.Context, f LedgerFilter) ([]*domain.UserBook, error)
	CountUserBooks(ctx context.Context, f LedgerFilter) (int, error)

	// Activities
	CreateActivity(ctx context.Context, a *domain.Activity) error
	ListActivities(ctx context.Context, f ActivityFilter) ([]*domain.Activity, error)
	DeleteExpiredActivities(ctx context.Context, now time.Time) (int, error)

	// Users and follow edges. Each edge is stored twice, once per side;
	// the two sides are written independently.
	CreateUser(ctx context.Context, u *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	UpdateUser(ctx context.Context, u *domain.User) error
	CountUsers(ctx context.Context) (int, error)
	AddFollowing(ctx context.Context, userID, targetID string, at time.Time) (added bool, err error)
	RemoveFollowing(ctx context.Context, userID, targetID string) (removed bool, err error)
	AddFollower(ctx context.Context, userID, followerID string, at time.Time) (added bool, err error)
	RemoveFollower(ctx context.Context, userID, followerID string) (removed bool, err error)
}

// SearchIndexer keeps a full-text index in step with catalog writes.
type SearchIndexer interface {
	IndexBook(ctx context.Context, book *domain.Book, genreName string) error
	DeleteBook(ctx context.Context, bookID string) error
}

// NoopSearchIndexer ignores index updates.
type NoopSearchIndexer struct{}

// IndexBook is a no-op.
func (NoopSearchIndexer) IndexBook(context.Context, *domain.Book, string) error { return nil }

// DeleteBook is a no-op.
func (NoopSearchIndexer) DeleteBook(context.Context, string) error { return nil }
