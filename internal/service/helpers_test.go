package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
	"github.com/shelfwiseapp/shelfwise-server/internal/store/sqlite"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func createTestGenre(t *testing.T, st store.Store, id, name string, created time.Time) *domain.Genre {
	t.Helper()
	g := &domain.Genre{ID: id, Name: name, Slug: id, CreatedAt: created}
	require.NoError(t, st.CreateGenre(context.Background(), g))
	return g
}

func createTestBook(t *testing.T, st store.Store, id, genreID string, pages int) *domain.Book {
	t.Helper()
	now := time.Now()
	b := &domain.Book{
		ID:         id,
		Title:      "Title " + id,
		Author:     "Author " + id,
		GenreID:    genreID,
		TotalPages: pages,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, st.CreateBook(context.Background(), b))
	return b
}

func createTestUser(t *testing.T, st store.Store, id string) *domain.User {
	t.Helper()
	now := time.Now()
	u := &domain.User{
		ID:          id,
		Username:    "u_" + id,
		DisplayName: "User " + id,
		ReadingGoal: domain.ReadingGoal{Year: now.Year(), TargetBooks: domain.DefaultGoalTarget},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, st.CreateUser(context.Background(), u))
	return u
}

func insertTestReview(t *testing.T, st store.Store, id, bookID, userID string, rating int, status domain.ReviewStatus) *domain.Review {
	t.Helper()
	now := time.Now()
	r := &domain.Review{
		ID:        id,
		BookID:    bookID,
		UserID:    userID,
		Rating:    rating,
		Comment:   "comment",
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, st.CreateReview(context.Background(), r))
	return r
}

// flakyStore fails chosen methods with store.ErrUnavailable.
type flakyStore struct {
	store.Store

	mu       sync.Mutex
	failures map[string]int // remaining failures; negative fails forever
	calls    map[string]int
}

func newFlakyStore(inner store.Store) *flakyStore {
	return &flakyStore{Store: inner, failures: map[string]int{}, calls: map[string]int{}}
}

func (f *flakyStore) fail(method string, times int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = times
}

func (f *flakyStore) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *flakyStore) check(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++
	n := f.failures[method]
	if n == 0 {
		return nil
	}
	if n > 0 {
		f.failures[method] = n - 1
	}
	return store.ErrUnavailable
}

func (f *flakyStore) SetRatingAggregate(ctx context.Context, bookID string, agg domain.RatingAggregate) error {
	if err := f.check("SetRatingAggregate"); err != nil {
		return err
	}
	return f.Store.SetRatingAggregate(ctx, bookID, agg)
}

func (f *flakyStore) SetShelvedCount(ctx context.Context, bookID string, n int) error {
	if err := f.check("SetShelvedCount"); err != nil {
		return err
	}
	return f.Store.SetShelvedCount(ctx, bookID, n)
}

func (f *flakyStore) AddFollowing(ctx context.Context, userID, targetID string, at time.Time) (bool, error) {
	if err := f.check("AddFollowing"); err != nil {
		return false, err
	}
	return f.Store.AddFollowing(ctx, userID, targetID, at)
}

func (f *flakyStore) AddFollower(ctx context.Context, userID, followerID string, at time.Time) (bool, error) {
	if err := f.check("AddFollower"); err != nil {
		return false, err
	}
	return f.Store.AddFollower(ctx, userID, followerID, at)
}

func (f *flakyStore) RemoveFollower(ctx context.Context, userID, followerID string) (bool, error) {
	if err := f.check("RemoveFollower"); err != nil {
		return false, err
	}
	return f.Store.RemoveFollower(ctx, userID, followerID)
}

func (f *flakyStore) CreateActivity(ctx context.Context, a *domain.Activity) error {
	if err := f.check("CreateActivity"); err != nil {
		return err
	}
	return f.Store.CreateActivity(ctx, a)
}
