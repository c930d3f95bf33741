package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwiseapp/shelfwise-server/internal/errors"
	"github.com/shelfwiseapp/shelfwise-server/internal/metrics"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
)

func setupTestRecommendationEngine(t *testing.T) (*RecommendationEngine, store.Store, *metrics.Metrics) {
	t.Helper()
	st := newTestStore(t)
	m := metrics.New()
	createTestUser(t, st, "reader")
	return NewRecommendationEngine(st, 0, m, testLogger()), st, m
}

func createRatedBook(t *testing.T, st store.Store, id, genreID string, rating float64, shelved int) {
	t.Helper()
	createTestBook(t, st, id, genreID, 100)
	ctx := context.Background()
	require.NoError(t, st.SetRatingAggregate(ctx, id, domain.RatingAggregate{Average: rating, Count: 1}))
	require.NoError(t, st.SetShelvedCount(ctx, id, shelved))
}

func markRead(t *testing.T, st store.Store, userID string, bookIDs ...string) {
	t.Helper()
	now := time.Now()
	for _, bookID := range bookIDs {
		require.NoError(t, st.CreateUserBook(context.Background(), &domain.UserBook{
			ID:         "ub-" + userID + "-" + bookID,
			UserID:     userID,
			BookID:     bookID,
			Shelf:      domain.ShelfRead,
			FinishedAt: &now,
			CreatedAt:  now,
			UpdatedAt:  now,
		}))
	}
}

func recommendedIDs(recs *domain.Recommendations) []string {
	ids := make([]string, len(recs.Items))
	for i, r := range recs.Items {
		ids[i] = r.Book.ID
	}
	return ids
}

func TestRecommend_DiscoveryMode(t *testing.T) {
	engine, st, m := setupTestRecommendationEngine(t)
	ctx := context.Background()

	// 12 highly rated and shelved, 3 highly rated but never shelved, 10 low rated.
	for i := range 12 {
		createRatedBook(t, st, fmt.Sprintf("top-%02d", i), "genre-1", 4.0+float64(i%10)/10, i+1)
	}
	for i := range 3 {
		createRatedBook(t, st, fmt.Sprintf("unshelved-%d", i), "genre-1", 5.0, 0)
	}
	for i := range 10 {
		createRatedBook(t, st, fmt.Sprintf("low-%02d", i), "genre-2", 2.0, 5)
	}
	markRead(t, st, "reader", "low-00", "low-01")

	recs, err := engine.Recommend(ctx, "reader", 0)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeDiscovery, recs.Mode)
	assert.Equal(t, 2, recs.BooksRead)
	require.Len(t, recs.Items, highlyRatedPool+discoveryPool)

	seen := map[string]bool{}
	for i, r := range recs.Items {
		assert.False(t, seen[r.Book.ID], "duplicate %s", r.Book.ID)
		seen[r.Book.ID] = true
		if i < highlyRatedPool {
			assert.Equal(t, domain.ReasonHighlyRated, r.Reason)
			assert.GreaterOrEqual(t, r.Book.AverageRating, 4.0)
			assert.Positive(t, r.Book.TotalShelved)
		} else {
			assert.Equal(t, domain.ReasonDiscovery, r.Reason)
			assert.NotEqual(t, "low-00", r.Book.ID)
			assert.NotEqual(t, "low-01", r.Book.ID)
		}
	}

	// Highly rated pool ordered by rating then shelvings.
	for i := 1; i < highlyRatedPool; i++ {
		prev, cur := recs.Items[i-1].Book, recs.Items[i].Book
		if prev.AverageRating == cur.AverageRating {
			assert.GreaterOrEqual(t, prev.TotalShelved, cur.TotalShelved)
		} else {
			assert.Greater(t, prev.AverageRating, cur.AverageRating)
		}
	}
	assert.Equal(t, "top-09", recs.Items[0].Book.ID)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Recommendations.WithLabelValues("discovery")))
}

func TestRecommend_DiscoveryIgnoresLimitAndSmallCatalog(t *testing.T) {
	engine, st, _ := setupTestRecommendationEngine(t)
	ctx := context.Background()

	createRatedBook(t, st, "book-1", "genre-1", 4.5, 2)
	createRatedBook(t, st, "book-2", "genre-1", 1.0, 0)

	recs, err := engine.Recommend(ctx, "reader", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeDiscovery, recs.Mode)
	assert.Equal(t, []string{"book-1", "book-2"}, recommendedIDs(recs))
	assert.Equal(t, domain.ReasonDiscovery, recs.Items[1].Reason)
}

func TestRecommend_DiscoveryEmptyCatalog(t *testing.T) {
	engine, _, _ := setupTestRecommendationEngine(t)

	recs, err := engine.Recommend(context.Background(), "reader", 0)
	require.NoError(t, err)
	assert.NotNil(t, recs.Items)
	assert.Empty(t, recs.Items)
}

func TestRecommend_PersonalizedMode(t *testing.T) {
	engine, st, m := setupTestRecommendationEngine(t)
	ctx := context.Background()

	base := time.Now()
	createTestGenre(t, st, "genre-a", "A", base)
	createTestGenre(t, st, "genre-b", "B", base.Add(time.Second))
	createTestGenre(t, st, "genre-c", "C", base.Add(2*time.Second))

	createRatedBook(t, st, "read-a1", "genre-a", 3.0, 1)
	createRatedBook(t, st, "read-a2", "genre-a", 4.9, 1)
	createRatedBook(t, st, "read-b1", "genre-b", 4.0, 1)
	markRead(t, st, "reader", "read-a1", "read-a2", "read-b1")

	// Baseline 4.5, so genre picks need at least 4.0.
	for i, rating := range []int{5, 4, 5, 4} {
		insertTestReview(t, st, fmt.Sprintf("rev-%d", i), fmt.Sprintf("other-%d", i), "reader", rating, domain.ReviewApproved)
	}

	createRatedBook(t, st, "a-high", "genre-a", 4.8, 3)
	createRatedBook(t, st, "a-mid", "genre-a", 4.0, 9)
	createRatedBook(t, st, "a-low", "genre-a", 3.9, 50)
	createRatedBook(t, st, "b-high", "genre-b", 4.8, 7)
	createRatedBook(t, st, "c-popular", "genre-c", 4.2, 40)
	createRatedBook(t, st, "c-weak", "genre-c", 3.5, 90)

	recs, err := engine.Recommend(ctx, "reader", 0)
	require.NoError(t, err)
	assert.Equal(t, domain.ModePersonalized, recs.Mode)
	assert.Equal(t, 3, recs.BooksRead)

	assert.Equal(t, []string{"b-high", "a-high", "a-mid", "c-popular"}, recommendedIDs(recs))
	for _, r := range recs.Items[:3] {
		assert.Equal(t, domain.ReasonGenreAffinity, r.Reason)
		assert.GreaterOrEqual(t, r.Book.AverageRating, 4.0)
	}
	assert.Equal(t, domain.ReasonPopular, recs.Items[3].Reason)

	recs, err = engine.Recommend(ctx, "reader", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b-high", "a-high"}, recommendedIDs(recs))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Recommendations.WithLabelValues("personalized")))
}

func TestRecommend_PersonalizedDefaultBaseline(t *testing.T) {
	engine, st, _ := setupTestRecommendationEngine(t)
	ctx := context.Background()

	createRatedBook(t, st, "read-1", "genre-a", 3.0, 1)
	createRatedBook(t, st, "read-2", "genre-a", 3.0, 1)
	createRatedBook(t, st, "read-3", "genre-a", 3.0, 1)
	markRead(t, st, "reader", "read-1", "read-2", "read-3")

	createRatedBook(t, st, "a-35", "genre-a", 3.5, 1)
	createRatedBook(t, st, "a-34", "genre-a", 3.4, 1)

	recs, err := engine.Recommend(ctx, "reader", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-35"}, recommendedIDs(recs))
}

func TestRecommend_UnknownUser(t *testing.T) {
	engine, _, _ := setupTestRecommendationEngine(t)

	_, err := engine.Recommend(context.Background(), "nobody", 0)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestFavoriteGenres(t *testing.T) {
	genres := []*domain.Genre{{ID: "g1"}, {ID: "g2"}, {ID: "g3"}, {ID: "g4"}}
	books := map[string]*domain.Book{
		"b1": {ID: "b1", GenreID: "g4"},
		"b2": {ID: "b2", GenreID: "g4"},
		"b3": {ID: "b3", GenreID: "g3"},
		"b4": {ID: "b4", GenreID: "g2"},
		"b5": {ID: "b5", GenreID: "gone"},
		"b6": {ID: "b6", GenreID: "g1"},
	}
	readIDs := []string{"b1", "b2", "b3", "b4", "b5", "b6", "missing"}

	assert.Equal(t, []string{"g4", "g1", "g2"}, favoriteGenres(readIDs, books, genres, 3))
	assert.Equal(t, []string{"g4", "g1", "g2", "g3", "gone"}, favoriteGenres(readIDs, books, genres, 10))
}
