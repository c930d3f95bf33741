package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwiseapp/shelfwise-server/internal/errors"
	"github.com/shelfwiseapp/shelfwise-server/internal/genre"
	"github.com/shelfwiseapp/shelfwise-server/internal/search"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
	"github.com/shelfwiseapp/shelfwise-server/internal/store/sqlite"
)

func setupTestCatalogService(t *testing.T) (*CatalogService, *sqlite.Store, *search.SearchIndex) {
	t.Helper()
	st := newTestStore(t)
	idx, err := search.NewSearchIndex(search.Options{InMemory: true, Logger: testLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() })
	st.SetSearchIndexer(idx)
	return NewCatalogService(st, idx, testLogger()), st, idx
}

func newBookRequest(title, genreID string) CreateBookRequest {
	return CreateBookRequest{
		Title:       title,
		Author:      "Author of " + title,
		GenreID:     genreID,
		Description: "About " + title,
		TotalPages:  320,
	}
}

func TestCatalogService_Genres(t *testing.T) {
	svc, _, _ := setupTestCatalogService(t)
	ctx := context.Background()

	g, err := svc.CreateGenre(ctx, CreateGenreRequest{Name: "  Science Fiction ", Description: "Space"})
	require.NoError(t, err)
	assert.Equal(t, "Science Fiction", g.Name)
	assert.Equal(t, "science-fiction", g.Slug)

	_, err = svc.CreateGenre(ctx, CreateGenreRequest{Name: "Science Fiction"})
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
	_, err = svc.CreateGenre(ctx, CreateGenreRequest{Name: ""})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	name := "Hard  Sci Fi"
	g, err = svc.UpdateGenre(ctx, g.ID, UpdateGenreRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "hard-sci-fi", g.Slug)
	assert.Equal(t, "Space", g.Description)

	_, err = svc.UpdateGenre(ctx, "genre-missing", UpdateGenreRequest{Name: &name})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	genres, err := svc.ListGenres(ctx)
	require.NoError(t, err)
	require.Len(t, genres, 1)
	assert.Equal(t, "Hard  Sci Fi", genres[0].Name)
}

func TestCatalogService_SeedGenres(t *testing.T) {
	svc, _, _ := setupTestCatalogService(t)
	ctx := context.Background()

	n, err := svc.SeedGenres(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(genre.Defaults), n)

	genres, err := svc.ListGenres(ctx)
	require.NoError(t, err)
	require.Len(t, genres, len(genre.Defaults))
	for i, g := range genres {
		assert.Equal(t, genre.Defaults[i].Name, g.Name)
	}

	n, err = svc.SeedGenres(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCatalogService_BookLifecycle(t *testing.T) {
	svc, st, _ := setupTestCatalogService(t)
	ctx := context.Background()

	fantasy, err := svc.CreateGenre(ctx, CreateGenreRequest{Name: "Fantasy"})
	require.NoError(t, err)
	mystery, err := svc.CreateGenre(ctx, CreateGenreRequest{Name: "Mystery"})
	require.NoError(t, err)

	req := newBookRequest("The Hobbit", fantasy.ID)
	req.ISBN = "9780261103344"
	book, err := svc.CreateBook(ctx, req)
	require.NoError(t, err)
	assert.Zero(t, book.AverageRating)

	dup := newBookRequest("Another", fantasy.ID)
	dup.ISBN = "9780261103344"
	_, err = svc.CreateBook(ctx, dup)
	assert.ErrorIs(t, err, domainerrors.ErrConflict)

	_, err = svc.CreateBook(ctx, newBookRequest("Orphan", "genre-missing"))
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	_, err = svc.CreateBook(ctx, CreateBookRequest{GenreID: fantasy.ID})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	require.NoError(t, st.SetRatingAggregate(ctx, book.ID, domain.RatingAggregate{Average: 4.2, Count: 5}))

	title := "The Hobbit, Illustrated"
	pages := 400
	updated, err := svc.UpdateBook(ctx, book.ID, UpdateBookRequest{Title: &title, TotalPages: &pages, GenreID: &mystery.ID})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, mystery.ID, updated.GenreID)

	stored, err := svc.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 400, stored.TotalPages)
	assert.Equal(t, 4.2, stored.AverageRating)
	assert.Equal(t, 5, stored.TotalRatings)

	now := time.Now()
	require.NoError(t, st.CreateReview(ctx, &domain.Review{
		ID: "rev-1", BookID: book.ID, UserID: "user-1", Rating: 4, Comment: "c",
		Status: domain.ReviewApproved, CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, st.CreateUserBook(ctx, &domain.UserBook{
		ID: "ub-1", UserID: "user-1", BookID: book.ID, Shelf: domain.ShelfRead,
		CreatedAt: now, UpdatedAt: now,
	}))

	require.NoError(t, svc.DeleteBook(ctx, book.ID))
	_, err = svc.GetBook(ctx, book.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	_, err = st.GetReview(ctx, "rev-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.GetUserBook(ctx, "ub-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.ErrorIs(t, svc.DeleteBook(ctx, book.ID), domainerrors.ErrNotFound)
}

func TestCatalogService_ListBooks(t *testing.T) {
	svc, st, _ := setupTestCatalogService(t)
	ctx := context.Background()

	g1, err := svc.CreateGenre(ctx, CreateGenreRequest{Name: "Fantasy"})
	require.NoError(t, err)
	g2, err := svc.CreateGenre(ctx, CreateGenreRequest{Name: "Horror"})
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ratings := []float64{3.0, 4.5, 4.0, 2.5, 5.0}
	var ids []string
	for i, r := range ratings {
		svc.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		genreID := g1.ID
		if i%2 == 1 {
			genreID = g2.ID
		}
		b, err := svc.CreateBook(ctx, newBookRequest("Book "+string(rune('A'+i)), genreID))
		require.NoError(t, err)
		require.NoError(t, st.SetRatingAggregate(ctx, b.ID, domain.RatingAggregate{Average: r, Count: 1}))
		ids = append(ids, b.ID)
	}

	page, err := svc.ListBooks(ctx, ListBooksParams{PageParams: store.PageParams{Limit: 2}})
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 1, page.Page)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ids[4], page.Items[0].ID)

	page, err = svc.ListBooks(ctx, ListBooksParams{Sort: SortRating, MinRating: store.Float(4.0)})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, []string{ids[4], ids[1], ids[2]}, []string{page.Items[0].ID, page.Items[1].ID, page.Items[2].ID})

	page, err = svc.ListBooks(ctx, ListBooksParams{GenreIDs: []string{g2.ID}, Sort: SortTitle})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, "Book B", page.Items[0].Title)

	page, err = svc.ListBooks(ctx, ListBooksParams{Search: "book c"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	_, err = svc.ListBooks(ctx, ListBooksParams{Sort: "popularity"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	_, err = svc.ListBooks(ctx, ListBooksParams{MinRating: store.Float(7)})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestCatalogService_SearchAndReindex(t *testing.T) {
	svc, _, idx := setupTestCatalogService(t)
	ctx := context.Background()

	g, err := svc.CreateGenre(ctx, CreateGenreRequest{Name: "Fantasy"})
	require.NoError(t, err)
	hobbit, err := svc.CreateBook(ctx, newBookRequest("The Hobbit", g.ID))
	require.NoError(t, err)
	_, err = svc.CreateBook(ctx, newBookRequest("Dune", g.ID))
	require.NoError(t, err)

	res, err := svc.SearchBooks(ctx, search.Params{Query: "hobbit"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)
	assert.Equal(t, hobbit.ID, res.Hits[0].ID)

	_, err = svc.SearchBooks(ctx, search.Params{Query: "  "})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	n, err := svc.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	count, err := idx.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	renamed := "High Fantasy"
	_, err = svc.UpdateGenre(ctx, g.ID, UpdateGenreRequest{Name: &renamed})
	require.NoError(t, err)
	res, err = svc.SearchBooks(ctx, search.Params{Query: "hobbit"})
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)
	assert.Equal(t, "High Fantasy", res.Hits[0].Genre)
}

func TestCatalogService_Overview(t *testing.T) {
	svc, st, _ := setupTestCatalogService(t)
	ctx := context.Background()

	g, err := svc.CreateGenre(ctx, CreateGenreRequest{Name: "Fantasy"})
	require.NoError(t, err)
	var ids []string
	for i := range 7 {
		b, err := svc.CreateBook(ctx, newBookRequest("Book "+string(rune('A'+i)), g.ID))
		require.NoError(t, err)
		require.NoError(t, st.SetRatingAggregate(ctx, b.ID, domain.RatingAggregate{Average: float64(i%5) + 0.5, Count: 1}))
		require.NoError(t, st.SetShelvedCount(ctx, b.ID, i))
		ids = append(ids, b.ID)
	}
	createTestBook(t, st, "book-orphan", "genre-gone", 10)
	createTestUser(t, st, "user-1")
	insertTestReview(t, st, "rev-1", ids[0], "user-1", 5, domain.ReviewApproved)
	insertTestReview(t, st, "rev-2", ids[1], "user-1", 5, domain.ReviewPending)

	ov, err := svc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, ov.TotalBooks)
	assert.Equal(t, 1, ov.TotalUsers)
	assert.Equal(t, 2, ov.TotalReviews)
	assert.Equal(t, 1, ov.PendingReviews)
	assert.Equal(t, map[string]int{"Fantasy": 7, domain.UnknownGenre: 1}, ov.BooksPerGenre)

	require.Len(t, ov.TopRated, 5)
	assert.Equal(t, ids[4], ov.TopRated[0].ID)
	require.Len(t, ov.MostShelved, 5)
	assert.Equal(t, ids[6], ov.MostShelved[0].ID)
}
