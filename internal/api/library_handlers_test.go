package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	"github.com/shelfwiseapp/shelfwise-server/internal/service"
)

func TestLibrary_ShelfLifecycle(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	genreID := ts.createGenre(t, "Fantasy")
	bookID := ts.createBook(t, "The Hobbit", "Tolkien", genreID, 300)
	userID := ts.createUser(t, "bilbo")

	entryID := ts.shelve(t, userID, bookID, domain.ShelfWantToRead)
	book := decode[domain.Book](t, ts.api.Get("/api/v1/books/"+bookID)).Data
	assert.Equal(t, 1, book.TotalShelved)

	resp := ts.api.Patch("/api/v1/library/"+entryID, map[string]any{"shelf": "currentlyReading"}, asUser(userID))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	entry := decode[domain.UserBook](t, resp).Data
	assert.Equal(t, domain.ShelfCurrentlyReading, entry.Shelf)
	require.NotNil(t, entry.StartedAt)
	assert.Nil(t, entry.FinishedAt)

	resp = ts.api.Patch("/api/v1/library/"+entryID, map[string]any{"pages_read": 150}, asUser(userID))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	entry = decode[domain.UserBook](t, resp).Data
	assert.Equal(t, 150, entry.Progress.PagesRead)
	assert.InDelta(t, 50, entry.Progress.Percentage, 0.001)

	resp = ts.api.Patch("/api/v1/library/"+entryID, map[string]any{"shelf": "read"}, asUser(userID))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	entry = decode[domain.UserBook](t, resp).Data
	require.NotNil(t, entry.FinishedAt)
	assert.Equal(t, 300, entry.Progress.PagesRead)
	assert.InDelta(t, 100, entry.Progress.Percentage, 0.001)

	lib := decode[service.Library](t, ts.api.Get("/api/v1/library", asUser(userID))).Data
	assert.Equal(t, 1, lib.Counts.Read)
	assert.Equal(t, 1, lib.Counts.Total)
	require.Len(t, lib.Read, 1)
	assert.Equal(t, "The Hobbit", lib.Read[0].Book.Title)
	assert.Empty(t, lib.WantToRead)

	resp = ts.api.Delete("/api/v1/library/"+entryID, asUser(userID))
	require.Equal(t, http.StatusNoContent, resp.Code)

	book = decode[domain.Book](t, ts.api.Get("/api/v1/books/"+bookID)).Data
	assert.Zero(t, book.TotalShelved)
}

func TestLibrary_DuplicateShelving(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	genreID := ts.createGenre(t, "Fantasy")
	bookID := ts.createBook(t, "The Hobbit", "Tolkien", genreID, 300)
	userID := ts.createUser(t, "bilbo")
	ts.shelve(t, userID, bookID, domain.ShelfWantToRead)

	resp := ts.api.Post("/api/v1/library", map[string]any{"book_id": bookID, "shelf": "read"}, asUser(userID))
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestLibrary_EntriesAreOwnerOnly(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	genreID := ts.createGenre(t, "Fantasy")
	bookID := ts.createBook(t, "The Hobbit", "Tolkien", genreID, 300)
	owner := ts.createUser(t, "bilbo")
	other := ts.createUser(t, "gollum")
	entryID := ts.shelve(t, owner, bookID, domain.ShelfWantToRead)

	resp := ts.api.Patch("/api/v1/library/"+entryID, map[string]any{"shelf": "read"}, asUser(other))
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = ts.api.Delete("/api/v1/library/"+entryID, asUser(other))
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestLibrary_ShelfFilter(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	genreID := ts.createGenre(t, "Fantasy")
	a := ts.createBook(t, "A", "Author", genreID, 100)
	b := ts.createBook(t, "B", "Author", genreID, 100)
	userID := ts.createUser(t, "bilbo")
	ts.shelve(t, userID, a, domain.ShelfWantToRead)
	ts.shelve(t, userID, b, domain.ShelfRead)

	lib := decode[service.Library](t, ts.api.Get("/api/v1/library?shelf=read", asUser(userID))).Data
	require.Len(t, lib.Read, 1)
	assert.Empty(t, lib.WantToRead)

	resp := ts.api.Get("/api/v1/library?shelf=dnf", asUser(userID))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
}
