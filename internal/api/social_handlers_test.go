package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
)

func TestSocial_FollowAndFeed(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	genreID := ts.createGenre(t, "Fantasy")
	bookID := ts.createBook(t, "The Hobbit", "Tolkien", genreID, 310)
	alice := ts.createUser(t, "alice")
	bob := ts.createUser(t, "bob")

	resp := ts.api.Post("/api/v1/users/"+bob+"/follow", asUser(alice))
	require.Equal(t, http.StatusNoContent, resp.Code, resp.Body.String())

	profile := decode[domain.Profile](t, ts.api.Get("/api/v1/users/"+bob)).Data
	assert.Equal(t, 1, profile.FollowerCount)
	assert.Equal(t, []string{alice}, profile.User.Followers)

	ts.shelve(t, bob, bookID, domain.ShelfWantToRead)
	// Activity of users alice does not follow stays out of her feed.
	ts.shelve(t, alice, bookID, domain.ShelfWantToRead)

	feed := decode[ActivityFeedResponse](t, ts.api.Get("/api/v1/feed", asUser(alice))).Data.Activities
	require.Len(t, feed, 1)
	assert.Equal(t, bob, feed[0].UserID)
	assert.Equal(t, domain.ActivityAddedToShelf, feed[0].Kind)
	assert.Equal(t, "The Hobbit", feed[0].BookTitle)
	assert.Equal(t, "Reader bob", feed[0].UserDisplayName)

	resp = ts.api.Delete("/api/v1/users/"+bob+"/follow", asUser(alice))
	require.Equal(t, http.StatusNoContent, resp.Code)

	feed = decode[ActivityFeedResponse](t, ts.api.Get("/api/v1/feed", asUser(alice))).Data.Activities
	assert.Empty(t, feed)

	profile = decode[domain.Profile](t, ts.api.Get("/api/v1/users/"+bob)).Data
	assert.Zero(t, profile.FollowerCount)
}

func TestSocial_FollowConflicts(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	alice := ts.createUser(t, "alice")
	bob := ts.createUser(t, "bob")

	assert.Equal(t, http.StatusConflict, ts.api.Post("/api/v1/users/"+alice+"/follow", asUser(alice)).Code)

	require.Equal(t, http.StatusNoContent, ts.api.Post("/api/v1/users/"+bob+"/follow", asUser(alice)).Code)
	assert.Equal(t, http.StatusConflict, ts.api.Post("/api/v1/users/"+bob+"/follow", asUser(alice)).Code)

	assert.Equal(t, http.StatusNotFound, ts.api.Post("/api/v1/users/user-ghost/follow", asUser(alice)).Code)
}

func TestSocial_UnfollowWithoutEdge(t *testing.T) {
	ts := setupTestServer(t)
	defer ts.cleanup()

	alice := ts.createUser(t, "alice")
	bob := ts.createUser(t, "bob")

	assert.Equal(t, http.StatusNoContent, ts.api.Delete("/api/v1/users/"+bob+"/follow", asUser(alice)).Code)
	assert.Equal(t, http.StatusNotFound, ts.api.Delete("/api/v1/users/user-ghost/follow", asUser(alice)).Code)
}
