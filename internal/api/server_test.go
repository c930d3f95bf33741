package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	"github.com/shelfwiseapp/shelfwise-server/internal/metrics"
	"github.com/shelfwiseapp/shelfwise-server/internal/queue"
	"github.com/shelfwiseapp/shelfwise-server/internal/search"
	"github.com/shelfwiseapp/shelfwise-server/internal/service"
	"github.com/shelfwiseapp/shelfwise-server/internal/store/sqlite"
)

// testEnvelope decodes an enveloped response with typed data.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Code    string `json:"code"`
	Error   string `json:"error"`
}

type testServer struct {
	*Server
	api     humatest.TestAPI
	metrics *metrics.Metrics
	cleanup func()
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	return setupTestServerWithOptions(t, Options{Name: "Test Server"})
}

// setupTestServerWithOptions wires a server over a fresh SQLite store, an
// in-memory search index and an in-memory recompute queue.
func setupTestServerWithOptions(t *testing.T, opts Options) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)

	idx, err := search.NewSearchIndex(search.Options{InMemory: true, Logger: logger})
	require.NoError(t, err)
	st.SetSearchIndexer(idx)

	q, err := queue.OpenInMemory(logger)
	require.NoError(t, err)

	m := metrics.New()
	aggregates := service.NewAggregateMaintainer(st, logger, service.AggregateOptions{
		Attempts: 2,
		Backoff:  time.Millisecond,
		Queue:    q,
		Metrics:  m,
	})
	activities := service.NewActivityService(st, m, domain.DefaultActivityRetention, logger)

	services := &Services{
		Catalog:        service.NewCatalogService(st, idx, logger),
		Library:        service.NewLibraryService(st, aggregates, activities, logger),
		Review:         service.NewReviewService(st, aggregates, activities, logger),
		User:           service.NewUserService(st, logger),
		Social:         service.NewSocialService(st, logger, service.SocialOptions{Attempts: 2, Backoff: time.Millisecond, FeedLimit: 20, Metrics: m}),
		Recommendation: service.NewRecommendationEngine(st, 12, m, logger),
		Stats:          service.NewStatsEngine(st, logger),
		Activity:       activities,
		Recompute:      service.NewRecomputeWorker(st, aggregates, q, m, time.Minute, logger),
		Search:         idx,
		Queue:          q,
	}

	server := NewServer(st, services, m, opts, logger)

	return &testServer{
		Server:  server,
		api:     humatest.Wrap(t, server.API()),
		metrics: m,
		cleanup: func() {
			server.Close()
			_ = q.Close()
			_ = idx.Close()
			_ = st.Close()
		},
	}
}

func asUser(userID string) string {
	return UserIDHeader + ": " + userID
}

// decode unmarshals an enveloped response body.
func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

func (ts *testServer) createUser(t *testing.T, username string) string {
	t.Helper()
	resp := ts.api.Post("/api/v1/users", map[string]any{
		"username":     username,
		"display_name": "Reader " + username,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[domain.User](t, resp).Data.ID
}

func (ts *testServer) createGenre(t *testing.T, name string) string {
	t.Helper()
	resp := ts.api.Post("/api/v1/genres", map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[domain.Genre](t, resp).Data.ID
}

func (ts *testServer) createBook(t *testing.T, title, author, genreID string, pages int) string {
	t.Helper()
	resp := ts.api.Post("/api/v1/books", map[string]any{
		"title":       title,
		"author":      author,
		"genre_id":    genreID,
		"description": "A book called " + title,
		"total_pages": pages,
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[domain.Book](t, resp).Data.ID
}

func (ts *testServer) shelve(t *testing.T, userID, bookID string, shelf domain.Shelf) string {
	t.Helper()
	resp := ts.api.Post("/api/v1/library", map[string]any{
		"book_id": bookID,
		"shelf":   shelf,
	}, asUser(userID))
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decode[domain.UserBook](t, resp).Data.ID
}
