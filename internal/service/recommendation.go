package service

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	"github.com/shelfwiseapp/shelfwise-server/internal/metrics"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
)

// Recommendation tuning.
const (
	DefaultRecommendLimit = 12
	MaxRecommendLimit     = 50

	// personalizedThreshold is the read-shelf size at which personalized
	// mode takes over from discovery.
	personalizedThreshold = 3
	topGenres             = 3
	defaultBaseline       = 4.0
	baselineSlack         = 0.5
	popularMinRating      = 4.0

	highlyRatedPool = 10
	discoveryPool   = 8
)

// RecommendationEngine ranks books for a reader from their reading history.
// It only reads, so it needs no locking against concurrent writers.
type RecommendationEngine struct {
	store        store.Store
	defaultLimit int
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// NewRecommendationEngine creates a recommendation engine. A non-positive
// defaultLimit uses DefaultRecommendLimit.
func NewRecommendationEngine(st store.Store, defaultLimit int, m *metrics.Metrics, logger *slog.Logger) *RecommendationEngine {
	if defaultLimit <= 0 {
		defaultLimit = DefaultRecommendLimit
	}
	return &RecommendationEngine{
		store:        st,
		defaultLimit: defaultLimit,
		metrics:      m,
		logger:       logger,
	}
}

// Recommend returns recommendations for userID.
//
// Readers with at least three finished books get personalized picks: books
// from their three most-read genres rated no lower than their own average
// review minus half a star, topped up with popular books. Everyone else
// gets discovery mode: up to ten highly rated books plus up to eight drawn
// uniformly at random. limit applies to personalized mode only.
func (e *RecommendationEngine) Recommend(ctx context.Context, userID string, limit int) (*domain.Recommendations, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = e.defaultLimit
	case limit > MaxRecommendLimit:
		limit = MaxRecommendLimit
	}

	if _, err := loadUser(ctx, e.store, userID); err != nil {
		return nil, err
	}
	read, err := e.store.ListUserBooks(ctx, store.LedgerFilter{UserID: userID, Shelf: domain.ShelfRead})
	if err != nil {
		return nil, storeError(err, "library")
	}
	readIDs := make([]string, len(read))
	for i, ub := range read {
		readIDs[i] = ub.BookID
	}

	out := &domain.Recommendations{BooksRead: len(read)}
	if len(read) >= personalizedThreshold {
		out.Mode = domain.ModePersonalized
		out.Items, err = e.personalized(ctx, userID, readIDs, limit)
	} else {
		out.Mode = domain.ModeDiscovery
		out.Items, err = e.discovery(ctx, readIDs)
	}
	if err != nil {
		return nil, storeError(err, "recommendations")
	}

	if e.metrics != nil {
		e.metrics.RecordRecommendation(string(out.Mode))
	}
	e.logger.Debug("recommendations computed",
		"user_id", userID,
		"mode", out.Mode,
		"books_read", out.BooksRead,
		"items", len(out.Items),
	)
	return out, nil
}

func (e *RecommendationEngine) personalized(ctx context.Context, userID string, readIDs []string, limit int) ([]domain.Recommendation, error) {
	var (
		genres    []*domain.Genre
		readBooks map[string]*domain.Book
		reviews   []*domain.Review
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		genres, err = e.store.ListGenres(gctx)
		return err
	})
	g.Go(func() (err error) {
		readBooks, err = e.store.GetBooksByIDs(gctx, readIDs)
		return err
	})
	g.Go(func() (err error) {
		reviews, err = e.store.ListReviews(gctx, store.ReviewFilter{UserID: userID})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	favorites := favoriteGenres(readIDs, readBooks, genres, topGenres)
	baseline := ratingBaseline(reviews)

	var items []domain.Recommendation
	if len(favorites) > 0 {
		poolA, err := e.store.QueryBooks(ctx, store.BookQuery{
			GenreIDs:   favorites,
			ExcludeIDs: readIDs,
			MinRating:  store.Float(baseline - baselineSlack),
			Sort:       []store.SortField{store.Desc(store.FieldAverageRating), store.Desc(store.FieldTotalShelved)},
			Limit:      limit,
		})
		if err != nil {
			return nil, err
		}
		items = appendRecommendations(items, poolA, domain.ReasonGenreAffinity)
	}

	if len(items) < limit {
		exclude := slices.Clone(readIDs)
		for _, r := range items {
			exclude = append(exclude, r.Book.ID)
		}
		poolB, err := e.store.QueryBooks(ctx, store.BookQuery{
			ExcludeIDs: exclude,
			MinRating:  store.Float(popularMinRating),
			Sort:       []store.SortField{store.Desc(store.FieldTotalShelved), store.Desc(store.FieldAverageRating)},
			Limit:      limit - len(items),
		})
		if err != nil {
			return nil, err
		}
		items = appendRecommendations(items, poolB, domain.ReasonPopular)
	}
	return nonNil(items), nil
}

func (e *RecommendationEngine) discovery(ctx context.Context, readIDs []string) ([]domain.Recommendation, error) {
	poolC, err := e.store.QueryBooks(ctx, store.BookQuery{
		MinRating:  store.Float(popularMinRating),
		MinShelved: 1,
		Sort:       []store.SortField{store.Desc(store.FieldAverageRating), store.Desc(store.FieldTotalShelved)},
		Limit:      highlyRatedPool,
	})
	if err != nil {
		return nil, err
	}
	items := appendRecommendations(nil, poolC, domain.ReasonHighlyRated)

	exclude := slices.Clone(readIDs)
	for _, b := range poolC {
		exclude = append(exclude, b.ID)
	}
	poolD, err := e.store.SampleBooks(ctx, exclude, discoveryPool)
	if err != nil {
		return nil, err
	}
	items = appendRecommendations(items, poolD, domain.ReasonDiscovery)
	return nonNil(items), nil
}

// favoriteGenres returns up to n genre IDs ordered by how many read books
// they hold. Equal counts keep genre creation order; genres that no longer
// exist sort after all known ones.
func favoriteGenres(readIDs []string, books map[string]*domain.Book, genres []*domain.Genre, n int) []string {
	counts := make(map[string]int)
	for _, bookID := range readIDs {
		if b, ok := books[bookID]; ok {
			counts[b.GenreID]++
		}
	}

	rank := make(map[string]int, len(genres))
	for i, g := range genres {
		rank[g.ID] = i
	}
	position := func(genreID string) int {
		if r, ok := rank[genreID]; ok {
			return r
		}
		return len(genres)
	}

	ids := make([]string, 0, len(counts))
	for genreID := range counts {
		ids = append(ids, genreID)
	}
	slices.SortFunc(ids, func(a, b string) int {
		return cmp.Or(
			cmp.Compare(counts[b], counts[a]),
			cmp.Compare(position(a), position(b)),
			cmp.Compare(a, b),
		)
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

// ratingBaseline is the mean of the reader's own ratings, or 4.0 without any.
func ratingBaseline(reviews []*domain.Review) float64 {
	if len(reviews) == 0 {
		return defaultBaseline
	}
	return ratingMean(reviews)
}

func appendRecommendations(items []domain.Recommendation, books []*domain.Book, reason string) []domain.Recommendation {
	for _, b := range books {
		items = append(items, domain.Recommendation{Book: *b, Reason: reason})
	}
	return items
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
