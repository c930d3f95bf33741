package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwiseapp/shelfwise-server/internal/errors"
	"github.com/shelfwiseapp/shelfwise-server/internal/genre"
	"github.com/shelfwiseapp/shelfwise-server/internal/id"
	"github.com/shelfwiseapp/shelfwise-server/internal/search"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
	"github.com/shelfwiseapp/shelfwise-server/internal/validation"
)

// overviewTopN is how many books each overview leaderboard shows.
const overviewTopN = 5

// reindexBatch is how many books are read per page while reindexing.
const reindexBatch = 500

// BookSearcher is the full-text index behind catalog search.
type BookSearcher interface {
	Search(ctx context.Context, params search.Params) (*search.Result, error)
	IndexDocuments(docs []*search.BookDocument) error
	Rebuild() error
}

// CatalogService manages genres and books.
type CatalogService struct {
	store     store.Store
	searcher  BookSearcher
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
}

// NewCatalogService creates a new catalog service. searcher may be nil,
// in which case SearchBooks falls back to substring matching.
func NewCatalogService(st store.Store, searcher BookSearcher, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:     st,
		searcher:  searcher,
		validator: validation.New(),
		logger:    logger,
		now:       time.Now,
	}
}

// ListGenres returns every genre in creation order.
func (s *CatalogService) ListGenres(ctx context.Context) ([]*domain.Genre, error) {
	genres, err := s.store.ListGenres(ctx)
	if err != nil {
		return nil, storeError(err, "genres")
	}
	if genres == nil {
		genres = []*domain.Genre{}
	}
	return genres, nil
}

// GetGenre returns a single genre.
func (s *CatalogService) GetGenre(ctx context.Context, genreID string) (*domain.Genre, error) {
	g, err := s.store.GetGenre(ctx, genreID)
	if err != nil {
		return nil, storeError(err, "genre")
	}
	return g, nil
}

// CreateGenreRequest contains fields for creating a genre.
type CreateGenreRequest struct {
	Name        string `json:"name" validate:"required,max=50"`
	Description string `json:"description" validate:"max=200"`
}

// CreateGenre creates a genre. Names and slugs are unique.
func (s *CatalogService) CreateGenre(ctx context.Context, req CreateGenreRequest) (*domain.Genre, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	genreID, err := id.Generate(id.PrefixGenre)
	if err != nil {
		return nil, fmt.Errorf("generate genre ID: %w", err)
	}

	g := &domain.Genre{
		ID:          genreID,
		Name:        req.Name,
		Slug:        genre.Slugify(req.Name),
		Description: req.Description,
		CreatedAt:   s.now(),
	}
	if err := s.store.CreateGenre(ctx, g); err != nil {
		return nil, storeError(err, "genre")
	}

	s.logger.Info("genre created", "id", g.ID, "name", g.Name, "slug", g.Slug)
	return g, nil
}

// UpdateGenreRequest contains fields for updating a genre.
type UpdateGenreRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=50"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=200"`
}

// UpdateGenre renames or redescribes a genre. Renaming recomputes the slug
// and refreshes the genre name in the search index.
func (s *CatalogService) UpdateGenre(ctx context.Context, genreID string, req UpdateGenreRequest) (*domain.Genre, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	g, err := s.GetGenre(ctx, genreID)
	if err != nil {
		return nil, err
	}

	renamed := req.Name != nil && *req.Name != g.Name
	if renamed {
		g.Name = *req.Name
		g.Slug = genre.Slugify(g.Name)
	}
	if req.Description != nil {
		g.Description = *req.Description
	}

	if err := s.store.UpdateGenre(ctx, g); err != nil {
		return nil, storeError(err, "genre")
	}

	if renamed {
		if err := s.reindexGenre(ctx, g); err != nil {
			s.logger.Warn("failed to refresh search index after genre rename", "genre_id", g.ID, "error", err)
		}
	}

	s.logger.Info("genre updated", "id", g.ID, "name", g.Name)
	return g, nil
}

func (s *CatalogService) reindexGenre(ctx context.Context, g *domain.Genre) error {
	if s.searcher == nil {
		return nil
	}
	books, err := s.store.QueryBooks(ctx, store.BookQuery{GenreIDs: []string{g.ID}})
	if err != nil {
		return err
	}
	docs := make([]*search.BookDocument, len(books))
	for i, b := range books {
		docs[i] = search.NewBookDocument(b, g.Name)
	}
	return s.searcher.IndexDocuments(docs)
}

// SeedGenres creates the default genres when the catalog has none.
// Returns the number created.
func (s *CatalogService) SeedGenres(ctx context.Context) (int, error) {
	existing, err := s.ListGenres(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	base := s.now()
	for i, seed := range genre.Defaults {
		genreID, err := id.Generate(id.PrefixGenre)
		if err != nil {
			return i, fmt.Errorf("generate genre ID: %w", err)
		}
		g := &domain.Genre{
			ID:          genreID,
			Name:        seed.Name,
			Slug:        genre.Slugify(seed.Name),
			Description: seed.Description,
			CreatedAt:   base.Add(time.Duration(i) * time.Millisecond),
		}
		if err := s.store.CreateGenre(ctx, g); err != nil {
			return i, storeError(err, "genre")
		}
	}

	s.logger.Info("seeded default genres", "count", len(genre.Defaults))
	return len(genre.Defaults), nil
}

// GetBook returns a single book.
func (s *CatalogService) GetBook(ctx context.Context, bookID string) (*domain.Book, error) {
	return loadBook(ctx, s.store, bookID)
}

// CreateBookRequest contains fields for adding a book to the catalog.
type CreateBookRequest struct {
	Title           string `json:"title" validate:"required,max=200"`
	Author          string `json:"author" validate:"required,max=100"`
	GenreID         string `json:"genre_id" validate:"required"`
	Description     string `json:"description" validate:"required,max=2000"`
	CoverRef        string `json:"cover_ref" validate:"max=500"`
	TotalPages      int    `json:"total_pages" validate:"gte=0"`
	PublicationYear int    `json:"publication_year" validate:"gte=0"`
	ISBN            string `json:"isbn" validate:"max=20"`
}

// CreateBook adds a book with zero aggregates.
// Returns a Conflict error if the ISBN is already used.
func (s *CatalogService) CreateBook(ctx context.Context, req CreateBookRequest) (*domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	req.ISBN = strings.TrimSpace(req.ISBN)
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}
	if _, err := s.GetGenre(ctx, req.GenreID); err != nil {
		return nil, err
	}

	bookID, err := id.Generate(id.PrefixBook)
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	now := s.now()
	b := &domain.Book{
		ID:              bookID,
		Title:           req.Title,
		Author:          req.Author,
		GenreID:         req.GenreID,
		Description:     req.Description,
		CoverRef:        req.CoverRef,
		TotalPages:      req.TotalPages,
		PublicationYear: req.PublicationYear,
		ISBN:            req.ISBN,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateBook(ctx, b); err != nil {
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflictf("a book with ISBN %q already exists", req.ISBN)
		}
		return nil, storeError(err, "book")
	}

	s.logger.Info("book created", "id", b.ID, "title", b.Title, "genre_id", b.GenreID)
	return b, nil
}

// UpdateBookRequest contains descriptive fields to change. Derived
// aggregates cannot be set.
type UpdateBookRequest struct {
	Title           *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Author          *string `json:"author,omitempty" validate:"omitempty,min=1,max=100"`
	GenreID         *string `json:"genre_id,omitempty" validate:"omitempty,min=1"`
	Description     *string `json:"description,omitempty" validate:"omitempty,min=1,max=2000"`
	CoverRef        *string `json:"cover_ref,omitempty" validate:"omitempty,max=500"`
	TotalPages      *int    `json:"total_pages,omitempty" validate:"omitempty,gte=0"`
	PublicationYear *int    `json:"publication_year,omitempty" validate:"omitempty,gte=0"`
	ISBN            *string `json:"isbn,omitempty" validate:"omitempty,max=20"`
}

// UpdateBook changes a book's descriptive fields.
func (s *CatalogService) UpdateBook(ctx context.Context, bookID string, req UpdateBookRequest) (*domain.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	b, err := loadBook(ctx, s.store, bookID)
	if err != nil {
		return nil, err
	}

	if req.GenreID != nil && *req.GenreID != b.GenreID {
		if _, err := s.GetGenre(ctx, *req.GenreID); err != nil {
			return nil, err
		}
		b.GenreID = *req.GenreID
	}
	if req.Title != nil {
		b.Title = strings.TrimSpace(*req.Title)
	}
	if req.Author != nil {
		b.Author = strings.TrimSpace(*req.Author)
	}
	if req.Description != nil {
		b.Description = *req.Description
	}
	if req.CoverRef != nil {
		b.CoverRef = *req.CoverRef
	}
	if req.TotalPages != nil {
		b.TotalPages = *req.TotalPages
	}
	if req.PublicationYear != nil {
		b.PublicationYear = *req.PublicationYear
	}
	if req.ISBN != nil {
		b.ISBN = strings.TrimSpace(*req.ISBN)
	}
	b.UpdatedAt = s.now()

	if err := s.store.UpdateBook(ctx, b); err != nil {
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflictf("a book with ISBN %q already exists", b.ISBN)
		}
		return nil, storeError(err, "book")
	}

	s.logger.Info("book updated", "id", b.ID, "title", b.Title)
	return b, nil
}

// DeleteBook removes a book together with its reviews and ledger entries.
// Dependents go first so a failure part way never leaves entries pointing
// at a missing book.
func (s *CatalogService) DeleteBook(ctx context.Context, bookID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := loadBook(ctx, s.store, bookID); err != nil {
		return err
	}

	reviews, err := s.store.DeleteReviewsByBook(ctx, bookID)
	if err != nil {
		return storeError(err, "reviews")
	}
	entries, err := s.store.DeleteUserBooksByBook(ctx, bookID)
	if err != nil {
		return storeError(err, "shelf entries")
	}
	if err := s.store.DeleteBook(ctx, bookID); err != nil {
		return storeError(err, "book")
	}

	s.logger.Info("book deleted", "id", bookID, "reviews", reviews, "shelf_entries", entries)
	return nil
}

// Book list sort keys.
const (
	SortNewest  = "newest"
	SortRating  = "rating"
	SortShelved = "shelved"
	SortTitle   = "title"
)

// ListBooksParams filters and pages the catalog.
type ListBooksParams struct {
	Search    string   `json:"search" validate:"max=200"`
	GenreIDs  []string `json:"genre_ids"`
	MinRating *float64 `json:"min_rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	MaxRating *float64 `json:"max_rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	Sort      string   `json:"sort" validate:"omitempty,oneof=newest rating shelved title"`
	store.PageParams
}

// ListBooks returns one page of catalog books.
func (s *CatalogService) ListBooks(ctx context.Context, params ListBooksParams) (store.Page[*domain.Book], error) {
	if err := s.validator.Validate(params); err != nil {
		return store.Page[*domain.Book]{}, err
	}
	params.PageParams.Validate()

	q := store.BookQuery{
		Text:      strings.TrimSpace(params.Search),
		GenreIDs:  params.GenreIDs,
		MinRating: params.MinRating,
		MaxRating: params.MaxRating,
		Limit:     params.Limit,
		Offset:    params.Offset(),
	}
	switch params.Sort {
	case SortRating:
		q.Sort = []store.SortField{store.Desc(store.FieldAverageRating)}
	case SortShelved:
		q.Sort = []store.SortField{store.Desc(store.FieldTotalShelved)}
	case SortTitle:
		q.Sort = []store.SortField{store.Asc(store.FieldTitle)}
	default:
		q.Sort = []store.SortField{store.Desc(store.FieldCreatedAt)}
	}

	var (
		books []*domain.Book
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		books, err = s.store.QueryBooks(gctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		total, err = s.store.CountBooks(gctx, q)
		return err
	})
	if err := g.Wait(); err != nil {
		return store.Page[*domain.Book]{}, storeError(err, "books")
	}

	return store.NewPage(books, total, params.PageParams), nil
}

// SearchBooks runs a full-text search over the catalog.
func (s *CatalogService) SearchBooks(ctx context.Context, params search.Params) (*search.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params.Query = strings.TrimSpace(params.Query)
	if params.Query == "" {
		return nil, domainerrors.Validation("search query is required")
	}
	if s.searcher == nil {
		return nil, domainerrors.Internal("search index is not available")
	}

	result, err := s.searcher.Search(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	return result, nil
}

// Reindex rebuilds the search index from the store. Returns the number of
// books indexed.
func (s *CatalogService) Reindex(ctx context.Context) (int, error) {
	if s.searcher == nil {
		return 0, nil
	}

	start := time.Now()
	genres, err := s.ListGenres(ctx)
	if err != nil {
		return 0, err
	}
	names := make(map[string]string, len(genres))
	for _, g := range genres {
		names[g.ID] = g.Name
	}

	if err := s.searcher.Rebuild(); err != nil {
		return 0, fmt.Errorf("rebuild search index: %w", err)
	}

	indexed := 0
	for offset := 0; ; offset += reindexBatch {
		books, err := s.store.QueryBooks(ctx, store.BookQuery{Limit: reindexBatch, Offset: offset})
		if err != nil {
			return indexed, storeError(err, "books")
		}
		if len(books) == 0 {
			break
		}
		docs := make([]*search.BookDocument, len(books))
		for i, b := range books {
			docs[i] = search.NewBookDocument(b, names[b.GenreID])
		}
		if err := s.searcher.IndexDocuments(docs); err != nil {
			return indexed, fmt.Errorf("index books: %w", err)
		}
		indexed += len(books)
		if len(books) < reindexBatch {
			break
		}
	}

	s.logger.Info("search index rebuilt", "books", indexed, "duration", time.Since(start))
	return indexed, nil
}

// Overview summarises the catalog for moderators.
func (s *CatalogService) Overview(ctx context.Context) (*domain.CatalogOverview, error) {
	var (
		ov          domain.CatalogOverview
		genres      []*domain.Genre
		byGenre     map[string]int
		topRated    []*domain.Book
		mostShelved []*domain.Book
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		ov.TotalBooks, err = s.store.CountBooks(gctx, store.BookQuery{})
		return err
	})
	g.Go(func() (err error) {
		ov.TotalUsers, err = s.store.CountUsers(gctx)
		return err
	})
	g.Go(func() (err error) {
		ov.TotalReviews, err = s.store.CountReviews(gctx, store.ReviewFilter{})
		return err
	})
	g.Go(func() (err error) {
		ov.PendingReviews, err = s.store.CountReviews(gctx, store.ReviewFilter{Status: domain.ReviewPending})
		return err
	})
	g.Go(func() (err error) {
		genres, err = s.store.ListGenres(gctx)
		return err
	})
	g.Go(func() (err error) {
		byGenre, err = s.store.CountBooksByGenre(gctx)
		return err
	})
	g.Go(func() (err error) {
		topRated, err = s.store.QueryBooks(gctx, store.BookQuery{
			Sort:  []store.SortField{store.Desc(store.FieldAverageRating), store.Desc(store.FieldTotalShelved)},
			Limit: overviewTopN,
		})
		return err
	})
	g.Go(func() (err error) {
		mostShelved, err = s.store.QueryBooks(gctx, store.BookQuery{
			Sort:  []store.SortField{store.Desc(store.FieldTotalShelved), store.Desc(store.FieldAverageRating)},
			Limit: overviewTopN,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, storeError(err, "overview")
	}

	names := make(map[string]string, len(genres))
	for _, gen := range genres {
		names[gen.ID] = gen.Name
	}
	ov.BooksPerGenre = make(map[string]int, len(byGenre))
	for genreID, n := range byGenre {
		name, ok := names[genreID]
		if !ok {
			name = domain.UnknownGenre
		}
		ov.BooksPerGenre[name] += n
	}
	ov.TopRated = derefBooks(topRated)
	ov.MostShelved = derefBooks(mostShelved)
	return &ov, nil
}

func derefBooks(books []*domain.Book) []domain.Book {
	out := make([]domain.Book, len(books))
	for i, b := range books {
		out[i] = *b
	}
	return out
}
