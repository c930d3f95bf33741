package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	"github.com/shelfwiseapp/shelfwise-server/internal/service"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "List books",
		Description: "Returns a filtered, sorted page of the catalog",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBook",
		Method:        http.MethodPost,
		Path:          "/api/v1/books",
		Summary:       "Create book",
		Description:   "Adds a book to the catalog with empty ratings",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book with its current rating and shelving aggregates",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateBook",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{id}",
		Summary:     "Update book",
		Description: "Changes descriptive fields. Ratings and shelving counts are derived and cannot be set",
		Tags:        []string{"Books"},
	}, s.handleUpdateBook)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteBook",
		Method:        http.MethodDelete,
		Path:          "/api/v1/books/{id}",
		Summary:       "Delete book",
		Description:   "Deletes a book together with its reviews and shelf entries",
		Tags:          []string{"Books"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBookReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}/reviews",
		Summary:     "Get book reviews",
		Description: "Returns approved reviews for a book, newest first",
		Tags:        []string{"Books", "Reviews"},
	}, s.handleGetBookReviews)
}

// === DTOs ===

type ListBooksInput struct {
	Search    string   `query:"search" maxLength:"200" doc:"Substring of title or author"`
	GenreIDs  []string `query:"genre_id" doc:"Restrict to these genres"`
	MinRating float64  `query:"min_rating" minimum:"0" maximum:"5" doc:"Minimum average rating"`
	MaxRating float64  `query:"max_rating" minimum:"0" maximum:"5" doc:"Maximum average rating (0 for no bound)"`
	Sort      string   `query:"sort" enum:"newest,rating,shelved,title" default:"newest" doc:"Sort order"`
	Page      int      `query:"page" minimum:"1" default:"1" doc:"Page number"`
	Limit     int      `query:"limit" minimum:"1" maximum:"100" default:"12" doc:"Page size"`
}

type BookPageResponse struct {
	Books      []*domain.Book `json:"books" doc:"Books on this page"`
	Total      int            `json:"total" doc:"Books matching the filter"`
	Page       int            `json:"page" doc:"Current page"`
	TotalPages int            `json:"total_pages" doc:"Number of pages"`
}

type BookPageOutput struct {
	Body BookPageResponse
}

type CreateBookRequest struct {
	Title           string `json:"title" minLength:"1" maxLength:"200" doc:"Title"`
	Author          string `json:"author" minLength:"1" maxLength:"100" doc:"Author"`
	GenreID         string `json:"genre_id" minLength:"1" doc:"Genre ID"`
	Description     string `json:"description" minLength:"1" maxLength:"2000" doc:"Description"`
	CoverRef        string `json:"cover_ref,omitempty" maxLength:"500" doc:"Cover image reference"`
	TotalPages      int    `json:"total_pages,omitempty" minimum:"0" doc:"Page count"`
	PublicationYear int    `json:"publication_year,omitempty" minimum:"0" doc:"Year of publication"`
	ISBN            string `json:"isbn,omitempty" maxLength:"20" doc:"ISBN, unique when set"`
}

type CreateBookInput struct {
	Body CreateBookRequest
}

type BookOutput struct {
	Body *domain.Book
}

type GetBookInput struct {
	ID string `path:"id" doc:"Book ID"`
}

type UpdateBookInput struct {
	ID   string `path:"id" doc:"Book ID"`
	Body service.UpdateBookRequest
}

type ReviewsResponse struct {
	Reviews []*domain.Review `json:"reviews" doc:"Reviews"`
}

type ReviewsOutput struct {
	Body ReviewsResponse
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*BookPageOutput, error) {
	params := service.ListBooksParams{
		Search:     input.Search,
		GenreIDs:   input.GenreIDs,
		Sort:       input.Sort,
		PageParams: store.PageParams{Page: input.Page, Limit: input.Limit},
	}
	if input.MinRating > 0 {
		params.MinRating = &input.MinRating
	}
	if input.MaxRating > 0 {
		params.MaxRating = &input.MaxRating
	}

	page, err := s.services.Catalog.ListBooks(ctx, params)
	if err != nil {
		return nil, err
	}

	return &BookPageOutput{Body: BookPageResponse{
		Books:      page.Items,
		Total:      page.Total,
		Page:       page.Page,
		TotalPages: page.TotalPages,
	}}, nil
}

func (s *Server) handleCreateBook(ctx context.Context, input *CreateBookInput) (*BookOutput, error) {
	b, err := s.services.Catalog.CreateBook(ctx, service.CreateBookRequest{
		Title:           input.Body.Title,
		Author:          input.Body.Author,
		GenreID:         input.Body.GenreID,
		Description:     input.Body.Description,
		CoverRef:        input.Body.CoverRef,
		TotalPages:      input.Body.TotalPages,
		PublicationYear: input.Body.PublicationYear,
		ISBN:            input.Body.ISBN,
	})
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: b}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	b, err := s.services.Catalog.GetBook(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: b}, nil
}

func (s *Server) handleUpdateBook(ctx context.Context, input *UpdateBookInput) (*BookOutput, error) {
	b, err := s.services.Catalog.UpdateBook(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: b}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *GetBookInput) (*struct{}, error) {
	if err := s.services.Catalog.DeleteBook(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleGetBookReviews(ctx context.Context, input *GetBookInput) (*ReviewsOutput, error) {
	reviews, err := s.services.Review.BookReviews(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &ReviewsOutput{Body: ReviewsResponse{Reviews: reviews}}, nil
}
