package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	"github.com/shelfwiseapp/shelfwise-server/internal/service"
)

func (s *Server) registerGenreRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listGenres",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres",
		Summary:     "List genres",
		Description: "Returns every genre in creation order",
		Tags:        []string{"Genres"},
	}, s.handleListGenres)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createGenre",
		Method:        http.MethodPost,
		Path:          "/api/v1/genres",
		Summary:       "Create genre",
		Description:   "Creates a new genre. Names are unique",
		Tags:          []string{"Genres"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateGenre)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGenre",
		Method:      http.MethodGet,
		Path:        "/api/v1/genres/{id}",
		Summary:     "Get genre",
		Description: "Returns a genre by ID",
		Tags:        []string{"Genres"},
	}, s.handleGetGenre)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateGenre",
		Method:      http.MethodPatch,
		Path:        "/api/v1/genres/{id}",
		Summary:     "Update genre",
		Description: "Renames or redescribes a genre",
		Tags:        []string{"Genres"},
	}, s.handleUpdateGenre)
}

// === DTOs ===

type ListGenresResponse struct {
	Genres []*domain.Genre `json:"genres" doc:"Genres in creation order"`
}

type ListGenresOutput struct {
	Body ListGenresResponse
}

type CreateGenreRequest struct {
	Name        string `json:"name" minLength:"1" maxLength:"50" doc:"Genre name"`
	Description string `json:"description,omitempty" maxLength:"200" doc:"Description"`
}

type CreateGenreInput struct {
	Body CreateGenreRequest
}

type GenreOutput struct {
	Body *domain.Genre
}

type GetGenreInput struct {
	ID string `path:"id" doc:"Genre ID"`
}

type UpdateGenreInput struct {
	ID   string `path:"id" doc:"Genre ID"`
	Body service.UpdateGenreRequest
}

// === Handlers ===

func (s *Server) handleListGenres(ctx context.Context, _ *struct{}) (*ListGenresOutput, error) {
	genres, err := s.services.Catalog.ListGenres(ctx)
	if err != nil {
		return nil, err
	}
	return &ListGenresOutput{Body: ListGenresResponse{Genres: genres}}, nil
}

func (s *Server) handleCreateGenre(ctx context.Context, input *CreateGenreInput) (*GenreOutput, error) {
	g, err := s.services.Catalog.CreateGenre(ctx, service.CreateGenreRequest{
		Name:        input.Body.Name,
		Description: input.Body.Description,
	})
	if err != nil {
		return nil, err
	}
	return &GenreOutput{Body: g}, nil
}

func (s *Server) handleGetGenre(ctx context.Context, input *GetGenreInput) (*GenreOutput, error) {
	g, err := s.services.Catalog.GetGenre(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &GenreOutput{Body: g}, nil
}

func (s *Server) handleUpdateGenre(ctx context.Context, input *UpdateGenreInput) (*GenreOutput, error) {
	g, err := s.services.Catalog.UpdateGenre(ctx, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &GenreOutput{Body: g}, nil
}
