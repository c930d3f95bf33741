package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwiseapp/shelfwise-server/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/search",
		Summary:     "Search books",
		Description: "Full-text search over title, author, description and genre, with typo tolerance",
		Tags:        []string{"Search"},
	}, s.handleSearchBooks)
}

type SearchBooksInput struct {
	Query    string   `query:"q" minLength:"1" maxLength:"200" doc:"Search text"`
	GenreIDs []string `query:"genre_id" doc:"Restrict to these genres"`
	MinYear  int      `query:"min_year" minimum:"0" doc:"Earliest publication year"`
	MaxYear  int      `query:"max_year" minimum:"0" doc:"Latest publication year"`
	Limit    int      `query:"limit" minimum:"0" maximum:"100" default:"20" doc:"Max hits"`
	Offset   int      `query:"offset" minimum:"0" doc:"Hits to skip"`
	Facets   bool     `query:"facets" doc:"Include per-genre hit counts"`
}

type SearchBooksOutput struct {
	Body *search.Result
}

func (s *Server) handleSearchBooks(ctx context.Context, input *SearchBooksInput) (*SearchBooksOutput, error) {
	result, err := s.services.Catalog.SearchBooks(ctx, search.Params{
		Query:    input.Query,
		GenreIDs: input.GenreIDs,
		MinYear:  input.MinYear,
		MaxYear:  input.MaxYear,
		Limit:    input.Limit,
		Offset:   input.Offset,
		Facets:   input.Facets,
	})
	if err != nil {
		return nil, err
	}
	return &SearchBooksOutput{Body: result}, nil
}
