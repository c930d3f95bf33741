package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	"github.com/shelfwiseapp/shelfwise-server/internal/service"
)

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getLibrary",
		Method:      http.MethodGet,
		Path:        "/api/v1/library",
		Summary:     "Get library",
		Description: "Returns the acting user's shelves with per-shelf counts",
		Tags:        []string{"Library"},
		Security:    []map[string][]string{{"user": {}}},
	}, s.handleGetLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID:   "addToShelf",
		Method:        http.MethodPost,
		Path:          "/api/v1/library",
		Summary:       "Add to shelf",
		Description:   "Puts a book on one of the acting user's shelves",
		Tags:          []string{"Library"},
		Security:      []map[string][]string{{"user": {}}},
		DefaultStatus: http.StatusCreated,
	}, s.handleAddToShelf)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateShelfEntry",
		Method:      http.MethodPatch,
		Path:        "/api/v1/library/{id}",
		Summary:     "Update shelf entry",
		Description: "Moves an entry between shelves or records reading progress",
		Tags:        []string{"Library"},
		Security:    []map[string][]string{{"user": {}}},
	}, s.handleUpdateShelfEntry)

	huma.Register(s.api, huma.Operation{
		OperationID:   "removeFromShelf",
		Method:        http.MethodDelete,
		Path:          "/api/v1/library/{id}",
		Summary:       "Remove from shelf",
		Description:   "Removes a book from the acting user's library",
		Tags:          []string{"Library"},
		Security:      []map[string][]string{{"user": {}}},
		DefaultStatus: http.StatusNoContent,
	}, s.handleRemoveFromShelf)
}

// === DTOs ===

type GetLibraryInput struct {
	Shelf string `query:"shelf" enum:"wantToRead,currentlyReading,read" doc:"Only this shelf"`
}

type LibraryOutput struct {
	Body *service.Library
}

type AddToShelfRequest struct {
	BookID    string       `json:"book_id" minLength:"1" doc:"Book ID"`
	Shelf     domain.Shelf `json:"shelf" enum:"wantToRead,currentlyReading,read" doc:"Target shelf"`
	PagesRead int          `json:"pages_read,omitempty" minimum:"0" doc:"Pages read so far"`
}

type AddToShelfInput struct {
	Body AddToShelfRequest
}

type ShelfEntryOutput struct {
	Body *domain.UserBook
}

type ShelfEntryInput struct {
	ID string `path:"id" doc:"Shelf entry ID"`
}

type UpdateShelfEntryInput struct {
	ID   string `path:"id" doc:"Shelf entry ID"`
	Body service.UpdateEntryRequest
}

// === Handlers ===

func (s *Server) handleGetLibrary(ctx context.Context, input *GetLibraryInput) (*LibraryOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	lib, err := s.services.Library.Library(ctx, userID, domain.Shelf(input.Shelf))
	if err != nil {
		return nil, err
	}
	return &LibraryOutput{Body: lib}, nil
}

func (s *Server) handleAddToShelf(ctx context.Context, input *AddToShelfInput) (*ShelfEntryOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	ub, err := s.services.Library.AddToShelf(ctx, userID, service.AddToShelfRequest{
		BookID:    input.Body.BookID,
		Shelf:     input.Body.Shelf,
		PagesRead: input.Body.PagesRead,
	})
	if err != nil {
		return nil, err
	}
	return &ShelfEntryOutput{Body: ub}, nil
}

func (s *Server) handleUpdateShelfEntry(ctx context.Context, input *UpdateShelfEntryInput) (*ShelfEntryOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	ub, err := s.services.Library.UpdateEntry(ctx, userID, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &ShelfEntryOutput{Body: ub}, nil
}

func (s *Server) handleRemoveFromShelf(ctx context.Context, input *ShelfEntryInput) (*struct{}, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Library.RemoveFromShelf(ctx, userID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
