package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwiseapp/shelfwise-server/internal/errors"
	"github.com/shelfwiseapp/shelfwise-server/internal/id"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
	"github.com/shelfwiseapp/shelfwise-server/internal/validation"
)

// LibraryService manages a user's shelves. Every ledger write is followed
// by a recompute of the book's shelving count.
type LibraryService struct {
	store      store.Store
	aggregates *AggregateMaintainer
	activities *ActivityService
	validator  *validation.Validator
	logger     *slog.Logger
	now        func() time.Time
}

// NewLibraryService creates a new library service.
func NewLibraryService(st store.Store, aggregates *AggregateMaintainer, activities *ActivityService, logger *slog.Logger) *LibraryService {
	return &LibraryService{
		store:      st,
		aggregates: aggregates,
		activities: activities,
		validator:  validation.New(),
		logger:     logger,
		now:        time.Now,
	}
}

// AddToShelfRequest puts a book on one of the user's shelves.
type AddToShelfRequest struct {
	BookID    string       `json:"book_id" validate:"required"`
	Shelf     domain.Shelf `json:"shelf" validate:"required,shelf"`
	PagesRead int          `json:"pages_read" validate:"gte=0"`
}

// AddToShelf creates the user's ledger entry for a book.
// Returns a Conflict error if the book is already on one of their shelves.
func (s *LibraryService) AddToShelf(ctx context.Context, userID string, req AddToShelfRequest) (*domain.UserBook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := loadUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	book, err := loadBook(ctx, s.store, req.BookID)
	if err != nil {
		return nil, err
	}

	entryID, err := id.Generate(id.PrefixUserBook)
	if err != nil {
		return nil, fmt.Errorf("generate entry ID: %w", err)
	}

	now := s.now()
	ub := &domain.UserBook{
		ID:        entryID,
		UserID:    userID,
		BookID:    book.ID,
		Progress:  domain.NewProgress(req.PagesRead, book.TotalPages),
		CreatedAt: now,
		UpdatedAt: now,
	}
	ub.MoveTo(req.Shelf, book.TotalPages, now)

	if err := s.store.CreateUserBook(ctx, ub); err != nil {
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("book already in your library")
		}
		return nil, storeError(err, "shelf entry")
	}

	if err := s.activities.RecordAddedToShelf(ctx, user, book, ub.Shelf); err != nil {
		s.logger.Warn("failed to record shelf activity", "user_id", userID, "book_id", book.ID, "error", err)
	}
	s.aggregates.RecomputeAfterMutation(ctx, book.ID, "shelf add")

	s.logger.Info("book added to shelf",
		"entry_id", ub.ID,
		"user_id", userID,
		"book_id", book.ID,
		"shelf", ub.Shelf,
	)
	return ub, nil
}

// UpdateEntryRequest changes any of an entry's shelf, progress or notes.
// Nil fields are left alone.
type UpdateEntryRequest struct {
	Shelf     *domain.Shelf `json:"shelf,omitempty" validate:"omitempty,shelf"`
	PagesRead *int          `json:"pages_read,omitempty" validate:"omitempty,gte=0"`
	Notes     *string       `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// UpdateEntry applies req to one of the user's ledger entries.
//
// Moving to currentlyReading stamps startedAt the first time only and
// records started-reading. Moving to read stamps finishedAt, completes
// progress and records finished-book. An explicit page count is applied
// after the shelf move.
func (s *LibraryService) UpdateEntry(ctx context.Context, userID, entryID string, req UpdateEntryRequest) (*domain.UserBook, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	ub, err := s.ownedEntry(ctx, userID, entryID)
	if err != nil {
		return nil, err
	}
	book, err := loadBook(ctx, s.store, ub.BookID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var tr domain.Transition
	if req.Shelf != nil {
		tr = ub.MoveTo(*req.Shelf, book.TotalPages, now)
	}
	if req.PagesRead != nil {
		ub.Progress = domain.NewProgress(*req.PagesRead, book.TotalPages)
	}
	if req.Notes != nil {
		ub.Notes = *req.Notes
	}
	ub.UpdatedAt = now

	if err := s.store.UpdateUserBook(ctx, ub); err != nil {
		return nil, storeError(err, "shelf entry")
	}

	if tr.Started || tr.Finished {
		s.recordTransition(ctx, userID, book, tr)
	}
	s.aggregates.RecomputeAfterMutation(ctx, book.ID, "shelf update")

	s.logger.Info("shelf entry updated",
		"entry_id", ub.ID,
		"user_id", userID,
		"book_id", book.ID,
		"shelf", ub.Shelf,
	)
	return ub, nil
}

func (s *LibraryService) recordTransition(ctx context.Context, userID string, book *domain.Book, tr domain.Transition) {
	user, err := loadUser(ctx, s.store, userID)
	if err != nil {
		s.logger.Warn("failed to load user for activity", "user_id", userID, "error", err)
		return
	}
	if tr.Started {
		if err := s.activities.RecordStartedReading(ctx, user, book); err != nil {
			s.logger.Warn("failed to record started-reading activity", "user_id", userID, "book_id", book.ID, "error", err)
		}
	}
	if tr.Finished {
		if err := s.activities.RecordFinishedBook(ctx, user, book); err != nil {
			s.logger.Warn("failed to record finished-book activity", "user_id", userID, "book_id", book.ID, "error", err)
		}
	}
}

// RemoveFromShelf deletes one of the user's ledger entries.
func (s *LibraryService) RemoveFromShelf(ctx context.Context, userID, entryID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ub, err := s.ownedEntry(ctx, userID, entryID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteUserBook(ctx, ub.ID); err != nil {
		return storeError(err, "shelf entry")
	}
	s.aggregates.RecomputeAfterMutation(ctx, ub.BookID, "shelf remove")

	s.logger.Info("book removed from shelf", "entry_id", ub.ID, "user_id", userID, "book_id", ub.BookID)
	return nil
}

func (s *LibraryService) ownedEntry(ctx context.Context, userID, entryID string) (*domain.UserBook, error) {
	ub, err := s.store.GetUserBook(ctx, entryID)
	if err != nil {
		return nil, storeError(err, "shelf entry")
	}
	if ub.UserID != userID {
		return nil, domainerrors.Forbidden("not authorized to modify this entry")
	}
	return ub, nil
}

// LibraryEntry is a ledger entry with its book.
type LibraryEntry struct {
	domain.UserBook
	Book *domain.Book `json:"book,omitempty"`
}

// LibraryCounts is the number of entries on each shelf.
type LibraryCounts struct {
	WantToRead       int `json:"wantToRead"`
	CurrentlyReading int `json:"currentlyReading"`
	Read             int `json:"read"`
	Total            int `json:"total"`
}

// Library is a user's entries grouped by shelf, newest first.
type Library struct {
	WantToRead       []LibraryEntry `json:"wantToRead"`
	CurrentlyReading []LibraryEntry `json:"currentlyReading"`
	Read             []LibraryEntry `json:"read"`
	Counts           LibraryCounts  `json:"stats"`
}

// Library returns the user's library, optionally restricted to one shelf.
func (s *LibraryService) Library(ctx context.Context, userID string, shelf domain.Shelf) (*Library, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if shelf != "" && !shelf.Valid() {
		return nil, domainerrors.Validationf("unknown shelf %q", shelf)
	}
	if _, err := loadUser(ctx, s.store, userID); err != nil {
		return nil, err
	}

	entries, err := s.store.ListUserBooks(ctx, store.LedgerFilter{UserID: userID, Shelf: shelf})
	if err != nil {
		return nil, storeError(err, "library")
	}
	slices.Reverse(entries)

	bookIDs := make([]string, len(entries))
	for i, ub := range entries {
		bookIDs[i] = ub.BookID
	}
	books, err := s.store.GetBooksByIDs(ctx, bookIDs)
	if err != nil {
		return nil, storeError(err, "books")
	}

	lib := &Library{
		WantToRead:       []LibraryEntry{},
		CurrentlyReading: []LibraryEntry{},
		Read:             []LibraryEntry{},
	}
	for _, ub := range entries {
		entry := LibraryEntry{UserBook: *ub, Book: books[ub.BookID]}
		switch ub.Shelf {
		case domain.ShelfWantToRead:
			lib.WantToRead = append(lib.WantToRead, entry)
		case domain.ShelfCurrentlyReading:
			lib.CurrentlyReading = append(lib.CurrentlyReading, entry)
		case domain.ShelfRead:
			lib.Read = append(lib.Read, entry)
		}
	}
	lib.Counts = LibraryCounts{
		WantToRead:       len(lib.WantToRead),
		CurrentlyReading: len(lib.CurrentlyReading),
		Read:             len(lib.Read),
		Total:            len(entries),
	}
	return lib, nil
}
