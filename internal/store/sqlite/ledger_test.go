package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
)

func makeTestEntry(id, userID, bookID string, shelf domain.Shelf, finished *time.Time, offset time.Duration) *domain.UserBook {
	return &domain.UserBook{
		ID:         id,
		UserID:     userID,
		BookID:     bookID,
		Shelf:      shelf,
		FinishedAt: finished,
		CreatedAt:  baseTime.Add(offset),
		UpdatedAt:  baseTime.Add(offset),
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestUserBooks_UniquePerUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.CreateUserBook(ctx, makeTestEntry("ub-1", "user-1", "book-1", domain.ShelfWantToRead, nil, 0)); err != nil {
		t.Fatalf("CreateUserBook: %v", err)
	}
	err := s.CreateUserBook(ctx, makeTestEntry("ub-2", "user-1", "book-1", domain.ShelfRead, nil, 0))
	if !errors.Is(err, store.ErrAlreadyExists) {
		t.Fatalf("duplicate entry: got %v, want ErrAlreadyExists", err)
	}
}

func TestUserBooks_UpdateRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ub := makeTestEntry("ub-1", "user-1", "book-1", domain.ShelfWantToRead, nil, 0)
	if err := s.CreateUserBook(ctx, ub); err != nil {
		t.Fatalf("CreateUserBook: %v", err)
	}

	ub.MoveTo(domain.ShelfCurrentlyReading, 300, baseTime.Add(time.Hour))
	ub.Progress = domain.NewProgress(150, 300)
	ub.Notes = "halfway"
	ub.UpdatedAt = baseTime.Add(time.Hour)
	if err := s.UpdateUserBook(ctx, ub); err != nil {
		t.Fatalf("UpdateUserBook: %v", err)
	}

	got, err := s.GetUserBook(ctx, "ub-1")
	if err != nil {
		t.Fatalf("GetUserBook: %v", err)
	}
	if got.Shelf != domain.ShelfCurrentlyReading || got.Progress.Percentage != 50 || got.Notes != "halfway" {
		t.Errorf("entry = %+v", got)
	}
	if got.StartedAt == nil || !got.StartedAt.Equal(baseTime.Add(time.Hour)) {
		t.Errorf("started_at = %v", got.StartedAt)
	}
	if got.FinishedAt != nil {
		t.Errorf("finished_at should stay nil, got %v", got.FinishedAt)
	}
}

func TestListUserBooks_FinishedRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	jan1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []*domain.UserBook{
		makeTestEntry("ub-1", "user-1", "book-1", domain.ShelfRead, timePtr(jan1.Add(-time.Nanosecond)), 0),
		makeTestEntry("ub-2", "user-1", "book-2", domain.ShelfRead, timePtr(jan1), time.Minute),
		makeTestEntry("ub-3", "user-1", "book-3", domain.ShelfRead, timePtr(jan1.AddDate(1, 0, 0).Add(-time.Second)), 2*time.Minute),
		makeTestEntry("ub-4", "user-1", "book-4", domain.ShelfRead, timePtr(jan1.AddDate(1, 0, 0)), 3*time.Minute),
		makeTestEntry("ub-5", "user-1", "book-5", domain.ShelfRead, nil, 4*time.Minute),
		makeTestEntry("ub-6", "user-2", "book-1", domain.ShelfRead, timePtr(jan1.AddDate(0, 3, 0)), 5*time.Minute),
	}
	for _, ub := range entries {
		if err := s.CreateUserBook(ctx, ub); err != nil {
			t.Fatalf("CreateUserBook(%s): %v", ub.ID, err)
		}
	}

	from, before := jan1, jan1.AddDate(1, 0, 0)
	got, err := s.ListUserBooks(ctx, store.LedgerFilter{
		UserID:         "user-1",
		Shelf:          domain.ShelfRead,
		FinishedFrom:   &from,
		FinishedBefore: &before,
	})
	if err != nil {
		t.Fatalf("ListUserBooks: %v", err)
	}
	if len(got) != 2 || got[0].ID != "ub-2" || got[1].ID != "ub-3" {
		ids := make([]string, len(got))
		for i, ub := range got {
			ids[i] = ub.ID
		}
		t.Fatalf("year range = %v, want [ub-2 ub-3]", ids)
	}

	n, err := s.CountUserBooks(ctx, store.LedgerFilter{BookID: "book-1"})
	if err != nil {
		t.Fatalf("CountUserBooks: %v", err)
	}
	if n != 2 {
		t.Errorf("book-1 shelved by %d users, want 2", n)
	}

	removed, err := s.DeleteUserBooksByBook(ctx, "book-1")
	if err != nil || removed != 2 {
		t.Errorf("DeleteUserBooksByBook = %d, %v", removed, err)
	}
	if err := s.DeleteUserBook(ctx, "ub-1"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("DeleteUserBook(already removed) = %v", err)
	}
}
