package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
)

func makeTestActivity(id, userID string, created time.Time, ttl time.Duration) *domain.Activity {
	return &domain.Activity{
		ID:              id,
		UserID:          userID,
		Kind:            domain.ActivityFinishedBook,
		BookID:          "book-1",
		Shelf:           domain.ShelfRead,
		CreatedAt:       created,
		ExpiresAt:       created.Add(ttl),
		UserDisplayName: "Reader " + userID,
		BookTitle:       "Dune",
		BookAuthor:      "Frank Herbert",
	}
}

func TestActivities_FeedOrderAndExpiry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	day := 24 * time.Hour
	for _, a := range []*domain.Activity{
		makeTestActivity("act-1", "user-1", baseTime, 30*day),
		makeTestActivity("act-2", "user-2", baseTime.Add(time.Hour), 30*day),
		makeTestActivity("act-3", "user-1", baseTime.Add(2*time.Hour), time.Hour),
		makeTestActivity("act-4", "user-3", baseTime.Add(3*time.Hour), 30*day),
	} {
		if err := s.CreateActivity(ctx, a); err != nil {
			t.Fatalf("CreateActivity(%s): %v", a.ID, err)
		}
	}

	now := baseTime.Add(4 * time.Hour) // act-3 expired an hour ago
	feed, err := s.ListActivities(ctx, store.ActivityFilter{
		UserIDs:  []string{"user-1", "user-2"},
		ActiveAt: now,
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("ListActivities: %v", err)
	}
	if len(feed) != 2 || feed[0].ID != "act-2" || feed[1].ID != "act-1" {
		t.Fatalf("feed = %+v", feed)
	}
	if feed[0].UserDisplayName != "Reader user-2" || feed[0].BookTitle != "Dune" || feed[0].Shelf != domain.ShelfRead {
		t.Errorf("denormalized fields lost: %+v", feed[0])
	}

	limited, err := s.ListActivities(ctx, store.ActivityFilter{UserIDs: []string{"user-1", "user-2", "user-3"}, ActiveAt: now, Limit: 1})
	if err != nil {
		t.Fatalf("ListActivities: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != "act-4" {
		t.Errorf("limited feed = %+v", limited)
	}

	empty, err := s.ListActivities(ctx, store.ActivityFilter{ActiveAt: now})
	if err != nil || len(empty) != 0 {
		t.Errorf("no users: %v, %v", empty, err)
	}

	purged, err := s.DeleteExpiredActivities(ctx, now)
	if err != nil {
		t.Fatalf("DeleteExpiredActivities: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged %d, want 1", purged)
	}
}
