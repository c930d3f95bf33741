package domain

import "time"

// ActivityKind is the type of a feed event.
type ActivityKind string

const (
	ActivityAddedToShelf   ActivityKind = "added-to-shelf"
	ActivityStartedReading ActivityKind = "started-reading"
	ActivityFinishedBook   ActivityKind = "finished-book"
	ActivityRatedBook      ActivityKind = "rated-book"
)

// DefaultActivityRetention is how long an activity stays visible.
const DefaultActivityRetention = 30 * 24 * time.Hour

// Activity is an append-only feed event. User and book fields are
// denormalized at write time so the feed renders without lookups.
type Activity struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Kind      ActivityKind `json:"kind"`
	BookID    string       `json:"book_id"`
	Shelf     Shelf        `json:"shelf,omitempty"`
	Rating    int          `json:"rating,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`

	UserDisplayName string `json:"user_display_name"`
	BookTitle       string `json:"book_title"`
	BookAuthor      string `json:"book_author"`
	BookCoverRef    string `json:"book_cover_ref,omitempty"`
}

// Expired reports whether the activity is past its retention window at now.
func (a *Activity) Expired(now time.Time) bool {
	return !now.Before(a.ExpiresAt)
}
