package domain

import "time"

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5
)

// ReviewStatus is the moderation state of a review.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return true
	}
	return false
}

// Review is one user's rating of one book. At most one exists per (book, user).
type Review struct {
	ID        string       `json:"id"`
	BookID    string       `json:"book_id"`
	UserID    string       `json:"user_id"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment"`
	Status    ReviewStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// ValidRating reports whether r is within 1..5.
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
