package domain

import "time"

// DefaultGoalTarget is the reading goal a new user starts with.
const DefaultGoalTarget = 12

// ReadingGoal is a yearly target number of books.
type ReadingGoal struct {
	Year        int `json:"year"`
	TargetBooks int `json:"target_books"`
}

// User is a reader. Followers and Following are the two halves of each
// follow edge and are kept in sync by the social service.
type User struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	DisplayName string      `json:"display_name"`
	Bio         string      `json:"bio,omitempty"`
	ReadingGoal ReadingGoal `json:"reading_goal"`
	Followers   []string    `json:"followers"`
	Following   []string    `json:"following"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Name returns the display name, falling back to the username.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// IsFollowing reports whether u follows userID.
func (u *User) IsFollowing(userID string) bool {
	for _, id := range u.Following {
		if id == userID {
			return true
		}
	}
	return false
}

// Profile is a user with their reading and social counts.
type Profile struct {
	User           User `json:"user"`
	BooksRead      int  `json:"books_read"`
	BooksReading   int  `json:"books_reading"`
	FollowerCount  int  `json:"follower_count"`
	FollowingCount int  `json:"following_count"`
}
