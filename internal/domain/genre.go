package domain

import "time"

// UnknownGenre buckets read books whose genre reference no longer resolves.
const UnknownGenre = "Unknown"

// Genre classifies books. Name is unique; Slug is derived from Name.
type Genre struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
