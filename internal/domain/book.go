// Package domain contains the Shelfwise record types and their invariants.
package domain

import (
	"math"
	"time"
)

// Book is a catalog entry.
//
// AverageRating, TotalRatings and TotalShelved are derived from reviews and
// ledger entries. Only the aggregate maintainer writes them.
type Book struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	GenreID         string    `json:"genre_id"`
	Description     string    `json:"description"`
	CoverRef        string    `json:"cover_ref,omitempty"`
	TotalPages      int       `json:"total_pages"`
	PublicationYear int       `json:"publication_year,omitempty"`
	ISBN            string    `json:"isbn,omitempty"`
	AverageRating   float64   `json:"average_rating"`
	TotalRatings    int       `json:"total_ratings"`
	TotalShelved    int       `json:"total_shelved"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// RatingAggregate is the derived rating summary of a book.
type RatingAggregate struct {
	Average float64 `json:"average_rating"`
	Count   int     `json:"total_ratings"`
}

// NewRatingAggregate averages ratings and rounds to one decimal.
// No ratings yields a zero aggregate.
func NewRatingAggregate(ratings []int) RatingAggregate {
	if len(ratings) == 0 {
		return RatingAggregate{}
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return RatingAggregate{
		Average: RoundTenth(float64(sum) / float64(len(ratings))),
		Count:   len(ratings),
	}
}

// RoundTenth rounds v to one decimal place, halves away from zero.
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
