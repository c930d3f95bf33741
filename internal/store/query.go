package store

import (
	"time"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
)

// BookField is a sortable book column.
type BookField string

const (
	FieldAverageRating BookField = "average_rating"
	FieldTotalShelved  BookField = "total_shelved"
	FieldCreatedAt     BookField = "created_at"
	FieldTitle         BookField = "title"
)

// SortField is one ORDER BY term.
type SortField struct {
	Field BookField
	Desc  bool
}

// Desc sorts by f descending.
func Desc(f BookField) SortField { return SortField{Field: f, Desc: true} }

// Asc sorts by f ascending.
func Asc(f BookField) SortField { return SortField{Field: f} }

// BookQuery filters and orders catalog books. Zero values disable a filter.
// Results are always finally ordered by creation order so equal keys
// come back in a stable order.
type BookQuery struct {
	Text       string   // case-insensitive substring of title or author
	GenreIDs   []string // genre in this set
	ExcludeIDs []string // book not in this set
	MinRating  *float64 // average_rating >= MinRating
	MaxRating  *float64 // average_rating <= MaxRating
	MinShelved int      // total_shelved >= MinShelved
	Sort       []SortField
	Limit      int
	Offset     int
}

// Float returns a pointer to v, for the optional range bounds.
func Float(v float64) *float64 { return &v }

// ReviewFilter selects reviews by exact field match.
type ReviewFilter struct {
	BookID string
	UserID string
	Status domain.ReviewStatus
	Limit  int // 0 means no limit
}

// LedgerFilter selects ledger entries. FinishedFrom/FinishedBefore bound
// finished_at as a half-open range.
type LedgerFilter struct {
	UserID         string
	BookID         string
	Shelf          domain.Shelf
	FinishedFrom   *time.Time
	FinishedBefore *time.Time
}

// ActivityFilter selects feed activities, newest first.
type ActivityFilter struct {
	UserIDs  []string
	ActiveAt time.Time // only activities whose expiry is after this instant
	Limit    int
}
