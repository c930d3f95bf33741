package domain

import (
	"math"
	"time"
)

// Shelf is the reading state of a ledger entry.
type Shelf string

const (
	ShelfWantToRead       Shelf = "wantToRead"
	ShelfCurrentlyReading Shelf = "currentlyReading"
	ShelfRead             Shelf = "read"
)

// Shelves lists every shelf in display order.
var Shelves = []Shelf{ShelfWantToRead, ShelfCurrentlyReading, ShelfRead}

// Valid reports whether s is a known shelf.
func (s Shelf) Valid() bool {
	switch s {
	case ShelfWantToRead, ShelfCurrentlyReading, ShelfRead:
		return true
	}
	return false
}

// Progress tracks how far a user is through a book.
type Progress struct {
	PagesRead  int     `json:"pages_read"`
	Percentage float64 `json:"percentage"`
}

// NewProgress clamps pagesRead to [0,totalPages] and derives the percentage
// rounded to one decimal.
// Books without a page count keep the pages as given and report 0%.
func NewProgress(pagesRead, totalPages int) Progress {
	if pagesRead < 0 {
		pagesRead = 0
	}
	if totalPages <= 0 {
		return Progress{PagesRead: pagesRead}
	}
	if pagesRead > totalPages {
		pagesRead = totalPages
	}
	pct := RoundTenth(float64(pagesRead) / float64(totalPages) * 100)
	return Progress{PagesRead: pagesRead, Percentage: math.Min(pct, 100)}
}

// CompleteProgress is the progress of a finished book.
func CompleteProgress(totalPages int) Progress {
	return Progress{PagesRead: max(totalPages, 0), Percentage: 100}
}

// UserBook is a ledger entry: one user's relationship to one book.
// At most one exists per (user, book). StartedAt and FinishedAt are set on
// shelf transitions and never cleared.
type UserBook struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	BookID     string     `json:"book_id"`
	Shelf      Shelf      `json:"shelf"`
	Progress   Progress   `json:"progress"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Transition is what happened to an entry when its shelf changed.
type Transition struct {
	Started  bool // StartedAt was set by this move
	Finished bool // the entry moved onto the read shelf
}

// MoveTo changes the shelf and stamps the transition timestamps.
// totalPages is the book's page count, used to complete progress on read.
func (ub *UserBook) MoveTo(shelf Shelf, totalPages int, now time.Time) Transition {
	var tr Transition
	ub.Shelf = shelf
	switch shelf {
	case ShelfCurrentlyReading:
		if ub.StartedAt == nil {
			t := now
			ub.StartedAt = &t
			tr.Started = true
		}
	case ShelfRead:
		t := now
		ub.FinishedAt = &t
		ub.Progress = CompleteProgress(totalPages)
		tr.Finished = true
	}
	return tr
}
