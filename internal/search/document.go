// Package search provides full-text catalog search using Bleve.
package search

import (
	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
)

// BookDocument is the indexed form of a catalog book. The genre name is
// denormalized so a query for "fantasy" finds books in that genre.
//
// Aggregates are deliberately absent: they change on every review and
// would force a reindex per recompute.
type BookDocument struct {
	ID              string
	Title           string
	Author          string
	Description     string
	GenreID         string
	GenreName       string
	ISBN            string
	PublicationYear int
	CreatedAt       int64 // Unix millis
}

// ToMap converts the document to a map whose keys match the index mapping.
func (d *BookDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"title":      d.Title,
		"author":     d.Author,
		"genre_id":   d.GenreID,
		"created_at": d.CreatedAt,
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.GenreName != "" {
		m["genre"] = d.GenreName
	}
	if d.ISBN != "" {
		m["isbn"] = d.ISBN
	}
	if d.PublicationYear > 0 {
		m["publication_year"] = d.PublicationYear
	}
	return m
}

// NewBookDocument converts a book plus its genre name.
func NewBookDocument(book *domain.Book, genreName string) *BookDocument {
	return &BookDocument{
		ID:              book.ID,
		Title:           book.Title,
		Author:          book.Author,
		Description:     book.Description,
		GenreID:         book.GenreID,
		GenreName:       genreName,
		ISBN:            book.ISBN,
		PublicationYear: book.PublicationYear,
		CreatedAt:       book.CreatedAt.UnixMilli(),
	}
}
