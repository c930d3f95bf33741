package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
)

const bookColumns = `id, title, author, genre_id, description, cover_ref, total_pages,
	publication_year, isbn, average_rating, total_ratings, total_shelved, created_at, updated_at`

func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var (
		b         domain.Book
		coverRef  sql.NullString
		isbn      sql.NullString
		createdAt string
		updatedAt string
	)
	err := scanner.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.GenreID,
		&b.Description,
		&coverRef,
		&b.TotalPages,
		&b.PublicationYear,
		&isbn,
		&b.AverageRating,
		&b.TotalRatings,
		&b.TotalShelved,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if b.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if b.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	b.CoverRef = coverRef.String
	b.ISBN = isbn.String
	return &b, nil
}

// CreateBook inserts a book with zeroed aggregates.
// Returns store.ErrAlreadyExists if the ID or ISBN is taken.
func (s *Store) CreateBook(ctx context.Context, b *domain.Book) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (
			id, title, author, genre_id, description, cover_ref, total_pages,
			publication_year, isbn, average_rating, total_ratings, total_shelved,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, ?, ?)`,
		b.ID,
		b.Title,
		b.Author,
		b.GenreID,
		b.Description,
		nullString(b.CoverRef),
		b.TotalPages,
		b.PublicationYear,
		nullString(b.ISBN),
		formatTime(b.CreatedAt),
		formatTime(b.UpdatedAt),
	)
	if err != nil {
		return classify(err)
	}
	b.AverageRating, b.TotalRatings, b.TotalShelved = 0, 0, 0

	s.indexBook(ctx, b)
	return nil
}

// GetBook returns store.ErrNotFound if the book does not exist.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	b, err := scanBook(row)
	if err != nil {
		return nil, classify(err)
	}
	return b, nil
}

// GetBooksByIDs returns the books that exist, keyed by ID.
func (s *Store) GetBooksByIDs(ctx context.Context, ids []string) (map[string]*domain.Book, error) {
	books := make(map[string]*domain.Book, len(ids))
	if len(ids) == 0 {
		return books, nil
	}

	ph, args := placeholders(ids)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id IN (`+ph+`)`, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books[b.ID] = b
	}
	return books, classify(rows.Err())
}

// UpdateBook rewrites the descriptive fields. Aggregate columns are left alone.
func (s *Store) UpdateBook(ctx context.Context, b *domain.Book) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE books SET
			title = ?, author = ?, genre_id = ?, description = ?, cover_ref = ?,
			total_pages = ?, publication_year = ?, isbn = ?, updated_at = ?
		WHERE id = ?`,
		b.Title,
		b.Author,
		b.GenreID,
		b.Description,
		nullString(b.CoverRef),
		b.TotalPages,
		b.PublicationYear,
		nullString(b.ISBN),
		formatTime(b.UpdatedAt),
		b.ID,
	)
	if err != nil {
		return classify(err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}

	s.indexBook(ctx, b)
	return nil
}

// DeleteBook removes the book row only; reviews and ledger entries are
// removed separately by the caller.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return classify(err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}

	if err := s.searchIndexer.DeleteBook(ctx, id); err != nil {
		s.logger.Warn("failed to remove book from search index", "book_id", id, "error", err)
	}
	return nil
}

// QueryBooks returns books matching q in the requested order.
func (s *Store) QueryBooks(ctx context.Context, q store.BookQuery) ([]*domain.Book, error) {
	where, args := bookWhere(q)
	query := `SELECT ` + bookColumns + ` FROM books` + where + bookOrder(q.Sort)
	if q.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.Limit, q.Offset)
	} else if q.Offset > 0 {
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, q.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	return books, classify(rows.Err())
}

// CountBooks counts books matching q's filters; sort and paging are ignored.
func (s *Store) CountBooks(ctx context.Context, q store.BookQuery) (int, error) {
	where, args := bookWhere(q)
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`+where, args...).Scan(&n)
	return n, classify(err)
}

// ListBookIDs returns every book ID in creation order.
func (s *Store) ListBookIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM books ORDER BY created_at, id`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan book id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, classify(rows.Err())
}

// SetRatingAggregate overwrites average_rating and total_ratings in a single
// statement, so a failure leaves both previous values in place.
func (s *Store) SetRatingAggregate(ctx context.Context, bookID string, agg domain.RatingAggregate) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE books SET average_rating = ?, total_ratings = ? WHERE id = ?`,
		agg.Average, agg.Count, bookID)
	if err != nil {
		return classify(err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// SetShelvedCount overwrites total_shelved.
func (s *Store) SetShelvedCount(ctx context.Context, bookID string, count int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE books SET total_shelved = ? WHERE id = ?`, count, bookID)
	if err != nil {
		return classify(err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func bookWhere(q store.BookQuery) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if q.Text != "" {
		like := "%" + escapeLike(strings.ToLower(q.Text)) + "%"
		conds = append(conds, `(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(author) LIKE ? ESCAPE '\')`)
		args = append(args, like, like)
	}
	if len(q.GenreIDs) > 0 {
		ph, a := placeholders(q.GenreIDs)
		conds = append(conds, `genre_id IN (`+ph+`)`)
		args = append(args, a...)
	}
	if len(q.ExcludeIDs) > 0 {
		ph, a := placeholders(q.ExcludeIDs)
		conds = append(conds, `id NOT IN (`+ph+`)`)
		args = append(args, a...)
	}
	if q.MinRating != nil {
		conds = append(conds, `average_rating >= ?`)
		args = append(args, *q.MinRating)
	}
	if q.MaxRating != nil {
		conds = append(conds, `average_rating <= ?`)
		args = append(args, *q.MaxRating)
	}
	if q.MinShelved > 0 {
		conds = append(conds, `total_shelved >= ?`)
		args = append(args, q.MinShelved)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var sortColumns = map[store.BookField]string{
	store.FieldAverageRating: "average_rating",
	store.FieldTotalShelved:  "total_shelved",
	store.FieldCreatedAt:     "created_at",
	store.FieldTitle:         "title",
}

func bookOrder(sort []store.SortField) string {
	terms := make([]string, 0, len(sort)+2)
	for _, f := range sort {
		col, ok := sortColumns[f.Field]
		if !ok {
			continue
		}
		if f.Desc {
			col += " DESC"
		}
		terms = append(terms, col)
	}
	terms = append(terms, "created_at", "id")
	return " ORDER BY " + strings.Join(terms, ", ")
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// indexBook pushes the book into the search index. Failures are logged;
// the catalog row is the source of truth.
func (s *Store) indexBook(ctx context.Context, b *domain.Book) {
	genreName := ""
	if g, err := s.GetGenre(ctx, b.GenreID); err == nil {
		genreName = g.Name
	}
	if err := s.searchIndexer.IndexBook(ctx, b, genreName); err != nil {
		s.logger.Warn("failed to index book", "book_id", b.ID, "error", err)
	}
}
