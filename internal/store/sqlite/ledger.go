package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
)

const userBookColumns = `id, user_id, book_id, shelf, pages_read, percentage,
	started_at, finished_at, notes, created_at, updated_at`

func scanUserBook(scanner interface{ Scan(dest ...any) error }) (*domain.UserBook, error) {
	var (
		ub         domain.UserBook
		shelf      string
		startedAt  sql.NullString
		finishedAt sql.NullString
		createdAt  string
		updatedAt  string
	)
	err := scanner.Scan(
		&ub.ID,
		&ub.UserID,
		&ub.BookID,
		&shelf,
		&ub.Progress.PagesRead,
		&ub.Progress.Percentage,
		&startedAt,
		&finishedAt,
		&ub.Notes,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	ub.Shelf = domain.Shelf(shelf)
	if ub.StartedAt, err = parseNullableTime(startedAt); err != nil {
		return nil, err
	}
	if ub.FinishedAt, err = parseNullableTime(finishedAt); err != nil {
		return nil, err
	}
	if ub.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if ub.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &ub, nil
}

// CreateUserBook inserts a ledger entry. Returns store.ErrAlreadyExists if
// the user already shelved the book.
func (s *Store) CreateUserBook(ctx context.Context, ub *domain.UserBook) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_books (
			id, user_id, book_id, shelf, pages_read, percentage,
			started_at, finished_at, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ub.ID,
		ub.UserID,
		ub.BookID,
		string(ub.Shelf),
		ub.Progress.PagesRead,
		ub.Progress.Percentage,
		nullTimeString(ub.StartedAt),
		nullTimeString(ub.FinishedAt),
		ub.Notes,
		formatTime(ub.CreatedAt),
		formatTime(ub.UpdatedAt),
	)
	return classify(err)
}

// GetUserBook returns store.ErrNotFound if the entry does not exist.
func (s *Store) GetUserBook(ctx context.Context, id string) (*domain.UserBook, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userBookColumns+` FROM user_books WHERE id = ?`, id)
	ub, err := scanUserBook(row)
	if err != nil {
		return nil, classify(err)
	}
	return ub, nil
}

// UpdateUserBook rewrites shelf, progress, timestamps and notes.
func (s *Store) UpdateUserBook(ctx context.Context, ub *domain.UserBook) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE user_books SET
			shelf = ?, pages_read = ?, percentage = ?, started_at = ?,
			finished_at = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		string(ub.Shelf),
		ub.Progress.PagesRead,
		ub.Progress.Percentage,
		nullTimeString(ub.StartedAt),
		nullTimeString(ub.FinishedAt),
		ub.Notes,
		formatTime(ub.UpdatedAt),
		ub.ID,
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
	return nil
}

// DeleteUserBook returns store.ErrNotFound if the entry does not exist.
func (s *Store) DeleteUserBook(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_books WHERE id = ?`, id)
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

// DeleteUserBooksByBook removes every ledger entry for a book.
func (s *Store) DeleteUserBooksByBook(ctx context.Context, bookID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_books WHERE book_id = ?`, bookID)
	if err != nil {
		return 0, classify(err)
	}
	return rowsAffected(res)
}

// ListUserBooks returns matching entries in the order they were created.
func (s *Store) ListUserBooks(ctx context.Context, f store.LedgerFilter) ([]*domain.UserBook, error) {
	where, args := ledgerWhere(f)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userBookColumns+` FROM user_books`+where+` ORDER BY created_at, id`, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var entries []*domain.UserBook
	for rows.Next() {
		ub, err := scanUserBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user book: %w", err)
		}
		entries = append(entries, ub)
	}
	return entries, classify(rows.Err())
}

// CountUserBooks counts matching entries.
func (s *Store) CountUserBooks(ctx context.Context, f store.LedgerFilter) (int, error) {
	where, args := ledgerWhere(f)
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_books`+where, args...).Scan(&n)
	return n, classify(err)
}

func ledgerWhere(f store.LedgerFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.BookID != "" {
		conds = append(conds, "book_id = ?")
		args = append(args, f.BookID)
	}
	if f.Shelf != "" {
		conds = append(conds, "shelf = ?")
		args = append(args, string(f.Shelf))
	}
	if f.FinishedFrom != nil {
		conds = append(conds, "finished_at >= ?")
		args = append(args, formatTime(*f.FinishedFrom))
	}
	if f.FinishedBefore != nil {
		conds = append(conds, "finished_at < ?")
		args = append(args, formatTime(*f.FinishedBefore))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
