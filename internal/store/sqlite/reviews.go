package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
)

const reviewColumns = `id, book_id, user_id, rating, comment, status, created_at, updated_at`

func scanReview(scanner interface{ Scan(dest ...any) error }) (*domain.Review, error) {
	var (
		r         domain.Review
		status    string
		createdAt string
		updatedAt string
	)
	err := scanner.Scan(&r.ID, &r.BookID, &r.UserID, &r.Rating, &r.Comment, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	r.Status = domain.ReviewStatus(status)
	if r.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if r.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateReview inserts a review. Returns store.ErrAlreadyExists if the user
// already reviewed the book.
func (s *Store) CreateReview(ctx context.Context, r *domain.Review) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, book_id, user_id, rating, comment, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.BookID, r.UserID, r.Rating, r.Comment, string(r.Status),
		formatTime(r.CreatedAt), formatTime(r.UpdatedAt))
	return classify(err)
}

// GetReview returns store.ErrNotFound if the review does not exist.
func (s *Store) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id)
	r, err := scanReview(row)
	if err != nil {
		return nil, classify(err)
	}
	return r, nil
}

// UpdateReviewStatus sets the moderation status.
func (s *Store) UpdateReviewStatus(ctx context.Context, id string, status domain.ReviewStatus, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reviews SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(at), id)
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

// DeleteReview returns store.ErrNotFound if the review does not exist.
func (s *Store) DeleteReview(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
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

// DeleteReviewsByBook removes every review of a book and returns how many went.
func (s *Store) DeleteReviewsByBook(ctx context.Context, bookID string) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE book_id = ?`, bookID)
	if err != nil {
		return 0, classify(err)
	}
	return rowsAffected(res)
}

// ListReviews returns matching reviews, newest first.
func (s *Store) ListReviews(ctx context.Context, f store.ReviewFilter) ([]*domain.Review, error) {
	where, args := reviewWhere(f)
	query := `SELECT ` + reviewColumns + ` FROM reviews` + where + ` ORDER BY created_at DESC, id`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var reviews []*domain.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		reviews = append(reviews, r)
	}
	return reviews, classify(rows.Err())
}

// CountReviews counts matching reviews.
func (s *Store) CountReviews(ctx context.Context, f store.ReviewFilter) (int, error) {
	where, args := reviewWhere(f)
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reviews`+where, args...).Scan(&n)
	return n, classify(err)
}

func reviewWhere(f store.ReviewFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.BookID != "" {
		conds = append(conds, "book_id = ?")
		args = append(args, f.BookID)
	}
	if f.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
