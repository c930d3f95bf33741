package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
)

const activityColumns = `id, user_id, kind, book_id, shelf, rating, created_at, expires_at,
	user_display_name, book_title, book_author, book_cover_ref`

func scanActivity(scanner interface{ Scan(dest ...any) error }) (*domain.Activity, error) {
	var (
		a         domain.Activity
		kind      string
		shelf     sql.NullString
		rating    sql.NullInt64
		createdAt string
		expiresAt string
		coverRef  sql.NullString
	)
	err := scanner.Scan(
		&a.ID,
		&a.UserID,
		&kind,
		&a.BookID,
		&shelf,
		&rating,
		&createdAt,
		&expiresAt,
		&a.UserDisplayName,
		&a.BookTitle,
		&a.BookAuthor,
		&coverRef,
	)
	if err != nil {
		return nil, err
	}
	a.Kind = domain.ActivityKind(kind)
	a.Shelf = domain.Shelf(shelf.String)
	a.Rating = int(rating.Int64)
	a.BookCoverRef = coverRef.String
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if a.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateActivity appends an activity.
func (s *Store) CreateActivity(ctx context.Context, a *domain.Activity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activities (
			id, user_id, kind, book_id, shelf, rating, created_at, expires_at,
			user_display_name, book_title, book_author, book_cover_ref
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.UserID,
		string(a.Kind),
		a.BookID,
		nullString(string(a.Shelf)),
		nullInt(a.Rating),
		formatTime(a.CreatedAt),
		formatTime(a.ExpiresAt),
		a.UserDisplayName,
		a.BookTitle,
		a.BookAuthor,
		nullString(a.BookCoverRef),
	)
	return classify(err)
}

// ListActivities returns activities by any of f.UserIDs that are still
// active at f.ActiveAt, newest first.
func (s *Store) ListActivities(ctx context.Context, f store.ActivityFilter) ([]*domain.Activity, error) {
	if len(f.UserIDs) == 0 {
		return nil, nil
	}

	ph, args := placeholders(f.UserIDs)
	query := `SELECT ` + activityColumns + ` FROM activities WHERE user_id IN (` + ph + `)`
	if !f.ActiveAt.IsZero() {
		query += ` AND expires_at > ?`
		args = append(args, formatTime(f.ActiveAt))
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var activities []*domain.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, classify(rows.Err())
}

// DeleteExpiredActivities removes activities whose expiry is at or before now.
func (s *Store) DeleteExpiredActivities(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM activities WHERE expires_at <= ?`, formatTime(now))
	if err != nil {
		return 0, classify(err)
	}
	return rowsAffected(res)
}
