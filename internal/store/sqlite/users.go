package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
)

const userColumns = `id, username, display_name, bio, goal_year, goal_target, created_at, updated_at`

func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u         domain.User
		createdAt string
		updatedAt string
	)
	err := scanner.Scan(
		&u.ID,
		&u.Username,
		&u.DisplayName,
		&u.Bio,
		&u.ReadingGoal.Year,
		&u.ReadingGoal.TargetBooks,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a user. Returns store.ErrAlreadyExists if the username is taken.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, display_name, bio, goal_year, goal_target, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.DisplayName, u.Bio,
		u.ReadingGoal.Year, u.ReadingGoal.TargetBooks,
		formatTime(u.CreatedAt), formatTime(u.UpdatedAt))
	return classify(err)
}

// GetUser loads a user with both halves of their follow edges.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, classify(err)
	}

	if u.Following, err = s.edgeIDs(ctx,
		`SELECT target_id FROM user_following WHERE user_id = ? ORDER BY created_at, target_id`, id); err != nil {
		return nil, err
	}
	if u.Followers, err = s.edgeIDs(ctx,
		`SELECT follower_id FROM user_followers WHERE user_id = ? ORDER BY created_at, follower_id`, id); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateUser rewrites profile fields and the reading goal. Edges are not touched.
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET display_name = ?, bio = ?, goal_year = ?, goal_target = ?, updated_at = ?
		WHERE id = ?`,
		u.DisplayName, u.Bio, u.ReadingGoal.Year, u.ReadingGoal.TargetBooks,
		formatTime(u.UpdatedAt), u.ID)
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

// CountUsers returns the number of users.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, classify(err)
}

// AddFollowing records that userID follows targetID. Reports whether a row was inserted.
func (s *Store) AddFollowing(ctx context.Context, userID, targetID string, at time.Time) (bool, error) {
	return s.insertEdge(ctx,
		`INSERT OR IGNORE INTO user_following (user_id, target_id, created_at) VALUES (?, ?, ?)`,
		userID, targetID, at)
}

// RemoveFollowing deletes userID's following edge to targetID. Reports whether a row was removed.
func (s *Store) RemoveFollowing(ctx context.Context, userID, targetID string) (bool, error) {
	return s.deleteEdge(ctx,
		`DELETE FROM user_following WHERE user_id = ? AND target_id = ?`, userID, targetID)
}

// AddFollower records followerID on userID's follower set.
func (s *Store) AddFollower(ctx context.Context, userID, followerID string, at time.Time) (bool, error) {
	return s.insertEdge(ctx,
		`INSERT OR IGNORE INTO user_followers (user_id, follower_id, created_at) VALUES (?, ?, ?)`,
		userID, followerID, at)
}

// RemoveFollower deletes followerID from userID's follower set.
func (s *Store) RemoveFollower(ctx context.Context, userID, followerID string) (bool, error) {
	return s.deleteEdge(ctx,
		`DELETE FROM user_followers WHERE user_id = ? AND follower_id = ?`, userID, followerID)
}

func (s *Store) insertEdge(ctx context.Context, query, a, b string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, query, a, b, formatTime(at))
	if err != nil {
		return false, classify(err)
	}
	n, err := rowsAffected(res)
	return n > 0, err
}

func (s *Store) deleteEdge(ctx context.Context, query, a, b string) (bool, error) {
	res, err := s.db.ExecContext(ctx, query, a, b)
	if err != nil {
		return false, classify(err)
	}
	n, err := rowsAffected(res)
	return n > 0, err
}

func (s *Store) edgeIDs(ctx context.Context, query, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, classify(rows.Err())
}
