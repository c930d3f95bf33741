package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
)

const genreColumns = `id, name, slug, description, created_at`

func scanGenre(scanner interface{ Scan(dest ...any) error }) (*domain.Genre, error) {
	var (
		g           domain.Genre
		description sql.NullString
		createdAt   string
	)
	if err := scanner.Scan(&g.ID, &g.Name, &g.Slug, &description, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if g.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	g.Description = description.String
	return &g, nil
}

// CreateGenre inserts a genre. Returns store.ErrAlreadyExists if the name or slug is taken.
func (s *Store) CreateGenre(ctx context.Context, g *domain.Genre) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO genres (id, name, slug, description, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		g.ID, g.Name, g.Slug, nullString(g.Description), formatTime(g.CreatedAt))
	return classify(err)
}

// GetGenre returns store.ErrNotFound if the genre does not exist.
func (s *Store) GetGenre(ctx context.Context, id string) (*domain.Genre, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+genreColumns+` FROM genres WHERE id = ?`, id)
	g, err := scanGenre(row)
	if err != nil {
		return nil, classify(err)
	}
	return g, nil
}

// UpdateGenre rewrites name, slug and description.
func (s *Store) UpdateGenre(ctx context.Context, g *domain.Genre) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE genres SET name = ?, slug = ?, description = ? WHERE id = ?`,
		g.Name, g.Slug, nullString(g.Description), g.ID)
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

// ListGenres returns all genres in creation order.
func (s *Store) ListGenres(ctx context.Context) ([]*domain.Genre, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+genreColumns+` FROM genres ORDER BY created_at, rowid`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	var genres []*domain.Genre
	for rows.Next() {
		g, err := scanGenre(rows)
		if err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	return genres, classify(rows.Err())
}

// CountBooksByGenre maps each referenced genre ID to its book count.
func (s *Store) CountBooksByGenre(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT genre_id, COUNT(*) FROM books GROUP BY genre_id`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			genreID string
			n       int
		)
		if err := rows.Scan(&genreID, &n); err != nil {
			return nil, fmt.Errorf("scan genre count: %w", err)
		}
		counts[genreID] = n
	}
	return counts, classify(rows.Err())
}
