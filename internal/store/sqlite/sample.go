package sqlite

import (
	"context"
	"fmt"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
)

// SampleBooks draws up to n distinct books uniformly at random from the
// books not in exclude. Eligible IDs are streamed through a size-n reservoir
// (Algorithm R), so every eligible book is equally likely regardless of its
// position in the table.
func (s *Store) SampleBooks(ctx context.Context, exclude []string, n int) ([]*domain.Book, error) {
	if n <= 0 {
		return nil, nil
	}

	query := `SELECT id FROM books`
	var args []any
	if len(exclude) > 0 {
		var ph string
		ph, args = placeholders(exclude)
		query += ` WHERE id NOT IN (` + ph + `)`
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	reservoir := make([]string, 0, n)
	seen := 0

	s.rngMu.Lock()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			s.rngMu.Unlock()
			return nil, fmt.Errorf("scan book id: %w", err)
		}
		seen++
		if len(reservoir) < n {
			reservoir = append(reservoir, id)
			continue
		}
		if j := s.rng.IntN(seen); j < n {
			reservoir[j] = id
		}
	}
	s.rngMu.Unlock()
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	byID, err := s.GetBooksByIDs(ctx, reservoir)
	if err != nil {
		return nil, err
	}
	books := make([]*domain.Book, 0, len(reservoir))
	for _, id := range reservoir {
		// A book deleted between the two reads is simply dropped.
		if b, ok := byID[id]; ok {
			books = append(books, b)
		}
	}
	return books, nil
}
