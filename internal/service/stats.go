package service

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	"github.com/shelfwiseapp/shelfwise-server/internal/store"
)

const (
	day = 24 * time.Hour

	// A streak is live if the latest finish is at most streakRecency whole
	// days old; its value is the number of finishes within streakWindow.
	streakRecency = 7
	streakWindow  = 30
)

// StatsEngine summarises a reader's ledger for the current calendar year.
type StatsEngine struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewStatsEngine creates a stats engine.
func NewStatsEngine(st store.Store, logger *slog.Logger) *StatsEngine {
	return &StatsEngine{store: st, logger: logger, now: time.Now}
}

// ReadingStats computes userID's reading statistics. Nothing is written.
func (e *StatsEngine) ReadingStats(ctx context.Context, userID string) (*domain.ReadingStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		user    *domain.User
		entries []*domain.UserBook
		reviews []*domain.Review
		genres  []*domain.Genre
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		user, err = loadUser(gctx, e.store, userID)
		return err
	})
	g.Go(func() (err error) {
		entries, err = e.store.ListUserBooks(gctx, store.LedgerFilter{UserID: userID})
		return storeError(err, "library")
	})
	g.Go(func() (err error) {
		reviews, err = e.store.ListReviews(gctx, store.ReviewFilter{UserID: userID})
		return storeError(err, "reviews")
	})
	g.Go(func() (err error) {
		genres, err = e.store.ListGenres(gctx)
		return storeError(err, "genres")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var read []*domain.UserBook
	bookIDs := make([]string, 0, len(entries))
	for _, ub := range entries {
		if ub.Shelf == domain.ShelfRead {
			read = append(read, ub)
			bookIDs = append(bookIDs, ub.BookID)
		}
	}
	books, err := e.store.GetBooksByIDs(ctx, bookIDs)
	if err != nil {
		return nil, storeError(err, "books")
	}

	now := e.now()
	stats := &domain.ReadingStats{
		Year:           now.Year(),
		AverageRating:  domain.RoundTenth(ratingMean(reviews)),
		GenreBreakdown: map[string]int{},
		FavoriteGenre:  domain.NoFavoriteGenre,
		TotalBooksRead: len(read),
	}

	for _, ub := range entries {
		switch ub.Shelf {
		case domain.ShelfCurrentlyReading:
			stats.CurrentlyReading++
		case domain.ShelfWantToRead:
			stats.WantToRead++
		}
	}

	for _, ub := range read {
		if ub.FinishedAt == nil {
			continue
		}
		finished := ub.FinishedAt.In(now.Location())
		if finished.Year() != now.Year() {
			continue
		}
		stats.BooksReadThisYear++
		stats.MonthlyReading[finished.Month()-1]++
		if b, ok := books[ub.BookID]; ok {
			stats.TotalPages += max(b.TotalPages, 0)
		}
	}

	genreNames := make(map[string]string, len(genres))
	for _, gen := range genres {
		genreNames[gen.ID] = gen.Name
	}
	var order []string
	for _, ub := range read {
		b, ok := books[ub.BookID]
		if !ok {
			continue
		}
		name, ok := genreNames[b.GenreID]
		if !ok {
			name = domain.UnknownGenre
		}
		if stats.GenreBreakdown[name] == 0 {
			order = append(order, name)
		}
		stats.GenreBreakdown[name]++
	}
	for _, name := range order {
		if stats.FavoriteGenre == domain.NoFavoriteGenre || stats.GenreBreakdown[name] > stats.GenreBreakdown[stats.FavoriteGenre] {
			stats.FavoriteGenre = name
		}
	}

	stats.ReadingStreak = readingStreak(read, now)

	if user.ReadingGoal.Year == now.Year() {
		stats.Goal = goalProgress(user.ReadingGoal, stats.BooksReadThisYear)
	}

	e.logger.Debug("reading stats computed",
		"user_id", userID,
		"books_read_this_year", stats.BooksReadThisYear,
		"streak", stats.ReadingStreak,
	)
	return stats, nil
}

// readingStreak counts finishes in the last 30 days, provided the most
// recent one is no more than 7 days old. Ages are in whole elapsed days.
func readingStreak(read []*domain.UserBook, now time.Time) int {
	var finishes []time.Time
	for _, ub := range read {
		if ub.FinishedAt != nil {
			finishes = append(finishes, *ub.FinishedAt)
		}
	}
	if len(finishes) == 0 {
		return 0
	}
	slices.SortFunc(finishes, func(a, b time.Time) int { return b.Compare(a) })

	age := func(t time.Time) int64 {
		d := now.Sub(t)
		days := int64(d / day)
		if d < 0 && d%day != 0 {
			days--
		}
		return days
	}
	if age(finishes[0]) > streakRecency {
		return 0
	}
	streak := 0
	for _, t := range finishes {
		if age(t) <= streakWindow {
			streak++
		}
	}
	return streak
}

func goalProgress(goal domain.ReadingGoal, completed int) *domain.GoalProgress {
	p := &domain.GoalProgress{Year: goal.Year, Target: goal.TargetBooks, Completed: completed}
	if goal.TargetBooks > 0 {
		p.Percent = min(100, completed*100/goal.TargetBooks)
	}
	return p
}

func ratingMean(reviews []*domain.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	return float64(total) / float64(len(reviews))
}
