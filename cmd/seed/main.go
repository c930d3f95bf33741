// Package main provides a tool to seed the database with demo readers.
//
// It creates the default genres, a small catalog, and a set of users who
// shelve, finish and review books and follow each other, so that stats,
// recommendations and feeds have something to show. Writes go through the
// services so ratings, shelf counts and activities stay consistent.
//
// Usage:
//
//	DATA_PATH=~/.shelfwise go run ./cmd/seed
//	DATA_PATH=~/.shelfwise go run ./cmd/seed --users 20
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"maps"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"

	"github.com/shelfwiseapp/shelfwise-server/internal/domain"
	domainerrors "github.com/shelfwiseapp/shelfwise-server/internal/errors"
	"github.com/shelfwiseapp/shelfwise-server/internal/service"
	"github.com/shelfwiseapp/shelfwise-server/internal/store/sqlite"
)

var (
	userCount = flag.Int("users", 8, "Number of demo users to create")
	seed      = flag.Uint64("seed", 0, "Random seed (0 picks one)")
)

// demoBooks is keyed by default genre name.
var demoBooks = map[string][]struct {
	title, author string
	pages, year   int
}{
	"Fiction": {
		{"The Remains of the Day", "Kazuo Ishiguro", 258, 1989},
		{"Middlemarch", "George Eliot", 880, 1871},
		{"Beloved", "Toni Morrison", 324, 1987},
	},
	"Fantasy": {
		{"A Wizard of Earthsea", "Ursula K. Le Guin", 183, 1968},
		{"The Hobbit", "J.R.R. Tolkien", 310, 1937},
		{"Piranesi", "Susanna Clarke", 272, 2020},
	},
	"Science Fiction": {
		{"The Left Hand of Darkness", "Ursula K. Le Guin", 304, 1969},
		{"Dune", "Frank Herbert", 688, 1965},
		{"Project Hail Mary", "Andy Weir", 496, 2021},
	},
	"Mystery": {
		{"The Moonstone", "Wilkie Collins", 528, 1868},
		{"The Murder of Roger Ackroyd", "Agatha Christie", 312, 1926},
	},
	"History": {
		{"SPQR", "Mary Beard", 608, 2015},
		{"The Guns of August", "Barbara Tuchman", 511, 1962},
	},
}

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/.shelfwise")
	}
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}
	dbPath := filepath.Join(dataPath, "shelfwise.db")

	fmt.Printf("Opening database at: %s\n", dbPath)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := sqlite.Open(dbPath, logger)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	s := *seed
	if s == 0 {
		s = rand.Uint64()
	}
	fmt.Printf("Using seed %d\n", s)
	rng := rand.New(rand.NewPCG(s, s))

	aggregates := service.NewAggregateMaintainer(st, logger, service.AggregateOptions{})
	activities := service.NewActivityService(st, nil, 0, logger)
	catalog := service.NewCatalogService(st, nil, logger)
	users := service.NewUserService(st, logger)
	library := service.NewLibraryService(st, aggregates, activities, logger)
	reviews := service.NewReviewService(st, aggregates, activities, logger)
	social := service.NewSocialService(st, logger, service.SocialOptions{})

	ctx := context.Background()

	if n, err := catalog.SeedGenres(ctx); err != nil {
		log.Fatalf("Failed to seed genres: %v", err)
	} else if n > 0 {
		fmt.Printf("Created %d genres\n", n)
	}

	books := createBooks(ctx, catalog)
	if len(books) == 0 {
		log.Fatal("No books available to seed with")
	}

	var userIDs []string
	for n := range *userCount {
		u, err := users.CreateUser(ctx, service.CreateUserRequest{
			Username:    fmt.Sprintf("reader%02d", n+1),
			DisplayName: fmt.Sprintf("Demo Reader %d", n+1),
		})
		if errors.Is(err, domainerrors.ErrConflict) {
			fmt.Printf("  reader%02d already exists, skipping\n", n+1)
			continue
		}
		if err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}
		userIDs = append(userIDs, u.ID)
	}
	fmt.Printf("Created %d users\n", len(userIDs))

	for _, userID := range userIDs {
		shelved, reviewed := seedReader(ctx, rng, userID, books, library, reviews)
		fmt.Printf("  %s: %d shelved, %d reviewed\n", userID, shelved, reviewed)
	}

	follows := 0
	for _, follower := range userIDs {
		for _, target := range userIDs {
			if follower == target || rng.Float64() > 0.4 {
				continue
			}
			if err := social.Follow(ctx, follower, target); err != nil {
				log.Printf("Failed to follow: %v", err)
				continue
			}
			follows++
		}
	}
	fmt.Printf("Created %d follow edges\n", follows)

	fmt.Println("\nSeeding complete!")
}

// createBooks adds the demo catalog, skipping books whose genre is missing.
func createBooks(ctx context.Context, catalog *service.CatalogService) []*domain.Book {
	genres, err := catalog.ListGenres(ctx)
	if err != nil {
		log.Fatalf("Failed to list genres: %v", err)
	}
	byName := make(map[string]string, len(genres))
	for _, g := range genres {
		byName[g.Name] = g.ID
	}

	var books []*domain.Book
	for _, genreName := range slices.Sorted(maps.Keys(demoBooks)) {
		entries := demoBooks[genreName]
		genreID, ok := byName[genreName]
		if !ok {
			fmt.Printf("  Genre %q not found, skipping its books\n", genreName)
			continue
		}
		for _, e := range entries {
			b, err := catalog.CreateBook(ctx, service.CreateBookRequest{
				Title:           e.title,
				Author:          e.author,
				GenreID:         genreID,
				Description:     fmt.Sprintf("%s by %s.", e.title, e.author),
				TotalPages:      e.pages,
				PublicationYear: e.year,
			})
			if err != nil {
				log.Printf("Failed to create %q: %v", e.title, err)
				continue
			}
			books = append(books, b)
		}
	}
	fmt.Printf("Created %d books\n", len(books))
	return books
}

// seedReader shelves 3-8 random books for one user. Finished books are
// reviewed about half the time and the reviews are approved.
func seedReader(ctx context.Context, rng *rand.Rand, userID string, books []*domain.Book, library *service.LibraryService, reviews *service.ReviewService) (shelved, reviewed int) {
	picked := make([]*domain.Book, len(books))
	copy(picked, books)
	rng.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	picked = picked[:min(3+rng.IntN(6), len(picked))]

	shelves := []domain.Shelf{domain.ShelfWantToRead, domain.ShelfCurrentlyReading, domain.ShelfRead, domain.ShelfRead}
	for _, b := range picked {
		shelf := shelves[rng.IntN(len(shelves))]
		req := service.AddToShelfRequest{BookID: b.ID, Shelf: shelf}
		if shelf == domain.ShelfCurrentlyReading {
			req.PagesRead = rng.IntN(max(b.TotalPages, 1))
		}
		if _, err := library.AddToShelf(ctx, userID, req); err != nil {
			log.Printf("Failed to shelve %q: %v", b.Title, err)
			continue
		}
		shelved++

		if shelf != domain.ShelfRead || rng.IntN(2) == 0 {
			continue
		}
		r, err := reviews.CreateReview(ctx, userID, service.CreateReviewRequest{
			BookID:  b.ID,
			Rating:  2 + rng.IntN(4),
			Comment: "Seeded review of " + b.Title,
		})
		if err != nil {
			log.Printf("Failed to review %q: %v", b.Title, err)
			continue
		}
		if _, err := reviews.ModerateReview(ctx, r.ID, domain.ReviewApproved); err != nil {
			log.Printf("Failed to approve review: %v", err)
			continue
		}
		reviewed++
	}
	return shelved, reviewed
}
