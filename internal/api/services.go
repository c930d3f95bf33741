package api

import (
	"context"

	"github.com/shelfwiseapp/shelfwise-server/internal/service"
)

// Services groups the business services used by the API server.
type Services struct {
	Catalog        *service.CatalogService
	Library        *service.LibraryService
	Review         *service.ReviewService
	User           *service.UserService
	Social         *service.SocialService
	Recommendation *service.RecommendationEngine
	Stats          *service.StatsEngine
	Activity       *service.ActivityService
	Recompute      *service.RecomputeWorker

	// Optional health probes.
	Search DocumentCounter
	Queue  QueueLener
}

// DocumentCounter reports the size of the search index.
type DocumentCounter interface {
	DocumentCount() (uint64, error)
}

// QueueLener reports the number of pending recompute jobs.
type QueueLener interface {
	Len(ctx context.Context) (int, error)
}
