package providers

import (
	"github.com/samber/do/v2"

	"github.com/shelfwiseapp/shelfwise-server/internal/config"
	"github.com/shelfwiseapp/shelfwise-server/internal/logger"
	"github.com/shelfwiseapp/shelfwise-server/internal/metrics"
	"github.com/shelfwiseapp/shelfwise-server/internal/service"
)

// ProvideAggregateMaintainer provides the book aggregate recomputer.
func ProvideAggregateMaintainer(i do.Injector) (*service.AggregateMaintainer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	queueHandle := do.MustInvoke[*QueueHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAggregateMaintainer(storeHandle.Store, log.Logger, service.AggregateOptions{
		Attempts: cfg.Engine.RecomputeAttempts,
		Backoff:  cfg.Engine.RecomputeBackoff,
		Queue:    queueHandle.Queue,
		Metrics:  m,
	}), nil
}

// ProvideActivityService provides the feed activity recorder.
func ProvideActivityService(i do.Injector) (*service.ActivityService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewActivityService(storeHandle.Store, m, cfg.Engine.ActivityRetention, log.Logger), nil
}

// ProvideCatalogService provides the genre and book service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCatalogService(storeHandle.Store, indexHandle.SearchIndex, log.Logger), nil
}

// ProvideLibraryService provides the shelf ledger service.
func ProvideLibraryService(i do.Injector) (*service.LibraryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	aggregates := do.MustInvoke[*service.AggregateMaintainer](i)
	activities := do.MustInvoke[*service.ActivityService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewLibraryService(storeHandle.Store, aggregates, activities, log.Logger), nil
}

// ProvideReviewService provides the review and moderation service.
func ProvideReviewService(i do.Injector) (*service.ReviewService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	aggregates := do.MustInvoke[*service.AggregateMaintainer](i)
	activities := do.MustInvoke[*service.ActivityService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewReviewService(storeHandle.Store, aggregates, activities, log.Logger), nil
}

// ProvideUserService provides the user service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(storeHandle.Store, log.Logger), nil
}

// ProvideSocialService provides the follow graph and feed service.
func ProvideSocialService(i do.Injector) (*service.SocialService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSocialService(storeHandle.Store, log.Logger, service.SocialOptions{
		Attempts:  cfg.Engine.SocialAttempts,
		Backoff:   cfg.Engine.RecomputeBackoff,
		FeedLimit: cfg.Engine.FeedLimit,
		Metrics:   m,
	}), nil
}

// ProvideRecommendationEngine provides the recommender.
func ProvideRecommendationEngine(i do.Injector) (*service.RecommendationEngine, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewRecommendationEngine(storeHandle.Store, cfg.Engine.RecommendLimit, m, log.Logger), nil
}

// ProvideStatsEngine provides the reading statistics engine.
func ProvideStatsEngine(i do.Injector) (*service.StatsEngine, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewStatsEngine(storeHandle.Store, log.Logger), nil
}
