// Package di provides dependency injection configuration for the Shelfwise server.
package di

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/shelfwiseapp/shelfwise-server/internal/config"
	"github.com/shelfwiseapp/shelfwise-server/internal/di/providers"
	"github.com/shelfwiseapp/shelfwise-server/internal/logger"
	"github.com/shelfwiseapp/shelfwise-server/internal/metrics"
	"github.com/shelfwiseapp/shelfwise-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideMetrics)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideQueue)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Engines and services
	do.Provide(injector, providers.ProvideAggregateMaintainer)
	do.Provide(injector, providers.ProvideActivityService)
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideLibraryService)
	do.Provide(injector, providers.ProvideReviewService)
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideSocialService)
	do.Provide(injector, providers.ProvideRecommendationEngine)
	do.Provide(injector, providers.ProvideStatsEngine)

	// Workers
	do.Provide(injector, providers.ProvideRecomputeWorker)
	do.Provide(injector, providers.ProvideActivityPurger)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the workers and HTTP server.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*metrics.Metrics](injector)

	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if _, err := do.Invoke[*providers.QueueHandle](injector); err != nil {
		return fmt.Errorf("open recompute queue: %w", err)
	}
	if _, err := do.Invoke[*providers.SearchIndexHandle](injector); err != nil {
		return fmt.Errorf("open search index: %w", err)
	}

	// Business services
	_ = do.MustInvoke[*service.AggregateMaintainer](injector)
	_ = do.MustInvoke[*service.ActivityService](injector)
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.LibraryService](injector)
	_ = do.MustInvoke[*service.ReviewService](injector)
	_ = do.MustInvoke[*service.UserService](injector)
	_ = do.MustInvoke[*service.SocialService](injector)
	_ = do.MustInvoke[*service.RecommendationEngine](injector)
	_ = do.MustInvoke[*service.StatsEngine](injector)

	if err := providers.SeedGenresIfNeeded(injector); err != nil {
		return fmt.Errorf("seed genres: %w", err)
	}

	// Workers
	_ = do.MustInvoke[*providers.RecomputeWorkerHandle](injector)
	_ = do.MustInvoke[*providers.ActivityPurgerHandle](injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	providers.TriggerSearchReindexIfNeeded(injector)
	providers.ReconcileAggregatesInBackground(injector)

	return nil
}
