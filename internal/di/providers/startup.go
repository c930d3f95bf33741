package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/shelfwiseapp/shelfwise-server/internal/config"
	"github.com/shelfwiseapp/shelfwise-server/internal/logger"
	"github.com/shelfwiseapp/shelfwise-server/internal/service"
)

// SeedGenresIfNeeded creates the default genres on an empty catalog.
func SeedGenresIfNeeded(i do.Injector) error {
	cfg := do.MustInvoke[*config.Config](i)
	if !cfg.Data.SeedGenres {
		return nil
	}
	catalog := do.MustInvoke[*service.CatalogService](i)

	_, err := catalog.SeedGenres(context.Background())
	return err
}

// ReconcileAggregatesInBackground recomputes every book's aggregates so
// counts drifted by a crash converge after restart.
func ReconcileAggregatesInBackground(i do.Injector) {
	cfg := do.MustInvoke[*config.Config](i)
	if !cfg.Data.ReconcileOn {
		return
	}
	worker := do.MustInvoke[*RecomputeWorkerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	go func() {
		if err := worker.Reconcile(context.Background()); err != nil {
			log.Error("Aggregate reconcile failed", "error", err)
		}
	}()
}
