package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/shelfwiseapp/shelfwise-server/internal/config"
	"github.com/shelfwiseapp/shelfwise-server/internal/logger"
	"github.com/shelfwiseapp/shelfwise-server/internal/metrics"
	"github.com/shelfwiseapp/shelfwise-server/internal/service"
)

// RecomputeWorkerHandle runs the recompute queue sweeper until shutdown.
type RecomputeWorkerHandle struct {
	*service.RecomputeWorker
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *RecomputeWorkerHandle) Shutdown() error {
	h.cancel()
	<-h.done
	return nil
}

// ProvideRecomputeWorker provides and starts the recompute queue sweeper.
func ProvideRecomputeWorker(i do.Injector) (*RecomputeWorkerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	queueHandle := do.MustInvoke[*QueueHandle](i)
	aggregates := do.MustInvoke[*service.AggregateMaintainer](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	w := service.NewRecomputeWorker(storeHandle.Store, aggregates, queueHandle.Queue, m, cfg.Engine.QueueSweepInterval, log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	log.Info("Recompute worker started", "interval", cfg.Engine.QueueSweepInterval)
	return &RecomputeWorkerHandle{RecomputeWorker: w, cancel: cancel, done: done}, nil
}

// ActivityPurgerHandle runs the expired activity sweep until shutdown.
type ActivityPurgerHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *ActivityPurgerHandle) Shutdown() error {
	h.cancel()
	<-h.done
	return nil
}

// ProvideActivityPurger starts the periodic purge of expired activities.
func ProvideActivityPurger(i do.Injector) (*ActivityPurgerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	activities := do.MustInvoke[*service.ActivityService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		activities.RunPurger(ctx, cfg.Engine.ActivitySweepInterval)
	}()

	log.Info("Activity purger started", "interval", cfg.Engine.ActivitySweepInterval)
	return &ActivityPurgerHandle{cancel: cancel, done: done}, nil
}
