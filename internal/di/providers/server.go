package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/shelfwiseapp/shelfwise-server/internal/api"
	"github.com/shelfwiseapp/shelfwise-server/internal/config"
	"github.com/shelfwiseapp/shelfwise-server/internal/logger"
	"github.com/shelfwiseapp/shelfwise-server/internal/metrics"
	"github.com/shelfwiseapp/shelfwise-server/internal/service"
)

// Version is reported in the OpenAPI document.
var Version = "dev"

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server and starts listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	queueHandle := do.MustInvoke[*QueueHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	workerHandle := do.MustInvoke[*RecomputeWorkerHandle](i)
	m := do.MustInvoke[*metrics.Metrics](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		Catalog:        do.MustInvoke[*service.CatalogService](i),
		Library:        do.MustInvoke[*service.LibraryService](i),
		Review:         do.MustInvoke[*service.ReviewService](i),
		User:           do.MustInvoke[*service.UserService](i),
		Social:         do.MustInvoke[*service.SocialService](i),
		Recommendation: do.MustInvoke[*service.RecommendationEngine](i),
		Stats:          do.MustInvoke[*service.StatsEngine](i),
		Activity:       do.MustInvoke[*service.ActivityService](i),
		Recompute:      workerHandle.RecomputeWorker,
		Search:         indexHandle.SearchIndex,
		Queue:          queueHandle.Queue,
	}

	handler := api.NewServer(storeHandle.Store, services, m, api.Options{
		Name:           cfg.Server.Name,
		Version:        Version,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
