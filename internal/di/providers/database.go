package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/shelfwiseapp/shelfwise-server/internal/config"
	"github.com/shelfwiseapp/shelfwise-server/internal/logger"
	"github.com/shelfwiseapp/shelfwise-server/internal/queue"
	"github.com/shelfwiseapp/shelfwise-server/internal/store/sqlite"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the ledger database.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	dbPath := cfg.Data.DatabasePath()
	db, err := sqlite.Open(dbPath, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)
	return &StoreHandle{Store: db}, nil
}

// QueueHandle wraps the recompute queue with shutdown capability.
type QueueHandle struct {
	*queue.Queue
}

// Shutdown implements do.Shutdownable.
func (h *QueueHandle) Shutdown() error {
	return h.Close()
}

// ProvideQueue provides the durable queue of pending aggregate recomputes.
func ProvideQueue(i do.Injector) (*QueueHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	q, err := queue.Open(cfg.Data.QueuePath(), log.Logger)
	if err != nil {
		return nil, err
	}

	n, _ := q.Len(context.Background())
	log.Info("Recompute queue opened", "path", cfg.Data.QueuePath(), "pending", n)
	return &QueueHandle{Queue: q}, nil
}
