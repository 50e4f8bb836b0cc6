package providers

import (
	"context"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/gameshelf/gameshelf-server/internal/cache"
	"github.com/gameshelf/gameshelf-server/internal/config"
	"github.com/gameshelf/gameshelf-server/internal/flags"
	"github.com/gameshelf/gameshelf-server/internal/media/images"
	"github.com/gameshelf/gameshelf-server/internal/meta"
	"github.com/gameshelf/gameshelf-server/internal/service"
	"github.com/gameshelf/gameshelf-server/internal/sse"
	"github.com/gameshelf/gameshelf-server/internal/store/sqlite"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Manager.Shutdown(ctx)
	h.cancel()
	return err
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*LoggerHandle](i)

	manager := sse.NewManager(log.Logger.Logger)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// ProvidePlainSSEManager exposes the running manager to feature modules.
func ProvidePlainSSEManager(i do.Injector) (*sse.Manager, error) {
	return do.MustInvoke[*SSEManagerHandle](i).Manager, nil
}

// StoreHandle wraps the SQLite catalog with shutdown capability.
type StoreHandle struct {
	*sqlite.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the SQLite catalog store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)

	dbPath := cfg.Data.DatabasePath()
	db, err := sqlite.Open(dbPath, log.Logger.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized", "path", dbPath)

	return &StoreHandle{Store: db}, nil
}

// MetaHandle wraps the Badger flag store with shutdown capability.
type MetaHandle struct {
	*meta.Store
}

// Shutdown implements do.Shutdownable.
func (h *MetaHandle) Shutdown() error {
	return h.Close()
}

// ProvideMeta provides the Badger key/value store behind collection flags.
func ProvideMeta(i do.Injector) (*MetaHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)

	path := cfg.Data.MetaPath()
	kv, err := meta.Open(path, log.Logger.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Flag store initialized", "path", path)

	return &MetaHandle{Store: kv}, nil
}

// ProvideFlagStore provides the flag store. Only published catalog games
// may carry flags.
func ProvideFlagStore(i do.Injector) (*flags.Store, error) {
	metaHandle := do.MustInvoke[*MetaHandle](i)
	catalog := do.MustInvoke[*service.CatalogService](i)
	log := do.MustInvoke[*slog.Logger](i)

	return flags.New(metaHandle.Store, catalog, log), nil
}

// ProvideGameCache provides the in-memory game cache.
func ProvideGameCache(i do.Injector) (*cache.Games, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	return cache.NewGames(cfg.Cache.SizeMB, cfg.Cache.TTL, log), nil
}

// ProvideCoverStorage provides on-disk cover storage.
func ProvideCoverStorage(i do.Injector) (*images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return images.NewStorage(cfg.Data.CoversPath())
}
