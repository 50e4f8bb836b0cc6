package features

import (
	"context"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/gameshelf/gameshelf-server/internal/events"
	"github.com/gameshelf/gameshelf-server/internal/module"
	"github.com/gameshelf/gameshelf-server/internal/search"
	"github.com/gameshelf/gameshelf-server/internal/service"
	"github.com/gameshelf/gameshelf-server/internal/sse"
)

// CatalogModule keeps the game cache and search index in step with catalog
// writes and tells clients about removed games.
type CatalogModule struct {
	catalog *service.CatalogService
	indexer *indexer
	sse     *sse.Manager
}

// NewCatalogModule builds the module from the container.
func NewCatalogModule(i do.Injector) (module.Module, error) {
	catalog, err := do.Invoke[*service.CatalogService](i)
	if err != nil {
		return nil, err
	}
	teamChoice, err := do.Invoke[*service.TeamChoiceService](i)
	if err != nil {
		return nil, err
	}
	index, err := do.Invoke[*search.Index](i)
	if err != nil {
		return nil, err
	}
	manager, err := do.Invoke[*sse.Manager](i)
	if err != nil {
		return nil, err
	}
	logger, err := do.Invoke[*slog.Logger](i)
	if err != nil {
		return nil, err
	}
	return &CatalogModule{
		catalog: catalog,
		indexer: &indexer{index: index, teamChoice: teamChoice, logger: logger.With("module", "catalog")},
		sse:     manager,
	}, nil
}

// Name implements module.Module.
func (m *CatalogModule) Name() string { return "catalog" }

// Register implements module.Module.
func (m *CatalogModule) Register(h *module.Host) error {
	m.catalog.WatchCache()
	events.Subscribe(h.Bus, func(ctx context.Context, ev events.GameSaved) {
		m.indexer.indexGame(ctx, ev.Game)
	})
	events.Subscribe(h.Bus, func(_ context.Context, ev events.GameDeleted) {
		m.indexer.removeGame(ev.GameID)
		m.sse.Emit(sse.NewGameRemovedEvent(ev.GameID))
	})
	return nil
}
