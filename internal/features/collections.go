package features

import (
	"context"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/gameshelf/gameshelf-server/internal/action"
	"github.com/gameshelf/gameshelf-server/internal/events"
	"github.com/gameshelf/gameshelf-server/internal/flags"
	"github.com/gameshelf/gameshelf-server/internal/metrics"
	"github.com/gameshelf/gameshelf-server/internal/module"
	"github.com/gameshelf/gameshelf-server/internal/service"
	"github.com/gameshelf/gameshelf-server/internal/sse"
)

// CollectionsModule registers the favorite/owned toggle action and pushes
// each successful toggle to the session that made it.
type CollectionsModule struct {
	collections *service.CollectionService
	flags       *flags.Store
	sse         *sse.Manager
	metrics     metrics.Recorder
	logger      *slog.Logger
}

// NewCollectionsModule builds the module from the container.
func NewCollectionsModule(i do.Injector) (module.Module, error) {
	collections, err := do.Invoke[*service.CollectionService](i)
	if err != nil {
		return nil, err
	}
	flagStore, err := do.Invoke[*flags.Store](i)
	if err != nil {
		return nil, err
	}
	manager, err := do.Invoke[*sse.Manager](i)
	if err != nil {
		return nil, err
	}
	rec, err := do.Invoke[metrics.Recorder](i)
	if err != nil {
		return nil, err
	}
	logger, err := do.Invoke[*slog.Logger](i)
	if err != nil {
		return nil, err
	}
	return &CollectionsModule{
		collections: collections,
		flags:       flagStore,
		sse:         manager,
		metrics:     rec,
		logger:      logger.With("module", "user_collections"),
	}, nil
}

// Name implements module.Module.
func (m *CollectionsModule) Name() string { return "user_collections" }

// Register implements module.Module.
func (m *CollectionsModule) Register(h *module.Host) error {
	if err := h.Actions.Register(action.Action{
		Name:   ActionToggleCollection,
		Handle: m.toggle,
	}); err != nil {
		return err
	}

	events.Subscribe(h.Bus, m.onUpdated)
	events.Subscribe(h.Bus, m.onGameDeleted)
	return nil
}

func (m *CollectionsModule) toggle(ctx context.Context, req *action.Request) (*action.Result, error) {
	gameID, err := formGameID(req.Form)
	if err != nil {
		return nil, err
	}
	t, err := flags.ParseUserType(req.Form.Get("collection_type"))
	if err != nil {
		return nil, err
	}

	res, err := m.collections.Toggle(service.WithSessionID(ctx, req.SessionID), req.UserID, gameID, t)
	if err != nil {
		return nil, err
	}
	return &action.Result{Status: res.NewState, Count: res.Count}, nil
}

func (m *CollectionsModule) onUpdated(_ context.Context, ev events.CollectionUpdated) {
	m.metrics.IncToggle(string(ev.Type), ev.Active)
	if ev.SessionID == "" {
		return
	}
	m.sse.Emit(sse.NewCollectionUpdatedEvent(ev.UserID, ev.SessionID, ev.GameID, ev.Type, ev.Active))
}

func (m *CollectionsModule) onGameDeleted(ctx context.Context, ev events.GameDeleted) {
	n, err := m.flags.ClearEntity(ctx, ev.GameID, flags.Favorite, flags.Owned)
	if err != nil {
		m.logger.Error("failed to clear collection flags", "game_id", ev.GameID, "error", err)
		return
	}
	if n > 0 {
		m.logger.Info("cleared collection flags for deleted game", "game_id", ev.GameID, "flags", n)
	}
}
