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
	"github.com/gameshelf/gameshelf-server/internal/search"
	"github.com/gameshelf/gameshelf-server/internal/service"
	"github.com/gameshelf/gameshelf-server/internal/sse"
)

// TeamChoiceModule registers the admin toggle action and keeps team choice
// flags, search documents and clients current.
type TeamChoiceModule struct {
	teamChoice *service.TeamChoiceService
	catalog    *service.CatalogService
	flags      *flags.Store
	indexer    *indexer
	sse        *sse.Manager
	metrics    metrics.Recorder
	logger     *slog.Logger
}

// NewTeamChoiceModule builds the module from the container.
func NewTeamChoiceModule(i do.Injector) (module.Module, error) {
	teamChoice, err := do.Invoke[*service.TeamChoiceService](i)
	if err != nil {
		return nil, err
	}
	catalog, err := do.Invoke[*service.CatalogService](i)
	if err != nil {
		return nil, err
	}
	flagStore, err := do.Invoke[*flags.Store](i)
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
	rec, err := do.Invoke[metrics.Recorder](i)
	if err != nil {
		return nil, err
	}
	logger, err := do.Invoke[*slog.Logger](i)
	if err != nil {
		return nil, err
	}
	logger = logger.With("module", "team_choice")
	return &TeamChoiceModule{
		teamChoice: teamChoice,
		catalog:    catalog,
		flags:      flagStore,
		indexer:    &indexer{index: index, teamChoice: teamChoice, logger: logger},
		sse:        manager,
		metrics:    rec,
		logger:     logger,
	}, nil
}

// Name implements module.Module.
func (m *TeamChoiceModule) Name() string { return "team_choice" }

// Register implements module.Module.
func (m *TeamChoiceModule) Register(h *module.Host) error {
	if err := h.Actions.Register(action.Action{
		Name:         ActionToggleTeamChoice,
		RequireAdmin: true,
		Handle:       m.toggle,
	}); err != nil {
		return err
	}

	events.Subscribe(h.Bus, m.onChanged)
	events.Subscribe(h.Bus, m.onGameDeleted)
	return nil
}

func (m *TeamChoiceModule) toggle(ctx context.Context, req *action.Request) (*action.Result, error) {
	gameID, err := formGameID(req.Form)
	if err != nil {
		return nil, err
	}
	res, err := m.teamChoice.Toggle(ctx, req.UserID, gameID)
	if err != nil {
		return nil, err
	}
	return &action.Result{Status: res.NewState, Count: res.Count}, nil
}

func (m *TeamChoiceModule) onChanged(ctx context.Context, ev events.TeamChoiceChanged) {
	m.metrics.IncTeamChoice(ev.Active)
	m.sse.Emit(sse.NewTeamChoiceUpdatedEvent(ev.GameID, ev.Active))

	g, err := m.catalog.GetGame(ctx, ev.GameID)
	if err != nil {
		m.logger.Warn("team choice changed for unreadable game", "game_id", ev.GameID, "error", err)
		return
	}
	m.indexer.indexGame(ctx, g)
}

func (m *TeamChoiceModule) onGameDeleted(ctx context.Context, ev events.GameDeleted) {
	n, err := m.flags.ClearEntity(ctx, ev.GameID, flags.TeamChoice)
	if err != nil {
		m.logger.Error("failed to clear team choice", "game_id", ev.GameID, "error", err)
		return
	}
	if n > 0 {
		m.logger.Info("cleared team choice for deleted game", "game_id", ev.GameID)
	}
}
