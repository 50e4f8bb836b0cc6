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

// SubmissionsModule tells admins about new submissions and publishes
// approved games into search.
type SubmissionsModule struct {
	catalog *service.CatalogService
	indexer *indexer
	sse     *sse.Manager
	logger  *slog.Logger
}

// NewSubmissionsModule builds the module from the container.
func NewSubmissionsModule(i do.Injector) (module.Module, error) {
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
	logger = logger.With("module", "submissions")
	return &SubmissionsModule{
		catalog: catalog,
		indexer: &indexer{index: index, teamChoice: teamChoice, logger: logger},
		sse:     manager,
		logger:  logger,
	}, nil
}

// Name implements module.Module.
func (m *SubmissionsModule) Name() string { return "submissions" }

// Register implements module.Module.
func (m *SubmissionsModule) Register(h *module.Host) error {
	events.Subscribe(h.Bus, m.onCreated)
	events.Subscribe(h.Bus, m.onApproved)
	return nil
}

func (m *SubmissionsModule) onCreated(ctx context.Context, ev events.SubmissionCreated) {
	data := sse.SubmissionCreatedData{
		SubmissionID: ev.Submission.ID,
		GameID:       ev.Submission.GameID,
		SubmittedBy:  ev.Submission.UserID,
	}
	if g, err := m.catalog.GetGame(ctx, ev.Submission.GameID); err == nil {
		data.Title = g.Title
	}
	m.sse.Emit(sse.NewSubmissionCreatedEvent(data))
}

func (m *SubmissionsModule) onApproved(ctx context.Context, ev events.SubmissionApproved) {
	if ev.Game == nil {
		return
	}
	m.indexer.indexGame(ctx, ev.Game)
	m.logger.Info("approved submission published", "submission_id", ev.Submission.ID, "game_id", ev.Game.ID)
}
