package service

import (
	"context"
	"log/slog"

	"github.com/gameshelf/gameshelf-server/internal/domain"
	domainerrors "github.com/gameshelf/gameshelf-server/internal/errors"
	"github.com/gameshelf/gameshelf-server/internal/events"
	"github.com/gameshelf/gameshelf-server/internal/flags"
)

// TeamChoiceService manages the global editorial pick flag.
type TeamChoiceService struct {
	flags   FlagStore
	catalog *CatalogService
	bus     *events.Bus
	logger  *slog.Logger
}

// NewTeamChoiceService creates the team choice service.
func NewTeamChoiceService(flagStore FlagStore, catalog *CatalogService, bus *events.Bus, logger *slog.Logger) *TeamChoiceService {
	return &TeamChoiceService{flags: flagStore, catalog: catalog, bus: bus, logger: orDefault(logger)}
}

func teamChoiceKey(gameID int64) (flags.Key, error) {
	if gameID <= 0 {
		return flags.Key{}, domainerrors.Validationf("invalid game id %d", gameID)
	}
	return flags.Key{EntityID: gameID, Type: flags.TeamChoice}, nil
}

// Set marks or unmarks a game as a team choice. Callers must be
// administrators; actorID is recorded on the event.
func (s *TeamChoiceService) Set(ctx context.Context, actorID string, gameID int64, active bool) (*ToggleResult, error) {
	if actorID == "" {
		return nil, domainerrors.Unauthorized("login required")
	}
	key, err := teamChoiceKey(gameID)
	if err != nil {
		return nil, err
	}
	if err := s.flags.Set(ctx, key, active); err != nil {
		return nil, err
	}
	count, err := s.flags.Count(ctx, "", flags.TeamChoice)
	if err != nil {
		return nil, err
	}

	s.logger.Info("team choice changed", "game_id", gameID, "active", active, "by", actorID)
	events.Publish(ctx, s.bus, events.TeamChoiceChanged{GameID: gameID, Active: active, By: actorID})
	return &ToggleResult{NewState: active, Count: count}, nil
}

// Toggle inverts a game's team choice flag.
func (s *TeamChoiceService) Toggle(ctx context.Context, actorID string, gameID int64) (*ToggleResult, error) {
	if actorID == "" {
		return nil, domainerrors.Unauthorized("login required")
	}
	current, err := s.IsTeamChoice(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return s.Set(ctx, actorID, gameID, !current)
}

// IsTeamChoice reports whether the game is a team choice.
func (s *TeamChoiceService) IsTeamChoice(ctx context.Context, gameID int64) (bool, error) {
	key, err := teamChoiceKey(gameID)
	if err != nil {
		return false, err
	}
	return s.flags.Get(ctx, key)
}

// List returns the published team choice games ordered by id.
func (s *TeamChoiceService) List(ctx context.Context) ([]*domain.Game, error) {
	ids, err := s.flags.List(ctx, "", flags.TeamChoice)
	if err != nil {
		return nil, err
	}
	games, err := s.catalog.GetGames(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := games[:0]
	for _, g := range games {
		if g.IsPublished() {
			out = append(out, g)
		}
	}
	return out, nil
}
