package service

import (
	"context"
	"log/slog"

	domainerrors "github.com/gameshelf/gameshelf-server/internal/errors"
	"github.com/gameshelf/gameshelf-server/internal/events"
	"github.com/gameshelf/gameshelf-server/internal/flags"
)

// FlagStore is the flag persistence the collection services need.
type FlagStore interface {
	Get(ctx context.Context, k flags.Key) (bool, error)
	Set(ctx context.Context, k flags.Key, value bool) error
	Count(ctx context.Context, subjectID string, t flags.Type) (int, error)
	List(ctx context.Context, subjectID string, t flags.Type) ([]int64, error)
}

// ToggleResult is the state after a toggle and the new collection size.
type ToggleResult struct {
	NewState bool `json:"status"`
	Count    int  `json:"count"`
}

type sessionKey struct{}

// WithSessionID tags ctx with the session performing a request. Collection
// events carry it so only that session's clients are notified.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionIDFrom returns the session set by WithSessionID.
func SessionIDFrom(ctx context.Context) string {
	sid, _ := ctx.Value(sessionKey{}).(string)
	return sid
}

// CollectionService toggles games in and out of a user's favorite and
// owned collections.
type CollectionService struct {
	flags  FlagStore
	bus    *events.Bus
	logger *slog.Logger
}

// NewCollectionService creates the collection service.
func NewCollectionService(flagStore FlagStore, bus *events.Bus, logger *slog.Logger) *CollectionService {
	return &CollectionService{flags: flagStore, bus: bus, logger: orDefault(logger)}
}

// Toggle inverts the user's flag for gameID and returns the new state and
// the collection size.
//
// The read and the write are separate store calls with no lock between
// them. Two overlapping toggles by the same user can both read the old
// value and both write its inverse, so one of them is lost.
func (s *CollectionService) Toggle(ctx context.Context, userID string, gameID int64, t flags.Type) (*ToggleResult, error) {
	key, err := userKey(userID, gameID, t)
	if err != nil {
		return nil, err
	}

	current, err := s.flags.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	next := !current

	if err := s.flags.Set(ctx, key, next); err != nil {
		return nil, err
	}

	count, err := s.flags.Count(ctx, userID, t)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("collection toggled", "user_id", userID, "game_id", gameID, "type", t, "active", next, "count", count)

	events.Publish(ctx, s.bus, events.CollectionUpdated{
		UserID:    userID,
		SessionID: SessionIDFrom(ctx),
		GameID:    gameID,
		Type:      t,
		Active:    next,
		Count:     count,
	})

	return &ToggleResult{NewState: next, Count: count}, nil
}

// State returns the user's favorite and owned flags for a game.
func (s *CollectionService) State(ctx context.Context, userID string, gameID int64) (map[flags.Type]bool, error) {
	state := make(map[flags.Type]bool, 2)
	for _, t := range []flags.Type{flags.Favorite, flags.Owned} {
		key, err := userKey(userID, gameID, t)
		if err != nil {
			return nil, err
		}
		v, err := s.flags.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		state[t] = v
	}
	return state, nil
}

// List returns the ids of games in the user's collection, ascending.
func (s *CollectionService) List(ctx context.Context, userID string, t flags.Type) ([]int64, error) {
	if userID == "" {
		return nil, domainerrors.Unauthorized("login required")
	}
	if !t.PerUser() {
		return nil, domainerrors.Validationf("invalid collection type %q", t)
	}
	return s.flags.List(ctx, userID, t)
}

// userKey checks the caller and arguments before any store access.
func userKey(userID string, gameID int64, t flags.Type) (flags.Key, error) {
	if userID == "" {
		return flags.Key{}, domainerrors.Unauthorized("login required")
	}
	if !t.PerUser() {
		return flags.Key{}, domainerrors.Validationf("invalid collection type %q", t)
	}
	if gameID <= 0 {
		return flags.Key{}, domainerrors.Validationf("invalid game id %d", gameID)
	}
	key := flags.Key{SubjectID: userID, EntityID: gameID, Type: t}
	return key, key.Validate()
}
