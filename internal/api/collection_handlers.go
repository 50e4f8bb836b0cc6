package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gameshelf/gameshelf-server/internal/flags"
)

func (s *Server) registerCollectionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listMyCollection",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/collections/{type}",
		Summary:     "List collection",
		Description: "Returns the IDs of the games in one of the caller's collections",
		Tags:        []string{"Collections"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMyCollection)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMyGameState",
		Method:      http.MethodGet,
		Path:        "/api/v1/me/games/{id}/state",
		Summary:     "Game collection state",
		Description: "Returns which of the caller's collections contain a game",
		Tags:        []string{"Collections"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetMyGameState)
}

// === DTOs ===

// CollectionInput names a per-user collection.
type CollectionInput struct {
	Type string `path:"type" enum:"favorite,owned" doc:"Collection type"`
}

// CollectionResponse lists the games in a collection.
type CollectionResponse struct {
	Type    string  `json:"type" doc:"Collection type"`
	GameIDs []int64 `json:"game_ids" doc:"Game IDs in the collection"`
	Count   int     `json:"count" doc:"Number of games in the collection"`
}

// CollectionOutput wraps the collection response for Huma.
type CollectionOutput struct {
	Body CollectionResponse
}

// GameStateResponse is the caller's view of one game.
type GameStateResponse struct {
	GameID     int64 `json:"game_id" doc:"Game ID"`
	Favorite   bool  `json:"favorite" doc:"In the favorites collection"`
	Owned      bool  `json:"owned" doc:"In the owned collection"`
	TeamChoice bool  `json:"team_choice" doc:"Picked by the team"`
}

// GameStateOutput wraps the game state for Huma.
type GameStateOutput struct {
	Body GameStateResponse
}

// === Handlers ===

func (s *Server) handleListMyCollection(ctx context.Context, input *CollectionInput) (*CollectionOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	t, err := flags.ParseUserType(input.Type)
	if err != nil {
		return nil, err
	}

	ids, err := s.services.Collection.List(ctx, userID, t)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []int64{}
	}

	return &CollectionOutput{Body: CollectionResponse{
		Type:    string(t),
		GameIDs: ids,
		Count:   len(ids),
	}}, nil
}

func (s *Server) handleGetMyGameState(ctx context.Context, input *GameIDInput) (*GameStateOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	state, err := s.services.Collection.State(ctx, userID, input.ID)
	if err != nil {
		return nil, err
	}
	teamChoice, err := s.services.TeamChoice.IsTeamChoice(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &GameStateOutput{Body: GameStateResponse{
		GameID:     input.ID,
		Favorite:   state[flags.Favorite],
		Owned:      state[flags.Owned],
		TeamChoice: teamChoice,
	}}, nil
}
