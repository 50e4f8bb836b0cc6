package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerTeamChoiceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTeamChoice",
		Method:      http.MethodGet,
		Path:        "/api/v1/team-choice",
		Summary:     "List team choice games",
		Description: "Returns the published games the team picked",
		Tags:        []string{"Team Choice"},
	}, s.handleListTeamChoice)

	huma.Register(s.api, huma.Operation{
		OperationID: "setTeamChoice",
		Method:      http.MethodPut,
		Path:        "/api/v1/team-choice/{id}",
		Summary:     "Set team choice",
		Description: "Marks or unmarks a game as a team choice (admin only)",
		Tags:        []string{"Team Choice"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSetTeamChoice)
}

// === DTOs ===

// TeamChoiceListResponse lists the picked games.
type TeamChoiceListResponse struct {
	Games []GameResponse `json:"games" doc:"Team choice games"`
	Count int            `json:"count" doc:"Number of team choice games"`
}

// TeamChoiceListOutput wraps the list for Huma.
type TeamChoiceListOutput struct {
	Body TeamChoiceListResponse
}

// SetTeamChoiceInput sets the flag for a game.
type SetTeamChoiceInput struct {
	ID   int64 `path:"id" minimum:"1" doc:"Game ID"`
	Body struct {
		Active bool `json:"active" doc:"Whether the game is a team choice"`
	}
}

// ToggleResponse mirrors the ajax success payload.
type ToggleResponse struct {
	Status bool `json:"status" doc:"New flag value"`
	Count  int  `json:"count" doc:"Number of entries now flagged"`
}

// ToggleOutput wraps a toggle response for Huma.
type ToggleOutput struct {
	Body ToggleResponse
}

// === Handlers ===

func (s *Server) handleListTeamChoice(ctx context.Context, _ *struct{}) (*TeamChoiceListOutput, error) {
	games, err := s.services.TeamChoice.List(ctx)
	if err != nil {
		return nil, err
	}

	resp := make([]GameResponse, len(games))
	for i, g := range games {
		resp[i] = toGameResponse(g, true)
	}
	return &TeamChoiceListOutput{Body: TeamChoiceListResponse{Games: resp, Count: len(resp)}}, nil
}

func (s *Server) handleSetTeamChoice(ctx context.Context, input *SetTeamChoiceInput) (*ToggleOutput, error) {
	userID, err := RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	exists, err := s.services.Catalog.GameExists(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, huma.Error404NotFound("Game not found")
	}

	result, err := s.services.TeamChoice.Set(ctx, userID, input.ID, input.Body.Active)
	if err != nil {
		return nil, err
	}
	return &ToggleOutput{Body: ToggleResponse{Status: result.NewState, Count: result.Count}}, nil
}
