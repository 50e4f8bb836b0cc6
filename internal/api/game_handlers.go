package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gameshelf/gameshelf-server/internal/domain"
	"github.com/gameshelf/gameshelf-server/internal/search"
	"github.com/gameshelf/gameshelf-server/internal/service"
	"github.com/gameshelf/gameshelf-server/internal/store"
)

func (s *Server) registerGameRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listGames",
		Method:      http.MethodGet,
		Path:        "/api/v1/games",
		Summary:     "List games",
		Description: "Returns a page of the catalog ordered by title. Only admins may list pending games.",
		Tags:        []string{"Games"},
	}, s.handleListGames)

	huma.Register(s.api, huma.Operation{
		OperationID: "createGame",
		Method:      http.MethodPost,
		Path:        "/api/v1/games",
		Summary:     "Create game",
		Description: "Adds a published game to the catalog (admin only)",
		Tags:        []string{"Games"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateGame)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchGames",
		Method:      http.MethodGet,
		Path:        "/api/v1/games/search",
		Summary:     "Search games",
		Description: "Full-text search over titles, descriptions and developers with platform and genre facets",
		Tags:        []string{"Games"},
	}, s.handleSearchGames)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGameBySlug",
		Method:      http.MethodGet,
		Path:        "/api/v1/games/by-slug/{slug}",
		Summary:     "Get game by slug",
		Description: "Returns a game by its URL slug",
		Tags:        []string{"Games"},
	}, s.handleGetGameBySlug)

	huma.Register(s.api, huma.Operation{
		OperationID: "getGame",
		Method:      http.MethodGet,
		Path:        "/api/v1/games/{id}",
		Summary:     "Get game",
		Description: "Returns a game by ID",
		Tags:        []string{"Games"},
	}, s.handleGetGame)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateGame",
		Method:      http.MethodPatch,
		Path:        "/api/v1/games/{id}",
		Summary:     "Update game",
		Description: "Applies a partial update (admin only)",
		Tags:        []string{"Games"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateGame)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteGame",
		Method:      http.MethodDelete,
		Path:        "/api/v1/games/{id}",
		Summary:     "Delete game",
		Description: "Removes a game, its cover and every flag pointing at it (admin only)",
		Tags:        []string{"Games"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteGame)
}

// === DTOs ===

// GameResponse contains game data in API responses.
type GameResponse struct {
	ID            int64     `json:"id" doc:"Game ID"`
	Slug          string    `json:"slug" doc:"URL-safe slug"`
	Title         string    `json:"title" doc:"Title"`
	Description   string    `json:"description" doc:"Markdown description"`
	Platforms     []string  `json:"platforms" doc:"Platforms"`
	Genres        []string  `json:"genres" doc:"Genres"`
	ReleaseYear   int       `json:"release_year,omitempty" doc:"Release year"`
	Developer     string    `json:"developer,omitempty" doc:"Developer"`
	Publisher     string    `json:"publisher,omitempty" doc:"Publisher"`
	CoverURL      string    `json:"cover_url,omitempty" doc:"Cover image URL"`
	CoverBlurHash string    `json:"cover_blur_hash,omitempty" doc:"BlurHash placeholder"`
	Status        string    `json:"status" doc:"published or pending"`
	TeamChoice    bool      `json:"team_choice" doc:"Whether the team picked this game"`
	CreatedAt     time.Time `json:"created_at" doc:"Creation time"`
	UpdatedAt     time.Time `json:"updated_at" doc:"Last update time"`
}

func toGameResponse(g *domain.Game, teamChoice bool) GameResponse {
	resp := GameResponse{
		ID:            g.ID,
		Slug:          g.Slug,
		Title:         g.Title,
		Description:   g.Description,
		Platforms:     g.Platforms,
		Genres:        g.Genres,
		ReleaseYear:   g.ReleaseYear,
		Developer:     g.Developer,
		Publisher:     g.Publisher,
		CoverBlurHash: g.CoverBlurHash,
		Status:        string(g.Status),
		TeamChoice:    teamChoice,
		CreatedAt:     g.CreatedAt,
		UpdatedAt:     g.UpdatedAt,
	}
	if g.HasCover() {
		resp.CoverURL = coverURL(g)
	}
	return resp
}

// GameOutput wraps a game for Huma.
type GameOutput struct {
	Body GameResponse
}

// ListGamesInput contains paging and filter parameters.
type ListGamesInput struct {
	Status string `query:"status" enum:"published,pending,all" default:"published" doc:"Status filter; pending and all require admin"`
	Limit  int    `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Page size"`
	Offset int    `query:"offset" minimum:"0" default:"0" doc:"Page offset"`
}

// ListGamesResponse is one page of games.
type ListGamesResponse struct {
	Games  []GameResponse `json:"games" doc:"Games on this page"`
	Total  int            `json:"total" doc:"Total matching games"`
	Limit  int            `json:"limit" doc:"Page size"`
	Offset int            `json:"offset" doc:"Page offset"`
}

// ListGamesOutput wraps the list response for Huma.
type ListGamesOutput struct {
	Body ListGamesResponse
}

// GameRequest is the editable part of a game.
type GameRequest struct {
	Title       string   `json:"title" minLength:"1" maxLength:"200" doc:"Title"`
	Description string   `json:"description,omitempty" maxLength:"20000" doc:"Description; HTML is converted to Markdown"`
	Platforms   []string `json:"platforms,omitempty" maxItems:"20" doc:"Platforms"`
	Genres      []string `json:"genres,omitempty" maxItems:"20" doc:"Genres"`
	ReleaseYear int      `json:"release_year,omitempty" doc:"Release year"`
	Developer   string   `json:"developer,omitempty" maxLength:"200" doc:"Developer"`
	Publisher   string   `json:"publisher,omitempty" maxLength:"200" doc:"Publisher"`
}

func (r GameRequest) toInput() service.GameInput {
	return service.GameInput{
		Title:       r.Title,
		Description: r.Description,
		Platforms:   r.Platforms,
		Genres:      r.Genres,
		ReleaseYear: r.ReleaseYear,
		Developer:   r.Developer,
		Publisher:   r.Publisher,
	}
}

// CreateGameInput wraps the create request for Huma.
type CreateGameInput struct {
	Body GameRequest
}

// GameIDInput addresses a game by ID.
type GameIDInput struct {
	ID int64 `path:"id" minimum:"1" doc:"Game ID"`
}

// GameSlugInput addresses a game by slug.
type GameSlugInput struct {
	Slug string `path:"slug" maxLength:"80" doc:"Game slug"`
}

// UpdateGameRequest is a partial update; omitted fields are left alone.
type UpdateGameRequest struct {
	Title       *string   `json:"title,omitempty" minLength:"1" maxLength:"200" doc:"Title"`
	Description *string   `json:"description,omitempty" maxLength:"20000" doc:"Description"`
	Platforms   *[]string `json:"platforms,omitempty" doc:"Platforms"`
	Genres      *[]string `json:"genres,omitempty" doc:"Genres"`
	ReleaseYear *int      `json:"release_year,omitempty" doc:"Release year"`
	Developer   *string   `json:"developer,omitempty" maxLength:"200" doc:"Developer"`
	Publisher   *string   `json:"publisher,omitempty" maxLength:"200" doc:"Publisher"`
}

// UpdateGameInput wraps the update request for Huma.
type UpdateGameInput struct {
	ID   int64 `path:"id" minimum:"1" doc:"Game ID"`
	Body UpdateGameRequest
}

// SearchGamesInput contains search parameters.
type SearchGamesInput struct {
	Query      string   `query:"q" maxLength:"200" doc:"Search text"`
	Platforms  []string `query:"platform" doc:"Platform filter (any of)"`
	Genres     []string `query:"genre" doc:"Genre filter (any of)"`
	MinYear    int      `query:"min_year" minimum:"0" doc:"Earliest release year"`
	MaxYear    int      `query:"max_year" minimum:"0" doc:"Latest release year"`
	TeamChoice bool     `query:"team_choice" doc:"Only team choice games"`
	Sort       string   `query:"sort" enum:"relevance,title,year,recent" default:"relevance" doc:"Sort order"`
	Limit      int      `query:"limit" minimum:"1" maximum:"100" default:"20" doc:"Page size"`
	Offset     int      `query:"offset" minimum:"0" default:"0" doc:"Page offset"`
}

// SearchGamesOutput wraps the search result for Huma.
type SearchGamesOutput struct {
	Body *search.Result
}

// === Handlers ===

func (s *Server) handleListGames(ctx context.Context, input *ListGamesInput) (*ListGamesOutput, error) {
	params := store.ListGamesParams{
		Status: domain.GameStatusPublished,
		Limit:  input.Limit,
		Offset: input.Offset,
	}
	if input.Status != "" && input.Status != string(domain.GameStatusPublished) {
		if _, err := RequireAdmin(ctx); err != nil {
			return nil, err
		}
		params.Status = domain.GameStatus(input.Status)
		if input.Status == "all" {
			params.Status = ""
		}
	}

	games, total, err := s.services.Catalog.ListGames(ctx, params)
	if err != nil {
		return nil, err
	}

	resp := make([]GameResponse, len(games))
	for i, g := range games {
		resp[i] = toGameResponse(g, false)
	}
	return &ListGamesOutput{Body: ListGamesResponse{
		Games:  resp,
		Total:  total,
		Limit:  input.Limit,
		Offset: input.Offset,
	}}, nil
}

func (s *Server) handleCreateGame(ctx context.Context, input *CreateGameInput) (*GameOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	g, err := s.services.Catalog.CreateGame(ctx, input.Body.toInput())
	if err != nil {
		return nil, err
	}
	return &GameOutput{Body: toGameResponse(g, false)}, nil
}

func (s *Server) handleGetGame(ctx context.Context, input *GameIDInput) (*GameOutput, error) {
	g, err := s.services.Catalog.GetGame(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return s.gameOutput(ctx, g)
}

func (s *Server) handleGetGameBySlug(ctx context.Context, input *GameSlugInput) (*GameOutput, error) {
	g, err := s.services.Catalog.GetGameBySlug(ctx, input.Slug)
	if err != nil {
		return nil, err
	}
	return s.gameOutput(ctx, g)
}

// gameOutput hides pending games from everyone but admins and the submitter.
func (s *Server) gameOutput(ctx context.Context, g *domain.Game) (*GameOutput, error) {
	if !g.IsPublished() {
		claims := claimsFrom(ctx)
		if claims == nil || (!claims.IsAdmin && claims.UserID != g.SubmittedBy) {
			return nil, huma.Error404NotFound("Game not found")
		}
	}

	teamChoice, err := s.services.TeamChoice.IsTeamChoice(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	return &GameOutput{Body: toGameResponse(g, teamChoice)}, nil
}

func (s *Server) handleUpdateGame(ctx context.Context, input *UpdateGameInput) (*GameOutput, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}

	g, err := s.services.Catalog.UpdateGame(ctx, input.ID, service.GameUpdate{
		Title:       input.Body.Title,
		Description: input.Body.Description,
		Platforms:   input.Body.Platforms,
		Genres:      input.Body.Genres,
		ReleaseYear: input.Body.ReleaseYear,
		Developer:   input.Body.Developer,
		Publisher:   input.Body.Publisher,
	})
	if err != nil {
		return nil, err
	}
	return s.gameOutput(ctx, g)
}

func (s *Server) handleDeleteGame(ctx context.Context, input *GameIDInput) (*struct{}, error) {
	if _, err := RequireAdmin(ctx); err != nil {
		return nil, err
	}
	if err := s.services.Catalog.DeleteGame(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleSearchGames(ctx context.Context, input *SearchGamesInput) (*SearchGamesOutput, error) {
	claims := claimsFrom(ctx)
	result, err := s.services.Search.Search(ctx, search.Params{
		Query:          input.Query,
		Platforms:      input.Platforms,
		Genres:         input.Genres,
		MinYear:        input.MinYear,
		MaxYear:        input.MaxYear,
		TeamChoiceOnly: input.TeamChoice,
		IncludePending: claims != nil && claims.IsAdmin,
		Limit:          input.Limit,
		Offset:         input.Offset,
		SortBy:         input.Sort,
	})
	if err != nil {
		return nil, err
	}
	return &SearchGamesOutput{Body: result}, nil
}
