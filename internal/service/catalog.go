package service

import (
	"bytes"
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/gameshelf/gameshelf-server/internal/cache"
	"github.com/gameshelf/gameshelf-server/internal/domain"
	domainerrors "github.com/gameshelf/gameshelf-server/internal/errors"
	"github.com/gameshelf/gameshelf-server/internal/events"
	"github.com/gameshelf/gameshelf-server/internal/media/images"
	"github.com/gameshelf/gameshelf-server/internal/store"
	"github.com/gameshelf/gameshelf-server/internal/util"
)

// maxSlugAttempts bounds the "-2", "-3", ... suffix search for a free slug.
const maxSlugAttempts = 50

// CatalogService manages games. Reads go through the game cache; writes
// publish GameSaved and GameDeleted on the bus.
type CatalogService struct {
	games  store.Games
	cache  *cache.Games
	covers *images.Storage
	bus    *events.Bus
	logger *slog.Logger
}

// NewCatalogService creates the catalog service.
func NewCatalogService(games store.Games, gameCache *cache.Games, covers *images.Storage, bus *events.Bus, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		games:  games,
		cache:  gameCache,
		covers: covers,
		bus:    bus,
		logger: orDefault(logger),
	}
}

// GameInput is the editable part of a game.
type GameInput struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"max=20000"`
	Platforms   []string `json:"platforms" validate:"max=20,dive,required,max=50"`
	Genres      []string `json:"genres" validate:"max=20,dive,required,max=50"`
	ReleaseYear int      `json:"release_year" validate:"omitempty,gte=1950,lte=2100"`
	Developer   string   `json:"developer" validate:"max=200"`
	Publisher   string   `json:"publisher" validate:"max=200"`
}

// GameUpdate is a partial update; nil fields are left alone.
type GameUpdate struct {
	Title       *string   `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string   `json:"description" validate:"omitempty,max=20000"`
	Platforms   *[]string `json:"platforms" validate:"omitempty,max=20,dive,required,max=50"`
	Genres      *[]string `json:"genres" validate:"omitempty,max=20,dive,required,max=50"`
	ReleaseYear *int      `json:"release_year" validate:"omitempty,gte=0,lte=2100"`
	Developer   *string   `json:"developer" validate:"omitempty,max=200"`
	Publisher   *string   `json:"publisher" validate:"omitempty,max=200"`
}

// WatchCache evicts cached games when they are saved or deleted. It returns
// a function that stops watching.
func (s *CatalogService) WatchCache() (stop func()) {
	unsaved := events.Subscribe(s.bus, func(_ context.Context, ev events.GameSaved) {
		s.cache.Delete(ev.Game.ID)
	})
	undeleted := events.Subscribe(s.bus, func(_ context.Context, ev events.GameDeleted) {
		s.cache.Delete(ev.GameID)
	})
	return func() {
		unsaved()
		undeleted()
	}
}

// CreateGame adds a published game to the catalog.
func (s *CatalogService) CreateGame(ctx context.Context, in GameInput) (*domain.Game, error) {
	return s.createGame(ctx, in, domain.GameStatusPublished, "")
}

func (s *CatalogService) createGame(ctx context.Context, in GameInput, status domain.GameStatus, submittedBy string) (*domain.Game, error) {
	if err := validate.Validate(in); err != nil {
		return nil, err
	}

	now := time.Now()
	g := &domain.Game{
		Title:       strings.TrimSpace(in.Title),
		Description: htmlToMarkdown(in.Description),
		Platforms:   in.Platforms,
		Genres:      in.Genres,
		ReleaseYear: in.ReleaseYear,
		Developer:   strings.TrimSpace(in.Developer),
		Publisher:   strings.TrimSpace(in.Publisher),
		Status:      status,
		SubmittedBy: submittedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	g.NormalizeLists()

	if err := s.withFreeSlug(g, func() error { return s.games.CreateGame(ctx, g) }); err != nil {
		return nil, err
	}

	s.logger.Info("game created", "game_id", g.ID, "slug", g.Slug, "status", g.Status)
	events.Publish(ctx, s.bus, events.GameSaved{Game: g, Created: true})
	return g, nil
}

// withFreeSlug derives g.Slug from the title and retries write with a
// numeric suffix while the slug is taken.
func (s *CatalogService) withFreeSlug(g *domain.Game, write func() error) error {
	base := util.Slugify(g.Title)
	if base == "" {
		base = "game"
	}
	for n := 1; n <= maxSlugAttempts; n++ {
		g.Slug = util.SlugWithSuffix(base, n)
		err := write()
		if err == nil {
			return nil
		}
		if !domainerrors.Is(err, store.ErrSlugTaken) {
			if domainerrors.Is(err, store.ErrNotFound) {
				return domainerrors.NotFoundf("game %d not found", g.ID)
			}
			return domainerrors.Storage(err, "failed to save game")
		}
	}
	return domainerrors.Conflictf("no free slug for %q", base)
}

// GetGame returns a game by ID.
func (s *CatalogService) GetGame(ctx context.Context, id int64) (*domain.Game, error) {
	if id <= 0 {
		return nil, domainerrors.Validationf("invalid game id %d", id)
	}
	if g, ok := s.cache.Get(id); ok {
		return g, nil
	}

	g, err := s.games.GetGame(ctx, id)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("game %d not found", id)
		}
		return nil, domainerrors.Storage(err, "failed to load game")
	}
	s.cache.Set(g)
	return g, nil
}

// GetGameBySlug returns a game by its slug.
func (s *CatalogService) GetGameBySlug(ctx context.Context, slug string) (*domain.Game, error) {
	g, err := s.games.GetGameBySlug(ctx, slug)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFoundf("game %q not found", slug)
		}
		return nil, domainerrors.Storage(err, "failed to load game")
	}
	s.cache.Set(g)
	return g, nil
}

// GameExists reports whether id names a published game. Pending
// submissions cannot be collected.
func (s *CatalogService) GameExists(ctx context.Context, id int64) (bool, error) {
	g, err := s.GetGame(ctx, id)
	if err != nil {
		switch domainerrors.CodeOf(err) {
		case domainerrors.CodeNotFound, domainerrors.CodeValidation:
			return false, nil
		default:
			return false, err
		}
	}
	return g.IsPublished(), nil
}

// GetGames returns the games among ids that exist, in the order of ids.
func (s *CatalogService) GetGames(ctx context.Context, ids []int64) ([]*domain.Game, error) {
	games, err := s.games.GetGamesByIDs(ctx, ids)
	if err != nil {
		return nil, domainerrors.Storage(err, "failed to load games")
	}
	return games, nil
}

// UpdateGame applies a partial update.
func (s *CatalogService) UpdateGame(ctx context.Context, id int64, upd GameUpdate) (*domain.Game, error) {
	if err := validate.Validate(upd); err != nil {
		return nil, err
	}
	g, err := s.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}

	retitled := false
	if upd.Title != nil {
		title := strings.TrimSpace(*upd.Title)
		if title == "" {
			return nil, domainerrors.Validation("title cannot be empty")
		}
		retitled = title != g.Title
		g.Title = title
	}
	if upd.Description != nil {
		g.Description = htmlToMarkdown(*upd.Description)
	}
	if upd.Platforms != nil {
		g.Platforms = *upd.Platforms
	}
	if upd.Genres != nil {
		g.Genres = *upd.Genres
	}
	if upd.ReleaseYear != nil {
		g.ReleaseYear = *upd.ReleaseYear
	}
	if upd.Developer != nil {
		g.Developer = strings.TrimSpace(*upd.Developer)
	}
	if upd.Publisher != nil {
		g.Publisher = strings.TrimSpace(*upd.Publisher)
	}
	g.NormalizeLists()

	if err := s.save(ctx, g, retitled); err != nil {
		return nil, err
	}
	return g, nil
}

// SetStatus moves a game between pending and published.
func (s *CatalogService) SetStatus(ctx context.Context, id int64, status domain.GameStatus) (*domain.Game, error) {
	g, err := s.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	if g.Status == status {
		return g, nil
	}
	g.Status = status
	if err := s.save(ctx, g, false); err != nil {
		return nil, err
	}
	return g, nil
}

// SetCover crops and stores a cover for the game.
func (s *CatalogService) SetCover(ctx context.Context, id int64, image []byte, rect images.Rect) (*domain.Game, error) {
	if len(image) == 0 {
		return nil, domainerrors.Validation("cover image is required")
	}
	cover, err := images.Crop(bytes.NewReader(image), rect)
	if err != nil {
		return nil, err
	}
	g, err := s.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.attachCover(ctx, g, cover)
}

func (s *CatalogService) attachCover(ctx context.Context, g *domain.Game, cover *images.Cover) (*domain.Game, error) {
	if err := s.covers.Save(g.ID, cover.Data); err != nil {
		return nil, domainerrors.Storage(err, "failed to store cover")
	}
	g.CoverHash = cover.Hash
	g.CoverBlurHash = cover.BlurHash
	if err := s.save(ctx, g, false); err != nil {
		return nil, err
	}
	s.logger.Info("cover stored", "game_id", g.ID, "width", cover.Width, "height", cover.Height)
	return g, nil
}

// CoverPath returns the stored cover file for a game.
func (s *CatalogService) CoverPath(ctx context.Context, id int64) (string, *domain.Game, error) {
	g, err := s.GetGame(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if !g.HasCover() || !s.covers.Exists(id) {
		return "", nil, domainerrors.NotFoundf("game %d has no cover", id)
	}
	return s.covers.Path(id), g, nil
}

func (s *CatalogService) save(ctx context.Context, g *domain.Game, reslug bool) error {
	g.UpdatedAt = time.Now()
	write := func() error { return s.games.UpdateGame(ctx, g) }

	var err error
	if reslug {
		err = s.withFreeSlug(g, write)
	} else if werr := write(); werr != nil {
		if domainerrors.Is(werr, store.ErrNotFound) {
			err = domainerrors.NotFoundf("game %d not found", g.ID)
		} else {
			err = domainerrors.Storage(werr, "failed to save game")
		}
	}
	if err != nil {
		return err
	}

	events.Publish(ctx, s.bus, events.GameSaved{Game: g})
	return nil
}

// DeleteGame removes a game and its cover.
func (s *CatalogService) DeleteGame(ctx context.Context, id int64) error {
	if id <= 0 {
		return domainerrors.Validationf("invalid game id %d", id)
	}
	if err := s.games.DeleteGame(ctx, id); err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFoundf("game %d not found", id)
		}
		return domainerrors.Storage(err, "failed to delete game")
	}
	if err := s.covers.Delete(id); err != nil {
		s.logger.Warn("failed to delete cover", "game_id", id, "error", err)
	}

	s.logger.Info("game deleted", "game_id", id)
	events.Publish(ctx, s.bus, events.GameDeleted{GameID: id})
	return nil
}

// ListGames pages the catalog ordered by title.
func (s *CatalogService) ListGames(ctx context.Context, params store.ListGamesParams) ([]*domain.Game, int, error) {
	games, total, err := s.games.ListGames(ctx, params)
	if err != nil {
		return nil, 0, domainerrors.Storage(err, "failed to list games")
	}
	return games, total, nil
}

// AllGames streams every game page by page, used to rebuild the search index.
func (s *CatalogService) AllGames(ctx context.Context, fn func(*domain.Game) error) error {
	params := store.ListGamesParams{Limit: store.MaxPageSize}
	for {
		games, _, err := s.ListGames(ctx, params)
		if err != nil {
			return err
		}
		for _, g := range games {
			if err := fn(g); err != nil {
				return err
			}
		}
		if len(games) < params.Limit {
			return nil
		}
		params.Offset += len(games)
	}
}

// htmlTagPattern detects descriptions pasted as HTML.
var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|strong|em|a|ul|ol|li|h[1-6]|blockquote)[\s>/]`)

// htmlToMarkdown converts HTML descriptions to Markdown and leaves plain
// text untouched.
func htmlToMarkdown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !htmlTagPattern.MatchString(strings.ToLower(s)) {
		return s
	}
	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(markdown)
}
