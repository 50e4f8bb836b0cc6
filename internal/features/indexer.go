package features

import (
	"context"
	"log/slog"

	"github.com/gameshelf/gameshelf-server/internal/domain"
	"github.com/gameshelf/gameshelf-server/internal/search"
	"github.com/gameshelf/gameshelf-server/internal/service"
)

// indexer keeps search documents in step with the catalog.
type indexer struct {
	index      *search.Index
	teamChoice *service.TeamChoiceService
	logger     *slog.Logger
}

func (x *indexer) indexGame(ctx context.Context, g *domain.Game) {
	tc, err := x.teamChoice.IsTeamChoice(ctx, g.ID)
	if err != nil {
		x.logger.Warn("team choice lookup failed, indexing as unpicked", "game_id", g.ID, "error", err)
	}
	if err := x.index.IndexDocument(search.DocumentFromGame(g, tc)); err != nil {
		x.logger.Error("failed to index game", "game_id", g.ID, "error", err)
	}
}

func (x *indexer) removeGame(gameID int64) {
	if err := x.index.DeleteDocument(search.DocID(gameID)); err != nil {
		x.logger.Error("failed to remove game from index", "game_id", gameID, "error", err)
	}
}

// ReindexSearch rebuilds the search index from the catalog.
func ReindexSearch(ctx context.Context, catalog *service.CatalogService, teamChoice *service.TeamChoiceService, index *search.Index) (int, error) {
	picked, err := teamChoice.List(ctx)
	if err != nil {
		return 0, err
	}
	pickedIDs := make(map[int64]bool, len(picked))
	for _, g := range picked {
		pickedIDs[g.ID] = true
	}

	var docs []*search.Document
	err = catalog.AllGames(ctx, func(g *domain.Game) error {
		docs = append(docs, search.DocumentFromGame(g, pickedIDs[g.ID]))
		return nil
	})
	if err != nil {
		return 0, err
	}
	if err := index.Reindex(docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}
