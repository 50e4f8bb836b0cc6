package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/gameshelf/gameshelf-server/internal/config"
	"github.com/gameshelf/gameshelf-server/internal/features"
	"github.com/gameshelf/gameshelf-server/internal/search"
	"github.com/gameshelf/gameshelf-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.Index
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndexHandle provides the Bleve search index.
func ProvideSearchIndexHandle(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)

	index, err := search.NewIndex(search.Options{
		DataPath: cfg.Data.SearchPath(),
		Logger:   log.Logger.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{Index: index}, nil
}

// ProvideSearchIndex exposes the index to feature modules and handlers.
func ProvideSearchIndex(i do.Injector) (*search.Index, error) {
	return do.MustInvoke[*SearchIndexHandle](i).Index, nil
}

// TriggerSearchReindexIfNeeded rebuilds an empty index from the catalog in
// the background. Should be called after all services are wired.
func TriggerSearchReindexIfNeeded(i do.Injector) {
	index := do.MustInvoke[*search.Index](i)
	log := do.MustInvoke[*LoggerHandle](i)

	count, err := index.DocumentCount()
	if err != nil {
		log.Warn("Failed to read search document count", "error", err)
		return
	}
	if count > 0 {
		return
	}

	catalog := do.MustInvoke[*service.CatalogService](i)
	teamChoice := do.MustInvoke[*service.TeamChoiceService](i)

	go func() {
		n, err := features.ReindexSearch(context.Background(), catalog, teamChoice, index)
		if err != nil {
			log.Error("Search reindex failed", "error", err)
			return
		}
		log.Info("Search reindex completed", "documents", n)
	}()
}
