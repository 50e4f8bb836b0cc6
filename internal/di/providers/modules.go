package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/gameshelf/gameshelf-server/internal/action"
	"github.com/gameshelf/gameshelf-server/internal/cache"
	"github.com/gameshelf/gameshelf-server/internal/config"
	"github.com/gameshelf/gameshelf-server/internal/events"
	"github.com/gameshelf/gameshelf-server/internal/features"
	"github.com/gameshelf/gameshelf-server/internal/metrics"
	"github.com/gameshelf/gameshelf-server/internal/module"
	"github.com/gameshelf/gameshelf-server/internal/search"
	"github.com/gameshelf/gameshelf-server/internal/sse"
)

// EditorialLoader loads the catalog and team choice modules.
type EditorialLoader struct {
	*module.Loader
}

// UserLoader loads the collection and submission modules.
type UserLoader struct {
	*module.Loader
}

// ProvideActionRegistry provides the ajax action registry.
func ProvideActionRegistry(i do.Injector) (*action.Registry, error) {
	return action.NewRegistry(), nil
}

// ProvideModuleHost provides the surface feature modules register against.
func ProvideModuleHost(i do.Injector) (*module.Host, error) {
	return &module.Host{
		Bus:     do.MustInvoke[*events.Bus](i),
		Actions: do.MustInvoke[*action.Registry](i),
		Logger:  do.MustInvoke[*slog.Logger](i),
	}, nil
}

// ProvideEditorialLoader provides the editorial area loader.
func ProvideEditorialLoader(i do.Injector) (*EditorialLoader, error) {
	host := do.MustInvoke[*module.Host](i)
	return &EditorialLoader{module.NewLoader(features.AreaEditorial, features.EditorialRegistry(), i, host)}, nil
}

// ProvideUserLoader provides the user area loader.
func ProvideUserLoader(i do.Injector) (*UserLoader, error) {
	host := do.MustInvoke[*module.Host](i)
	return &UserLoader{module.NewLoader(features.AreaUser, features.UserRegistry(), i, host)}, nil
}

// ProvideMetrics provides the metrics recorder with gauges over live state.
func ProvideMetrics(i do.Injector) (metrics.Recorder, error) {
	cfg := do.MustInvoke[*config.Config](i)
	rec := metrics.New(cfg.Metrics.Enabled)

	manager := do.MustInvoke[*sse.Manager](i)
	gameCache := do.MustInvoke[*cache.Games](i)
	index := do.MustInvoke[*search.Index](i)

	rec.GaugeFunc("sse_clients", "Connected event stream clients", func() float64 {
		return float64(manager.ClientCount())
	})
	rec.GaugeFunc("game_cache_entries", "Games held in the in-memory cache", func() float64 {
		return float64(gameCache.Stats().Entries)
	})
	rec.GaugeFunc("search_documents", "Documents in the search index", func() float64 {
		n, err := index.DocumentCount()
		if err != nil {
			return 0
		}
		return float64(n)
	})
	return rec, nil
}
