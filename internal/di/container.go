// Package di provides dependency injection configuration for the gameshelf server.
package di

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/gameshelf/gameshelf-server/internal/auth"
	"github.com/gameshelf/gameshelf-server/internal/config"
	"github.com/gameshelf/gameshelf-server/internal/di/providers"
	"github.com/gameshelf/gameshelf-server/internal/flags"
	"github.com/gameshelf/gameshelf-server/internal/metrics"
	"github.com/gameshelf/gameshelf-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideNonceKey)

	// Storage layer
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvidePlainSSEManager)
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideMeta)
	do.Provide(injector, providers.ProvideFlagStore)
	do.Provide(injector, providers.ProvideGameCache)
	do.Provide(injector, providers.ProvideCoverStorage)

	// Search layer
	do.Provide(injector, providers.ProvideSearchIndexHandle)
	do.Provide(injector, providers.ProvideSearchIndex)

	// Auth layer
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvidePasswordHasher)
	do.Provide(injector, providers.ProvideNonceService)

	// Business services
	do.Provide(injector, providers.ProvideEventBus)
	do.Provide(injector, providers.ProvideCatalogService)
	do.Provide(injector, providers.ProvideSessionService)
	do.Provide(injector, providers.ProvideAuthService)
	do.Provide(injector, providers.ProvideCollectionService)
	do.Provide(injector, providers.ProvideTeamChoiceService)
	do.Provide(injector, providers.ProvideSubmissionService)

	// Feature modules
	do.Provide(injector, providers.ProvideActionRegistry)
	do.Provide(injector, providers.ProvideModuleHost)
	do.Provide(injector, providers.ProvideEditorialLoader)
	do.Provide(injector, providers.ProvideUserLoader)
	do.Provide(injector, providers.ProvideMetrics)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)
	do.Provide(injector, providers.ProvideMetaGCJob)

	// Server
	do.Provide(injector, providers.ProvideAPIServer)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts serving. Feature modules
// are loaded before the HTTP server accepts its first request.
func Bootstrap(ctx context.Context, injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	log := do.MustInvoke[*slog.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*providers.MetaHandle](injector)
	_ = do.MustInvoke[*providers.SearchIndexHandle](injector)
	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*auth.TokenService](injector)
	_ = do.MustInvoke[*auth.NonceService](injector)
	_ = do.MustInvoke[metrics.Recorder](injector)

	// Business services
	_ = do.MustInvoke[*service.CatalogService](injector)
	_ = do.MustInvoke[*service.AuthService](injector)
	_ = do.MustInvoke[*service.CollectionService](injector)
	_ = do.MustInvoke[*service.TeamChoiceService](injector)
	_ = do.MustInvoke[*service.SubmissionService](injector)

	// Older releases stored flags as strings.
	flagStore := do.MustInvoke[*flags.Store](injector)
	if _, err := flagStore.MigrateLegacyValues(ctx); err != nil {
		return fmt.Errorf("migrate flag values: %w", err)
	}

	// Feature modules, editorial first so catalog hooks exist before user hooks
	editorial := do.MustInvoke[*providers.EditorialLoader](injector)
	if err := editorial.Load(ctx); err != nil {
		return err
	}
	user := do.MustInvoke[*providers.UserLoader](injector)
	if err := user.Load(ctx); err != nil {
		return err
	}
	log.Info("Feature modules loaded",
		"editorial", editorial.Loaded(),
		"user", user.Loaded(),
	)

	// Workers
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)
	_ = do.MustInvoke[*providers.MetaGCJob](injector)

	// Trigger search reindex if needed
	providers.TriggerSearchReindexIfNeeded(injector)

	// Server
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
