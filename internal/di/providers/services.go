package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/gameshelf/gameshelf-server/internal/auth"
	"github.com/gameshelf/gameshelf-server/internal/cache"
	"github.com/gameshelf/gameshelf-server/internal/events"
	"github.com/gameshelf/gameshelf-server/internal/flags"
	"github.com/gameshelf/gameshelf-server/internal/media/images"
	"github.com/gameshelf/gameshelf-server/internal/service"
)

// ProvideEventBus provides the in-process domain event bus.
func ProvideEventBus(i do.Injector) (*events.Bus, error) {
	return events.NewBus(do.MustInvoke[*slog.Logger](i)), nil
}

// ProvideCatalogService provides the game catalog service.
func ProvideCatalogService(i do.Injector) (*service.CatalogService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	gameCache := do.MustInvoke[*cache.Games](i)
	covers := do.MustInvoke[*images.Storage](i)
	bus := do.MustInvoke[*events.Bus](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewCatalogService(storeHandle.Store, gameCache, covers, bus, log), nil
}

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	passwords := do.MustInvoke[*auth.PasswordHasher](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewAuthService(storeHandle.Store, sessionService, tokenService, passwords, log), nil
}

// ProvideCollectionService provides the per-user collection toggle service.
func ProvideCollectionService(i do.Injector) (*service.CollectionService, error) {
	flagStore := do.MustInvoke[*flags.Store](i)
	bus := do.MustInvoke[*events.Bus](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewCollectionService(flagStore, bus, log), nil
}

// ProvideTeamChoiceService provides the editorial team choice service.
func ProvideTeamChoiceService(i do.Injector) (*service.TeamChoiceService, error) {
	flagStore := do.MustInvoke[*flags.Store](i)
	catalog := do.MustInvoke[*service.CatalogService](i)
	bus := do.MustInvoke[*events.Bus](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewTeamChoiceService(flagStore, catalog, bus, log), nil
}

// ProvideSubmissionService provides the game submission service.
func ProvideSubmissionService(i do.Injector) (*service.SubmissionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	catalog := do.MustInvoke[*service.CatalogService](i)
	bus := do.MustInvoke[*events.Bus](i)
	log := do.MustInvoke[*slog.Logger](i)

	return service.NewSubmissionService(storeHandle.Store, catalog, bus, log), nil
}
