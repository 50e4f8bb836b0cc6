package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/gameshelf/gameshelf-server/internal/action"
	"github.com/gameshelf/gameshelf-server/internal/api"
	"github.com/gameshelf/gameshelf-server/internal/auth"
	"github.com/gameshelf/gameshelf-server/internal/config"
	"github.com/gameshelf/gameshelf-server/internal/metrics"
	"github.com/gameshelf/gameshelf-server/internal/search"
	"github.com/gameshelf/gameshelf-server/internal/service"
	"github.com/gameshelf/gameshelf-server/internal/sse"
)

// Version is stamped at build time.
var Version = "dev"

// APIServerHandle releases the rate limiter goroutines on shutdown.
type APIServerHandle struct {
	*api.Server
}

// Shutdown implements do.Shutdownable.
func (h *APIServerHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideAPIServer provides the HTTP handler tree.
func ProvideAPIServer(i do.Injector) (*APIServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)

	services := &api.Services{
		Auth:       do.MustInvoke[*service.AuthService](i),
		Catalog:    do.MustInvoke[*service.CatalogService](i),
		Collection: do.MustInvoke[*service.CollectionService](i),
		TeamChoice: do.MustInvoke[*service.TeamChoiceService](i),
		Submission: do.MustInvoke[*service.SubmissionService](i),
		Nonce:      do.MustInvoke[*auth.NonceService](i),
		Search:     do.MustInvoke[*search.Index](i),
	}

	handler := api.NewServer(
		storeHandle.Store,
		services,
		do.MustInvoke[*action.Registry](i),
		do.MustInvoke[*sse.Manager](i),
		do.MustInvoke[metrics.Recorder](i),
		api.Options{
			Name:           cfg.Server.Name,
			Version:        Version,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			MetricsPath:    cfg.Metrics.Path,
		},
		log.Logger.Logger,
	)

	return &APIServerHandle{Server: handler}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*LoggerHandle](i)
	apiHandle := do.MustInvoke[*APIServerHandle](i)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      apiHandle.Server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	if cfg.Server.PublicURL != "" {
		log.Info("Server running", "addr", srv.Addr, "public_url", cfg.Server.PublicURL)
	} else {
		log.Info("Server running", "addr", srv.Addr)
	}

	return &HTTPServerHandle{Server: srv}, nil
}
