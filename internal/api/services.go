package api

import (
	"github.com/gameshelf/gameshelf-server/internal/auth"
	"github.com/gameshelf/gameshelf-server/internal/search"
	"github.com/gameshelf/gameshelf-server/internal/service"
)

// Services groups the business logic used by the API server.
type Services struct {
	Auth       *service.AuthService
	Catalog    *service.CatalogService
	Collection *service.CollectionService
	TeamChoice *service.TeamChoiceService
	Submission *service.SubmissionService
	Nonce      *auth.NonceService
	Search     *search.Index
}
