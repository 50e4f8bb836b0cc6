// Package features holds the feature modules loaded at startup. Editorial
// modules own the catalog and team choice; user modules own collections
// and submissions.
package features

import (
	"net/url"
	"strconv"
	"strings"

	domainerrors "github.com/gameshelf/gameshelf-server/internal/errors"
	"github.com/gameshelf/gameshelf-server/internal/module"
)

// Feature areas, each with its own loader.
const (
	AreaEditorial = "editorial"
	AreaUser      = "user"
)

// Action names accepted by POST /ajax.
const (
	ActionToggleCollection = "toggle_collection"
	ActionToggleTeamChoice = "toggle_team_choice"
)

// EditorialRegistry lists the editorial modules in load order.
func EditorialRegistry() *module.Registry {
	return module.NewRegistry().
		MustAdd("catalog", NewCatalogModule).
		MustAdd("team_choice", NewTeamChoiceModule)
}

// UserRegistry lists the user modules in load order.
func UserRegistry() *module.Registry {
	return module.NewRegistry().
		MustAdd("user_collections", NewCollectionsModule).
		MustAdd("submissions", NewSubmissionsModule)
}

// formGameID reads the game_id form field.
func formGameID(form url.Values) (int64, error) {
	raw := strings.TrimSpace(form.Get("game_id"))
	if raw == "" {
		return 0, domainerrors.Validation("game_id is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domainerrors.Validationf("invalid game_id %q", raw)
	}
	return id, nil
}
