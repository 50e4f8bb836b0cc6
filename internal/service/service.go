// Package service holds the application's business logic: accounts and
// sessions, the game catalog, user collections, team choice and submissions.
package service

import (
	"log/slog"

	"github.com/gameshelf/gameshelf-server/internal/validation"
)

// validate is the shared request validator.
var validate = validation.New()

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
