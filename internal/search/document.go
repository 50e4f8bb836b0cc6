// Package search provides full-text search over the game catalog using Bleve.
package search

import (
	"strconv"

	"github.com/gameshelf/gameshelf-server/internal/domain"
)

// Document is the indexed form of a game.
type Document struct {
	ID          string
	Title       string
	Description string
	Developer   string
	Publisher   string
	Platforms   []string
	Genres      []string
	ReleaseYear int
	Status      string
	TeamChoice  bool
	UpdatedAt   int64 // Unix millis
}

// DocumentFromGame builds the index document for g.
func DocumentFromGame(g *domain.Game, teamChoice bool) *Document {
	return &Document{
		ID:          DocID(g.ID),
		Title:       g.Title,
		Description: g.Description,
		Developer:   g.Developer,
		Publisher:   g.Publisher,
		Platforms:   g.Platforms,
		Genres:      g.Genres,
		ReleaseYear: g.ReleaseYear,
		Status:      string(g.Status),
		TeamChoice:  teamChoice,
		UpdatedAt:   g.UpdatedAt.UnixMilli(),
	}
}

// DocID is the index identifier for a game ID.
func DocID(gameID int64) string {
	return strconv.FormatInt(gameID, 10)
}

// ToMap converts the document to a map keyed by the mapping's field names.
func (d *Document) ToMap() map[string]any {
	m := map[string]any{
		"title":       d.Title,
		"status":      d.Status,
		"team_choice": d.TeamChoice,
		"updated_at":  d.UpdatedAt,
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Developer != "" {
		m["developer"] = d.Developer
	}
	if d.Publisher != "" {
		m["publisher"] = d.Publisher
	}
	if len(d.Platforms) > 0 {
		m["platforms"] = d.Platforms
	}
	if len(d.Genres) > 0 {
		m["genres"] = d.Genres
	}
	if d.ReleaseYear > 0 {
		m["release_year"] = d.ReleaseYear
	}
	return m
}
