package domain

import (
	"slices"
	"strings"
	"time"
)

// GameStatus controls catalog visibility.
type GameStatus string

const (
	// GameStatusPublished games are visible and can be collected.
	GameStatusPublished GameStatus = "published"
	// GameStatusPending games come from user submissions awaiting review.
	GameStatusPending GameStatus = "pending"
)

// Game is a catalog entry. Collection flags reference it by ID.
type Game struct {
	ID            int64      `json:"id"`
	Slug          string     `json:"slug"`
	Title         string     `json:"title"`
	Description   string     `json:"description"` // Markdown
	Platforms     []string   `json:"platforms"`
	Genres        []string   `json:"genres"`
	ReleaseYear   int        `json:"release_year,omitempty"`
	Developer     string     `json:"developer,omitempty"`
	Publisher     string     `json:"publisher,omitempty"`
	CoverHash     string     `json:"cover_hash,omitempty"`
	CoverBlurHash string     `json:"cover_blur_hash,omitempty"`
	Status        GameStatus `json:"status"`
	SubmittedBy   string     `json:"submitted_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsPublished reports whether the game is visible in the catalog.
func (g *Game) IsPublished() bool {
	return g.Status == GameStatusPublished
}

// HasCover reports whether a cropped cover has been stored.
func (g *Game) HasCover() bool {
	return g.CoverHash != ""
}

// NormalizeLists trims, de-duplicates and sorts platforms and genres.
func (g *Game) NormalizeLists() {
	g.Platforms = normalizeList(g.Platforms)
	g.Genres = normalizeList(g.Genres)
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || slices.Contains(out, s) {
			continue
		}
		out = append(out, s)
	}
	slices.Sort(out)
	return out
}
