package cache

import (
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameshelf/gameshelf-server/internal/domain"
)

func newTestCache() *Games {
	return NewGames(1, time.Minute, slog.New(slog.DiscardHandler))
}

func TestGames_SetGet(t *testing.T) {
	c := newTestCache()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	g := &domain.Game{
		ID:        42,
		Slug:      "hades",
		Title:     "Hades",
		Platforms: []string{"pc", "switch"},
		Genres:    []string{"roguelike"},
		Status:    domain.GameStatusPublished,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, ok := c.Get(42)
	assert.False(t, ok)

	c.Set(g)
	got, ok := c.Get(42)
	require.True(t, ok)
	if diff := cmp.Diff(g, got); diff != "" {
		t.Errorf("cached game mismatch (-want +got):\n%s", diff)
	}

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Entries)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func TestGames_Delete(t *testing.T) {
	c := newTestCache()
	c.Set(&domain.Game{ID: 1, Title: "Celeste"})
	c.Set(&domain.Game{ID: 2, Title: "Hades"})

	c.Delete(1)
	_, ok := c.Get(1)
	assert.False(t, ok)
	_, ok = c.Get(2)
	assert.True(t, ok)

	c.Clear()
	_, ok = c.Get(2)
	assert.False(t, ok)
}
