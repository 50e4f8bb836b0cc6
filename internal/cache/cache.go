// Package cache provides the in-process read-through cache for catalog games.
package cache

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/coocood/freecache"
	"github.com/goccy/go-json"

	"github.com/gameshelf/gameshelf-server/internal/domain"
)

// Games caches decoded games by ID in a fixed-size freecache arena.
type Games struct {
	cache  *freecache.Cache
	ttl    int // seconds
	logger *slog.Logger
}

// Stats reports cache effectiveness.
type Stats struct {
	Entries int64 `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// NewGames creates a cache of sizeMB megabytes whose entries expire after ttl.
func NewGames(sizeMB int, ttl time.Duration, logger *slog.Logger) *Games {
	if logger == nil {
		logger = slog.Default()
	}
	seconds := max(int(ttl.Seconds()), 1)
	logger.Info("game cache initialized", "size_mb", sizeMB, "ttl", ttl)
	return &Games{
		cache:  freecache.NewCache(sizeMB * 1024 * 1024),
		ttl:    seconds,
		logger: logger,
	}
}

func key(id int64) []byte {
	return strconv.AppendInt([]byte("game:"), id, 10)
}

// Get returns a cached game. A corrupt entry is dropped and reported as a miss.
func (c *Games) Get(id int64) (*domain.Game, bool) {
	raw, err := c.cache.Get(key(id))
	if err != nil {
		return nil, false
	}
	var g domain.Game
	if err := json.Unmarshal(raw, &g); err != nil {
		c.logger.Warn("dropping undecodable cache entry", "game_id", id, "error", err)
		c.cache.Del(key(id))
		return nil, false
	}
	return &g, true
}

// Set stores g. Entries too large for the arena are skipped.
func (c *Games) Set(g *domain.Game) {
	raw, err := json.Marshal(g)
	if err != nil {
		c.logger.Warn("failed to encode game for cache", "game_id", g.ID, "error", err)
		return
	}
	if err := c.cache.Set(key(g.ID), raw, c.ttl); err != nil {
		c.logger.Debug("game not cached", "game_id", g.ID, "error", err)
	}
}

// Delete evicts id.
func (c *Games) Delete(id int64) {
	c.cache.Del(key(id))
}

// Clear evicts everything.
func (c *Games) Clear() {
	c.cache.Clear()
}

// Stats returns a snapshot of the cache counters.
func (c *Games) Stats() Stats {
	return Stats{
		Entries: c.cache.EntryCount(),
		Hits:    c.cache.HitCount(),
		Misses:  c.cache.MissCount(),
	}
}
