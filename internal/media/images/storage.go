// Package images crops submitted cover art and stores it on disk.
package images

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// Storage manages cover files under a single directory.
// Thread-safe for concurrent operations.
type Storage struct {
	dir string
	mu  sync.RWMutex
}

// NewStorage creates dir if needed and returns a Storage rooted there.
func NewStorage(dir string) (*Storage, error) {
	if dir == "" {
		return nil, fmt.Errorf("cover directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cover directory: %w", err)
	}
	return &Storage{dir: dir}, nil
}

// Save writes the cover for gameID. The file is written under a temporary
// name first and renamed so readers never see a partial image.
func (s *Storage) Save(gameID int64, data []byte) error {
	if gameID <= 0 {
		return fmt.Errorf("invalid game id %d", gameID)
	}
	if len(data) == 0 {
		return fmt.Errorf("image data cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp := filepath.Join(s.dir, ".tmp-"+uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write cover: %w", err)
	}
	if err := os.Rename(tmp, s.Path(gameID)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit cover: %w", err)
	}
	return nil
}

// Get reads the cover for gameID.
func (s *Storage) Get(gameID int64) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path(gameID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("cover not found for game %d: %w", gameID, err)
		}
		return nil, fmt.Errorf("read cover: %w", err)
	}
	return data, nil
}

// Exists reports whether a cover is stored for gameID.
func (s *Storage) Exists(gameID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := os.Stat(s.Path(gameID))
	return err == nil
}

// Delete removes the cover for gameID. A missing file is not an error.
func (s *Storage) Delete(gameID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path(gameID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete cover: %w", err)
	}
	return nil
}

// Path returns the file path of the cover for gameID.
func (s *Storage) Path(gameID int64) string {
	return filepath.Join(s.dir, strconv.FormatInt(gameID, 10)+".jpg")
}

// HashBytes returns the hex SHA-256 of data, used as the cover ETag.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
