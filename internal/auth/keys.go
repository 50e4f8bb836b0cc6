// Package auth provides passwords, access tokens and anti-forgery nonces.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	keyLength    = 32
	keyHexLength = 64
)

// Key file names under the data directory.
const (
	AccessKeyFile = "auth.key"
	NonceKeyFile  = "nonce.key"
)

// LoadOrGenerateKey loads a hex-encoded 32-byte key from dir/name, creating
// it with restricted permissions on first run.
func LoadOrGenerateKey(dir, name string) ([]byte, error) {
	keyPath := filepath.Join(dir, name)

	//#nosec G304 -- key path is derived from the configured data path
	if keyBytes, err := os.ReadFile(keyPath); err == nil {
		keyHex := strings.TrimSpace(string(keyBytes))
		if len(keyHex) != keyHexLength {
			return nil, fmt.Errorf("invalid %s length: expected %d hex chars, got %d", name, keyHexLength, len(keyHex))
		}

		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("invalid %s format: not valid hex: %w", name, err)
		}
		return key, nil
	}

	key := make([]byte, keyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", name, err)
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(hex.EncodeToString(key)), 0o600); err != nil {
		return nil, fmt.Errorf("failed to save %s: %w", name, err)
	}

	return key, nil
}
