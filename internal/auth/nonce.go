package auth

import (
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/zeebo/blake3"
)

// nonceBytes is the truncated MAC length; 12 bytes renders as 24 hex chars.
const nonceBytes = 12

// NonceService issues and checks anti-forgery tokens for state-changing
// actions. A nonce is a keyed BLAKE3 MAC over (tick, action, user, session)
// and verifies during the tick it was issued in and the one after.
type NonceService struct {
	key  []byte
	tick time.Duration
	now  func() time.Time
}

// NewNonceService creates a nonce service from a 32-byte key.
func NewNonceService(key []byte, tick time.Duration) (*NonceService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("nonce key must be exactly %d bytes, got %d", keyLength, len(key))
	}
	if tick <= 0 {
		return nil, fmt.Errorf("nonce tick must be positive, got %s", tick)
	}
	return &NonceService{key: key, tick: tick, now: time.Now}, nil
}

// Create returns the nonce for action in the current tick.
func (s *NonceService) Create(action, userID, sessionID string) string {
	nonce, _ := s.Issue(action, userID, sessionID)
	return nonce
}

// Issue returns the nonce for action together with the moment it stops
// verifying: the end of the tick after the one it was issued in. That is
// between one and two ticks away depending on where in its tick it falls.
func (s *NonceService) Issue(action, userID, sessionID string) (string, time.Time) {
	tick := s.currentTick()
	return s.compute(tick, action, userID, sessionID), time.Unix(0, (tick+2)*int64(s.tick))
}

// Verify reports whether nonce was issued for the same action, user and
// session within the current or previous tick.
func (s *NonceService) Verify(nonce, action, userID, sessionID string) bool {
	if nonce == "" || userID == "" {
		return false
	}
	tick := s.currentTick()
	for _, t := range []int64{tick, tick - 1} {
		expected := s.compute(t, action, userID, sessionID)
		if subtle.ConstantTimeCompare([]byte(nonce), []byte(expected)) == 1 {
			return true
		}
	}
	return false
}

func (s *NonceService) currentTick() int64 {
	return s.now().UnixNano() / int64(s.tick)
}

func (s *NonceService) compute(tick int64, action, userID, sessionID string) string {
	h, err := blake3.NewKeyed(s.key)
	if err != nil {
		// Only fails for keys that are not 32 bytes, which the constructor rejects.
		panic("auth: blake3 keyed hash: " + err.Error())
	}

	var tb [8]byte
	binary.BigEndian.PutUint64(tb[:], uint64(tick))
	_, _ = h.Write(tb[:])
	for _, part := range []string{action, userID, sessionID} {
		_, _ = h.Write([]byte(part))
		_, _ = h.Write([]byte{0})
	}

	return hex.EncodeToString(h.Sum(nil)[:nonceBytes])
}
