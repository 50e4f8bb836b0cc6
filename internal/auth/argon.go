package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2SaltLength  = 16
	argon2KeyLength   = 32
	maxPasswordLength = 1024
)

// ErrInvalidHash is returned for stored hashes that are not argon2id PHC
// strings this package can read.
var ErrInvalidHash = errors.New("invalid password hash")

// PasswordParams is the argon2id cost. Memory is in KiB.
type PasswordParams struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
}

// DefaultPasswordParams is used when the operator configures nothing.
var DefaultPasswordParams = PasswordParams{Memory: 64 * 1024, Iterations: 3, Parallelism: 4}

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher struct {
	params PasswordParams
}

// NewPasswordHasher returns a hasher producing hashes at p. Zero fields
// take their default.
func NewPasswordHasher(p PasswordParams) *PasswordHasher {
	if p.Memory == 0 {
		p.Memory = DefaultPasswordParams.Memory
	}
	if p.Iterations == 0 {
		p.Iterations = DefaultPasswordParams.Iterations
	}
	if p.Parallelism == 0 {
		p.Parallelism = DefaultPasswordParams.Parallelism
	}
	return &PasswordHasher{params: p}
}

// Hash returns an argon2id PHC string for password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password cannot be empty")
	}
	if len(password) > maxPasswordLength {
		return "", errors.New("password exceeds maximum length")
	}

	salt := make([]byte, argon2SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, h.params.Iterations, h.params.Memory, h.params.Parallelism, argon2KeyLength)
	return encodeHash(h.params, salt, key), nil
}

// Verify checks password against encoded. Stale is true when the password
// matched but encoded was produced with other parameters, so the caller
// should store a fresh hash. Unreadable hashes return ErrInvalidHash.
func (h *PasswordHasher) Verify(encoded, password string) (ok, stale bool, err error) {
	if len(password) > maxPasswordLength {
		return false, false, nil
	}

	params, salt, key, err := decodeHash(encoded)
	if err != nil {
		return false, false, err
	}

	//nolint:gosec // key length comes from a decoded 32-byte hash
	candidate := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, uint32(len(key)))
	if subtle.ConstantTimeCompare(key, candidate) != 1 {
		return false, false, nil
	}
	return true, params != h.params || len(key) != argon2KeyLength, nil
}

func encodeHash(p PasswordParams, salt, key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.Memory, p.Iterations, p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))
}

func decodeHash(encoded string) (p PasswordParams, salt, key []byte, err error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, fmt.Errorf("%w: version %q", ErrInvalidHash, parts[2])
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Iterations, &p.Parallelism); err != nil {
		return p, nil, nil, fmt.Errorf("%w: parameters: %w", ErrInvalidHash, err)
	}
	if salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return p, nil, nil, fmt.Errorf("%w: salt: %w", ErrInvalidHash, err)
	}
	if key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(key) == 0 {
		return p, nil, nil, fmt.Errorf("%w: key", ErrInvalidHash)
	}
	return p, salt, key, nil
}
