// Package flags stores boolean collection flags keyed by
// (subject, entity, type) on top of a string key-value store.
//
// Absent flags read as false. Writes are last-write-wins: Get followed by
// Set is not atomic, and callers that read-modify-write may lose updates
// under concurrency.
package flags

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	domainerrors "github.com/gameshelf/gameshelf-server/internal/errors"
)

// Type names a collection.
type Type string

const (
	// Favorite is a per-user collection.
	Favorite Type = "favorite"
	// Owned is a per-user collection.
	Owned Type = "owned"
	// TeamChoice is the global editorial flag.
	TeamChoice Type = "team_choice"
)

// Valid reports whether t is a known collection type.
func (t Type) Valid() bool {
	return t == Favorite || t == Owned || t == TeamChoice
}

// PerUser reports whether flags of this type are scoped to a subject.
func (t Type) PerUser() bool {
	return t == Favorite || t == Owned
}

// ParseUserType parses a per-user collection type.
func ParseUserType(s string) (Type, error) {
	t := Type(s)
	if !t.PerUser() {
		return "", domainerrors.Validationf("invalid collection type %q", s)
	}
	return t, nil
}

// Key identifies one flag.
type Key struct {
	SubjectID string
	EntityID  int64
	Type      Type
}

// Validate checks the key shape without touching storage.
func (k Key) Validate() error {
	if !k.Type.Valid() {
		return domainerrors.Validationf("invalid collection type %q", k.Type)
	}
	if k.EntityID <= 0 {
		return domainerrors.Validationf("invalid entity id %d", k.EntityID)
	}
	if k.Type.PerUser() && k.SubjectID == "" {
		return domainerrors.Validation("subject is required for per-user collections")
	}
	if !k.Type.PerUser() && k.SubjectID != "" {
		return domainerrors.Validation("global collections take no subject")
	}
	if strings.Contains(k.SubjectID, ":") {
		return domainerrors.Validation("subject must not contain ':'")
	}
	return nil
}

// KV is the key-value surface the store needs.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Scan(ctx context.Context, prefix string, fn func(key, value string) error) error
}

// EntityChecker reports whether an entity may carry flags.
type EntityChecker interface {
	GameExists(ctx context.Context, id int64) (bool, error)
}

// Store is the flag store.
type Store struct {
	kv       KV
	entities EntityChecker
	logger   *slog.Logger
}

// New creates a flag store.
func New(kv KV, entities EntityChecker, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: kv, entities: entities, logger: logger}
}

// Get returns the flag value; absent flags are false.
func (s *Store) Get(ctx context.Context, k Key) (bool, error) {
	if err := k.Validate(); err != nil {
		return false, err
	}

	raw, ok, err := s.kv.Get(ctx, encodeKey(k))
	if err != nil {
		return false, domainerrors.Storage(err, "failed to read flag")
	}
	if !ok {
		return false, nil
	}
	return ParseValue(raw), nil
}

// Set persists the flag. It fails with a not found error when the entity
// does not exist.
func (s *Store) Set(ctx context.Context, k Key, value bool) error {
	if err := k.Validate(); err != nil {
		return err
	}

	exists, err := s.entities.GameExists(ctx, k.EntityID)
	if err != nil {
		return domainerrors.Storage(err, "failed to check game")
	}
	if !exists {
		return domainerrors.NotFoundf("game %d not found", k.EntityID)
	}

	if err := s.kv.Set(ctx, encodeKey(k), FormatValue(value)); err != nil {
		return domainerrors.Storage(err, "failed to write flag")
	}
	return nil
}

// Count returns how many entities have the flag set for subject and type.
func (s *Store) Count(ctx context.Context, subjectID string, t Type) (int, error) {
	n := 0
	err := s.scanTrue(ctx, subjectID, t, func(int64) { n++ })
	return n, err
}

// List returns the ids of entities with the flag set, ascending.
func (s *Store) List(ctx context.Context, subjectID string, t Type) ([]int64, error) {
	ids := []int64{}
	err := s.scanTrue(ctx, subjectID, t, func(id int64) { ids = append(ids, id) })
	return ids, err
}

func (s *Store) scanTrue(ctx context.Context, subjectID string, t Type, fn func(int64)) error {
	if err := (Key{SubjectID: subjectID, EntityID: 1, Type: t}).Validate(); err != nil {
		return err
	}

	err := s.kv.Scan(ctx, subjectPrefix(subjectID, t), func(key, value string) error {
		if !ParseValue(value) {
			return nil
		}
		k, ok := decodeKey(key)
		if !ok {
			s.logger.Warn("skipping malformed flag key", "key", key)
			return nil
		}
		fn(k.EntityID)
		return nil
	})
	if err != nil {
		return domainerrors.Storage(err, "failed to scan flags")
	}
	return nil
}

// ClearEntity sets true flags on entityID to false and returns how many
// changed. With no types every flag type is cleared. It skips the existence
// check so it can run after deletion.
//
// Keys are grouped by subject, not entity, so this scans every flag key and
// costs O(all flags) per call.
// TODO: add an entity-to-keys index if game deletes become frequent.
func (s *Store) ClearEntity(ctx context.Context, entityID int64, types ...Type) (int, error) {
	var keys []string
	err := s.kv.Scan(ctx, keyPrefix, func(key, value string) error {
		k, ok := decodeKey(key)
		if !ok || k.EntityID != entityID || !ParseValue(value) {
			return nil
		}
		if len(types) == 0 || slices.Contains(types, k.Type) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return 0, domainerrors.Storage(err, "failed to scan flags")
	}

	for _, key := range keys {
		if err := s.kv.Set(ctx, key, valueFalse); err != nil {
			return 0, domainerrors.Storage(err, "failed to clear flag")
		}
	}
	return len(keys), nil
}

// MigrateLegacyValues rewrites stored values that are not "1" or "0" into
// their canonical form and returns how many were rewritten.
func (s *Store) MigrateLegacyValues(ctx context.Context) (int, error) {
	rewrites := map[string]string{}
	err := s.kv.Scan(ctx, keyPrefix, func(key, value string) error {
		if value != valueTrue && value != valueFalse {
			rewrites[key] = FormatValue(ParseValue(value))
		}
		return nil
	})
	if err != nil {
		return 0, domainerrors.Storage(err, "failed to scan flags")
	}

	for key, value := range rewrites {
		if err := s.kv.Set(ctx, key, value); err != nil {
			return 0, domainerrors.Storage(err, "failed to rewrite flag")
		}
	}
	if len(rewrites) > 0 {
		s.logger.Info("normalized legacy flag values", "count", len(rewrites))
	}
	return len(rewrites), nil
}

const (
	keyPrefix     = "flag:"
	globalSubject = "-"
	valueTrue     = "1"
	valueFalse    = "0"
	// Zero padding keeps Badger's byte order equal to numeric order.
	entityWidth = 19
)

// ParseValue reads a stored flag value. "1", "true", "yes" and "on" are
// true; everything else, including the empty string, is false.
func ParseValue(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// FormatValue is the canonical stored form of a flag value.
func FormatValue(v bool) string {
	if v {
		return valueTrue
	}
	return valueFalse
}

func subjectPrefix(subjectID string, t Type) string {
	if subjectID == "" {
		subjectID = globalSubject
	}
	return keyPrefix + string(t) + ":" + subjectID + ":"
}

func encodeKey(k Key) string {
	return fmt.Sprintf("%s%0*d", subjectPrefix(k.SubjectID, k.Type), entityWidth, k.EntityID)
}

func decodeKey(key string) (Key, bool) {
	rest, ok := strings.CutPrefix(key, keyPrefix)
	if !ok {
		return Key{}, false
	}
	parts := strings.Split(rest, ":")
	if len(parts) != 3 {
		return Key{}, false
	}
	id, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Key{}, false
	}
	subject := parts[1]
	if subject == globalSubject {
		subject = ""
	}
	return Key{SubjectID: subject, EntityID: id, Type: Type(parts[0])}, true
}
