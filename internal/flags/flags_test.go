package flags

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/gameshelf/gameshelf-server/internal/errors"
	"github.com/gameshelf/gameshelf-server/internal/meta"
)

type fakeGames map[int64]bool

func (f fakeGames) GameExists(_ context.Context, id int64) (bool, error) {
	return f[id], nil
}

type failingGames struct{}

func (failingGames) GameExists(context.Context, int64) (bool, error) {
	return false, errors.New("database is locked")
}

func newTestFlags(t *testing.T, games EntityChecker) (*Store, *meta.Store) {
	t.Helper()
	kv, err := meta.OpenInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	return New(kv, games, slog.New(slog.DiscardHandler)), kv
}

func TestStore_UnsetReadsFalse(t *testing.T) {
	s, _ := newTestFlags(t, fakeGames{42: true})

	got, err := s.Get(context.Background(), Key{SubjectID: "usr-1", EntityID: 42, Type: Favorite})
	require.NoError(t, err)
	assert.False(t, got)
}

func TestStore_SetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestFlags(t, fakeGames{42: true})
	k := Key{SubjectID: "usr-1", EntityID: 42, Type: Owned}

	require.NoError(t, s.Set(ctx, k, true))
	got, err := s.Get(ctx, k)
	require.NoError(t, err)
	assert.True(t, got)

	require.NoError(t, s.Set(ctx, k, false))
	got, err = s.Get(ctx, k)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestStore_SetUnknownEntity(t *testing.T) {
	s, _ := newTestFlags(t, fakeGames{})

	err := s.Set(context.Background(), Key{SubjectID: "usr-1", EntityID: 7, Type: Favorite}, true)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrNotFound))
}

func TestStore_SetCheckerFailure(t *testing.T) {
	s, _ := newTestFlags(t, failingGames{})

	err := s.Set(context.Background(), Key{SubjectID: "usr-1", EntityID: 7, Type: Favorite}, true)
	assert.True(t, domainerrors.Is(err, domainerrors.ErrInternal))
}

func TestKey_Validate(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		ok   bool
	}{
		{"favorite", Key{SubjectID: "u", EntityID: 1, Type: Favorite}, true},
		{"team choice", Key{EntityID: 1, Type: TeamChoice}, true},
		{"unknown type", Key{SubjectID: "u", EntityID: 1, Type: "wishlist"}, false},
		{"zero entity", Key{SubjectID: "u", EntityID: 0, Type: Owned}, false},
		{"missing subject", Key{EntityID: 1, Type: Owned}, false},
		{"global with subject", Key{SubjectID: "u", EntityID: 1, Type: TeamChoice}, false},
		{"colon in subject", Key{SubjectID: "a:b", EntityID: 1, Type: Owned}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.key.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
			}
		})
	}
}

func TestStore_CountAndListScopedBySubjectAndType(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestFlags(t, fakeGames{1: true, 2: true, 10: true})

	require.NoError(t, s.Set(ctx, Key{SubjectID: "usr-1", EntityID: 10, Type: Favorite}, true))
	require.NoError(t, s.Set(ctx, Key{SubjectID: "usr-1", EntityID: 2, Type: Favorite}, true))
	require.NoError(t, s.Set(ctx, Key{SubjectID: "usr-1", EntityID: 1, Type: Favorite}, false))
	require.NoError(t, s.Set(ctx, Key{SubjectID: "usr-1", EntityID: 1, Type: Owned}, true))
	require.NoError(t, s.Set(ctx, Key{SubjectID: "usr-2", EntityID: 1, Type: Favorite}, true))

	n, err := s.Count(ctx, "usr-1", Favorite)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ids, err := s.List(ctx, "usr-1", Favorite)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 10}, ids)

	ids, err = s.List(ctx, "usr-3", Owned)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_TeamChoiceIsGlobal(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestFlags(t, fakeGames{5: true})

	require.NoError(t, s.Set(ctx, Key{EntityID: 5, Type: TeamChoice}, true))

	ids, err := s.List(ctx, "", TeamChoice)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, ids)
}

func TestStore_ClearEntity(t *testing.T) {
	ctx := context.Background()
	games := fakeGames{3: true, 4: true}
	s, _ := newTestFlags(t, games)

	require.NoError(t, s.Set(ctx, Key{SubjectID: "usr-1", EntityID: 3, Type: Favorite}, true))
	require.NoError(t, s.Set(ctx, Key{SubjectID: "usr-2", EntityID: 3, Type: Owned}, true))
	require.NoError(t, s.Set(ctx, Key{EntityID: 3, Type: TeamChoice}, true))
	require.NoError(t, s.Set(ctx, Key{SubjectID: "usr-1", EntityID: 4, Type: Favorite}, true))

	delete(games, 3)
	n, err := s.ClearEntity(ctx, 3, TeamChoice)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.ClearEntity(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := s.Count(ctx, "usr-1", Favorite)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_MigrateLegacyValues(t *testing.T) {
	ctx := context.Background()
	s, kv := newTestFlags(t, fakeGames{1: true, 2: true, 3: true})

	require.NoError(t, kv.Set(ctx, encodeKey(Key{SubjectID: "usr-1", EntityID: 1, Type: Favorite}), "true"))
	require.NoError(t, kv.Set(ctx, encodeKey(Key{SubjectID: "usr-1", EntityID: 2, Type: Favorite}), ""))
	require.NoError(t, kv.Set(ctx, encodeKey(Key{SubjectID: "usr-1", EntityID: 3, Type: Favorite}), "1"))

	n, err := s.MigrateLegacyValues(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	raw, _, err := kv.Get(ctx, encodeKey(Key{SubjectID: "usr-1", EntityID: 1, Type: Favorite}))
	require.NoError(t, err)
	assert.Equal(t, "1", raw)

	raw, _, err = kv.Get(ctx, encodeKey(Key{SubjectID: "usr-1", EntityID: 2, Type: Favorite}))
	require.NoError(t, err)
	assert.Equal(t, "0", raw)

	n, err = s.MigrateLegacyValues(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestParseValue(t *testing.T) {
	for _, raw := range []string{"1", "true", "TRUE", " yes", "on"} {
		assert.True(t, ParseValue(raw), raw)
	}
	for _, raw := range []string{"", "0", "false", "no", "2"} {
		assert.False(t, ParseValue(raw), raw)
	}
	assert.Equal(t, "1", FormatValue(true))
	assert.Equal(t, "0", FormatValue(false))
}

func TestKeyEncoding(t *testing.T) {
	k := Key{SubjectID: "usr-1", EntityID: 42, Type: Favorite}
	encoded := encodeKey(k)
	assert.Equal(t, "flag:favorite:usr-1:0000000000000000042", encoded)

	decoded, ok := decodeKey(encoded)
	require.True(t, ok)
	assert.Equal(t, k, decoded)

	global, ok := decodeKey(encodeKey(Key{EntityID: 9, Type: TeamChoice}))
	require.True(t, ok)
	assert.Empty(t, global.SubjectID)

	_, ok = decodeKey("flag:broken")
	assert.False(t, ok)
}

func TestParseUserType(t *testing.T) {
	got, err := ParseUserType("owned")
	require.NoError(t, err)
	assert.Equal(t, Owned, got)

	_, err = ParseUserType("team_choice")
	assert.Error(t, err)
}
