package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/gameshelf/gameshelf-server/internal/errors"
	"github.com/gameshelf/gameshelf-server/internal/events"
	"github.com/gameshelf/gameshelf-server/internal/flags"
	"github.com/gameshelf/gameshelf-server/internal/meta"
)

// knownGames is an EntityChecker over a fixed id set.
type knownGames map[int64]bool

func (k knownGames) GameExists(_ context.Context, id int64) (bool, error) {
	return k[id], nil
}

// countingFlags records how often the store is touched.
type countingFlags struct {
	FlagStore
	calls atomic.Int32
}

func (c *countingFlags) Get(ctx context.Context, k flags.Key) (bool, error) {
	c.calls.Add(1)
	return c.FlagStore.Get(ctx, k)
}

func (c *countingFlags) Set(ctx context.Context, k flags.Key, v bool) error {
	c.calls.Add(1)
	return c.FlagStore.Set(ctx, k, v)
}

func (c *countingFlags) Count(ctx context.Context, subject string, t flags.Type) (int, error) {
	c.calls.Add(1)
	return c.FlagStore.Count(ctx, subject, t)
}

func newFlagStore(t *testing.T, games ...int64) *flags.Store {
	t.Helper()
	kv, err := meta.OpenInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })

	known := knownGames{}
	for _, id := range games {
		known[id] = true
	}
	return flags.New(kv, known, slog.New(slog.DiscardHandler))
}

func newCollectionService(t *testing.T, fs FlagStore) (*CollectionService, *events.Bus) {
	t.Helper()
	bus := events.NewBus(slog.New(slog.DiscardHandler))
	return NewCollectionService(fs, bus, slog.New(slog.DiscardHandler)), bus
}

func TestCollectionService_Toggle_Game42(t *testing.T) {
	svc, _ := newCollectionService(t, newFlagStore(t, 42))
	ctx := context.Background()

	res, err := svc.Toggle(ctx, "usr-alice", 42, flags.Favorite)
	require.NoError(t, err)
	assert.Equal(t, &ToggleResult{NewState: true, Count: 1}, res)

	res, err = svc.Toggle(ctx, "usr-alice", 42, flags.Favorite)
	require.NoError(t, err)
	assert.Equal(t, &ToggleResult{NewState: false, Count: 0}, res)
}

func TestCollectionService_ToggleTwiceRestoresState(t *testing.T) {
	fs := newFlagStore(t, 1, 2, 3)
	svc, _ := newCollectionService(t, fs)
	ctx := context.Background()

	_, err := svc.Toggle(ctx, "usr-bob", 1, flags.Owned)
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, "usr-bob", 2, flags.Owned)
	require.NoError(t, err)

	before, err := svc.State(ctx, "usr-bob", 3)
	require.NoError(t, err)
	countBefore, err := fs.Count(ctx, "usr-bob", flags.Owned)
	require.NoError(t, err)

	first, err := svc.Toggle(ctx, "usr-bob", 3, flags.Owned)
	require.NoError(t, err)
	assert.Equal(t, countBefore+1, first.Count)

	second, err := svc.Toggle(ctx, "usr-bob", 3, flags.Owned)
	require.NoError(t, err)
	assert.Equal(t, countBefore, second.Count)
	assert.Equal(t, before[flags.Owned], second.NewState)

	after, err := svc.State(ctx, "usr-bob", 3)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCollectionService_TypesAndUsersAreIndependent(t *testing.T) {
	svc, _ := newCollectionService(t, newFlagStore(t, 7))
	ctx := context.Background()

	_, err := svc.Toggle(ctx, "usr-alice", 7, flags.Favorite)
	require.NoError(t, err)

	state, err := svc.State(ctx, "usr-alice", 7)
	require.NoError(t, err)
	assert.Equal(t, map[flags.Type]bool{flags.Favorite: true, flags.Owned: false}, state)

	ids, err := svc.List(ctx, "usr-bob", flags.Favorite)
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = svc.List(ctx, "usr-alice", flags.Favorite)
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, ids)
}

func TestCollectionService_RejectsBeforeStoreAccess(t *testing.T) {
	spy := &countingFlags{FlagStore: newFlagStore(t, 42)}
	svc, bus := newCollectionService(t, spy)

	var published atomic.Int32
	events.Subscribe(bus, func(context.Context, events.CollectionUpdated) { published.Add(1) })

	tests := []struct {
		name   string
		userID string
		gameID int64
		typ    flags.Type
		code   domainerrors.Code
	}{
		{"unauthenticated", "", 42, flags.Favorite, domainerrors.CodeUnauthorized},
		{"team choice is not a user collection", "usr-alice", 42, flags.TeamChoice, domainerrors.CodeValidation},
		{"unknown type", "usr-alice", 42, flags.Type("wishlist"), domainerrors.CodeValidation},
		{"zero game id", "usr-alice", 0, flags.Favorite, domainerrors.CodeValidation},
		{"negative game id", "usr-alice", -5, flags.Owned, domainerrors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Toggle(context.Background(), tt.userID, tt.gameID, tt.typ)
			require.Error(t, err)
			assert.Equal(t, tt.code, domainerrors.CodeOf(err))
		})
	}

	assert.Zero(t, spy.calls.Load(), "rejected toggles must not touch the store")
	assert.Zero(t, published.Load())
}

func TestCollectionService_UnauthenticatedLeavesStoreUnchanged(t *testing.T) {
	kv, err := meta.OpenInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = kv.Close() })
	fs := flags.New(kv, knownGames{42: true}, nil)
	svc, _ := newCollectionService(t, fs)
	ctx := context.Background()

	_, err = svc.Toggle(ctx, "", 42, flags.Favorite)
	require.Error(t, err)

	keys := 0
	require.NoError(t, kv.Scan(ctx, "", func(string, string) error {
		keys++
		return nil
	}))
	assert.Zero(t, keys)
}

func TestCollectionService_UnknownGame(t *testing.T) {
	svc, _ := newCollectionService(t, newFlagStore(t))

	_, err := svc.Toggle(context.Background(), "usr-alice", 99, flags.Favorite)
	assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))
}

func TestCollectionService_PublishesToOriginatingSession(t *testing.T) {
	svc, bus := newCollectionService(t, newFlagStore(t, 42))

	var got []events.CollectionUpdated
	events.Subscribe(bus, func(_ context.Context, ev events.CollectionUpdated) { got = append(got, ev) })

	ctx := WithSessionID(context.Background(), "ses-1")
	_, err := svc.Toggle(ctx, "usr-alice", 42, flags.Owned)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, events.CollectionUpdated{
		UserID:    "usr-alice",
		SessionID: "ses-1",
		GameID:    42,
		Type:      flags.Owned,
		Active:    true,
		Count:     1,
	}, got[0])
}

// barrierFlags holds every Get until n readers have arrived, forcing
// overlapping toggles to read before either writes.
type barrierFlags struct {
	FlagStore
	wg *sync.WaitGroup
}

func (b *barrierFlags) Get(ctx context.Context, k flags.Key) (bool, error) {
	v, err := b.FlagStore.Get(ctx, k)
	b.wg.Done()
	b.wg.Wait()
	return v, err
}

func TestCollectionService_OverlappingTogglesLoseAnUpdate(t *testing.T) {
	fs := newFlagStore(t, 42)
	var barrier sync.WaitGroup
	barrier.Add(2)
	svc, _ := newCollectionService(t, &barrierFlags{FlagStore: fs, wg: &barrier})

	results := make([]*ToggleResult, 2)
	var wg sync.WaitGroup
	for i := range 2 {
		wg.Go(func() {
			res, err := svc.Toggle(context.Background(), "usr-alice", 42, flags.Favorite)
			assert.NoError(t, err)
			results[i] = res
		})
	}
	wg.Wait()

	// Both toggles read false and both wrote true: the second toggle's
	// inversion is lost. Serial execution would end at false with count 0.
	for _, res := range results {
		require.NotNil(t, res)
		assert.True(t, res.NewState)
		assert.Equal(t, 1, res.Count)
	}

	final, err := fs.Get(context.Background(), flags.Key{SubjectID: "usr-alice", EntityID: 42, Type: flags.Favorite})
	require.NoError(t, err)
	assert.True(t, final)
}
