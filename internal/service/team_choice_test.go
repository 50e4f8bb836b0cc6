package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameshelf/gameshelf-server/internal/domain"
	domainerrors "github.com/gameshelf/gameshelf-server/internal/errors"
	"github.com/gameshelf/gameshelf-server/internal/events"
)

func TestTeamChoiceService_ToggleAndList(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	celeste := env.createGame(t, "Celeste")
	hades := env.createGame(t, "Hades")

	var changes []events.TeamChoiceChanged
	events.Subscribe(env.bus, func(_ context.Context, ev events.TeamChoiceChanged) { changes = append(changes, ev) })

	res, err := env.teamChoice.Toggle(ctx, "usr-editor", hades.ID)
	require.NoError(t, err)
	assert.Equal(t, &ToggleResult{NewState: true, Count: 1}, res)

	res, err = env.teamChoice.Set(ctx, "usr-editor", celeste.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)

	on, err := env.teamChoice.IsTeamChoice(ctx, hades.ID)
	require.NoError(t, err)
	assert.True(t, on)

	games, err := env.teamChoice.List(ctx)
	require.NoError(t, err)
	require.Len(t, games, 2)
	assert.Equal(t, celeste.ID, games[0].ID)
	assert.Equal(t, hades.ID, games[1].ID)

	res, err = env.teamChoice.Toggle(ctx, "usr-editor", hades.ID)
	require.NoError(t, err)
	assert.Equal(t, &ToggleResult{NewState: false, Count: 1}, res)

	require.Len(t, changes, 3)
	assert.Equal(t, events.TeamChoiceChanged{GameID: hades.ID, Active: false, By: "usr-editor"}, changes[2])
}

func TestTeamChoiceService_ListHidesUnpublished(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.createGame(t, "Fez")

	_, err := env.teamChoice.Set(ctx, "usr-editor", g.ID, true)
	require.NoError(t, err)
	_, err = env.catalog.SetStatus(ctx, g.ID, domain.GameStatusPending)
	require.NoError(t, err)

	games, err := env.teamChoice.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, games)
}

func TestTeamChoiceService_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.teamChoice.Set(ctx, "", 1, true)
	assert.Equal(t, domainerrors.CodeUnauthorized, domainerrors.CodeOf(err))

	_, err = env.teamChoice.Set(ctx, "usr-editor", 0, true)
	assert.Equal(t, domainerrors.CodeValidation, domainerrors.CodeOf(err))

	_, err = env.teamChoice.Set(ctx, "usr-editor", 12345, true)
	assert.Equal(t, domainerrors.CodeNotFound, domainerrors.CodeOf(err))
}

func TestTeamChoiceService_ToggleRejectsAnonymousBeforeStoreAccess(t *testing.T) {
	env := newTestEnv(t)
	spy := &countingFlags{FlagStore: newFlagStore(t, 42)}
	svc := NewTeamChoiceService(spy, env.catalog, events.NewBus(nil), nil)

	_, err := svc.Toggle(context.Background(), "", 42)
	require.Error(t, err)
	assert.Equal(t, domainerrors.CodeUnauthorized, domainerrors.CodeOf(err))
	assert.Zero(t, spy.calls.Load())
}
