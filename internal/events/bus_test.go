package events

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gameshelf/gameshelf-server/internal/flags"
)

func TestBus_DeliversByType(t *testing.T) {
	ctx := context.Background()
	bus := NewBus(slog.New(slog.DiscardHandler))

	var got []CollectionUpdated
	var deleted []int64
	Subscribe(bus, func(_ context.Context, ev CollectionUpdated) { got = append(got, ev) })
	Subscribe(bus, func(_ context.Context, ev GameDeleted) { deleted = append(deleted, ev.GameID) })

	Publish(ctx, bus, CollectionUpdated{GameID: 42, Type: flags.Favorite, Active: true, Count: 1})
	Publish(ctx, bus, GameDeleted{GameID: 7})

	assert.Equal(t, []CollectionUpdated{{GameID: 42, Type: flags.Favorite, Active: true, Count: 1}}, got)
	assert.Equal(t, []int64{7}, deleted)
}

func TestBus_OrderAndUnsubscribe(t *testing.T) {
	ctx := context.Background()
	bus := NewBus(nil)

	var order []string
	Subscribe(bus, func(context.Context, GameDeleted) { order = append(order, "first") })
	unsub := Subscribe(bus, func(context.Context, GameDeleted) { order = append(order, "second") })
	Subscribe(bus, func(context.Context, GameDeleted) { order = append(order, "third") })

	Publish(ctx, bus, GameDeleted{GameID: 1})
	assert.Equal(t, []string{"first", "second", "third"}, order)

	unsub()
	unsub()
	order = nil
	Publish(ctx, bus, GameDeleted{GameID: 1})
	assert.Equal(t, []string{"first", "third"}, order)
	assert.Equal(t, 2, Subscribers[GameDeleted](bus))
}

func TestBus_PanicIsContained(t *testing.T) {
	ctx := context.Background()
	bus := NewBus(slog.New(slog.DiscardHandler))

	reached := false
	Subscribe(bus, func(context.Context, TeamChoiceChanged) { panic("boom") })
	Subscribe(bus, func(context.Context, TeamChoiceChanged) { reached = true })

	assert.NotPanics(t, func() { Publish(ctx, bus, TeamChoiceChanged{GameID: 1}) })
	assert.True(t, reached)
}

func TestBus_NoSubscribers(t *testing.T) {
	bus := NewBus(nil)
	assert.NotPanics(t, func() { Publish(context.Background(), bus, GameSaved{}) })
	assert.Zero(t, Subscribers[GameSaved](bus))
}
