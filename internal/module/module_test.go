package module

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/samber/do/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameshelf/gameshelf-server/internal/action"
	"github.com/gameshelf/gameshelf-server/internal/events"
)

type fakeModule struct {
	name      string
	registers *int
	order     *[]string
	fail      bool
}

func (m *fakeModule) Name() string { return m.name }

func (m *fakeModule) Register(h *Host) error {
	if m.fail {
		return errors.New("hook table full")
	}
	*m.registers++
	*m.order = append(*m.order, m.name)
	return h.Actions.Register(action.Action{
		Name:   m.name + "_action",
		Handle: func(context.Context, *action.Request) (*action.Result, error) { return &action.Result{}, nil },
	})
}

func newHost() *Host {
	return &Host{
		Bus:     events.NewBus(nil),
		Actions: action.NewRegistry(),
		Logger:  slog.New(slog.DiscardHandler),
	}
}

func factoryFor(m *fakeModule) Factory {
	return func(do.Injector) (Module, error) { return m, nil }
}

func TestLoader_LoadTwiceRegistersOnce(t *testing.T) {
	var count int
	var order []string
	reg := NewRegistry().
		MustAdd("catalog", factoryFor(&fakeModule{name: "catalog", registers: &count, order: &order})).
		MustAdd("team_choice", factoryFor(&fakeModule{name: "team_choice", registers: &count, order: &order}))

	host := newHost()
	l := NewLoader("editorial", reg, do.New(), host)

	l.Load(context.Background())
	l.Load(context.Background())

	assert.Equal(t, 2, count)
	assert.Equal(t, []string{"catalog_action", "team_choice_action"}, host.Actions.Names())
}

func TestLoader_PreservesListOrder(t *testing.T) {
	var count int
	var order []string
	names := []string{"user_collections", "submissions", "catalog", "team_choice"}

	reg := NewRegistry()
	for _, n := range names {
		require.NoError(t, reg.Add(n, factoryFor(&fakeModule{name: n, registers: &count, order: &order})))
	}

	l := NewLoader("all", reg, do.New(), newHost())
	l.Load(context.Background())

	if diff := cmp.Diff(names, order); diff != "" {
		t.Errorf("registration order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(names, l.Loaded()); diff != "" {
		t.Errorf("loaded mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, names, reg.Names())
}

func TestLoader_FailingModulesAreSkipped(t *testing.T) {
	var count int
	var order []string
	reg := NewRegistry().
		MustAdd("first", factoryFor(&fakeModule{name: "first", registers: &count, order: &order})).
		MustAdd("missing", func(do.Injector) (Module, error) { return nil, errors.New("service not provided") }).
		MustAdd("broken", factoryFor(&fakeModule{name: "broken", registers: &count, order: &order, fail: true})).
		MustAdd("last", factoryFor(&fakeModule{name: "last", registers: &count, order: &order}))

	l := NewLoader("user", reg, do.New(), newHost())
	l.Load(context.Background())

	assert.Equal(t, []string{"first", "last"}, l.Loaded())

	records := l.Records()
	require.Len(t, records, 4)
	assert.Error(t, records[1].Err)
	assert.Nil(t, records[1].Instance)
	assert.Error(t, records[2].Err)
	assert.NotNil(t, records[2].Instance)
	assert.False(t, records[2].Loaded)
}

func TestLoader_ConcurrentLoad(t *testing.T) {
	var count int
	var order []string
	reg := NewRegistry().MustAdd("only", factoryFor(&fakeModule{name: "only", registers: &count, order: &order}))
	l := NewLoader("user", reg, do.New(), newHost())

	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() { l.Load(context.Background()) })
	}
	wg.Wait()

	assert.Equal(t, 1, count)
}

func TestRegistry_RejectsDuplicateNames(t *testing.T) {
	reg := NewRegistry()
	f := func(do.Injector) (Module, error) { return nil, nil }

	require.NoError(t, reg.Add("catalog", f))
	assert.Error(t, reg.Add("catalog", f))
	assert.Error(t, reg.Add("", f))
	assert.Panics(t, func() { reg.MustAdd("catalog", f) })
}
