package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeTransport flips server-side state per (game, action) like the real
// endpoint does.
type fakeTransport struct {
	mu    sync.Mutex
	state map[ToggleRequest]bool
	calls int
	err   error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{state: make(map[ToggleRequest]bool)}
}

func (f *fakeTransport) Toggle(_ context.Context, req ToggleRequest) (*ToggleResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.state[req] = !f.state[req]

	count := 0
	for k, v := range f.state {
		if v && k.Action == req.Action {
			count++
		}
	}
	return &ToggleResult{NewState: f.state[req], Count: count}, nil
}

func (f *fakeTransport) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func signedIn(page *Page, tr Transport) *Controller {
	return NewController(page, tr, Options{
		Authenticated: func() bool { return true },
		Logger:        slog.New(slog.DiscardHandler),
	})
}

func TestClick_AnonymousRedirects(t *testing.T) {
	tr := newFakeTransport()
	var redirectedTo string
	c := NewController(NewPage(), tr, Options{
		LoginURL:      "/login?redirect_to=/games/42",
		Authenticated: func() bool { return false },
		Redirect:      func(url string) { redirectedTo = url },
	})

	b := NewButton(42, ActionFavorite, false)
	err := c.Click(context.Background(), b)

	assert.ErrorIs(t, err, ErrLoginRequired)
	assert.Equal(t, "/login?redirect_to=/games/42", redirectedTo)
	assert.Zero(t, tr.Calls())
	assert.Equal(t, ButtonState{Title: "Add to favorites"}, b.State())
}

func TestClick_UpdatesPage(t *testing.T) {
	page := NewPage()
	card := NewButton(42, ActionFavorite, false)
	duplicate := NewButton(42, ActionFavorite, false)
	owned := NewButton(42, ActionOwned, false)
	otherGame := NewButton(7, ActionFavorite, false)
	favorites := NewCounter(ActionFavorite, 0)
	ownedCount := NewCounter(ActionOwned, 3)
	for _, b := range []*Button{card, duplicate, owned, otherGame} {
		page.AddButton(b)
	}
	page.AddCounter(favorites)
	page.AddCounter(ownedCount)

	var got []CollectionUpdated
	page.OnCollectionUpdated(func(ev CollectionUpdated) {
		// The originating button is still marked while the event fans out.
		assert.True(t, card.State().Processing)
		got = append(got, ev)
	})

	c := signedIn(page, newFakeTransport())
	require.NoError(t, c.Click(context.Background(), card))

	state := card.State()
	assert.True(t, state.Active)
	assert.Equal(t, 1, state.Count)
	assert.Equal(t, "Remove from favorites", state.Title)
	assert.False(t, state.Processing)

	assert.True(t, duplicate.State().Active)
	assert.Equal(t, "Remove from favorites", duplicate.State().Title)
	assert.False(t, owned.State().Active)
	assert.False(t, otherGame.State().Active)

	assert.Equal(t, 1, favorites.Count())
	assert.Equal(t, 3, ownedCount.Count())

	assert.Equal(t, []CollectionUpdated{{GameID: 42, ActionType: ActionFavorite, IsActive: true}}, got)
}

func TestClick_ProcessingButtonSkipsPageEvent(t *testing.T) {
	page := NewPage()
	b := NewButton(42, ActionOwned, false)
	page.AddButton(b)

	b.update(func(s *ButtonState) { s.Processing = true })
	page.dispatch(CollectionUpdated{GameID: 42, ActionType: ActionOwned, IsActive: true})
	assert.False(t, b.State().Active)

	b.update(func(s *ButtonState) { s.Processing = false })
	page.dispatch(CollectionUpdated{GameID: 42, ActionType: ActionOwned, IsActive: true})
	assert.True(t, b.State().Active)
}

func TestClick_FailureLeavesStateUnchanged(t *testing.T) {
	page := NewPage()
	b := NewButton(42, ActionFavorite, true)
	page.AddButton(b)
	counter := NewCounter(ActionFavorite, 5)
	page.AddCounter(counter)

	var events int
	page.OnCollectionUpdated(func(CollectionUpdated) { events++ })

	tr := newFakeTransport()
	tr.err = errors.New("action failed: Request failed")
	c := signedIn(page, tr)

	err := c.Click(context.Background(), b)
	require.Error(t, err)

	state := b.State()
	assert.True(t, state.Active)
	assert.Equal(t, "Remove from favorites", state.Title)
	assert.False(t, state.Processing)
	assert.Equal(t, 5, counter.Count())
	assert.Zero(t, events)
}

func TestClick_AnimationClearsOnTimer(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewButton(42, ActionFavorite, false)
	c := signedIn(NewPage(), newFakeTransport())

	start := time.Now()
	require.NoError(t, c.Click(context.Background(), b))

	// The request finished long before the animation ends.
	assert.True(t, b.State().Clicked)
	assert.False(t, b.State().Processing)

	assert.Eventually(t, func() bool { return !b.State().Clicked }, 2*time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), ClickAnimation)
}

func TestClick_DoubleClickSendsTwoRequests(t *testing.T) {
	page := NewPage()
	b := NewButton(42, ActionFavorite, false)
	page.AddButton(b)
	tr := newFakeTransport()
	c := signedIn(page, tr)

	var wg sync.WaitGroup
	for range 2 {
		wg.Go(func() {
			assert.NoError(t, c.Click(context.Background(), b))
		})
	}
	wg.Wait()

	// Nothing stops the second click, so the two toggles cancel out on the
	// server. The button shows whichever response was applied last.
	assert.Equal(t, 2, tr.Calls())
	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.False(t, tr.state[ToggleRequest{GameID: 42, Action: ActionFavorite}])
}

func TestPage_Unsubscribe(t *testing.T) {
	page := NewPage()
	var calls int
	unsubscribe := page.OnCollectionUpdated(func(CollectionUpdated) { calls++ })

	page.dispatch(CollectionUpdated{GameID: 1, ActionType: ActionOwned, IsActive: true})
	unsubscribe()
	page.dispatch(CollectionUpdated{GameID: 1, ActionType: ActionOwned, IsActive: false})

	assert.Equal(t, 1, calls)
}
