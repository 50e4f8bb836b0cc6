// Package client is a Go rendering of the in-page collection controller.
// A Page holds toggle buttons and counters; a Controller turns clicks into
// toggle requests and fans the result out to every widget on the page.
package client

import (
	"sync"
)

// Button actions. Collection types map to the toggle_collection ajax
// action; TeamChoice maps to the admin toggle_team_choice action.
const (
	ActionFavorite   = "favorite"
	ActionOwned      = "owned"
	ActionTeamChoice = "team_choice"
)

// EventCollectionUpdated names the page-local event dispatched after a
// successful toggle.
const EventCollectionUpdated = "game_collection_updated"

// CollectionUpdated is the payload of EventCollectionUpdated.
type CollectionUpdated struct {
	GameID     int64  `json:"game_id"`
	ActionType string `json:"action_type"`
	IsActive   bool   `json:"is_active"`
}

// ButtonState is a snapshot of a button's mutable state.
type ButtonState struct {
	Active bool
	Count  int
	Title  string
	// Clicked drives the click animation. It clears on a fixed timer that
	// does not follow the request.
	Clicked bool
	// Processing marks the button whose click is in flight.
	Processing bool
}

// Button is a toggle for one game and action.
type Button struct {
	GameID int64
	Action string

	mu    sync.Mutex
	state ButtonState
}

// NewButton creates a button showing the given initial state.
func NewButton(gameID int64, action string, active bool) *Button {
	return &Button{
		GameID: gameID,
		Action: action,
		state:  ButtonState{Active: active, Title: Title(action, active)},
	}
}

// State returns a snapshot of the button.
func (b *Button) State() ButtonState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Button) update(fn func(*ButtonState)) {
	b.mu.Lock()
	fn(&b.state)
	b.mu.Unlock()
}

// Title is the hover text for a button in the given state.
func Title(action string, active bool) string {
	switch action {
	case ActionFavorite:
		if active {
			return "Remove from favorites"
		}
		return "Add to favorites"
	case ActionOwned:
		if active {
			return "Remove from owned games"
		}
		return "Mark as owned"
	case ActionTeamChoice:
		if active {
			return "Remove team choice"
		}
		return "Make team choice"
	default:
		return action
	}
}

// Counter shows how many games are in one collection.
type Counter struct {
	Action string

	mu    sync.Mutex
	count int
}

// NewCounter creates a counter for action starting at count.
func NewCounter(action string, count int) *Counter {
	return &Counter{Action: action, count: count}
}

// Count returns the displayed value.
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

func (c *Counter) set(n int) {
	c.mu.Lock()
	c.count = n
	c.mu.Unlock()
}

// Page is the set of widgets a controller drives.
type Page struct {
	mu        sync.RWMutex
	buttons   []*Button
	counters  []*Counter
	listeners []listener
	nextID    int
}

type listener struct {
	id int
	fn func(CollectionUpdated)
}

// NewPage creates an empty page.
func NewPage() *Page {
	return &Page{}
}

// AddButton places b on the page.
func (p *Page) AddButton(b *Button) {
	p.mu.Lock()
	p.buttons = append(p.buttons, b)
	p.mu.Unlock()
}

// AddCounter places c on the page.
func (p *Page) AddCounter(c *Counter) {
	p.mu.Lock()
	p.counters = append(p.counters, c)
	p.mu.Unlock()
}

// Buttons returns the buttons for a game, in the order they were added.
func (p *Page) Buttons(gameID int64) []*Button {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []*Button
	for _, b := range p.buttons {
		if b.GameID == gameID {
			out = append(out, b)
		}
	}
	return out
}

// OnCollectionUpdated subscribes fn to EventCollectionUpdated and returns a
// function that removes the subscription.
func (p *Page) OnCollectionUpdated(fn func(CollectionUpdated)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners = append(p.listeners, listener{id: id, fn: fn})
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, l := range p.listeners {
			if l.id == id {
				p.listeners = append(p.listeners[:i:i], p.listeners[i+1:]...)
				return
			}
		}
	}
}

func (p *Page) setCounters(action string, count int) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, c := range p.counters {
		if c.Action == action {
			c.set(count)
		}
	}
}

// dispatch delivers ev to the page. Buttons for the same game and action
// follow the new state, except one that is still processing its own click.
func (p *Page) dispatch(ev CollectionUpdated) {
	p.mu.RLock()
	buttons := append([]*Button(nil), p.buttons...)
	listeners := append([]listener(nil), p.listeners...)
	p.mu.RUnlock()

	for _, b := range buttons {
		if b.GameID != ev.GameID || b.Action != ev.ActionType {
			continue
		}
		b.update(func(s *ButtonState) {
			if s.Processing {
				return
			}
			s.Active = ev.IsActive
			s.Title = Title(b.Action, ev.IsActive)
		})
	}
	for _, l := range listeners {
		l.fn(ev)
	}
}
