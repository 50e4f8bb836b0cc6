package client

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ClickAnimation is how long a button shows the click animation.
const ClickAnimation = 600 * time.Millisecond

// ErrLoginRequired is returned by Click when nobody is signed in. The
// controller has already redirected to the login page.
var ErrLoginRequired = errors.New("login required")

// ToggleRequest asks the server to flip one flag.
type ToggleRequest struct {
	GameID int64
	// Action is a button action: favorite, owned or team_choice.
	Action string
}

// ToggleResult is the server's answer to a toggle.
type ToggleResult struct {
	NewState bool
	Count    int
}

// Transport sends toggle requests.
type Transport interface {
	Toggle(ctx context.Context, req ToggleRequest) (*ToggleResult, error)
}

// Options configures a Controller.
type Options struct {
	// LoginURL is where anonymous clicks are sent.
	LoginURL string
	// Authenticated reports whether a user is signed in.
	Authenticated func() bool
	// Redirect navigates to url.
	Redirect func(url string)
	Logger   *slog.Logger
}

// Controller turns button clicks into toggle requests.
type Controller struct {
	page      *Page
	transport Transport
	opts      Options
	logger    *slog.Logger
}

// NewController creates a controller for page.
func NewController(page *Page, transport Transport, opts Options) *Controller {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Authenticated == nil {
		opts.Authenticated = func() bool { return false }
	}
	if opts.Redirect == nil {
		opts.Redirect = func(string) {}
	}
	return &Controller{page: page, transport: transport, opts: opts, logger: logger}
}

// Click handles a click on b. The button is not disabled while a request
// is in flight, so two quick clicks send two requests.
//
// On success the button, matching counters and every other button for the
// same game and action follow the new state. On failure the error is
// logged and returned and nothing changes.
func (c *Controller) Click(ctx context.Context, b *Button) error {
	if !c.opts.Authenticated() {
		c.opts.Redirect(c.opts.LoginURL)
		return ErrLoginRequired
	}

	b.update(func(s *ButtonState) {
		s.Clicked = true
		s.Processing = true
	})
	time.AfterFunc(ClickAnimation, func() {
		b.update(func(s *ButtonState) { s.Clicked = false })
	})

	res, err := c.transport.Toggle(ctx, ToggleRequest{GameID: b.GameID, Action: b.Action})
	if err != nil {
		b.update(func(s *ButtonState) { s.Processing = false })
		c.logger.Error("toggle failed", "game_id", b.GameID, "action", b.Action, "error", err)
		return err
	}

	b.update(func(s *ButtonState) {
		s.Active = res.NewState
		s.Count = res.Count
		s.Title = Title(b.Action, res.NewState)
	})
	c.page.setCounters(b.Action, res.Count)
	c.page.dispatch(CollectionUpdated{GameID: b.GameID, ActionType: b.Action, IsActive: res.NewState})
	b.update(func(s *ButtonState) { s.Processing = false })
	return nil
}
