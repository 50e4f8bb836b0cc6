// Package action holds the registry behind the form-encoded POST /ajax
// endpoint. Modules register named actions; the API layer authenticates,
// checks the anti-forgery token and dispatches.
package action

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"sync"
)

// Request is an authenticated ajax call.
type Request struct {
	UserID    string
	SessionID string
	IsAdmin   bool
	Form      url.Values
}

// Result is the success payload: {"success":true,"status":...,"stats":{"count":...}}.
type Result struct {
	Status bool
	Count  int
}

// Handler performs an action.
type Handler func(ctx context.Context, req *Request) (*Result, error)

// Action describes one registered action.
type Action struct {
	Name string
	// Nonce is the anti-forgery action name checked against the "security" field.
	Nonce        string
	RequireAdmin bool
	Handle       Handler
}

// Registry maps action names to handlers.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{actions: make(map[string]Action)}
}

// Register adds a. Registering the same name twice is an error.
func (r *Registry) Register(a Action) error {
	if a.Name == "" || a.Handle == nil {
		return fmt.Errorf("action: name and handler are required")
	}
	if a.Nonce == "" {
		a.Nonce = a.Name
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.actions[a.Name]; ok {
		return fmt.Errorf("action %q already registered", a.Name)
	}
	r.actions[a.Name] = a
	return nil
}

// Lookup returns the action registered under name.
func (r *Registry) Lookup(name string) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actions[name]
	return a, ok
}

// Names returns registered action names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
