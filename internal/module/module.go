// Package module wires feature modules into the application once at
// startup. Each feature area owns a Loader over a static, ordered Registry
// of module factories.
package module

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samber/do/v2"

	"github.com/gameshelf/gameshelf-server/internal/action"
	"github.com/gameshelf/gameshelf-server/internal/events"
)

// Host is the surface modules register against.
type Host struct {
	Bus     *events.Bus
	Actions *action.Registry
	Logger  *slog.Logger
}

// Module is a feature that hooks into the Host.
type Module interface {
	Name() string
	Register(h *Host) error
}

// Factory builds a module from the DI container.
type Factory func(i do.Injector) (Module, error)

type entry struct {
	name    string
	factory Factory
}

// Registry is an ordered list of module factories.
type Registry struct {
	entries []entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add appends a factory. Names must be unique within a registry.
func (r *Registry) Add(name string, f Factory) error {
	if name == "" || f == nil {
		return fmt.Errorf("module: name and factory are required")
	}
	for _, e := range r.entries {
		if e.name == name {
			return fmt.Errorf("module %q already registered", name)
		}
	}
	r.entries = append(r.entries, entry{name: name, factory: f})
	return nil
}

// MustAdd is Add for static registration tables.
func (r *Registry) MustAdd(name string, f Factory) *Registry {
	if err := r.Add(name, f); err != nil {
		panic(err)
	}
	return r
}

// Names lists module names in load order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}

// Record tracks one module's setup.
type Record struct {
	Name     string
	Loaded   bool
	Instance Module
	Err      error
}

// Loader runs each module's setup exactly once.
type Loader struct {
	area     string
	registry *Registry
	injector do.Injector
	host     *Host

	mu      sync.Mutex
	loaded  bool
	records []Record
}

// NewLoader creates a loader for a feature area.
func NewLoader(area string, registry *Registry, injector do.Injector, host *Host) *Loader {
	return &Loader{area: area, registry: registry, injector: injector, host: host}
}

// Load builds and registers every module in list order. A module that fails
// to build or register is logged and skipped; the rest still load. Calls
// after the first are no-ops. The only error returned is a cancelled ctx,
// in which case the remaining modules are recorded as not loaded.
func (l *Loader) Load(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loaded {
		return nil
	}
	l.loaded = true

	log := l.host.Logger.With("area", l.area)
	for _, e := range l.registry.entries {
		rec := Record{Name: e.name}
		if err := ctx.Err(); err != nil {
			rec.Err = err
			l.records = append(l.records, rec)
			continue
		}

		m, err := e.factory(l.injector)
		if err != nil {
			rec.Err = err
			log.Error("module unavailable, skipping", "module", e.name, "error", err)
			l.records = append(l.records, rec)
			continue
		}
		rec.Instance = m

		if err := m.Register(l.host); err != nil {
			rec.Err = err
			log.Error("module failed to register, skipping", "module", e.name, "error", err)
			l.records = append(l.records, rec)
			continue
		}

		rec.Loaded = true
		l.records = append(l.records, rec)
		log.Debug("module loaded", "module", e.name)
	}
	return ctx.Err()
}

// Loaded returns the names of modules that registered successfully, in order.
func (l *Loader) Loaded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var names []string
	for _, r := range l.records {
		if r.Loaded {
			names = append(names, r.Name)
		}
	}
	return names
}

// Records returns a copy of every module's setup record.
func (l *Loader) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Record(nil), l.records...)
}

// Area is the feature area this loader serves.
func (l *Loader) Area() string {
	return l.area
}
