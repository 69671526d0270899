package harvest

import (
	"fmt"
	"sort"
	"sync"

	"github.com/newthinker/harvester/internal/core"
)

// Factory builds a harvester for a single run
type Factory func() (Harvester, error)

// Registry maps harvester names to factories. Every Build returns a new
// harvester, so throttle counters and other run state never carry over.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new harvester registry
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory under name
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Build creates a fresh harvester by name
func (r *Registry) Build(name string) (Harvester, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown harvester %q", name))
	}
	return f()
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
