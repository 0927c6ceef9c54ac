package launcher

import (
	"sync"
	"time"
)

// Registry tracks live launches so shutdown paths can find and terminate
// every outstanding child.
type Registry struct {
	mu       sync.RWMutex
	launches map[string]*Process
}

// DefaultRegistry is the process-wide registry used by the CLI and the
// control server.
var DefaultRegistry = NewRegistry()

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{launches: make(map[string]*Process)}
}

// Add registers a launch under its ID.
func (r *Registry) Add(p *Process) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.launches[p.ID] = p
}

// Get retrieves a launch by ID. Returns nil if not found.
func (r *Registry) Get(id string) *Process {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.launches[id]
}

// Remove removes a launch from the registry.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.launches, id)
}

// List returns all tracked launches.
func (r *Registry) List() []*Process {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Process, 0, len(r.launches))
	for _, p := range r.launches {
		out = append(out, p)
	}
	return out
}

// Count returns the number of tracked launches.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.launches)
}

// TerminateAll terminates every tracked launch and removes it from the
// registry.
func (r *Registry) TerminateAll(grace time.Duration) {
	for _, p := range r.List() {
		logger.Info().Str("id", p.ID).Msg("terminating launch")
		p.Terminate(grace)
		r.Remove(p.ID)
	}
}
