package crawler

import (
	"fmt"
	"sort"
	"sync"
)

// Factory is a function that creates a new Crawler instance.
type Factory func() Crawler

// Registry maps driver names to crawler factories. A compile run works on a
// single database, so the registry hands out fresh crawlers rather than
// tracking live connections.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register registers a crawler factory for a driver name.
func (r *Registry) Register(driver string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[driver] = factory
}

// New creates a crawler for the given driver.
func (r *Registry) New(driver string) (Crawler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported driver: %s (available: %v)", driver, r.drivers())
	}
	return factory(), nil
}

// Drivers returns the registered driver names in sorted order.
func (r *Registry) Drivers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.drivers()
}

func (r *Registry) drivers() []string {
	drivers := make([]string, 0, len(r.factories))
	for d := range r.factories {
		drivers = append(drivers, d)
	}
	sort.Strings(drivers)
	return drivers
}
