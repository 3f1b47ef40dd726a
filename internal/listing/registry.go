package listing

import (
	"sync"
	"time"
)

// Registry keeps one Browser per operator session for a screen. Entries
// expire after idleTTL so abandoned consoles do not pin collections in
// memory forever.
type Registry[T any] struct {
	mu      sync.Mutex
	entries map[string]*registryEntry[T]
	idleTTL time.Duration
	factory func() (*Browser[T], error)
	now     func() time.Time
}

type registryEntry[T any] struct {
	browser  *Browser[T]
	lastSeen time.Time
}

// NewRegistry constructs a Registry with a browser factory.
func NewRegistry[T any](idleTTL time.Duration, factory func() (*Browser[T], error)) *Registry[T] {
	if idleTTL <= 0 {
		idleTTL = 30 * time.Minute
	}
	return &Registry[T]{
		entries: make(map[string]*registryEntry[T]),
		idleTTL: idleTTL,
		factory: factory,
		now:     time.Now,
	}
}

// Acquire returns the session's browser, creating it on first use (the
// screen mount). The boolean reports whether this call created it.
func (r *Registry[T]) Acquire(key string) (*Browser[T], bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepLocked()
	if entry, ok := r.entries[key]; ok {
		entry.lastSeen = r.now()
		return entry.browser, false, nil
	}
	browser, err := r.factory()
	if err != nil {
		return nil, false, err
	}
	r.entries[key] = &registryEntry[T]{browser: browser, lastSeen: r.now()}
	return browser, true, nil
}

// Release drops the session's browser, e.g. on unmount or logout.
func (r *Registry[T]) Release(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

func (r *Registry[T]) sweepLocked() {
	cutoff := r.now().Add(-r.idleTTL)
	for key, entry := range r.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(r.entries, key)
		}
	}
}
