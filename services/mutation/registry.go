package mutation

import (
	"errors"
	"sync"
)

// ErrInFlight is returned when a mutation for the same key is still outstanding.
var ErrInFlight = errors.New("a change for this item is already in progress")

// Registry is a set of keys with an outstanding mutation. Keys are independent: holding one
// never blocks another.
type Registry struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{inFlight: make(map[string]struct{})}
}

// TryAcquire marks key as in flight. It returns false if key is already held. The returned
// release func is idempotent.
func (r *Registry) TryAcquire(key string) (release func(), ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, held := r.inFlight[key]; held {
		return nil, false
	}
	r.inFlight[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.inFlight, key)
			r.mu.Unlock()
		})
	}, true
}

// InFlight reports whether key is held.
func (r *Registry) InFlight(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, held := r.inFlight[key]
	return held
}

// Keys returns the held keys in no particular order.
func (r *Registry) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.inFlight))
	for k := range r.inFlight {
		keys = append(keys, k)
	}
	return keys
}
