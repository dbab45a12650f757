package circuitbreaker

import "sync"

// Registry hands out one CircuitBreaker per endpoint key, lazily created
// with DefaultConfig. Separate endpoints fail independently; their
// breakers must too.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

func NewRegistry() *Registry {
	return &Registry{breakers: make(map[string]*CircuitBreaker)}
}

func (r *Registry) Get(endpoint string) *CircuitBreaker {
	r.mu.Lock()
	defer r.mu.Unlock()
	if cb, ok := r.breakers[endpoint]; ok {
		return cb
	}
	cb := New(DefaultConfig(endpoint))
	r.breakers[endpoint] = cb
	return cb
}
