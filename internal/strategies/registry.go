package strategies

import (
	"fmt"
	"sync"
)

// Registry holds all registered message strategies, keyed by messageType.
// Strategies register themselves at startup via init() functions in
// builtin/*.go.
type Registry struct {
	mu         sync.RWMutex
	strategies map[string]Strategy
}

// GlobalRegistry is the singleton registry used by the application. Builtin
// strategies register into it via init() in internal/strategies/builtin.
var GlobalRegistry = &Registry{
	strategies: make(map[string]Strategy),
}

// NewRegistry returns an empty Registry, for tests that need isolation from
// GlobalRegistry's builtin-populated state.
func NewRegistry() *Registry {
	return &Registry{strategies: make(map[string]Strategy)}
}

// Register adds a Strategy to the registry. Panics on a duplicate
// messageType: two strategies claiming the same type is a programming
// error that must be caught at startup, not silently ignored.
func (r *Registry) Register(s Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()

	mt := s.MessageType()
	if _, exists := r.strategies[mt]; exists {
		panic(fmt.Sprintf("strategies: duplicate messageType %q registered", mt))
	}
	r.strategies[mt] = s
}

// Get retrieves a registered strategy by messageType.
func (r *Registry) Get(messageType string) (Strategy, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[messageType]
	return s, ok
}

// MustGet retrieves a registered strategy by messageType or returns an error.
func (r *Registry) MustGet(messageType string) (Strategy, error) {
	s, ok := r.Get(messageType)
	if !ok {
		return nil, fmt.Errorf("strategies: messageType %q is not registered", messageType)
	}
	return s, nil
}

// MessageTypes returns every registered messageType, in no particular order.
func (r *Registry) MessageTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.strategies))
	for mt := range r.strategies {
		types = append(types, mt)
	}
	return types
}
