package dispatch

import (
	"sync"

	"github.com/next-trace/scg-ledger-bus/contract/event"
)

// Registry maps request-type tokens to handlers. At most one handler per
// token: the last registration wins, silently overwriting the previous one,
// which lets composition roots re-register to swap implementations.
//
// Registration is expected at startup, before the dispatcher starts
// consuming; lookups are safe to call concurrently with each other.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]event.CommandHandler
	queries  map[string]event.QueryHandler
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]event.CommandHandler),
		queries:  make(map[string]event.QueryHandler),
	}
}

// RegisterCommand stores or overwrites the handler for the given token.
func (r *Registry) RegisterCommand(name string, h event.CommandHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.commands[name] = h
}

// RegisterQuery stores or overwrites the handler for the given token.
func (r *Registry) RegisterQuery(name string, h event.QueryHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.queries[name] = h
}

// Command resolves the handler for a command token.
func (r *Registry) Command(name string) (event.CommandHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.commands[name]

	return h, ok
}

// Query resolves the handler for a query token.
func (r *Registry) Query(name string) (event.QueryHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.queries[name]

	return h, ok
}
