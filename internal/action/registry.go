package action

import (
	"fmt"
	"sync"

	"dealclient/internal/card"
	"dealclient/internal/protocol"
	"dealclient/internal/state"
)

// Handler implements the rules of one action kind. Handlers are stateless;
// everything they need comes from the View and the Pending action.
type Handler interface {
	Kind() card.ActionKind
	// Check runs the entry legality checks.
	Check(v *state.View, p *Pending) error
	// Next returns the next missing choice, or nil once every required
	// choice is collected. It fails when a collected choice is no longer
	// valid against v.
	Next(v *state.View, p *Pending) (*Prompt, error)
	// Build assembles the outbound frame. Only called once Next returns nil.
	Build(v *state.View, p *Pending) (protocol.ActionMsg, error)
}

// Registry maps action kinds to their handlers.
type Registry struct {
	mu       sync.RWMutex
	handlers map[card.ActionKind]Handler
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[card.ActionKind]Handler)}
}

// DefaultRegistry returns a registry holding every built-in action kind.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(rentHandler{kind: card.ActionRent})
	r.Register(rentHandler{kind: card.ActionMulticolorRent, singleTarget: true})
	r.Register(debtCollectorHandler{})
	r.Register(birthdayHandler{})
	r.Register(slyDealHandler{})
	r.Register(forcedDealHandler{})
	r.Register(dealBreakerHandler{})
	r.Register(passGoHandler{})
	r.Register(upgradeHandler{kind: card.ActionHouse})
	r.Register(upgradeHandler{kind: card.ActionHotel})
	r.Register(doubleRentHandler{})
	return r
}

// Register adds a handler. Panics on duplicate kinds.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[h.Kind()]; exists {
		panic(fmt.Sprintf("action %q already registered", h.Kind()))
	}
	r.handlers[h.Kind()] = h
}

// Get returns the handler for kind.
func (r *Registry) Get(kind card.ActionKind) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}

// Kinds lists every registered kind.
func (r *Registry) Kinds() []card.ActionKind {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]card.ActionKind, 0, len(r.handlers))
	for k := range r.handlers {
		kinds = append(kinds, k)
	}
	return kinds
}
