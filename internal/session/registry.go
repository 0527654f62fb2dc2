package session

import (
	"sync"
)

// Binding is the (room, user) pair a connection is currently associated
// with. The zero value means unbound; room and user are always set or
// cleared together.
type Binding struct {
	Room string
	User string
}

func (b Binding) bound() bool {
	return b.Room != ""
}

// Registry tracks the binding of every open connection. Entries live
// exactly as long as the connection does.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Binding
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]Binding),
	}
}

// Register creates an unbound entry for a newly opened connection.
func (r *Registry) Register(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[connID]; !ok {
		r.conns[connID] = Binding{}
	}
}

// Bind associates the connection with a room and display name.
func (r *Registry) Bind(connID, roomID, user string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = Binding{Room: roomID, User: user}
}

// Get returns the connection's binding, reporting false if the connection
// is unknown or unbound.
func (r *Registry) Get(connID string) (Binding, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.conns[connID]
	if !ok || !b.bound() {
		return Binding{}, false
	}
	return b, true
}

// Clear resets the connection to unbound and returns the previous binding.
// Reports false if there was nothing to clear, which makes leave followed
// by disconnect a natural no-op.
func (r *Registry) Clear(connID string) (Binding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.conns[connID]
	if !ok || !b.bound() {
		return Binding{}, false
	}
	r.conns[connID] = Binding{}
	return b, true
}

// Unregister removes the connection's entry entirely.
func (r *Registry) Unregister(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, connID)
}
