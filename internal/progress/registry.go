package progress

import "sync"

// Dispatcher delivers events to whatever listens on key.
type Dispatcher interface {
	Dispatch(key string, e Event)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(key string, e Event)

// Dispatch calls f.
func (f DispatcherFunc) Dispatch(key string, e Event) { f(key, e) }

// Registry maps keys to listeners. It is safe for concurrent use.
//
// A listener is looked up under a read lock and invoked after the lock is
// released, so a slow listener never blocks Add, Remove or Clear.
type Registry struct {
	mu        sync.RWMutex
	listeners map[string]Listener
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{listeners: make(map[string]Listener)}
}

// Add registers l under key, replacing any listener already there.
// A nil listener removes key.
func (r *Registry) Add(key string, l Listener) {
	if l == nil {
		r.Remove(key)
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[key] = l
}

// Remove drops the listener registered under key.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.listeners, key)
}

// Clear drops every listener. Dispatches that already looked up their
// listener may still deliver; no dispatch starting after Clear returns
// sees a dropped listener.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = make(map[string]Listener)
}

// Lookup returns the listener registered under key.
func (r *Registry) Lookup(key string) (Listener, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.listeners[key]
	return l, ok
}

// Dispatch delivers e to the listener registered under key. Unknown keys
// are ignored.
func (r *Registry) Dispatch(key string, e Event) {
	if l, ok := r.Lookup(key); ok {
		l(e)
	}
}

// Len returns the number of registered listeners.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}
