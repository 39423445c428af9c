package domain

import (
	"maps"
	"slices"
	"sync"
	"sync/atomic"
)

// Snapshot is an immutable view of a Registry at one point in time.
//
// Resolution of a single request reads one Snapshot so that the outcome is
// deterministic even while other goroutines keep writing to the Registry.
type Snapshot struct {
	domains map[string]Origin
	global  Origin
	dynamic bool
}

// Lookup returns the origin registered for alias.
func (s Snapshot) Lookup(alias string) (Origin, bool) {
	o, ok := s.domains[alias]
	return o, ok
}

// Global returns the global override origin, if one is set.
func (s Snapshot) Global() (Origin, bool) {
	return s.global, !s.global.IsZero()
}

// Dynamic reports whether registry-based rewriting is enabled.
func (s Snapshot) Dynamic() bool {
	return s.dynamic
}

// Len returns the number of registered aliases.
func (s Snapshot) Len() int {
	return len(s.domains)
}

// Registry maps domain aliases to origins and holds an optional global
// override origin.
//
// Reads are lock-free: every write publishes a fresh Snapshot through an
// atomic pointer, so a reader sees either the old or the new state, never a
// partially written origin. Writers are serialized by a mutex.
//
// The zero value is not usable; create one with NewRegistry.
type Registry struct {
	mu    sync.Mutex
	state atomic.Pointer[Snapshot]
}

// NewRegistry creates an empty Registry with dynamic rewriting enabled.
func NewRegistry() *Registry {
	r := &Registry{}
	r.state.Store(&Snapshot{domains: map[string]Origin{}, dynamic: true})
	return r
}

// Snapshot returns the current state.
func (r *Registry) Snapshot() Snapshot {
	return *r.state.Load()
}

// update copies the current snapshot, applies fn and publishes the result.
func (r *Registry) update(fn func(s *Snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.state.Load()
	next := &Snapshot{
		domains: maps.Clone(cur.domains),
		global:  cur.global,
		dynamic: cur.dynamic,
	}
	fn(next)
	r.state.Store(next)
}

// Put registers origin under alias, replacing any previous value.
func (r *Registry) Put(alias string, origin Origin) {
	r.update(func(s *Snapshot) {
		s.domains[alias] = origin
	})
}

// PutURL parses raw and registers it under alias.
func (r *Registry) PutURL(alias, raw string) error {
	o, err := ParseOrigin(raw)
	if err != nil {
		return err
	}
	r.Put(alias, o)
	return nil
}

// Get returns the origin registered under alias.
func (r *Registry) Get(alias string) (Origin, bool) {
	return r.Snapshot().Lookup(alias)
}

// Remove deletes alias. Removing an unknown alias is a no-op.
func (r *Registry) Remove(alias string) {
	r.update(func(s *Snapshot) {
		delete(s.domains, alias)
	})
}

// Clear removes every alias. The global override is kept.
func (r *Registry) Clear() {
	r.update(func(s *Snapshot) {
		s.domains = map[string]Origin{}
	})
}

// Aliases returns the registered aliases in sorted order.
func (r *Registry) Aliases() []string {
	return slices.Sorted(maps.Keys(r.Snapshot().domains))
}

// SetGlobal sets the global override origin.
func (r *Registry) SetGlobal(origin Origin) {
	r.update(func(s *Snapshot) {
		s.global = origin
	})
}

// SetGlobalURL parses raw and sets it as the global override origin.
func (r *Registry) SetGlobalURL(raw string) error {
	o, err := ParseOrigin(raw)
	if err != nil {
		return err
	}
	r.SetGlobal(o)
	return nil
}

// ClearGlobal removes the global override origin.
func (r *Registry) ClearGlobal() {
	r.SetGlobal(Origin{})
}

// Global returns the global override origin, if one is set.
func (r *Registry) Global() (Origin, bool) {
	return r.Snapshot().Global()
}

// SetDynamic enables or disables alias and global-override rewriting.
func (r *Registry) SetDynamic(enabled bool) {
	r.update(func(s *Snapshot) {
		s.dynamic = enabled
	})
}

// Dynamic reports whether alias and global-override rewriting is enabled.
func (r *Registry) Dynamic() bool {
	return r.Snapshot().Dynamic()
}
