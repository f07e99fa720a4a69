package fsmx

import (
	"log/slog"
	"reflect"
)

// Registry maps state keys to the single state instance a Machine uses for
// each key. It is created and filled by Machine.Initialize and is read-only
// afterwards.
type Registry[O Owner] struct {
	machine *Machine[O]
	entries []Entry[O]
	index   map[StateKey]int
}

func newRegistry[O Owner](m *Machine[O]) *Registry[O] {
	return &Registry[O]{
		machine: m,
		index:   make(map[StateKey]int),
	}
}

// register attaches state to the machine's owner and stores it under key.
// Registering a different instance under an existing key replaces the old
// one and reports the duplicate. It returns false when state was not stored.
func (r *Registry[O]) register(key StateKey, state State[O]) bool {
	if i, ok := r.index[key]; ok {
		if sameState(r.entries[i].State, state) {
			return false
		}
		r.machine.reportDuplicate(key, "replaced")
		r.attach(state)
		r.entries[i].State = state
		return true
	}

	r.attach(state)
	r.index[key] = len(r.entries)
	r.entries = append(r.entries, Entry[O]{Key: key, State: state})
	return true
}

// attach sets the back-references before the state becomes reachable.
func (r *Registry[O]) attach(state State[O]) {
	if b, ok := state.(binder[O]); ok {
		b.bind(r.machine.owner, r.machine)
	}
}

// Lookup returns the state registered under key.
func (r *Registry[O]) Lookup(key StateKey) (State[O], bool) {
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.entries[i].State, true
}

// Contains reports whether key is registered.
func (r *Registry[O]) Contains(key StateKey) bool {
	_, ok := r.index[key]
	return ok
}

// KeyOf returns the key state is registered under.
func (r *Registry[O]) KeyOf(state State[O]) (StateKey, bool) {
	for _, e := range r.entries {
		if sameState(e.State, state) {
			return e.Key, true
		}
	}
	return "", false
}

// Keys returns the registered keys in registration order.
func (r *Registry[O]) Keys() []StateKey {
	keys := make([]StateKey, len(r.entries))
	for i, e := range r.entries {
		keys[i] = e.Key
	}
	return keys
}

// Len returns the number of registered states.
func (r *Registry[O]) Len() int {
	return len(r.entries)
}

// sameState compares two states by identity without panicking on
// non-comparable dynamic types.
func sameState[O Owner](a, b State[O]) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

func (m *Machine[O]) reportDuplicate(key StateKey, resolution string) {
	m.logger.Warn("duplicate state registration",
		slog.String("key", key.String()),
		slog.String("resolution", resolution),
	)
	m.observer.OnDuplicate(m.info(), key)
}
