package fsmx

import (
	"reflect"
	"time"
)

// StateKey identifies one state implementation within a Registry.
type StateKey string

// String returns the key as a plain string.
func (k StateKey) String() string {
	return string(k)
}

// Owner is the entity a Machine drives. The Machine keeps a reference to it
// but never owns it: Initialize and Destroy are for the host and the states.
type Owner interface {
	Name() string
	Initialize() error
	Destroy()
}

// State is a unit of owner behaviour. Embed BaseState to get no-op OnExit and
// OnFixedUpdate plus the owner/machine back-references.
type State[O Owner] interface {
	// OnEnter runs when the state becomes active. previous is nil for the
	// initial state.
	OnEnter(owner O, previous State[O])

	// OnExit runs when the state stops being active.
	OnExit(owner O)

	// OnUpdate runs once per Tick while the state is active.
	OnUpdate(owner O, m *Machine[O], dt time.Duration) error

	// OnFixedUpdate runs once per FixedTick while the state is active.
	OnFixedUpdate(owner O, m *Machine[O], dt time.Duration) error
}

// Keyed lets a state choose its own StateKey instead of the type-derived one.
// KeyFor calls StateKey on a zero value, so lookups by type for states whose
// key depends on their fields fall back to matching the registered type.
type Keyed interface {
	StateKey() StateKey
}

// binder is satisfied by anything embedding BaseState.
type binder[O Owner] interface {
	bind(owner O, m *Machine[O])
}

// BaseState supplies the optional hooks and the back-references set during
// registration.
type BaseState[O Owner] struct {
	owner   O
	machine *Machine[O]
}

func (b *BaseState[O]) bind(owner O, m *Machine[O]) {
	b.owner = owner
	b.machine = m
}

// Owner returns the owner attached at registration.
func (b *BaseState[O]) Owner() O {
	return b.owner
}

// Machine returns the machine holding the state.
func (b *BaseState[O]) Machine() *Machine[O] {
	return b.machine
}

// OnExit does nothing.
func (b *BaseState[O]) OnExit(owner O) {}

// OnFixedUpdate does nothing.
func (b *BaseState[O]) OnFixedUpdate(owner O, m *Machine[O], dt time.Duration) error {
	return nil
}

// KeyOf returns the key of a state instance: its own key when it implements
// Keyed, otherwise the package path and name of its concrete type with any
// pointer indirection stripped.
func KeyOf(state any) StateKey {
	if state == nil {
		return ""
	}
	if k, ok := state.(Keyed); ok {
		return k.StateKey()
	}
	t := reflect.TypeOf(state)
	if t.Kind() != reflect.Pointer {
		if k, ok := reflect.New(t).Interface().(Keyed); ok {
			return k.StateKey()
		}
	}
	return typeKey(t)
}

// KeyFor returns the key KeyOf would return for an instance of T.
func KeyFor[T any]() StateKey {
	t := reflect.TypeOf((*T)(nil)).Elem()
	base := t
	if base.Kind() == reflect.Pointer {
		base = base.Elem()
	}
	if base.Kind() != reflect.Interface {
		// A fresh *base carries both value and pointer methods.
		if k, ok := reflect.New(base).Interface().(Keyed); ok {
			return k.StateKey()
		}
	}
	return typeKey(t)
}

func typeKey(t reflect.Type) StateKey {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return StateKey(t.String())
	}
	if t.PkgPath() == "" {
		return StateKey(t.Name())
	}
	return StateKey(t.PkgPath() + "." + t.Name())
}

// isNil reports whether v is nil, including typed nil pointers held in an
// interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
