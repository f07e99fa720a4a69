package fsmx

import (
	"errors"
	"fmt"
)

// Entry pairs a state with the key it is registered under.
type Entry[O Owner] struct {
	Key   StateKey
	State State[O]
}

// Discovery supplies the states a Machine registers during Initialize.
// Implementations must be idempotent and must not have side effects beyond
// constructing states.
type Discovery[O Owner] interface {
	Discover() ([]Entry[O], error)
}

// DiscoveryFunc adapts a function to Discovery.
type DiscoveryFunc[O Owner] func() ([]Entry[O], error)

func (f DiscoveryFunc[O]) Discover() ([]Entry[O], error) {
	return f()
}

// List returns a Discovery yielding the given, already constructed states,
// keyed by KeyOf.
func List[O Owner](states ...State[O]) Discovery[O] {
	return DiscoveryFunc[O](func() ([]Entry[O], error) {
		entries := make([]Entry[O], 0, len(states))
		for i, s := range states {
			if isNil(s) {
				return nil, fmt.Errorf("list entry %d: %w", i, ErrNilState)
			}
			entries = append(entries, Entry[O]{Key: KeyOf(s), State: s})
		}
		return entries, nil
	})
}

// Constructor builds a fresh state instance.
type Constructor[O Owner] func() State[O]

// Catalog is a registration table of state constructors keyed by StateKey.
// It stands in for type scanning: callers opt states in explicitly, either in
// code or through a configuration file resolved at startup.
type Catalog[O Owner] struct {
	keys  []StateKey
	ctors map[StateKey]Constructor[O]
}

// NewCatalog creates an empty catalog.
func NewCatalog[O Owner]() *Catalog[O] {
	return &Catalog[O]{
		ctors: make(map[StateKey]Constructor[O]),
	}
}

// Add registers a constructor under key.
func (c *Catalog[O]) Add(key StateKey, ctor Constructor[O]) error {
	if key == "" {
		return errors.New("catalog: empty key")
	}
	if ctor == nil {
		return fmt.Errorf("catalog %q: nil constructor", key)
	}
	if _, exists := c.ctors[key]; exists {
		return fmt.Errorf("catalog %q: already registered", key)
	}
	c.keys = append(c.keys, key)
	c.ctors[key] = ctor
	return nil
}

// MustAdd is like Add but panics on error.
func (c *Catalog[O]) MustAdd(key StateKey, ctor Constructor[O]) *Catalog[O] {
	if err := c.Add(key, ctor); err != nil {
		panic(err)
	}
	return c
}

// Keys returns the catalog keys in insertion order.
func (c *Catalog[O]) Keys() []StateKey {
	return append([]StateKey(nil), c.keys...)
}

// Has reports whether key is in the catalog.
func (c *Catalog[O]) Has(key StateKey) bool {
	_, ok := c.ctors[key]
	return ok
}

// Discover constructs every state in the catalog.
func (c *Catalog[O]) Discover() ([]Entry[O], error) {
	return c.build(c.keys)
}

// Select returns a Discovery constructing only the given keys, in order.
func (c *Catalog[O]) Select(keys ...StateKey) Discovery[O] {
	keys = append([]StateKey(nil), keys...)
	return DiscoveryFunc[O](func() ([]Entry[O], error) {
		return c.build(keys)
	})
}

func (c *Catalog[O]) build(keys []StateKey) ([]Entry[O], error) {
	entries := make([]Entry[O], 0, len(keys))
	for _, key := range keys {
		ctor, ok := c.ctors[key]
		if !ok {
			return nil, fmt.Errorf("catalog %q: %w", key, ErrNotFound)
		}
		s := ctor()
		if isNil(s) {
			return nil, fmt.Errorf("catalog %q: %w", key, ErrNilState)
		}
		entries = append(entries, Entry[O]{Key: key, State: s})
	}
	return entries, nil
}
