package fsmx

import "fmt"

// GetState returns the state registered under key.
func (m *Machine[O]) GetState(key StateKey) (State[O], error) {
	if !m.initialized {
		return nil, fmt.Errorf("get state %q: %w", key, ErrNotInitialized)
	}
	s, ok := m.registry.Lookup(key)
	if !ok {
		return nil, fmt.Errorf("get state %q: %w", key, ErrNotFound)
	}
	return s, nil
}

// TryGetState returns the state registered under key, if any.
func (m *Machine[O]) TryGetState(key StateKey) (State[O], bool) {
	if !m.initialized {
		return nil, false
	}
	return m.registry.Lookup(key)
}

// GetState returns the registered state of type T. The state is looked up
// under KeyFor[T]; when that key holds something else, the first registered
// state assignable to T is returned.
//
//	die, err := fsmx.GetState[*Die](m)
func GetState[T State[O], O Owner](m *Machine[O]) (T, error) {
	_, s, err := entryOf[T](m)
	return s, err
}

// TryGetState is GetState reporting a miss as false.
func TryGetState[T State[O], O Owner](m *Machine[O]) (T, bool) {
	_, s, err := entryOf[T](m)
	return s, err == nil
}

// ChangeTo changes to the registered state of type T.
func ChangeTo[T State[O], O Owner](m *Machine[O]) error {
	e, _, err := entryOf[T](m)
	if err != nil {
		return err
	}
	return m.ChangeState(e.Key)
}

func entryOf[T State[O], O Owner](m *Machine[O]) (Entry[O], T, error) {
	var zero T
	key := KeyFor[T]()
	if !m.initialized {
		return Entry[O]{}, zero, fmt.Errorf("get state %q: %w", key, ErrNotInitialized)
	}
	if s, ok := m.registry.Lookup(key); ok {
		if v, ok := s.(T); ok {
			return Entry[O]{Key: key, State: s}, v, nil
		}
	}
	for _, e := range m.registry.entries {
		if v, ok := e.State.(T); ok {
			return e, v, nil
		}
	}
	return Entry[O]{}, zero, fmt.Errorf("get state %q: %w", key, ErrNotFound)
}
