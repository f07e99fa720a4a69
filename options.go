package fsmx

import "log/slog"

// Option configures a Machine at construction.
type Option[O Owner] func(*Machine[O])

// WithID replaces the generated machine id.
func WithID[O Owner](id string) Option[O] {
	return func(m *Machine[O]) {
		if id != "" {
			m.id = id
		}
	}
}

// WithDiscovery sets the strategy Initialize uses to find states.
func WithDiscovery[O Owner](d Discovery[O]) Option[O] {
	return func(m *Machine[O]) {
		if d != nil {
			m.discovery = d
		}
	}
}

// WithStates registers an explicit list of states.
func WithStates[O Owner](states ...State[O]) Option[O] {
	return WithDiscovery(List(states...))
}

// WithLogger sets the logger used for diagnostics. Defaults to slog.Default().
func WithLogger[O Owner](l *slog.Logger) Option[O] {
	return func(m *Machine[O]) {
		if l != nil {
			m.baseLogger = l
		}
	}
}

// WithObserver sets the observers notified of transitions and diagnostics.
func WithObserver[O Owner](obs ...Observer) Option[O] {
	return func(m *Machine[O]) {
		m.observer = NewCompositeObserver(obs...)
	}
}

// WithBlackboard shares an existing blackboard with the machine.
func WithBlackboard[O Owner](b *Blackboard) Option[O] {
	return func(m *Machine[O]) {
		if b != nil {
			m.blackboard = b
		}
	}
}
