package fsmx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Machine drives one owner through a set of mutually exclusive states.
//
// A Machine is not safe for concurrent use; every call is expected to come
// from the host loop. Transitions requested from inside OnEnter or OnExit are
// queued and run, in request order, once the running transition finished.
type Machine[O Owner] struct {
	id         string
	owner      O
	hasOwner   bool
	discovery  Discovery[O]
	registry   *Registry[O]
	blackboard *Blackboard
	logger     *slog.Logger
	baseLogger *slog.Logger
	observer   Observer
	now        func() time.Time

	initialized   bool
	current       State[O]
	currentKey    StateKey
	previousKey   StateKey
	transitioning bool
	pending       []StateKey
}

// New creates an uninitialized machine. Without WithDiscovery or WithStates
// the machine discovers no states and Initialize fails with ErrNotFound.
func New[O Owner](opts ...Option[O]) *Machine[O] {
	m := &Machine[O]{
		id:         uuid.NewString(),
		discovery:  List[O](),
		blackboard: NewBlackboard(),
		baseLogger: slog.Default(),
		observer:   NoopObserver{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.baseLogger.With(slog.String("machine", m.id))
	return m
}

// AttachOwner sets the owner driven by the machine. It may be called again
// to replace the owner until Initialize succeeds.
func (m *Machine[O]) AttachOwner(owner O) error {
	if isNil(owner) {
		return fmt.Errorf("attach owner: %w", ErrInvalidOwner)
	}
	if m.initialized {
		return fmt.Errorf("attach owner %q: %w", owner.Name(), ErrAlreadyInitialized)
	}
	m.owner = owner
	m.hasOwner = true
	m.logger = m.baseLogger.With(
		slog.String("machine", m.id),
		slog.String("owner", owner.Name()),
	)
	return nil
}

// Initialize runs discovery, registers the discovered states and enters the
// state registered under initial. A failed Initialize leaves the machine
// uninitialized.
func (m *Machine[O]) Initialize(initial StateKey) error {
	if m.initialized {
		return fmt.Errorf("initialize %q: %w", initial, ErrAlreadyInitialized)
	}
	if !m.hasOwner {
		return fmt.Errorf("initialize %q: owner not attached: %w", initial, ErrInvalidOwner)
	}

	entries, err := m.discovery.Discover()
	if err != nil {
		return fmt.Errorf("initialize %q: discovery: %w", initial, err)
	}

	reg := newRegistry(m)
	for i, e := range entries {
		if isNil(e.State) {
			return fmt.Errorf("initialize %q: entry %d: %w", initial, i, ErrNilState)
		}
		key := e.Key
		if key == "" {
			key = KeyOf(e.State)
		}
		// The first instance of the initial state wins.
		if key == initial {
			if existing, ok := reg.Lookup(key); ok {
				if !sameState(existing, e.State) {
					m.reportDuplicate(key, "kept first")
				}
				continue
			}
		}
		reg.register(key, e.State)
	}

	state, ok := reg.Lookup(initial)
	if !ok {
		return fmt.Errorf("initialize %q: %w", initial, ErrNotFound)
	}

	m.registry = reg
	m.initialized = true
	m.current = state
	m.currentKey = initial
	m.logger.Debug("machine initialized",
		slog.String("state", initial.String()),
		slog.Int("states", reg.Len()),
	)

	m.hooks(func() {
		state.OnEnter(m.owner, nil)
	})
	m.observer.OnTransition(m.record("", initial, true))
	m.drain()
	return nil
}

// ChangeState exits the active state and enters the one registered under
// key. Changing to the active state is a no-op.
func (m *Machine[O]) ChangeState(key StateKey) error {
	if !m.initialized {
		err := fmt.Errorf("change state %q: %w", key, ErrNotInitialized)
		m.observer.OnRejected(m.info(), key, err)
		return err
	}
	next, ok := m.registry.Lookup(key)
	if !ok {
		err := fmt.Errorf("change state %q: %w", key, ErrNotFound)
		m.observer.OnRejected(m.info(), key, err)
		return err
	}

	if m.transitioning {
		m.pending = append(m.pending, key)
		m.logger.Debug("transition queued",
			slog.String("to", key.String()),
			slog.Int("pending", len(m.pending)),
		)
		return nil
	}

	m.transition(key, next)
	m.drain()
	return nil
}

// TryChangeState is ChangeState reporting failure as false. A failed request
// leaves the machine unchanged and is logged: unknown keys at WARN, calls
// before Initialize at ERROR.
func (m *Machine[O]) TryChangeState(key StateKey) bool {
	if err := m.ChangeState(key); err != nil {
		level := slog.LevelWarn
		if errors.Is(err, ErrNotInitialized) {
			level = slog.LevelError
		}
		m.logger.Log(context.Background(), level, "state change skipped",
			slog.String("to", key.String()),
			slog.Any("error", err),
		)
		return false
	}
	return true
}

// Tick forwards to the active state's OnUpdate.
func (m *Machine[O]) Tick(dt time.Duration) error {
	if err := m.checkTick("tick", dt); err != nil {
		return err
	}
	key := m.currentKey
	if err := m.current.OnUpdate(m.owner, m, dt); err != nil {
		return fmt.Errorf("tick %q: %w", key, err)
	}
	return nil
}

// FixedTick forwards to the active state's OnFixedUpdate.
func (m *Machine[O]) FixedTick(dt time.Duration) error {
	if err := m.checkTick("fixed tick", dt); err != nil {
		return err
	}
	key := m.currentKey
	if err := m.current.OnFixedUpdate(m.owner, m, dt); err != nil {
		return fmt.Errorf("fixed tick %q: %w", key, err)
	}
	return nil
}

func (m *Machine[O]) checkTick(op string, dt time.Duration) error {
	if !m.initialized {
		return fmt.Errorf("%s: %w", op, ErrNotInitialized)
	}
	if dt < 0 {
		return fmt.Errorf("%s %v: %w", op, dt, ErrInvalidDelta)
	}
	return nil
}

// transition swaps the active state. The caller has validated key.
func (m *Machine[O]) transition(key StateKey, next State[O]) {
	if key == m.currentKey {
		return
	}
	prev, prevKey := m.current, m.currentKey

	m.hooks(func() {
		prev.OnExit(m.owner)
		m.current = next
		m.currentKey = key
		m.previousKey = prevKey
		next.OnEnter(m.owner, prev)
	})

	m.logger.Debug("state changed",
		slog.String("from", prevKey.String()),
		slog.String("to", key.String()),
	)
	m.observer.OnTransition(m.record(prevKey, key, false))
}

// hooks runs fn with reentrant transitions queued. When fn panics the queue
// is discarded so a recovered caller does not replay it on the next change.
func (m *Machine[O]) hooks(fn func()) {
	m.transitioning = true
	completed := false
	defer func() {
		m.transitioning = false
		if !completed {
			m.pending = nil
		}
	}()
	fn()
	completed = true
}

// drain runs the transitions queued by hooks.
func (m *Machine[O]) drain() {
	for len(m.pending) > 0 {
		key := m.pending[0]
		m.pending = m.pending[1:]
		next, _ := m.registry.Lookup(key)
		m.transition(key, next)
	}
}

func (m *Machine[O]) info() MachineInfo {
	info := MachineInfo{MachineID: m.id}
	if m.hasOwner {
		info.Owner = m.owner.Name()
	}
	return info
}

func (m *Machine[O]) record(from, to StateKey, initial bool) Transition {
	info := m.info()
	return Transition{
		MachineID: info.MachineID,
		Owner:     info.Owner,
		From:      from,
		To:        to,
		Initial:   initial,
		Timestamp: m.now(),
	}
}

// ID returns the machine instance id.
func (m *Machine[O]) ID() string {
	return m.id
}

// Owner returns the attached owner, or the zero value before AttachOwner.
func (m *Machine[O]) Owner() O {
	return m.owner
}

// Initialized reports whether Initialize succeeded.
func (m *Machine[O]) Initialized() bool {
	return m.initialized
}

// Current returns the active state, or nil before Initialize.
func (m *Machine[O]) Current() State[O] {
	return m.current
}

// CurrentKey returns the key of the active state.
func (m *Machine[O]) CurrentKey() StateKey {
	return m.currentKey
}

// PreviousKey returns the key of the state active before the last
// transition. It is empty until the first transition.
func (m *Machine[O]) PreviousKey() StateKey {
	return m.previousKey
}

// Registry returns the state registry, or nil before Initialize.
func (m *Machine[O]) Registry() *Registry[O] {
	return m.registry
}

// Blackboard returns the scratch storage shared by the machine's states.
func (m *Machine[O]) Blackboard() *Blackboard {
	return m.blackboard
}
