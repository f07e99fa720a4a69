// Package fsmx is an owner-driven finite-state-machine runtime.
//
// A Machine drives one Owner (a character, a door, a connection) through a set
// of mutually exclusive State objects. Exactly one state is active at a time;
// the host loop calls Tick once per frame and FixedTick once per fixed step,
// and the machine forwards both to the active state.
//
// # Example Usage
//
//	type Idle struct{ fsmx.BaseState[*Hero] }
//
//	func (s *Idle) OnEnter(h *Hero, prev fsmx.State[*Hero]) {}
//	func (s *Idle) OnUpdate(h *Hero, m *fsmx.Machine[*Hero], dt time.Duration) error {
//		if h.Hit {
//			return fsmx.ChangeTo[*Hurt](m)
//		}
//		return nil
//	}
//
//	m := fsmx.New(fsmx.WithStates[*Hero](&Idle{}, &Hurt{}))
//	_ = m.AttachOwner(hero)
//	_ = m.Initialize(fsmx.KeyFor[*Idle]())
//	_ = m.Tick(16 * time.Millisecond)
//
// # Registration
//
// States are registered once, during Initialize, from a Discovery strategy:
//   - List / WithStates: explicit, already constructed instances
//   - Catalog: a table of constructors keyed by StateKey, optionally narrowed
//     by a YAML file (see package config)
//
// Keys default to the concrete type name (KeyOf, KeyFor); a state may pick
// its own by implementing Keyed. Instances are reused across transitions.
//
// # Transition Rules
//
//  1. ChangeState to the active key does nothing.
//  2. Otherwise OnExit(old) runs, then OnEnter(new, old).
//  3. Transitions requested inside OnEnter/OnExit are queued and run in
//     request order after the current one.
//  4. Unknown keys fail with ErrNotFound and change nothing; TryChangeState
//     reports them as false.
//
// The machine is single-threaded. Package realtime provides a host loop
// that owns a machine and accepts transition requests from other goroutines.
package fsmx
