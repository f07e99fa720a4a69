package fsmx

import "time"

// MachineInfo identifies the machine an observer callback comes from.
type MachineInfo struct {
	MachineID string `json:"machineID" yaml:"machineID"`
	Owner     string `json:"owner" yaml:"owner"`
}

// Transition describes one activation of a state. From is empty for the
// initial state.
type Transition struct {
	MachineID string    `json:"machineID" yaml:"machineID"`
	Owner     string    `json:"owner" yaml:"owner"`
	From      StateKey  `json:"from,omitempty" yaml:"from,omitempty"`
	To        StateKey  `json:"to" yaml:"to"`
	Initial   bool      `json:"initial,omitempty" yaml:"initial,omitempty"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// Info returns the machine identity of t.
func (t Transition) Info() MachineInfo {
	return MachineInfo{MachineID: t.MachineID, Owner: t.Owner}
}

// Observer receives machine lifecycle callbacks. Callbacks run synchronously
// on the caller of the machine operation and should be fast.
type Observer interface {
	// OnTransition is called after the target's OnEnter returned.
	OnTransition(t Transition)

	// OnRejected is called when a transition request did not happen because
	// of err (TryChangeState misses and failed ChangeState calls).
	OnRejected(info MachineInfo, key StateKey, err error)

	// OnDuplicate is called when discovery yields a second instance for key.
	OnDuplicate(info MachineInfo, key StateKey)
}

// NoopObserver ignores every callback.
type NoopObserver struct{}

func (NoopObserver) OnTransition(Transition)                 {}
func (NoopObserver) OnRejected(MachineInfo, StateKey, error) {}
func (NoopObserver) OnDuplicate(MachineInfo, StateKey)       {}

// CompositeObserver fans callbacks out to several observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver returns an Observer forwarding to every non-nil
// observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	switch len(filtered) {
	case 0:
		return NoopObserver{}
	case 1:
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnTransition(t Transition) {
	for _, o := range c.observers {
		o.OnTransition(t)
	}
}

func (c *CompositeObserver) OnRejected(info MachineInfo, key StateKey, err error) {
	for _, o := range c.observers {
		o.OnRejected(info, key, err)
	}
}

func (c *CompositeObserver) OnDuplicate(info MachineInfo, key StateKey) {
	for _, o := range c.observers {
		o.OnDuplicate(info, key)
	}
}
