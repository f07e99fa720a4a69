// Package testutil provides recording states and owners for machine tests.
package testutil

import (
	"fmt"
	"sync"
	"time"

	"github.com/comalice/fsmx"
)

// Journal records hook calls in order.
type Journal struct {
	mu     sync.Mutex
	events []string
}

// Add appends a formatted entry.
func (j *Journal) Add(format string, args ...any) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, fmt.Sprintf(format, args...))
}

// Events returns a copy of the recorded entries.
func (j *Journal) Events() []string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]string(nil), j.events...)
}

// Reset drops all entries.
func (j *Journal) Reset() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = nil
}

// Owner is a minimal owner with a health payload.
type Owner struct {
	ID          string
	Health      int
	Initialized bool
	Destroyed   bool
	Destroys    int
}

// NewOwner creates an owner with the given name and health.
func NewOwner(name string, health int) *Owner {
	return &Owner{ID: name, Health: health}
}

func (o *Owner) Name() string { return o.ID }

func (o *Owner) Initialize() error {
	o.Initialized = true
	return nil
}

func (o *Owner) Destroy() {
	o.Destroyed = true
	o.Destroys++
}

// Probe is a state that records its hooks into a Journal. Entries look like
// "enter A <- B", "exit A", "update A 16ms" and "fixed A 20ms"; the initial
// enter has no "<-" part.
type Probe[O fsmx.Owner] struct {
	fsmx.BaseState[O]

	Key     fsmx.StateKey
	Journal *Journal

	// Optional behaviour run after the hook is recorded.
	Enter  func(owner O, previous fsmx.State[O])
	Exit   func(owner O)
	Update func(owner O, m *fsmx.Machine[O], dt time.Duration) error
	Fixed  func(owner O, m *fsmx.Machine[O], dt time.Duration) error

	Enters       int
	Exits        int
	Updates      int
	FixedUpdates int
	Previous     []fsmx.State[O]
}

// NewProbe creates a probe registered under key. A nil journal gets a fresh
// one.
func NewProbe[O fsmx.Owner](key fsmx.StateKey, j *Journal) *Probe[O] {
	if j == nil {
		j = &Journal{}
	}
	return &Probe[O]{Key: key, Journal: j}
}

func (p *Probe[O]) StateKey() fsmx.StateKey {
	return p.Key
}

func (p *Probe[O]) OnEnter(owner O, previous fsmx.State[O]) {
	p.Enters++
	p.Previous = append(p.Previous, previous)
	if previous == nil {
		p.Journal.Add("enter %s", p.Key)
	} else {
		p.Journal.Add("enter %s <- %s", p.Key, fsmx.KeyOf(previous))
	}
	if p.Enter != nil {
		p.Enter(owner, previous)
	}
}

func (p *Probe[O]) OnExit(owner O) {
	p.Exits++
	p.Journal.Add("exit %s", p.Key)
	if p.Exit != nil {
		p.Exit(owner)
	}
}

func (p *Probe[O]) OnUpdate(owner O, m *fsmx.Machine[O], dt time.Duration) error {
	p.Updates++
	p.Journal.Add("update %s %v", p.Key, dt)
	if p.Update != nil {
		return p.Update(owner, m, dt)
	}
	return nil
}

func (p *Probe[O]) OnFixedUpdate(owner O, m *fsmx.Machine[O], dt time.Duration) error {
	p.FixedUpdates++
	p.Journal.Add("fixed %s %v", p.Key, dt)
	if p.Fixed != nil {
		return p.Fixed(owner, m, dt)
	}
	return nil
}

// Probes creates one probe per key sharing journal j and returns them with
// their states ready for fsmx.WithStates.
func Probes[O fsmx.Owner](j *Journal, keys ...fsmx.StateKey) ([]*Probe[O], []fsmx.State[O]) {
	probes := make([]*Probe[O], len(keys))
	states := make([]fsmx.State[O], len(keys))
	for i, k := range keys {
		probes[i] = NewProbe[O](k, j)
		states[i] = probes[i]
	}
	return probes, states
}
