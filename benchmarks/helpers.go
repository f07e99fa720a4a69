// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/comalice/fsmx"
	"github.com/comalice/fsmx/config"
)

// Actor is the owner used by the benchmarks.
type Actor struct {
	ID    string
	Steps int
}

func (a *Actor) Name() string      { return a.ID }
func (a *Actor) Initialize() error { return nil }
func (a *Actor) Destroy()          {}

// Ring is a state that hands over to Next on every update when Advance is
// set. Enters counts activations.
type Ring struct {
	fsmx.BaseState[*Actor]
	Next    fsmx.StateKey
	Advance bool
	Enters  int
}

func (s *Ring) OnEnter(a *Actor, _ fsmx.State[*Actor]) {
	s.Enters++
	a.Steps++
}

func (s *Ring) OnUpdate(_ *Actor, m *fsmx.Machine[*Actor], _ time.Duration) error {
	if s.Advance {
		return m.ChangeState(s.Next)
	}
	return nil
}

// RingKey returns the key of the i-th ring state.
func RingKey(i int) fsmx.StateKey {
	return fsmx.StateKey(fmt.Sprintf("s%d", i))
}

// GenRingCatalog creates n ring states s0..s(n-1), each pointing at the next.
func GenRingCatalog(n int, advance bool) *fsmx.Catalog[*Actor] {
	if n < 1 {
		n = 1
	}
	c := fsmx.NewCatalog[*Actor]()
	for i := 0; i < n; i++ {
		next := RingKey((i + 1) % n)
		c.MustAdd(RingKey(i), func() fsmx.State[*Actor] {
			return &Ring{Next: next, Advance: advance}
		})
	}
	return c
}

// GenRingConfig creates the machine table for a ring of n states.
func GenRingConfig(n int) config.MachineConfig {
	if n < 1 {
		n = 1
	}
	c := config.MachineConfig{
		ID:      fmt.Sprintf("ring_%d", n),
		Initial: string(RingKey(0)),
		States:  make([]string, n),
	}
	for i := 0; i < n; i++ {
		c.States[i] = string(RingKey(i))
	}
	return c
}

// GenConfigYAML generates YAML bytes for a ring table of n states.
func GenConfigYAML(n int) []byte {
	c := GenRingConfig(n)
	data, err := yaml.Marshal(&c)
	if err != nil {
		panic(err)
	}
	return data
}

// NewRingMachine builds and initializes a machine over a ring of n states.
func NewRingMachine(n int, advance bool, opts ...fsmx.Option[*Actor]) *fsmx.Machine[*Actor] {
	c := GenRingCatalog(n, advance)
	opts = append([]fsmx.Option[*Actor]{fsmx.WithDiscovery[*Actor](c)}, opts...)
	m := fsmx.New(opts...)
	if err := m.AttachOwner(&Actor{ID: fmt.Sprintf("actor_%d", n)}); err != nil {
		panic(err)
	}
	if err := m.Initialize(RingKey(0)); err != nil {
		panic(err)
	}
	return m
}
