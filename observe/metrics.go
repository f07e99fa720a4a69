package observe

import (
	"sync"
	"sync/atomic"

	"github.com/comalice/fsmx"
)

// Metrics collects simple counters across any number of machines. It
// implements fsmx.Observer and can be combined with LoggingObserver via
// fsmx.WithObserver.
type Metrics struct {
	machinesStarted atomic.Int64
	transitions     atomic.Int64
	rejected        atomic.Int64
	duplicates      atomic.Int64

	mu      sync.Mutex
	entries map[fsmx.StateKey]int64
}

// MetricsSnapshot is an immutable snapshot of Metrics.
type MetricsSnapshot struct {
	MachinesStarted int64
	Transitions     int64
	Rejected        int64
	Duplicates      int64

	// Entries counts activations per state, initial entries included.
	Entries map[fsmx.StateKey]int64
}

func (m *Metrics) OnTransition(t fsmx.Transition) {
	if t.Initial {
		m.machinesStarted.Add(1)
	} else {
		m.transitions.Add(1)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.entries == nil {
		m.entries = make(map[fsmx.StateKey]int64)
	}
	m.entries[t.To]++
}

func (m *Metrics) OnRejected(fsmx.MachineInfo, fsmx.StateKey, error) {
	m.rejected.Add(1)
}

func (m *Metrics) OnDuplicate(fsmx.MachineInfo, fsmx.StateKey) {
	m.duplicates.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	entries := make(map[fsmx.StateKey]int64, len(m.entries))
	for k, v := range m.entries {
		entries[k] = v
	}
	m.mu.Unlock()

	return MetricsSnapshot{
		MachinesStarted: m.machinesStarted.Load(),
		Transitions:     m.transitions.Load(),
		Rejected:        m.rejected.Load(),
		Duplicates:      m.duplicates.Load(),
		Entries:         entries,
	}
}
