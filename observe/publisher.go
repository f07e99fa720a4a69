package observe

import (
	"sync"
	"sync/atomic"

	"github.com/comalice/fsmx"
)

// Kind tells which observer callback produced an Event.
type Kind string

const (
	KindTransition Kind = "transition"
	KindRejected   Kind = "rejected"
	KindDuplicate  Kind = "duplicate"
)

// Event bundles one observer callback with its machine metadata for
// publishing.
type Event struct {
	Kind       Kind
	Machine    fsmx.MachineInfo
	Transition fsmx.Transition // set for KindTransition
	Key        fsmx.StateKey   // requested or duplicated key
	Err        error           // set for KindRejected
}

// ChannelPublisher forwards observer callbacks to a Go channel.
// Non-blocking publish with drop on backpressure.
type ChannelPublisher struct {
	mu      sync.RWMutex
	ch      chan<- Event
	closed  bool
	dropped atomic.Int64
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(ch chan<- Event) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

func (p *ChannelPublisher) OnTransition(t fsmx.Transition) {
	p.publish(Event{Kind: KindTransition, Machine: t.Info(), Transition: t, Key: t.To})
}

func (p *ChannelPublisher) OnRejected(info fsmx.MachineInfo, key fsmx.StateKey, err error) {
	p.publish(Event{Kind: KindRejected, Machine: info, Key: key, Err: err})
}

func (p *ChannelPublisher) OnDuplicate(info fsmx.MachineInfo, key fsmx.StateKey) {
	p.publish(Event{Kind: KindDuplicate, Machine: info, Key: key})
}

func (p *ChannelPublisher) publish(e Event) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.dropped.Add(1)
		return
	}
	select {
	case p.ch <- e:
	default:
		p.dropped.Add(1) // Non-blocking drop
	}
}

// Dropped returns the number of events lost to backpressure or sent after
// Close.
func (p *ChannelPublisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close closes the output channel. Later events are dropped.
func (p *ChannelPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.ch)
	}
	return nil
}
