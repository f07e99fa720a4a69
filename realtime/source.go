package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/comalice/fsmx"
)

// Source supplies state change requests from outside the loop.
type Source interface {
	Requests() <-chan Request
}

// ChannelSource is a Source backed by a caller-owned channel.
type ChannelSource struct {
	ch chan Request
}

// NewChannelSource creates a ChannelSource with the given channel. The
// channel should be buffered if backpressure handling is needed.
func NewChannelSource(ch chan Request) *ChannelSource {
	return &ChannelSource{ch: ch}
}

// Requests returns the receive-only channel for requests.
func (s *ChannelSource) Requests() <-chan Request {
	return s.ch
}

// TimerSource emits the same request every period. Useful for periodic
// stimuli such as damage-over-time or heartbeats.
type TimerSource struct {
	ch       chan Request
	key      fsmx.StateKey
	priority int
	ticker   *time.Ticker
	stop     chan struct{}
	once     sync.Once
}

// NewTimerSource creates a TimerSource that emits a request for key every d.
func NewTimerSource(key fsmx.StateKey, priority int, d time.Duration) *TimerSource {
	t := &TimerSource{
		ch:       make(chan Request, 10),
		key:      key,
		priority: priority,
		ticker:   time.NewTicker(d),
		stop:     make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *TimerSource) run() {
	for {
		select {
		case <-t.ticker.C:
			select {
			case t.ch <- Request{Key: t.key, Priority: t.priority}:
			default:
				// drop if full
			}
		case <-t.stop:
			t.ticker.Stop()
			close(t.ch)
			return
		}
	}
}

// Requests returns the request channel. It is closed by Stop.
func (t *TimerSource) Requests() <-chan Request {
	return t.ch
}

// Stop stops the ticker and closes the channel. It is safe to call twice.
func (t *TimerSource) Stop() {
	t.once.Do(func() { close(t.stop) })
}

// Feed queues every request from src until src is closed or ctx is done.
// Requests rejected by a full queue are logged and dropped; sequence numbers
// are assigned on arrival.
func (l *Loop[O]) Feed(ctx context.Context, src Source) error {
	requests := src.Requests()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r, ok := <-requests:
			if !ok {
				return nil
			}
			if err := l.Request(r.Key, r.Priority); err != nil {
				l.logger.Warn("request dropped",
					slog.String("to", r.Key.String()),
					slog.Any("error", err),
				)
			}
		}
	}
}
