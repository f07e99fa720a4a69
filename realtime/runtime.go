package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/comalice/fsmx"
)

var (
	ErrQueueFull  = errors.New("request queue full")
	ErrRunning    = errors.New("loop already running")
	ErrNotRunning = errors.New("loop not running")
)

// Config configures the loop.
type Config struct {
	TickRate      time.Duration // Wall-clock frame period used by Start (default: 16.67ms)
	FixedStep     time.Duration // Fixed-update step (default: 20ms)
	MaxFixedSteps int           // Fixed updates allowed per frame (default: 5)
	MaxRequests   int           // Request queue capacity (default: 1000)
}

func (c Config) withDefaults() Config {
	if c.TickRate <= 0 {
		c.TickRate = 16667 * time.Microsecond
	}
	if c.FixedStep <= 0 {
		c.FixedStep = 20 * time.Millisecond
	}
	if c.MaxFixedSteps <= 0 {
		c.MaxFixedSteps = 5
	}
	if c.MaxRequests <= 0 {
		c.MaxRequests = 1000
	}
	return c
}

// Option configures a Loop.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger for frame diagnostics. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Loop drives one initialized machine frame by frame.
type Loop[O fsmx.Owner] struct {
	machine *fsmx.Machine[O]
	cfg     Config
	logger  *slog.Logger

	// Serializes frames between Step and the ticker goroutine.
	frameMu     sync.Mutex
	accumulator time.Duration

	// Request queue and counters.
	mu          sync.Mutex
	requests    []Request
	sequenceNum uint64
	frameNum    uint64
	lastErr     error

	// Control
	cancel  context.CancelFunc
	stopped chan struct{}
}

// New creates a loop for m. The machine must be initialized before the
// first frame.
func New[O fsmx.Owner](m *fsmx.Machine[O], cfg Config, opts ...Option) *Loop[O] {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	cfg = cfg.withDefaults()
	return &Loop[O]{
		machine:  m,
		cfg:      cfg,
		logger:   o.logger.With(slog.String("machine", m.ID())),
		requests: make([]Request, 0, cfg.MaxRequests),
	}
}

// Config returns the effective configuration.
func (l *Loop[O]) Config() Config {
	return l.cfg
}

// Start runs frames at the configured tick rate until ctx is done or Stop is
// called.
func (l *Loop[O]) Start(ctx context.Context) error {
	if !l.machine.Initialized() {
		return fmt.Errorf("start loop: %w", fsmx.ErrNotInitialized)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		return ErrRunning
	}
	ctx, l.cancel = context.WithCancel(ctx)
	l.stopped = make(chan struct{})

	go l.tickLoop(ctx, l.stopped)
	return nil
}

// Stop halts a started loop and waits for the running frame to finish.
func (l *Loop[O]) Stop() error {
	l.mu.Lock()
	cancel, stopped := l.cancel, l.stopped
	l.cancel = nil
	l.mu.Unlock()

	if cancel == nil {
		return ErrNotRunning
	}
	cancel()
	<-stopped
	return nil
}

func (l *Loop[O]) tickLoop(ctx context.Context, stopped chan struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(l.cfg.TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.Step(l.cfg.TickRate); err != nil {
				l.logger.Error("frame failed", slog.Any("error", err))
			}
		}
	}
}

// Request queues a state change for the start of the next frame. It is safe
// to call from any goroutine.
func (l *Loop[O]) Request(key fsmx.StateKey, priority int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.requests) >= l.cfg.MaxRequests {
		return fmt.Errorf("request %q: %w", key, ErrQueueFull)
	}
	l.requests = append(l.requests, Request{
		Key:         key,
		Priority:    priority,
		SequenceNum: l.sequenceNum,
	})
	l.sequenceNum++
	return nil
}

// Pending returns the number of queued requests.
func (l *Loop[O]) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.requests)
}

// Frame returns the number of completed frames.
func (l *Loop[O]) Frame() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frameNum
}

// Err returns the error of the most recent failed frame.
func (l *Loop[O]) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastErr
}
