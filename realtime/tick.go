package realtime

import (
	"fmt"
	"log/slog"
	"time"
)

// Step runs one frame of length frame:
//  1. queued requests are applied in priority order
//  2. FixedTick runs once per accumulated FixedStep, at most MaxFixedSteps times
//  3. Tick runs with the full frame length
//
// A panic inside a state hook is recovered and returned as an error.
func (l *Loop[O]) Step(frame time.Duration) (err error) {
	if frame < 0 {
		frame = 0
	}

	l.frameMu.Lock()
	defer l.frameMu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("frame %d: panic: %v", l.Frame(), r)
		}
		l.finishFrame(err)
	}()

	l.applyRequests(l.collectRequests())

	if err := l.fixedSteps(frame); err != nil {
		return err
	}
	return l.machine.Tick(frame)
}

// collectRequests atomically retrieves and clears the request queue.
func (l *Loop[O]) collectRequests() []Request {
	l.mu.Lock()
	defer l.mu.Unlock()

	requests := l.requests
	l.requests = make([]Request, 0, cap(l.requests))
	return requests
}

// applyRequests runs the queued requests in deterministic order. Requests
// for unknown keys are dropped and logged by the machine.
func (l *Loop[O]) applyRequests(requests []Request) {
	sortRequests(requests)
	for _, r := range requests {
		l.machine.TryChangeState(r.Key)
	}
}

func (l *Loop[O]) fixedSteps(frame time.Duration) error {
	l.accumulator += frame
	steps := 0
	for l.accumulator >= l.cfg.FixedStep {
		if steps == l.cfg.MaxFixedSteps {
			dropped := l.accumulator / l.cfg.FixedStep
			l.accumulator -= dropped * l.cfg.FixedStep
			l.logger.Warn("fixed steps dropped",
				slog.Int64("dropped", int64(dropped)),
				slog.Int("max", l.cfg.MaxFixedSteps),
			)
			break
		}
		if err := l.machine.FixedTick(l.cfg.FixedStep); err != nil {
			return err
		}
		l.accumulator -= l.cfg.FixedStep
		steps++
	}
	return nil
}

func (l *Loop[O]) finishFrame(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frameNum++
	if err != nil {
		l.lastErr = err
	}
}
