// Package realtime provides a frame-based host loop for fsmx machines.
//
// A Loop owns the cadence of one initialized machine:
//   - State change requests are batched and applied at frame boundaries
//   - Deterministic request ordering via priority and sequence numbers
//   - Fixed time-step updates through an accumulator (e.g., 50 Hz physics)
//   - One variable update per frame with the frame length
//
// # Example Usage
//
//	m := fsmx.New(fsmx.WithStates[*Hero](&Idle{}, &Walk{}))
//	m.AttachOwner(hero)
//	m.Initialize(fsmx.KeyFor[*Idle]())
//
//	loop := realtime.New(m, realtime.Config{
//		TickRate:  16667 * time.Microsecond, // 60 FPS
//		FixedStep: 20 * time.Millisecond,    // 50 Hz
//	})
//	loop.Start(ctx)
//	defer loop.Stop()
//	loop.Request(fsmx.KeyFor[*Walk](), 0)
//
// Tests and replays call Step directly instead of Start, which makes every
// run reproducible for the same sequence of Request and Step calls.
//
// # Frame Order
//
// Each frame performs, in order:
//  1. Apply queued requests (higher priority first, then FIFO)
//  2. FixedTick once per accumulated FixedStep, capped by MaxFixedSteps
//  3. Tick with the frame length
//
// When the cap is hit the remaining backlog is dropped, so a stalled frame
// does not cause a spiral of catch-up updates.
//
// # Concurrency
//
// The machine itself is not safe for concurrent use. Once a loop is started
// only the loop goroutine may touch the machine; other goroutines go through
// Request. Step and the ticker goroutine are serialized.
package realtime
