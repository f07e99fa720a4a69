package benchmarks

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/comalice/fsmx"
	"github.com/comalice/fsmx/realtime"
)

func discardLogger() fsmx.Option[*Actor] {
	return fsmx.WithLogger[*Actor](slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// BenchmarkLoopStep measures one frame with fixed updates and no requests.
func BenchmarkLoopStep(b *testing.B) {
	m := NewRingMachine(4, false)
	loop := realtime.New(m, realtime.Config{FixedStep: 10 * time.Millisecond})
	frame := 16667 * time.Microsecond
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := loop.Step(frame); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkLoopRequests measures a frame applying a batch of prioritized
// requests.
func BenchmarkLoopRequests(b *testing.B) {
	for _, batch := range []int{1, 10, 100} {
		b.Run(RingKey(batch).String(), func(b *testing.B) {
			m := NewRingMachine(8, false)
			loop := realtime.New(m, realtime.Config{MaxRequests: batch})
			b.ResetTimer()
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				for j := 0; j < batch; j++ {
					if err := loop.Request(RingKey(j%8), j%3); err != nil {
						b.Fatal(err)
					}
				}
				if err := loop.Step(time.Millisecond); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkLoopQueueCapacity fills the request queue until backpressure.
func BenchmarkLoopQueueCapacity(b *testing.B) {
	m := NewRingMachine(2, false)
	loop := realtime.New(m, realtime.Config{MaxRequests: 1000})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		queued := 0
		for loop.Request(RingKey(queued%2), 0) == nil {
			queued++
		}
		if queued != 1000 {
			b.Fatalf("expected 1000 queued requests, got %d", queued)
		}
		if err := loop.Step(0); err != nil {
			b.Fatal(err)
		}
	}
}
